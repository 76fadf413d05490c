package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventSelect = `SELECT e.id, e.title, e.description, e.location, e.start_time, e.end_time, e.created_at, e.updated_at,
	u.id, u.name, u.email
	FROM calendar_events e
	JOIN users u ON u.id = e.creator_id`

const eventParticipantsQuery = `SELECT ep.event_id, u.id, u.name, u.email
	FROM event_participants ep
	JOIN users u ON u.id = ep.user_id
	WHERE ep.event_id IN (%s)
	ORDER BY u.name ASC`

func scanEvent(row scanner) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt,
		&e.Creator.ID, &e.Creator.Name, &e.Creator.Email)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventStore) queryEvents(ctx context.Context, query string, args ...any) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	participants, err := loadMembers(ctx, s.db, eventParticipantsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	for i := range events {
		events[i].Participants = participants[events[i].ID]
	}
	return events, nil
}

func (s *EventStore) Create(ctx context.Context, creatorID int64, title, description, location string, startTime, endTime time.Time, participantIDs []int64) (*model.CalendarEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO calendar_events (creator_id, title, description, location, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		creatorID, title, description, location, startTime.UTC(), endTime.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceParticipants(ctx, tx, id, participantIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *EventStore) GetByID(ctx context.Context, id int64) (*model.CalendarEvent, error) {
	events, err := s.queryEvents(ctx, eventSelect+` WHERE e.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query calendar event: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// ListByDateRange returns events visible to the user that overlap [start, end).
func (s *EventStore) ListByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CalendarEvent, error) {
	events, err := s.queryEvents(ctx,
		eventSelect+` WHERE e.start_time < ? AND e.end_time > ?
		 AND (e.creator_id = ? OR e.id IN (SELECT event_id FROM event_participants WHERE user_id = ?))
		 ORDER BY e.start_time ASC`,
		end.UTC(), start.UTC(), userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	return events, nil
}

func (s *EventStore) Update(ctx context.Context, id int64, title, description, location string, startTime, endTime time.Time, participantIDs []int64) (*model.CalendarEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE calendar_events
		 SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, description, location, startTime.UTC(), endTime.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}

	if err := replaceParticipants(ctx, tx, id, participantIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *EventStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

// EventsStartingBetween returns events whose start_time is in [start, end).
func (s *EventStore) EventsStartingBetween(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	events, err := s.queryEvents(ctx,
		eventSelect+` WHERE e.start_time >= ? AND e.start_time < ? ORDER BY e.start_time ASC, e.id ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events starting between: %w", err)
	}
	return events, nil
}

// EventsToday returns events starting on the calendar day containing now,
// in now's location.
func (s *EventStore) EventsToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	start, end := DayBounds(now)
	return s.EventsStartingBetween(ctx, start, end)
}

func replaceParticipants(ctx context.Context, tx *sql.Tx, eventID int64, userIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_participants (event_id, user_id) VALUES (?, ?)`,
			eventID, uid,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}
