package store

import (
	"context"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

// ReminderSource exposes the read queries the reminder engine scans with.
type ReminderSource struct {
	tasks  *TaskStore
	lists  *ListStore
	events *EventStore
}

func NewReminderSource(tasks *TaskStore, lists *ListStore, events *EventStore) *ReminderSource {
	return &ReminderSource{tasks: tasks, lists: lists, events: events}
}

func (s *ReminderSource) TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	return s.tasks.TasksDueBetween(ctx, start, end)
}

func (s *ReminderSource) ListsWithItemsDueBetween(ctx context.Context, start, end time.Time) ([]model.SharedList, error) {
	return s.lists.ListsWithItemsDueBetween(ctx, start, end)
}

func (s *ReminderSource) EventsStartingBetween(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	return s.events.EventsStartingBetween(ctx, start, end)
}

func (s *ReminderSource) TasksDueToday(ctx context.Context, now time.Time) ([]model.Task, error) {
	return s.tasks.TasksDueToday(ctx, now)
}

func (s *ReminderSource) EventsToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	return s.events.EventsToday(ctx, now)
}
