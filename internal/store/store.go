package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

type scanner interface {
	Scan(...any) error
}

// nullTime converts an optional timestamp to its stored form. Stored
// timestamps are always UTC so range comparisons stay lexical.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// inClause returns "?, ?, ?" and the matching args for an IN (...) filter.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// loadMembers runs a two-column (owner id, user) join and groups user refs by
// the first column. The query must select: parent_id, u.id, u.name, u.email
// and take the IN placeholders produced by inClause.
func loadMembers(ctx context.Context, db *sql.DB, query string, ids []int64) (map[int64][]model.UserRef, error) {
	members := make(map[int64][]model.UserRef)
	if len(ids) == 0 {
		return members, nil
	}

	placeholders, args := inClause(ids)
	rows, err := db.QueryContext(ctx, fmt.Sprintf(query, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID int64
		var u model.UserRef
		if err := rows.Scan(&parentID, &u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		members[parentID] = append(members[parentID], u)
	}
	return members, rows.Err()
}

// DayBounds returns [midnight, next midnight) of the day containing t, in t's
// location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
