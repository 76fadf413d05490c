package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskSelect = `SELECT t.id, t.title, t.description, t.due_at, t.completed, t.created_at, t.updated_at,
	u.id, u.name, u.email
	FROM tasks t
	JOIN users u ON u.id = t.owner_id`

const taskSharesQuery = `SELECT ts.task_id, u.id, u.name, u.email
	FROM task_shares ts
	JOIN users u ON u.id = ts.user_id
	WHERE ts.task_id IN (%s)
	ORDER BY u.name ASC`

func scanTask(row scanner) (*model.Task, error) {
	var t model.Task
	var dueAt sql.NullTime
	var completed int
	err := row.Scan(&t.ID, &t.Title, &t.Description, &dueAt, &completed, &t.CreatedAt, &t.UpdatedAt,
		&t.Owner.ID, &t.Owner.Name, &t.Owner.Email)
	if err != nil {
		return nil, err
	}
	t.DueAt = timePtr(dueAt)
	t.Completed = completed != 0
	return &t, nil
}

// queryTasks runs a task query and populates shared users. Rows are fully
// drained before the share lookup so a single-connection pool never blocks.
func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	shares, err := loadMembers(ctx, s.db, taskSharesQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("load task shares: %w", err)
	}
	for i := range tasks {
		tasks[i].SharedWith = shares[tasks[i].ID]
	}
	return tasks, nil
}

func (s *TaskStore) Create(ctx context.Context, ownerID int64, title, description string, dueAt *time.Time) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (owner_id, title, description, due_at) VALUES (?, ?, ?, ?)`,
		ownerID, title, description, nullTime(dueAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	tasks, err := s.queryTasks(ctx, taskSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// ListForUser returns tasks the user owns or that are shared with them.
func (s *TaskStore) ListForUser(ctx context.Context, userID int64) ([]model.Task, error) {
	tasks, err := s.queryTasks(ctx,
		taskSelect+` WHERE t.owner_id = ? OR t.id IN (SELECT task_id FROM task_shares WHERE user_id = ?)
		 ORDER BY t.completed ASC, t.due_at IS NULL, t.due_at ASC, t.id ASC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Update(ctx context.Context, id int64, title, description string, dueAt *time.Time) (*model.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, nullTime(dueAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) SetCompleted(ctx context.Context, id int64, completed bool) (*model.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(completed), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set task completed: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) Share(ctx context.Context, taskID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_shares (task_id, user_id) VALUES (?, ?)`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("share task: %w", err)
	}
	return nil
}

func (s *TaskStore) Unshare(ctx context.Context, taskID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM task_shares WHERE task_id = ? AND user_id = ?`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("unshare task: %w", err)
	}
	return nil
}

// TasksDueBetween returns incomplete tasks with due_at in [start, end).
func (s *TaskStore) TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	tasks, err := s.queryTasks(ctx,
		taskSelect+` WHERE t.completed = 0 AND t.due_at >= ? AND t.due_at < ? ORDER BY t.due_at ASC, t.id ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks due between: %w", err)
	}
	return tasks, nil
}

// TasksDueToday returns incomplete tasks due on the calendar day containing
// now, in now's location.
func (s *TaskStore) TasksDueToday(ctx context.Context, now time.Time) ([]model.Task, error) {
	start, end := DayBounds(now)
	return s.TasksDueBetween(ctx, start, end)
}
