package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Completed   bool       `json:"completed"`
	Owner       UserRef    `json:"owner"`
	SharedWith  []UserRef  `json:"shared_with"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CanView reports whether the user owns the task or has it shared with them.
func (t *Task) CanView(userID int64) bool {
	if t.Owner.ID == userID {
		return true
	}
	for _, u := range t.SharedWith {
		if u.ID == userID {
			return true
		}
	}
	return false
}
