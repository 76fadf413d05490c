package model

import "time"

type CalendarEvent struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Creator      UserRef   `json:"creator"`
	Participants []UserRef `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanView reports whether the user created or participates in the event.
func (e *CalendarEvent) CanView(userID int64) bool {
	if e.Creator.ID == userID {
		return true
	}
	for _, u := range e.Participants {
		if u.ID == userID {
			return true
		}
	}
	return false
}
