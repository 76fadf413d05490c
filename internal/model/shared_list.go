package model

import "time"

type SharedList struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Creator       UserRef    `json:"creator"`
	Collaborators []UserRef  `json:"collaborators"`
	Items         []ListItem `json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CanEdit reports whether the user created the list or collaborates on it.
func (l *SharedList) CanEdit(userID int64) bool {
	if l.Creator.ID == userID {
		return true
	}
	for _, u := range l.Collaborators {
		if u.ID == userID {
			return true
		}
	}
	return false
}

type ListItem struct {
	ID        int64      `json:"id"`
	ListID    int64      `json:"list_id"`
	Text      string     `json:"text"`
	DueAt     *time.Time `json:"due_at"`
	Completed bool       `json:"completed"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}
