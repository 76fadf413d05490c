package model

import "time"

// Notification type constants
const (
	NotifTypeFriendRequest  = "friend_request"
	NotifTypeFriendAccepted = "friend_accepted"
	NotifTypeTaskShared     = "task_shared"
	NotifTypeListShared     = "list_shared"
	NotifTypeEventInvite    = "event_invite"
)

// Notification is an in-app inbox entry.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ReferenceID string    `json:"reference_id"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
