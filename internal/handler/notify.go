package handler

import (
	"context"
	"log/slog"

	"github.com/dukerupert/tandem/internal/store"
)

// Notifier writes in-app notifications and announces them in real time.
type Notifier struct {
	notifications *store.NotificationStore
	bc            Broadcaster
	logger        *slog.Logger
}

func NewNotifier(ns *store.NotificationStore, bc Broadcaster, logger *slog.Logger) *Notifier {
	return &Notifier{notifications: ns, bc: bc, logger: logger}
}

// Notify records a notification for userID. Failures are logged and do not
// fail the request that caused them.
func (n *Notifier) Notify(ctx context.Context, userID int64, notifType, title, message, referenceID string) {
	if n == nil {
		return
	}
	notif, err := n.notifications.Create(ctx, userID, notifType, title, message, referenceID)
	if err != nil {
		n.logger.Error("create notification", "user_id", userID, "type", notifType, "error", err)
		return
	}
	broadcast(n.bc, []int64{userID}, EventNotificationCreated, notif)
}
