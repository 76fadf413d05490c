package store

import (
	"context"
	"testing"

	"github.com/dukerupert/tandem/internal/model"
)

func TestNotificationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	n1, err := ns.Create(ctx, alice, model.NotifTypeFriendRequest, "Friend request", "Bob wants to be friends", "friendship-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n1.Read {
		t.Error("new notification should be unread")
	}
	n2, _ := ns.Create(ctx, alice, model.NotifTypeTaskShared, "Task shared", "Bob shared a task", "task-3")
	ns.Create(ctx, bob, model.NotifTypeEventInvite, "Invite", "Alice invited you", "event-1")

	count, err := ns.CountUnread(ctx, alice)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := ns.MarkRead(ctx, n1.ID, alice); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := ns.ListByUser(ctx, alice, true, 50)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != n2.ID {
		t.Errorf("unread = %+v, want only n2", unread)
	}

	all, _ := ns.ListByUser(ctx, alice, false, 50)
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}
	if all[0].ID != n2.ID {
		t.Error("expected newest first")
	}

	if err := ns.MarkAllRead(ctx, alice); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count, _ := ns.CountUnread(ctx, alice); count != 0 {
		t.Errorf("unread after mark all = %d, want 0", count)
	}
	if count, _ := ns.CountUnread(ctx, bob); count != 1 {
		t.Errorf("bob unread = %d, want 1 (untouched)", count)
	}

	if err := ns.Delete(ctx, n1.ID, alice); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ns.GetByID(ctx, n1.ID, alice); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestNotificationListLimit(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	for i := 0; i < 5; i++ {
		ns.Create(ctx, alice, model.NotifTypeTaskShared, "Task shared", "", "")
	}
	got, err := ns.ListByUser(ctx, alice, false, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}
