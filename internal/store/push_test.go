package store

import (
	"context"
	"testing"
)

func TestCreateSubscription(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	uid := createTestUser(t, db, "alice@example.com", "Alice")

	sub, err := ps.CreateSubscription(context.Background(), uid, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ctx := context.Background()
	uid := createTestUser(t, db, "alice@example.com", "Alice")

	sub1, _ := ps.CreateSubscription(ctx, uid, "https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.CreateSubscription(ctx, uid, "https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}

	// Should be same subscription, updated keys
	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}
}

func TestListAndDeleteSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	a1, _ := ps.CreateSubscription(ctx, alice, "https://push.example.com/a1", "k", "a", "Phone")
	ps.CreateSubscription(ctx, alice, "https://push.example.com/a2", "k", "a", "Laptop")
	ps.CreateSubscription(ctx, bob, "https://push.example.com/b1", "k", "a", "Phone")

	subs, err := ps.ListByUser(ctx, alice)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}

	// Scoped by user: bob cannot delete alice's subscription
	if err := ps.DeleteSubscription(ctx, a1.ID, bob); err != nil {
		t.Fatalf("delete as other user: %v", err)
	}
	if got, _ := ps.GetByID(ctx, a1.ID, alice); got == nil {
		t.Fatal("subscription should survive a delete by another user")
	}

	if err := ps.DeleteSubscription(ctx, a1.ID, alice); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ps.GetByID(ctx, a1.ID, alice); got != nil {
		t.Error("expected nil after delete")
	}

	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/a2"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ = ps.ListByUser(ctx, alice)
	if len(subs) != 0 {
		t.Errorf("len = %d after deletes, want 0", len(subs))
	}
}
