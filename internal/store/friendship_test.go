package store

import (
	"context"
	"testing"

	"github.com/dukerupert/tandem/internal/model"
)

func TestFriendRequestAndAccept(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	f, err := fs.Request(ctx, alice, bob)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if f.Status != model.FriendshipPending {
		t.Errorf("status = %q, want %q", f.Status, model.FriendshipPending)
	}
	if f.Friend.ID != bob {
		t.Errorf("friend = %d, want %d (other side for requester)", f.Friend.ID, bob)
	}

	ok, err := fs.AreFriends(ctx, alice, bob)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if ok {
		t.Error("pending request should not count as friendship")
	}

	if err := fs.Accept(ctx, f.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Either direction
	ok, _ = fs.AreFriends(ctx, bob, alice)
	if !ok {
		t.Error("expected accepted friendship")
	}

	seen, err := fs.GetByID(ctx, f.ID, bob)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if seen.Friend.ID != alice {
		t.Errorf("friend for addressee = %d, want %d", seen.Friend.ID, alice)
	}
}

func TestFriendBetweenAndList(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")

	fs.Request(ctx, alice, bob)
	fs.Request(ctx, carol, alice)

	f, err := fs.Between(ctx, bob, alice)
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	if f == nil {
		t.Fatal("expected friendship between bob and alice")
	}
	if f.Friend.ID != alice {
		t.Errorf("friend = %d, want %d", f.Friend.ID, alice)
	}

	none, err := fs.Between(ctx, bob, carol)
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	if none != nil {
		t.Error("expected no friendship between bob and carol")
	}

	list, err := fs.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	for _, f := range list {
		if f.Friend.ID == alice {
			t.Error("list should resolve the other side, not the viewer")
		}
	}
}

func TestFriendDuplicateRequest(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	if _, err := fs.Request(ctx, alice, bob); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := fs.Request(ctx, alice, bob); err == nil {
		t.Fatal("expected error for duplicate request")
	}
}
