package store

import (
	"context"
	"testing"
	"time"
)

func TestListCreateAndCollaborators(t *testing.T) {
	db := setupTestDB(t)
	ls := NewListStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")

	list, err := ls.Create(ctx, alice, "Camping")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if list.Name != "Camping" || list.Creator.ID != alice {
		t.Errorf("got %+v", list)
	}

	if err := ls.AddCollaborator(ctx, list.ID, bob); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
	got, _ := ls.GetByID(ctx, list.ID)
	if len(got.Collaborators) != 1 || got.Collaborators[0].ID != bob {
		t.Fatalf("collaborators = %+v, want [bob]", got.Collaborators)
	}
	if !got.CanEdit(bob) || got.CanEdit(carol) {
		t.Error("CanEdit should allow creator and collaborators only")
	}

	lists, err := ls.ListForUser(ctx, bob)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(lists) != 1 {
		t.Errorf("bob sees %d lists, want 1", len(lists))
	}

	ls.RemoveCollaborator(ctx, list.ID, bob)
	lists, _ = ls.ListForUser(ctx, bob)
	if len(lists) != 0 {
		t.Errorf("bob sees %d lists after removal, want 0", len(lists))
	}
}

func TestListItems(t *testing.T) {
	db := setupTestDB(t)
	ls := NewListStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	list, _ := ls.Create(ctx, alice, "Camping")

	first, err := ls.AddItem(ctx, list.ID, "Tent", nil)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	second, _ := ls.AddItem(ctx, list.ID, "Stove", nil)
	if first.Position != 0 || second.Position != 1 {
		t.Errorf("positions = %d, %d; want 0, 1", first.Position, second.Position)
	}

	toggled, err := ls.ToggleItem(ctx, list.ID, first.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Error("expected completed after toggle")
	}
	toggled, _ = ls.ToggleItem(ctx, list.ID, first.ID)
	if toggled.Completed {
		t.Error("expected incomplete after second toggle")
	}

	due := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	updated, err := ls.UpdateItem(ctx, list.ID, second.ID, "Camp stove", &due)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Text != "Camp stove" || updated.DueAt == nil {
		t.Errorf("update not applied: %+v", updated)
	}

	// Item ids are scoped to their list
	if other, _ := ls.GetItem(ctx, list.ID+1, first.ID); other != nil {
		t.Error("item should not resolve under another list")
	}

	if err := ls.DeleteItem(ctx, list.ID, first.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	got, _ := ls.GetByID(ctx, list.ID)
	if len(got.Items) != 1 || got.Items[0].ID != second.ID {
		t.Errorf("items = %+v, want only the stove", got.Items)
	}
}

func TestListsWithItemsDueBetween(t *testing.T) {
	db := setupTestDB(t)
	ls := NewListStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	at := func(d time.Time) *time.Time { return &d }

	camping, _ := ls.Create(ctx, alice, "Camping")
	ls.AddItem(ctx, camping.ID, "Tent", at(start))
	ls.AddItem(ctx, camping.ID, "Stove", at(start.Add(8*time.Hour)))
	ls.AddItem(ctx, camping.ID, "Map", at(end))
	ls.AddItem(ctx, camping.ID, "Rope", nil)
	done, _ := ls.AddItem(ctx, camping.ID, "Lantern", at(start.Add(9*time.Hour)))
	ls.ToggleItem(ctx, camping.ID, done.ID)

	quiet, _ := ls.Create(ctx, alice, "Quiet")
	ls.AddItem(ctx, quiet.ID, "Later", at(end.Add(time.Hour)))

	lists, err := ls.ListsWithItemsDueBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("lists with items due: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != camping.ID {
		t.Fatalf("got %d lists, want only camping", len(lists))
	}
	items := lists[0].Items
	if len(items) != 2 {
		t.Fatalf("attached %d items, want 2 qualifying", len(items))
	}
	if items[0].Text != "Tent" || items[1].Text != "Stove" {
		t.Errorf("items = %q, %q; want Tent, Stove", items[0].Text, items[1].Text)
	}
}

func TestListDeleteCascadesItems(t *testing.T) {
	db := setupTestDB(t)
	ls := NewListStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	list, _ := ls.Create(ctx, alice, "Camping")
	item, _ := ls.AddItem(ctx, list.ID, "Tent", nil)

	if err := ls.Delete(ctx, list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if got, _ := ls.GetItem(ctx, list.ID, item.ID); got != nil {
		t.Error("expected items removed with their list")
	}
}
