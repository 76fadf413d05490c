package store

import (
	"context"
	"testing"
	"time"
)

func TestEventCreateWithParticipants(t *testing.T) {
	db := setupTestDB(t)
	es := NewEventStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")

	start := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	event, err := es.Create(ctx, alice, "Team Meeting", "Weekly sync", "Conference Room", start, end, []int64{bob, carol, bob})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Title != "Team Meeting" {
		t.Errorf("title = %q, want %q", event.Title, "Team Meeting")
	}
	if event.Location != "Conference Room" {
		t.Errorf("location = %q, want %q", event.Location, "Conference Room")
	}
	if !event.StartTime.Equal(start) {
		t.Errorf("start_time = %v, want %v", event.StartTime, start)
	}
	if event.Creator.ID != alice {
		t.Errorf("creator = %d, want %d", event.Creator.ID, alice)
	}
	if len(event.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(event.Participants))
	}
	if !event.CanView(carol) {
		t.Error("participant should be able to view")
	}
}

func TestEventUpdateReplacesParticipants(t *testing.T) {
	db := setupTestDB(t)
	es := NewEventStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")

	start := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	event, _ := es.Create(ctx, alice, "Lunch", "", "", start, start.Add(time.Hour), []int64{bob})

	updated, err := es.Update(ctx, event.ID, "Long lunch", "", "Cafe", start, start.Add(2*time.Hour), []int64{carol})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Long lunch" {
		t.Errorf("title = %q, want %q", updated.Title, "Long lunch")
	}
	if len(updated.Participants) != 1 || updated.Participants[0].ID != carol {
		t.Errorf("participants = %+v, want [carol]", updated.Participants)
	}
}

func TestEventListByDateRange(t *testing.T) {
	db := setupTestDB(t)
	es := NewEventStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	es.Create(ctx, alice, "Morning", "", "", day.Add(9*time.Hour), day.Add(10*time.Hour), nil)
	es.Create(ctx, alice, "Shared", "", "", day.Add(12*time.Hour), day.Add(13*time.Hour), []int64{bob})
	es.Create(ctx, alice, "Tomorrow", "", "", day.Add(33*time.Hour), day.Add(34*time.Hour), nil)

	events, err := es.ListByDateRange(ctx, alice, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list by date range: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("alice sees %d events, want 2", len(events))
	}

	events, _ = es.ListByDateRange(ctx, bob, day, day.AddDate(0, 0, 1))
	if len(events) != 1 || events[0].Title != "Shared" {
		t.Errorf("bob sees %d events, want only Shared", len(events))
	}
}

func TestEventsStartingBetweenWindow(t *testing.T) {
	db := setupTestDB(t)
	es := NewEventStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	now := time.Date(2026, 2, 5, 14, 0, 0, 0, time.UTC)
	start, end := now.Add(time.Hour), now.Add(2*time.Hour)

	inWindow, _ := es.Create(ctx, alice, "Ninety", "", "", now.Add(90*time.Minute), now.Add(3*time.Hour), nil)
	atStart, _ := es.Create(ctx, alice, "At start", "", "", start, end, nil)
	es.Create(ctx, alice, "At end", "", "", end, end.Add(time.Hour), nil)
	// Already running: overlaps the window but does not start in it
	es.Create(ctx, alice, "Running", "", "", now.Add(-time.Hour), now.Add(3*time.Hour), nil)

	events, err := es.EventsStartingBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("events starting between: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].ID != atStart.ID || events[1].ID != inWindow.ID {
		t.Errorf("got %q, %q; want At start, Ninety", events[0].Title, events[1].Title)
	}
}

func TestEventDelete(t *testing.T) {
	db := setupTestDB(t)
	es := NewEventStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	start := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	event, _ := es.Create(ctx, alice, "Gone", "", "", start, start.Add(time.Hour), nil)

	if err := es.Delete(ctx, event.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := es.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
