package reminder

import (
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

func TestBuildSummariesGrouping(t *testing.T) {
	u1, u2 := user(1, "u1"), user(2, "u2")
	due := at(time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC))

	tasks := []model.Task{
		{ID: 1, Title: "A", DueAt: due, Owner: u1},
		{ID: 2, Title: "B", DueAt: due, Owner: u1, SharedWith: []model.UserRef{u1}},
	}
	events := []model.CalendarEvent{
		{ID: 1, Title: "Dinner", Creator: u2, Participants: []model.UserRef{u1}},
	}

	summaries := BuildSummaries(tasks, events)
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	s := summaries[0]
	if s.User.ID != 1 {
		t.Fatalf("first summary for user %d, want 1", s.User.ID)
	}
	if s.TaskCount != 2 || s.EventCount != 1 {
		t.Errorf("u1 counts = %d/%d, want 2/1", s.TaskCount, s.EventCount)
	}
	if summaries[1].TaskCount != 0 || summaries[1].EventCount != 1 {
		t.Errorf("u2 counts = %d/%d, want 0/1", summaries[1].TaskCount, summaries[1].EventCount)
	}
}

func TestBuildSummariesPreviewCap(t *testing.T) {
	u1 := user(1, "u1")
	var tasks []model.Task
	var events []model.CalendarEvent
	for i := 1; i <= 8; i++ {
		tasks = append(tasks, model.Task{ID: int64(i), Title: fmt.Sprintf("task %d", i), Owner: u1})
		events = append(events, model.CalendarEvent{ID: int64(i), Title: fmt.Sprintf("event %d", i), Creator: u1})
	}

	summaries := BuildSummaries(tasks, events)
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.TaskCount != 8 || len(s.Tasks) != PreviewLimit {
		t.Errorf("tasks = %d with %d previewed, want 8 with %d", s.TaskCount, len(s.Tasks), PreviewLimit)
	}
	if s.EventCount != 8 || len(s.Events) != PreviewLimit {
		t.Errorf("events = %d with %d previewed, want 8 with %d", s.EventCount, len(s.Events), PreviewLimit)
	}
	if s.Tasks[0].Title != "task 1" || s.Tasks[4].Title != "task 5" {
		t.Errorf("preview should keep the first tasks in order, got %q..%q", s.Tasks[0].Title, s.Tasks[4].Title)
	}
	if s.MoreTasks() != 3 {
		t.Errorf("more tasks = %d, want 3", s.MoreTasks())
	}
}

func TestBuildSummariesEmpty(t *testing.T) {
	if got := BuildSummaries(nil, nil); len(got) != 0 {
		t.Errorf("summaries = %d, want 0", len(got))
	}
}

func TestRecipientSets(t *testing.T) {
	u1, u2, u3 := user(1, "u1"), user(2, "u2"), user(3, "u3")

	task := &model.Task{Owner: u1, SharedWith: []model.UserRef{u2, u1, u2}}
	if got := TaskRecipients(task); len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("task recipients = %+v, want [u1 u2]", got)
	}

	list := &model.SharedList{Creator: u2, Collaborators: []model.UserRef{u3}}
	if got := ListRecipients(list); len(got) != 2 {
		t.Errorf("list recipients = %+v, want [u2 u3]", got)
	}

	event := &model.CalendarEvent{Creator: u3, Participants: []model.UserRef{u1, u2, u3}}
	if got := EventRecipients(event); len(got) != 3 || got[0].ID != 3 {
		t.Errorf("event recipients = %+v, want creator first then u1, u2", got)
	}
}
