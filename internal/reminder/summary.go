package reminder

import (
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

// PreviewLimit caps the tasks and events listed in one summary.
const PreviewLimit = 5

type TaskPreview struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	DueAt time.Time `json:"due_at"`
}

type EventPreview struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	Location  string    `json:"location,omitempty"`
}

// Summary is one user's digest of the day. Counts cover everything; the
// preview slices hold at most PreviewLimit entries.
type Summary struct {
	User       model.UserRef  `json:"-"`
	TaskCount  int            `json:"task_count"`
	EventCount int            `json:"event_count"`
	Tasks      []TaskPreview  `json:"tasks"`
	Events     []EventPreview `json:"events"`
}

func (s *Summary) MoreTasks() int  { return s.TaskCount - len(s.Tasks) }
func (s *Summary) MoreEvents() int { return s.EventCount - len(s.Events) }

// BuildSummaries groups tasks and events by every user they touch. Users
// appear in order of first touch; a user touching nothing gets no summary.
func BuildSummaries(tasks []model.Task, events []model.CalendarEvent) []Summary {
	byUser := make(map[int64]*Summary)
	var order []int64

	get := func(u model.UserRef) *Summary {
		s, ok := byUser[u.ID]
		if !ok {
			s = &Summary{User: u}
			byUser[u.ID] = s
			order = append(order, u.ID)
		}
		return s
	}

	for i := range tasks {
		t := &tasks[i]
		for _, u := range TaskRecipients(t) {
			s := get(u)
			s.TaskCount++
			if len(s.Tasks) < PreviewLimit {
				p := TaskPreview{ID: t.ID, Title: t.Title}
				if t.DueAt != nil {
					p.DueAt = *t.DueAt
				}
				s.Tasks = append(s.Tasks, p)
			}
		}
	}

	for i := range events {
		e := &events[i]
		for _, u := range EventRecipients(e) {
			s := get(u)
			s.EventCount++
			if len(s.Events) < PreviewLimit {
				s.Events = append(s.Events, EventPreview{ID: e.ID, Title: e.Title, StartTime: e.StartTime, Location: e.Location})
			}
		}
	}

	summaries := make([]Summary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byUser[id])
	}
	return summaries
}
