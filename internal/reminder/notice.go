package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/push"
)

type Category string

const (
	CategoryTaskDueTomorrow     Category = "task_due_tomorrow"
	CategoryListItemDueTomorrow Category = "list_item_due_tomorrow"
	CategoryEventStartingSoon   Category = "event_starting_soon"
	CategoryDailySummary        Category = "daily_summary"
)

// Real-time event names.
const (
	EventReminder     = "reminder"
	EventDailySummary = "daily_summary"
)

const timeLayout = "Mon Jan 2 at 3:04 PM"

// Notice is the payload built for one recipient of one entity. It is never
// stored.
type Notice struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	ReferenceID string   `json:"reference_id"`
	Link        string   `json:"link"`
	Items       []string `json:"items,omitempty"`
	Summary     *Summary `json:"summary,omitempty"`

	// Subject is the email subject line.
	Subject string `json:"-"`
}

// Event is the real-time event name the notice is emitted under.
func (n Notice) Event() string {
	if n.Category == CategoryDailySummary {
		return EventDailySummary
	}
	return EventReminder
}

// PushPayload converts the notice for the push channel.
func (n Notice) PushPayload() push.Payload {
	p := push.Payload{
		Title: n.Title,
		Body:  n.Message,
		URL:   n.Link,
		Tag:   n.ReferenceID,
		Topic: n.ReferenceID,
	}
	if n.Category == CategoryEventStartingSoon {
		p.Urgency = push.UrgencyHigh
	} else {
		p.Urgency = push.UrgencyNormal
	}
	return p
}

func taskNotice(t *model.Task, loc *time.Location) Notice {
	return Notice{
		Category:    CategoryTaskDueTomorrow,
		Title:       "Task due tomorrow",
		Message:     fmt.Sprintf("“%s” is due %s", t.Title, t.DueAt.In(loc).Format(timeLayout)),
		ReferenceID: fmt.Sprintf("task-%d", t.ID),
		Link:        fmt.Sprintf("/tasks/%d", t.ID),
		Subject:     "Reminder: " + t.Title,
	}
}

// listNotice groups every qualifying item of the list into one message.
func listNotice(l *model.SharedList, items []model.ListItem) Notice {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	noun := "item"
	if len(items) != 1 {
		noun = "items"
	}
	return Notice{
		Category:    CategoryListItemDueTomorrow,
		Title:       "List items due tomorrow",
		Message:     fmt.Sprintf("%d %s in “%s” due tomorrow: %s", len(items), noun, l.Name, strings.Join(texts, ", ")),
		ReferenceID: fmt.Sprintf("list-%d", l.ID),
		Link:        fmt.Sprintf("/lists/%d", l.ID),
		Items:       texts,
		Subject:     "Reminder: " + l.Name,
	}
}

func eventNotice(e *model.CalendarEvent, loc *time.Location) Notice {
	msg := fmt.Sprintf("“%s” starts %s", e.Title, e.StartTime.In(loc).Format(timeLayout))
	if e.Location != "" {
		msg += " at " + e.Location
	}
	return Notice{
		Category:    CategoryEventStartingSoon,
		Title:       "Event starting soon",
		Message:     msg,
		ReferenceID: fmt.Sprintf("event-%d", e.ID),
		Link:        fmt.Sprintf("/events/%d", e.ID),
		Subject:     "Starting soon: " + e.Title,
	}
}

func summaryNotice(s *Summary) Notice {
	return Notice{
		Category:    CategoryDailySummary,
		Title:       "Your day",
		Message:     fmt.Sprintf("You have %s and %s today", plural(s.TaskCount, "task"), plural(s.EventCount, "event")),
		ReferenceID: fmt.Sprintf("summary-%d", s.User.ID),
		Link:        "/",
		Summary:     s,
		Subject:     "Your daily summary",
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
