package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

// Source is the entity query layer the engine reads. Every entity comes back
// with its owner/creator and shared users resolved.
type Source interface {
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)
	ListsWithItemsDueBetween(ctx context.Context, start, end time.Time) ([]model.SharedList, error)
	EventsStartingBetween(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error)
	TasksDueToday(ctx context.Context, now time.Time) ([]model.Task, error)
	EventsToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error)
}

// Recorder receives delivery and run metrics.
type Recorder interface {
	RecordDelivery(category, channel, outcome string)
	RecordFetchError(category string)
	RecordRun(kind string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDelivery(string, string, string) {}
func (nopRecorder) RecordFetchError(string)               {}
func (nopRecorder) RecordRun(string, time.Duration)       {}

// Engine scans for reminder-worthy entities and hands them to the dispatcher.
type Engine struct {
	source   Source
	dispatch *Dispatcher
	recorder Recorder
	loc      *time.Location
	clock    func() time.Time
	logger   *slog.Logger
}

func NewEngine(source Source, dispatcher *Dispatcher, recorder Recorder, cfg Config, logger *slog.Logger) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		source:   source,
		dispatch: dispatcher,
		recorder: recorder,
		loc:      cfg.location(),
		clock:    clock,
		logger:   logger,
	}
}

// Dispatcher returns the dispatcher the engine delivers through.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.dispatch
}

func (e *Engine) now() time.Time {
	return e.clock().In(e.loc)
}

// RunHourly runs the three reminder scans in order.
func (e *Engine) RunHourly(ctx context.Context) *Report {
	report := NewReport("hourly", e.now())
	e.ScanTasksDueTomorrow(ctx, report)
	e.ScanListItemsDueTomorrow(ctx, report)
	e.ScanEventsStartingSoon(ctx, report)
	e.finish(report)
	return report
}

// ScanTasksDueTomorrow reminds everyone on each incomplete task due tomorrow.
func (e *Engine) ScanTasksDueTomorrow(ctx context.Context, report *Report) {
	w := TomorrowWindow(e.now())
	tasks, err := e.source.TasksDueBetween(ctx, w.Start, w.End)
	if err != nil {
		e.fetchFailed(report, CategoryTaskDueTomorrow, err)
		return
	}

	for i := range tasks {
		if ctx.Err() != nil {
			return
		}
		t := &tasks[i]
		if t.Completed || t.DueAt == nil || !w.Contains(*t.DueAt) {
			e.logger.Debug("dropping ineligible task", "task_id", t.ID)
			continue
		}
		report.Entities[CategoryTaskDueTomorrow]++
		e.record(report, e.dispatch.DeliverAll(ctx, TaskRecipients(t), taskNotice(t, e.loc)))
	}
}

// ScanListItemsDueTomorrow sends one reminder per list, grouping every
// incomplete item due tomorrow.
func (e *Engine) ScanListItemsDueTomorrow(ctx context.Context, report *Report) {
	w := TomorrowWindow(e.now())
	lists, err := e.source.ListsWithItemsDueBetween(ctx, w.Start, w.End)
	if err != nil {
		e.fetchFailed(report, CategoryListItemDueTomorrow, err)
		return
	}

	for i := range lists {
		if ctx.Err() != nil {
			return
		}
		l := &lists[i]

		var due []model.ListItem
		for _, item := range l.Items {
			if !item.Completed && item.DueAt != nil && w.Contains(*item.DueAt) {
				due = append(due, item)
			}
		}
		if len(due) == 0 {
			e.logger.Debug("dropping list without due items", "list_id", l.ID)
			continue
		}

		report.Entities[CategoryListItemDueTomorrow]++
		e.record(report, e.dispatch.DeliverAll(ctx, ListRecipients(l), listNotice(l, due)))
	}
}

// ScanEventsStartingSoon reminds everyone on each event starting in one to
// two hours.
func (e *Engine) ScanEventsStartingSoon(ctx context.Context, report *Report) {
	w := StartingSoonWindow(e.now())
	events, err := e.source.EventsStartingBetween(ctx, w.Start, w.End)
	if err != nil {
		e.fetchFailed(report, CategoryEventStartingSoon, err)
		return
	}

	for i := range events {
		if ctx.Err() != nil {
			return
		}
		ev := &events[i]
		if !w.Contains(ev.StartTime) {
			e.logger.Debug("dropping ineligible event", "event_id", ev.ID)
			continue
		}
		report.Entities[CategoryEventStartingSoon]++
		e.record(report, e.dispatch.DeliverAll(ctx, EventRecipients(ev), eventNotice(ev, e.loc)))
	}
}

// RunDaily sends each user one summary of today's tasks and events. If
// either fetch fails the run sends nothing, since partial counts would
// mislead.
func (e *Engine) RunDaily(ctx context.Context) *Report {
	now := e.now()
	report := NewReport("daily", now)
	defer e.finish(report)

	w := TodayWindow(now)
	tasks, err := e.source.TasksDueToday(ctx, now)
	if err != nil {
		e.fetchFailed(report, CategoryDailySummary, err)
		return report
	}
	events, err := e.source.EventsToday(ctx, now)
	if err != nil {
		e.fetchFailed(report, CategoryDailySummary, err)
		return report
	}

	var dueTasks []model.Task
	for _, t := range tasks {
		if !t.Completed && t.DueAt != nil && w.Contains(*t.DueAt) {
			dueTasks = append(dueTasks, t)
		}
	}
	var todayEvents []model.CalendarEvent
	for _, ev := range events {
		if w.Contains(ev.StartTime) {
			todayEvents = append(todayEvents, ev)
		}
	}

	summaries := BuildSummaries(dueTasks, todayEvents)
	report.Entities[CategoryDailySummary] = len(summaries)

	for i := range summaries {
		if ctx.Err() != nil {
			break
		}
		s := &summaries[i]
		e.record(report, e.dispatch.Deliver(ctx, s.User, summaryNotice(s)))
	}
	return report
}

func (e *Engine) record(report *Report, results []Result) {
	for _, res := range results {
		report.Record(res)
		e.recorder.RecordDelivery(string(res.Category), string(res.Channel), string(res.Outcome))
	}
}

func (e *Engine) fetchFailed(report *Report, category Category, err error) {
	e.logger.Error("reminder fetch failed", "category", category, "run_id", report.RunID, "error", err)
	report.FetchErrors[category]++
	e.recorder.RecordFetchError(string(category))
}

func (e *Engine) finish(report *Report) {
	report.finish(e.now())
	e.recorder.RecordRun(report.Kind, report.Duration())
	e.logger.Info("reminder run complete", "report", report)
}
