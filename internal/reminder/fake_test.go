package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/push"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func user(id int64, name string) model.UserRef {
	return model.UserRef{ID: id, Name: name, Email: name + "@example.com"}
}

func at(t time.Time) *time.Time { return &t }

// fakeSource returns whatever it holds, regardless of the window asked for,
// so tests can check the engine's own eligibility filter.
type fakeSource struct {
	tasks  []model.Task
	lists  []model.SharedList
	events []model.CalendarEvent

	tasksErr  error
	listsErr  error
	eventsErr error

	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSource) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeSource) TasksDueBetween(_ context.Context, _, _ time.Time) ([]model.Task, error) {
	f.wait()
	return f.tasks, f.tasksErr
}

func (f *fakeSource) ListsWithItemsDueBetween(_ context.Context, _, _ time.Time) ([]model.SharedList, error) {
	return f.lists, f.listsErr
}

func (f *fakeSource) EventsStartingBetween(_ context.Context, _, _ time.Time) ([]model.CalendarEvent, error) {
	return f.events, f.eventsErr
}

func (f *fakeSource) TasksDueToday(_ context.Context, _ time.Time) ([]model.Task, error) {
	f.wait()
	return f.tasks, f.tasksErr
}

func (f *fakeSource) EventsToday(_ context.Context, _ time.Time) ([]model.CalendarEvent, error) {
	return f.events, f.eventsErr
}

type emit struct {
	UserID int64
	Event  string
	Notice Notice
}

type fakeEmitter struct {
	mu    sync.Mutex
	emits []emit
}

func (f *fakeEmitter) EmitToUser(userID int64, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emit{UserID: userID, Event: event, Notice: payload.(Notice)})
	return nil
}

type mail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mail
	failFor map[string]error
	panicOn map[string]bool
}

func (f *fakeMailer) SendHTML(_ context.Context, to, subject, body string) error {
	if f.panicOn[to] {
		panic("mailer exploded")
	}
	if err := f.failFor[to]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, mail{To: to, Subject: subject, Body: body})
	return nil
}

type fakePusher struct {
	mu       sync.Mutex
	payloads map[int64][]push.Payload
	noSubs   map[int64]bool
}

func (f *fakePusher) SendToUser(_ context.Context, userID int64, p push.Payload) (int, error) {
	if f.noSubs[userID] {
		return 0, push.ErrNoSubscriptions
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payloads == nil {
		f.payloads = make(map[int64][]push.Payload)
	}
	f.payloads[userID] = append(f.payloads[userID], p)
	return 1, nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	deliveries  map[string]int
	fetchErrors int
	runs        []string
	durations   []time.Duration
}

func (f *fakeRecorder) RecordDelivery(category, channel, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deliveries == nil {
		f.deliveries = make(map[string]int)
	}
	f.deliveries[category+"/"+channel+"/"+outcome]++
}

func (f *fakeRecorder) RecordFetchError(string) {
	f.mu.Lock()
	f.fetchErrors++
	f.mu.Unlock()
}

func (f *fakeRecorder) RecordRun(kind string, d time.Duration) {
	f.mu.Lock()
	f.runs = append(f.runs, kind)
	f.durations = append(f.durations, d)
	f.mu.Unlock()
}

type harness struct {
	source   *fakeSource
	emitter  *fakeEmitter
	mailer   *fakeMailer
	pusher   *fakePusher
	recorder *fakeRecorder
	engine   *Engine
}

func newHarness(source *fakeSource, concurrency int) *harness {
	h := &harness{
		source:   source,
		emitter:  &fakeEmitter{},
		mailer:   &fakeMailer{},
		pusher:   &fakePusher{},
		recorder: &fakeRecorder{},
	}
	cfg := Config{
		Location:    time.UTC,
		BaseURL:     "https://tandem.test",
		Concurrency: concurrency,
		Clock:       func() time.Time { return testNow },
	}
	d := NewDispatcher(h.emitter, h.mailer, h.pusher, cfg, testLogger())
	h.engine = NewEngine(source, d, h.recorder, cfg, testLogger())
	return h
}

func (h *harness) emitsTo(userID int64) []emit {
	var out []emit
	for _, e := range h.emitter.emits {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) mailsTo(addr string) []mail {
	var out []mail
	for _, m := range h.mailer.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

var errSMTP = errors.New("smtp unavailable")
