package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRunInProgress is returned when a run of the same kind is still going.
var ErrRunInProgress = errors.New("reminder run already in progress")

// SchedulerConfig sets when the triggers fire.
type SchedulerConfig struct {
	Location *time.Location
	// DailyAt is the local "HH:MM" the daily summary goes out at.
	DailyAt string
}

// DefaultDailyAt is used when DailyAt is empty or invalid.
const DefaultDailyAt = "08:00"

// ParseDailyAt parses an "HH:MM" clock time.
func ParseDailyAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse daily time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Scheduler fires the hourly scans and the daily summary. Each kind of run
// is single-flight: a trigger that fires while the previous run of the same
// kind is still going is skipped.
type Scheduler struct {
	engine      *Engine
	loc         *time.Location
	dailyHour   int
	dailyMinute int
	logger      *slog.Logger

	hourlyRunning atomic.Bool
	dailyRunning  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

func NewScheduler(engine *Engine, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = engine.loc
	}

	dailyAt := cfg.DailyAt
	if dailyAt == "" {
		dailyAt = DefaultDailyAt
	}
	hour, minute, err := ParseDailyAt(dailyAt)
	if err != nil {
		logger.Warn("invalid daily time, using default", "daily_at", cfg.DailyAt, "default", DefaultDailyAt)
		hour, minute, _ = ParseDailyAt(DefaultDailyAt)
	}

	return &Scheduler{
		engine:      engine,
		loc:         loc,
		dailyHour:   hour,
		dailyMinute: minute,
		logger:      logger,
	}
}

// SetTransport injects the real-time transport. nil is valid and disables
// real-time delivery.
func (s *Scheduler) SetTransport(e Emitter) {
	s.engine.dispatch.SetEmitter(e)
}

// Start launches both triggers. They run until ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("reminder scheduler started",
		"location", s.loc.String(),
		"daily_at", fmt.Sprintf("%02d:%02d", s.dailyHour, s.dailyMinute),
	)

	s.runs.Add(2)
	go s.loop(ctx, "hourly", s.nextHourly, s.RunHourly)
	go s.loop(ctx, "daily", s.nextDaily, s.RunDaily)
}

// Stop cancels both triggers and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.runs.Wait()
	s.logger.Info("reminder scheduler stopped")
}

// RunHourly runs the three reminder scans unless an hourly run is in progress.
func (s *Scheduler) RunHourly(ctx context.Context) (*Report, error) {
	if !s.hourlyRunning.CompareAndSwap(false, true) {
		s.logger.Warn("skipping hourly run, previous run still in progress")
		return nil, ErrRunInProgress
	}
	defer s.hourlyRunning.Store(false)
	return s.engine.RunHourly(ctx), nil
}

// RunDaily sends daily summaries unless a daily run is in progress.
func (s *Scheduler) RunDaily(ctx context.Context) (*Report, error) {
	if !s.dailyRunning.CompareAndSwap(false, true) {
		s.logger.Warn("skipping daily run, previous run still in progress")
		return nil, ErrRunInProgress
	}
	defer s.dailyRunning.Store(false)
	return s.engine.RunDaily(ctx), nil
}

// loop waits for each trigger time and starts a run without waiting for it,
// so a slow run makes the next trigger skip rather than queue.
func (s *Scheduler) loop(ctx context.Context, name string, next func(time.Time) time.Time, run func(context.Context) (*Report, error)) {
	defer s.runs.Done()

	for {
		now := s.engine.now()
		at := next(now)
		s.logger.Debug("next reminder run", "kind", name, "at", at)

		timer := time.NewTimer(at.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runs.Add(1)
		go func() {
			defer s.runs.Done()
			run(ctx)
		}()
	}
}

// nextHourly returns the next top of the hour in the scheduler's zone. It
// works in absolute time so the repeated hour when clocks fall back still
// gets its own trigger.
func (s *Scheduler) nextHourly(now time.Time) time.Time {
	now = now.In(s.loc)
	sinceHour := time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
	return now.Add(-sinceHour).Add(time.Hour)
}

// nextDaily returns the next occurrence of the daily clock time.
func (s *Scheduler) nextDaily(now time.Time) time.Time {
	now = now.In(s.loc)
	at := time.Date(now.Year(), now.Month(), now.Day(), s.dailyHour, s.dailyMinute, 0, 0, s.loc)
	if !at.After(now) {
		at = time.Date(now.Year(), now.Month(), now.Day()+1, s.dailyHour, s.dailyMinute, 0, 0, s.loc)
	}
	return at
}
