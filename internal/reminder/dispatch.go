package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/tandem/internal/email"
	"github.com/dukerupert/tandem/internal/model"
	"github.com/dukerupert/tandem/internal/push"
)

// Emitter is the real-time transport, addressed to a user's private room.
type Emitter interface {
	EmitToUser(userID int64, event string, payload any) error
}

// Mailer sends one HTML email.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
}

// Pusher delivers to every push subscription of a user and returns how many
// accepted the payload.
type Pusher interface {
	SendToUser(ctx context.Context, userID int64, payload push.Payload) (int, error)
}

type Channel string

const (
	ChannelRealtime Channel = "realtime"
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the outcome of one delivery: one notice, one recipient, one channel.
type Result struct {
	Category    Category
	Channel     Channel
	UserID      int64
	ReferenceID string
	Outcome     Outcome
	Err         error
}

var errSkipped = errors.New("skipped")

func skip(reason string) error {
	return fmt.Errorf("%w: %s", errSkipped, reason)
}

// Config is shared by the dispatcher and engine.
type Config struct {
	// Location is the zone "today" and "tomorrow" are computed in.
	Location *time.Location
	// BaseURL prefixes notice links in emails.
	BaseURL string
	// Concurrency above 1 delivers to the recipients of one entity in
	// parallel, at most this many at a time.
	Concurrency int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

type emitterBox struct {
	Emitter
}

// Dispatcher delivers notices on every channel, isolating each delivery.
type Dispatcher struct {
	emitter     atomic.Pointer[emitterBox]
	mailer      Mailer
	pusher      Pusher
	baseURL     string
	loc         *time.Location
	concurrency int
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher. Any channel may be nil; its deliveries
// are then skipped.
func NewDispatcher(emitter Emitter, mailer Mailer, pusher Pusher, cfg Config, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		mailer:      mailer,
		pusher:      pusher,
		baseURL:     cfg.BaseURL,
		loc:         cfg.location(),
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
	d.SetEmitter(emitter)
	return d
}

// SetEmitter replaces the real-time transport. nil disables the channel.
func (d *Dispatcher) SetEmitter(e Emitter) {
	if e == nil {
		d.emitter.Store(nil)
		return
	}
	d.emitter.Store(&emitterBox{e})
}

func (d *Dispatcher) currentEmitter() Emitter {
	if box := d.emitter.Load(); box != nil {
		return box.Emitter
	}
	return nil
}

// DeliverAll delivers n to each recipient and returns every delivery's result.
func (d *Dispatcher) DeliverAll(ctx context.Context, recipients []model.UserRef, n Notice) []Result {
	if d.concurrency <= 1 || len(recipients) < 2 {
		var results []Result
		for _, to := range recipients {
			results = append(results, d.Deliver(ctx, to, n)...)
		}
		return results
	}

	perRecipient := make([][]Result, len(recipients))
	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup

	for i, to := range recipients {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			perRecipient[i] = d.Deliver(ctx, to, n)
		}()
	}
	wg.Wait()

	var results []Result
	for _, r := range perRecipient {
		results = append(results, r...)
	}
	return results
}

// Deliver attempts n on the real-time, push and email channels for one
// recipient. A failure on one channel never stops the others.
func (d *Dispatcher) Deliver(ctx context.Context, to model.UserRef, n Notice) []Result {
	return []Result{
		d.attempt(ChannelRealtime, to, n, func() error {
			e := d.currentEmitter()
			if e == nil {
				return skip("no real-time transport")
			}
			return e.EmitToUser(to.ID, n.Event(), n)
		}),
		d.attempt(ChannelPush, to, n, func() error {
			if d.pusher == nil {
				return skip("push not configured")
			}
			_, err := d.pusher.SendToUser(ctx, to.ID, n.PushPayload())
			if errors.Is(err, push.ErrNoSubscriptions) {
				return skip("no push subscriptions")
			}
			return err
		}),
		d.attempt(ChannelEmail, to, n, func() error {
			if d.mailer == nil {
				return skip("email not configured")
			}
			if to.Email == "" {
				return skip("no email address")
			}
			body, err := renderEmail(to, n, d.baseURL, d.loc)
			if err != nil {
				return err
			}
			err = d.mailer.SendHTML(ctx, to.Email, n.Subject, body)
			if errors.Is(err, email.ErrNotConfigured) {
				return skip("email not configured")
			}
			return err
		}),
	}
}

// attempt runs one delivery, converting a panic into a failed result.
func (d *Dispatcher) attempt(ch Channel, to model.UserRef, n Notice, send func() error) (res Result) {
	res = Result{
		Category:    n.Category,
		Channel:     ch,
		UserID:      to.ID,
		ReferenceID: n.ReferenceID,
		Outcome:     OutcomeSent,
	}
	log := d.logger.With("category", n.Category, "channel", ch, "user_id", to.ID, "reference_id", n.ReferenceID)

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic: %v", r)
			log.Error("delivery panicked", "panic", r)
		}
	}()

	err := send()
	switch {
	case err == nil:
		log.Debug("delivered")
	case errors.Is(err, errSkipped):
		res.Outcome = OutcomeSkipped
		res.Err = err
		log.Debug("delivery skipped", "reason", err)
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
		log.Warn("delivery failed", "error", err)
	}
	return res
}
