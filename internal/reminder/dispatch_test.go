package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/tandem/internal/email"
	"github.com/dukerupert/tandem/internal/model"
)

type failingEmitter struct{}

func (failingEmitter) EmitToUser(int64, string, any) error { return errors.New("socket closed") }

func TestDeliverChannelsIndependent(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(failingEmitter{}, mailer, nil, Config{Location: time.UTC}, testLogger())

	results := d.Deliver(context.Background(), user(1, "u1"), Notice{Category: CategoryTaskDueTomorrow, ReferenceID: "task-1"})
	if len(results) != 3 {
		t.Fatalf("results = %d, want one per channel", len(results))
	}

	want := map[Channel]Outcome{
		ChannelRealtime: OutcomeFailed,
		ChannelPush:     OutcomeSkipped,
		ChannelEmail:    OutcomeSent,
	}
	for _, res := range results {
		if res.Outcome != want[res.Channel] {
			t.Errorf("%s outcome = %s, want %s (err %v)", res.Channel, res.Outcome, want[res.Channel], res.Err)
		}
	}
	if len(mailer.sent) != 1 {
		t.Errorf("emails = %d, want 1", len(mailer.sent))
	}
}

type unconfiguredMailer struct{}

func (unconfiguredMailer) SendHTML(context.Context, string, string, string) error {
	return email.ErrNotConfigured
}

func TestDeliverUnconfiguredEmailIsSkip(t *testing.T) {
	d := NewDispatcher(nil, unconfiguredMailer{}, nil, Config{}, testLogger())

	results := d.Deliver(context.Background(), user(1, "u1"), Notice{Category: CategoryEventStartingSoon})
	for _, res := range results {
		if res.Outcome != OutcomeSkipped {
			t.Errorf("%s outcome = %s, want skipped", res.Channel, res.Outcome)
		}
	}
}

func TestSetEmitterSwapsTransport(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, Config{}, testLogger())
	n := Notice{Category: CategoryTaskDueTomorrow}

	if res := d.Deliver(context.Background(), user(1, "u1"), n)[0]; res.Outcome != OutcomeSkipped {
		t.Fatalf("before SetEmitter: %s, want skipped", res.Outcome)
	}

	em := &fakeEmitter{}
	d.SetEmitter(em)
	if res := d.Deliver(context.Background(), user(1, "u1"), n)[0]; res.Outcome != OutcomeSent {
		t.Fatalf("after SetEmitter: %s, want sent", res.Outcome)
	}
	if len(em.emits) != 1 {
		t.Errorf("emits = %d, want 1", len(em.emits))
	}
}

func TestDeliverAllParallelKeepsEveryResult(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]error{"u3@example.com": errSMTP}}
	em := &fakeEmitter{}
	d := NewDispatcher(em, mailer, &fakePusher{}, Config{Concurrency: 3}, testLogger())

	var recipients []model.UserRef
	for i := int64(1); i <= 10; i++ {
		recipients = append(recipients, user(i, fmt.Sprintf("u%d", i)))
	}

	results := d.DeliverAll(context.Background(), recipients, Notice{Category: CategoryEventStartingSoon, ReferenceID: "event-1"})
	if len(results) != 30 {
		t.Fatalf("results = %d, want 30", len(results))
	}

	var failed []Result
	for _, res := range results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	if len(failed) != 1 || failed[0].UserID != 3 || failed[0].Channel != ChannelEmail {
		t.Errorf("failed = %+v, want only u3 email", failed)
	}
	if len(em.emits) != 10 {
		t.Errorf("emits = %d, want 10", len(em.emits))
	}
	if len(mailer.sent) != 9 {
		t.Errorf("emails = %d, want 9", len(mailer.sent))
	}
}

func TestReportCounts(t *testing.T) {
	r := NewReport("hourly", testNow)
	if r.RunID == "" {
		t.Error("expected run id")
	}

	r.Record(Result{Category: CategoryTaskDueTomorrow, Channel: ChannelEmail, Outcome: OutcomeSent})
	r.Record(Result{Category: CategoryTaskDueTomorrow, Channel: ChannelEmail, Outcome: OutcomeFailed})
	r.Record(Result{Category: CategoryTaskDueTomorrow, Channel: ChannelPush, Outcome: OutcomeSkipped})
	r.Record(Result{Category: CategoryEventStartingSoon, Channel: ChannelEmail, Outcome: OutcomeSent})

	if got := r.Counts(CategoryTaskDueTomorrow, ChannelEmail); got != (Counts{Sent: 1, Failed: 1}) {
		t.Errorf("task email = %+v", got)
	}
	if got := r.Counts(CategoryListItemDueTomorrow, ChannelEmail); got != (Counts{}) {
		t.Errorf("untouched category = %+v, want zero", got)
	}
	if got := r.Total(); got != (Counts{Sent: 2, Failed: 1, Skipped: 1}) {
		t.Errorf("total = %+v", got)
	}

	other := NewReport("hourly", testNow)
	if other.RunID == r.RunID {
		t.Error("run ids should differ")
	}
}

func TestReportDurationNeverNegative(t *testing.T) {
	r := &Report{StartedAt: testNow, FinishedAt: testNow.Add(-time.Minute)}
	if got := r.Duration(); got != 0 {
		t.Errorf("Duration = %v, want 0 for a backwards wall clock", got)
	}

	r = NewReport("daily", testNow)
	r.finish(testNow.Add(-time.Hour))
	if got := r.Duration(); got < 0 {
		t.Errorf("Duration = %v, want non-negative", got)
	}
}
