package reminder

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Counts tallies delivery outcomes.
type Counts struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(o Outcome) {
	switch o {
	case OutcomeSent:
		c.Sent++
	case OutcomeFailed:
		c.Failed++
	case OutcomeSkipped:
		c.Skipped++
	}
}

// Report summarizes one scan cycle.
type Report struct {
	RunID       string
	Kind        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Entities    map[Category]int
	FetchErrors map[Category]int
	Results     []Result

	deliveries map[Category]map[Channel]*Counts

	// began and elapsed use the monotonic clock; StartedAt and FinishedAt
	// come from the configured clock and may step.
	began   time.Time
	elapsed time.Duration
}

// NewReport starts a report for a run of the given kind ("hourly", "daily").
func NewReport(kind string, startedAt time.Time) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Kind:        kind,
		StartedAt:   startedAt,
		Entities:    make(map[Category]int),
		FetchErrors: make(map[Category]int),
		deliveries:  make(map[Category]map[Channel]*Counts),
		began:       time.Now(),
	}
}

// Record adds one delivery result.
func (r *Report) Record(res Result) {
	r.Results = append(r.Results, res)
	byChannel, ok := r.deliveries[res.Category]
	if !ok {
		byChannel = make(map[Channel]*Counts)
		r.deliveries[res.Category] = byChannel
	}
	c, ok := byChannel[res.Channel]
	if !ok {
		c = &Counts{}
		byChannel[res.Channel] = c
	}
	c.add(res.Outcome)
}

// Counts returns the tally for one category and channel.
func (r *Report) Counts(category Category, ch Channel) Counts {
	if c, ok := r.deliveries[category][ch]; ok {
		return *c
	}
	return Counts{}
}

// Total tallies every delivery in the run.
func (r *Report) Total() Counts {
	var total Counts
	for _, res := range r.Results {
		total.add(res.Outcome)
	}
	return total
}

// finish stamps the end of the run.
func (r *Report) finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.elapsed = time.Since(r.began)
}

// Duration is the measured run time, never negative.
func (r *Report) Duration() time.Duration {
	if r.elapsed > 0 {
		return r.elapsed
	}
	return max(r.FinishedAt.Sub(r.StartedAt), 0)
}

// LogValue renders the report as one structured log group.
func (r *Report) LogValue() slog.Value {
	total := r.Total()
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID),
		slog.String("kind", r.Kind),
		slog.Duration("duration", r.Duration()),
		slog.Int("sent", total.Sent),
		slog.Int("failed", total.Failed),
		slog.Int("skipped", total.Skipped),
	}
	for category, n := range r.Entities {
		attrs = append(attrs, slog.Int(string(category)+"_entities", n))
	}
	for category, n := range r.FetchErrors {
		attrs = append(attrs, slog.Int(string(category)+"_fetch_errors", n))
	}
	return slog.GroupValue(attrs...)
}
