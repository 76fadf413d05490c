package reminder

import (
	"testing"
	"time"
)

func TestWindowContainsHalfOpen(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: start.AddDate(0, 0, 1)}

	if !w.Contains(start) {
		t.Error("start should be included")
	}
	if w.Contains(w.End) {
		t.Error("end should be excluded")
	}
	if !w.Contains(w.End.Add(-time.Nanosecond)) {
		t.Error("instant before end should be included")
	}
	if w.Contains(start.Add(-time.Nanosecond)) {
		t.Error("instant before start should be excluded")
	}
}

func TestTomorrowWindow(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, loc)

	w := TomorrowWindow(now)
	if !w.Start.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("start = %v", w.Start)
	}
	if !w.End.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, loc)) {
		t.Errorf("end = %v", w.End)
	}
}

func TestTomorrowWindowAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks spring forward on 2026-03-08, so that day is 23 hours long.
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)

	w := TomorrowWindow(now)
	if w.Start.Hour() != 0 || w.End.Hour() != 0 {
		t.Errorf("window = %v - %v, want local midnights", w.Start, w.End)
	}
	if got := w.End.Sub(w.Start); got != 23*time.Hour {
		t.Errorf("length = %v, want 23h", got)
	}
}

func TestTodayWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	w := TodayWindow(now)
	if !w.Start.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", w.Start)
	}
	if !w.Contains(now) {
		t.Error("today window should contain now")
	}
}

func TestStartingSoonWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 17, 0, 0, time.UTC)
	w := StartingSoonWindow(now)

	if !w.Contains(now.Add(90 * time.Minute)) {
		t.Error("now+90m should be in window")
	}
	if !w.Contains(now.Add(time.Hour)) {
		t.Error("now+1h should be in window")
	}
	if w.Contains(now.Add(2 * time.Hour)) {
		t.Error("now+2h should be excluded")
	}
}
