package reminder

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TodayWindow covers the calendar day containing now, in now's location.
func TodayWindow(now time.Time) Window {
	start := midnight(now)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// TomorrowWindow covers the calendar day after now, in now's location.
// AddDate keeps the bounds on local midnight across DST changes.
func TomorrowWindow(now time.Time) Window {
	start := midnight(now).AddDate(0, 0, 1)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// StartingSoonWindow covers [now+1h, now+2h).
func StartingSoonWindow(now time.Time) Window {
	return Window{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
}
