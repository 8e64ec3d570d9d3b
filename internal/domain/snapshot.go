package domain

import "time"

// Snapshot is the immutable view of a user's history, plan, and goals that
// every engine computes from. Callers are responsible for supplying a
// consistent snapshot; the engines never write back to it.
type Snapshot struct {
	Activities []ActivityRecord
	Planned    []PlannedActivity
	Goals      []PerformanceGoal
}

// History returns the activities that count towards statistics, i.e. those
// not flagged as excluded.
func (s Snapshot) History() []ActivityRecord {
	out := make([]ActivityRecord, 0, len(s.Activities))
	for _, a := range s.Activities {
		if !a.ExcludeFromStats {
			out = append(out, a)
		}
	}
	return out
}

// WeekStart truncates t to the Monday of its ISO week, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return day.AddDate(0, 0, -offset)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats a timestamp as its calendar date, used for same-day grouping.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// InRange reports whether t falls in [from, to).
func InRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// RunningKmBetween sums running distance over [from, to), excluded records
// skipped.
func (s Snapshot) RunningKmBetween(from, to time.Time) float64 {
	var km float64
	for _, a := range s.History() {
		if a.Type == ActivityRunning && a.DistanceKm != nil && InRange(a.Date, from, to) {
			km += *a.DistanceKm
		}
	}
	return km
}

// TrailingWeeklyAverageKm returns the mean weekly running distance over the
// n calendar weeks immediately before weekStart. Weeks without any running
// count as zero.
func (s Snapshot) TrailingWeeklyAverageKm(weekStart time.Time, n int) float64 {
	if n <= 0 {
		return 0
	}
	total := s.RunningKmBetween(weekStart.AddDate(0, 0, -7*n), weekStart)
	return total / float64(n)
}

// Forecast computes the weekly forecast for the week containing weekStart:
// volume completed so far plus volume still planned for the rest of the week.
// A plan entry counts as "still planned" when its status is PLANNED and its
// date has not passed relative to now.
func (s Snapshot) Forecast(weekStart, now time.Time) WeeklyForecast {
	weekEnd := weekStart.AddDate(0, 0, 7)
	today := startOfDay(now)

	var f WeeklyForecast
	for _, a := range s.History() {
		if !InRange(a.Date, weekStart, weekEnd) {
			continue
		}
		switch {
		case a.Type == ActivityRunning && a.DistanceKm != nil:
			f.RunningKm += *a.DistanceKm
		case a.Type == ActivityStrength:
			f.StrengthSessions++
		}
	}

	for _, p := range s.Planned {
		if p.Status != PlanStatusPlanned || !InRange(p.Date, weekStart, weekEnd) {
			continue
		}
		if startOfDay(p.Date).Before(today) {
			continue // missed, not still planned
		}
		switch {
		case p.Category.IsRun() && p.EstimatedDistanceKm != nil:
			f.RunningKm += *p.EstimatedDistanceKm
		case p.Category == PlanStrength:
			f.StrengthSessions++
		}
	}
	return f
}
