// Package suggest generates ranked, goal-aware training suggestions from
// activity history. The engine is an ordered list of independent pure rules
// evaluated over an immutable context, combined through a similarity-aware
// insert and sorted by an explicit priority comparator. Given identical
// inputs the output is byte-identical across calls: a legacy variant of this
// engine injected a random "challenge" suggestion, which has been removed as
// a defect (see DESIGN.md).
package suggest

import (
	"sort"
	"time"

	"example.com/intelligence/internal/domain"
)

// Suggestion priorities, lowest sorts first. Ties preserve emission order.
const (
	PrioritySafety  = 0
	PriorityGoal    = 1
	PriorityPattern = 2
	PriorityRoutine = 3
)

// Pace sanity bounds and default applied to the estimated easy pace.
const (
	defaultEasyPace = 6.0
	minSanePace     = 3.0
	maxSanePace     = 12.0
)

// easyPaceWindowDays is the trailing window used to estimate the user's
// easy pace from history.
const easyPaceWindowDays = 28

// Input is the snapshot the engine computes from.
type Input struct {
	// Date is the target date suggestions are generated for, day precision.
	Date     time.Time
	History  []domain.ActivityRecord
	Goals    []domain.PerformanceGoal
	Forecast domain.WeeklyForecast
	Prefs    domain.Preferences
}

// ruleContext carries the input plus derived aggregates shared by the rules.
// Rules read it, never mutate it; accumulation happens in the engine.
type ruleContext struct {
	date       time.Time // midnight UTC of the target date
	weekdayIdx int       // Monday=0 .. Sunday=6
	weekStart  time.Time

	history  []domain.ActivityRecord // excluded records already filtered
	goals    []domain.PerformanceGoal
	forecast domain.WeeklyForecast
	prefs    domain.Preferences

	easyPace      float64 // min/km
	lastWeekKm    float64
	trailingAvgKm float64 // mean over the trailing 4 weeks

	// current is a read-only view of the suggestions accumulated so far,
	// for rules that key off whether anything else has fired.
	current []domain.TrainingSuggestion
}

func newRuleContext(in Input) *ruleContext {
	date := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := domain.WeekStart(date)
	prefs := in.Prefs
	if prefs.LongRunThresholdKm <= 0 {
		prefs.LongRunThresholdKm = domain.DefaultLongRunKm
	}

	snap := domain.Snapshot{Activities: in.History}
	history := snap.History()

	return &ruleContext{
		date:          date,
		weekdayIdx:    (int(date.Weekday()) + 6) % 7,
		weekStart:     weekStart,
		history:       history,
		goals:         in.Goals,
		forecast:      in.Forecast,
		prefs:         prefs,
		easyPace:      estimateEasyPace(history, date),
		lastWeekKm:    snap.RunningKmBetween(weekStart.AddDate(0, 0, -7), weekStart),
		trailingAvgKm: snap.TrailingWeeklyAverageKm(weekStart, 4),
	}
}

func (c *ruleContext) daysLeftInWeek() int { return 7 - c.weekdayIdx }
func (c *ruleContext) isBackHalf() bool    { return c.weekdayIdx >= 3 }
func (c *ruleContext) isWeekend() bool     { return c.weekdayIdx >= 5 }
func (c *ruleContext) isMidweek() bool     { return c.weekdayIdx >= 1 && c.weekdayIdx <= 3 }

// runsBetween returns running sessions with a recorded distance in
// [from, to).
func (c *ruleContext) runsBetween(from, to time.Time) []domain.ActivityRecord {
	var out []domain.ActivityRecord
	for _, a := range c.history {
		if a.Type == domain.ActivityRunning && a.DistanceKm != nil && domain.InRange(a.Date, from, to) {
			out = append(out, a)
		}
	}
	return out
}

// hasRunningHistory reports whether the user has logged any run at all.
func (c *ruleContext) hasRunningHistory() bool {
	for _, a := range c.history {
		if a.Type == domain.ActivityRunning {
			return true
		}
	}
	return false
}

// activeGoalTarget finds the first active goal carrying a target of the
// given unit. Goals with a missing or mismatched target shape are silently
// skipped.
func (c *ruleContext) activeGoalTarget(unit string) (domain.PerformanceGoal, domain.GoalTarget, bool) {
	for _, g := range c.goals {
		if !g.ActiveOn(c.date) {
			continue
		}
		if target, ok := g.Target(unit); ok {
			return g, target, true
		}
	}
	return domain.PerformanceGoal{}, domain.GoalTarget{}, false
}

// estimateEasyPace derives the user's typical easy pace as the median pace
// over cardio sessions carrying both distance and duration in the trailing
// 28 days. Defaults to 6.0 min/km with no usable history; always clamped to
// the sanity bounds.
func estimateEasyPace(history []domain.ActivityRecord, date time.Time) float64 {
	from := date.AddDate(0, 0, -easyPaceWindowDays)

	var paces []float64
	for _, a := range history {
		if !a.Type.IsCardio() || a.DistanceKm == nil || *a.DistanceKm <= 0 || a.DurationMin <= 0 {
			continue
		}
		if !domain.InRange(a.Date, from, date.AddDate(0, 0, 1)) {
			continue
		}
		paces = append(paces, a.DurationMin / *a.DistanceKm)
	}

	pace := defaultEasyPace
	if len(paces) > 0 {
		sort.Float64s(paces)
		mid := len(paces) / 2
		if len(paces)%2 == 0 {
			pace = (paces[mid-1] + paces[mid]) / 2
		} else {
			pace = paces[mid]
		}
	}

	return clamp(pace, minSanePace, maxSanePace)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
