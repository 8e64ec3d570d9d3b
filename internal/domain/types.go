// Package domain defines the shared data model consumed and produced by the
// training intelligence engines. All types are plain values; the engines never
// mutate their inputs and keep no state between calls.
package domain

import "time"

// ActivityType identifies the modality of a logged or suggested session.
// Ingested values are free-form but normalised to the constants below where
// possible.
type ActivityType string

const (
	ActivityRunning  ActivityType = "running"
	ActivityCycling  ActivityType = "cycling"
	ActivityWalking  ActivityType = "walking"
	ActivityStrength ActivityType = "strength"
	ActivityRest     ActivityType = "rest"
)

// IsCardio reports whether the type contributes to cardio load.
func (t ActivityType) IsCardio() bool {
	switch t {
	case ActivityRunning, ActivityCycling, ActivityWalking:
		return true
	}
	return false
}

// Intensity is the optional effort tag attached to an activity.
type Intensity string

const (
	IntensityUnknown  Intensity = ""
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
	IntensityUltra    Intensity = "ultra"
)

// ActivityRecord is a historical session as supplied by the surrounding
// application's log store. Immutable once logged; the engines only read it.
type ActivityRecord struct {
	ID               string
	Date             time.Time
	Type             ActivityType
	Title            string
	DurationMin      float64
	DistanceKm       *float64
	Intensity        Intensity
	AvgHeartRate     *float64
	Calories         *float64
	ExcludeFromStats bool
}

// PlanCategory classifies a planned session.
type PlanCategory string

const (
	PlanEasy      PlanCategory = "EASY"
	PlanLongRun   PlanCategory = "LONG_RUN"
	PlanIntervals PlanCategory = "INTERVALS"
	PlanRecovery  PlanCategory = "RECOVERY"
	PlanTempo     PlanCategory = "TEMPO"
	PlanStrength  PlanCategory = "STRENGTH"
	PlanRest      PlanCategory = "REST"
)

// IsRun reports whether the planned category is a running session.
func (c PlanCategory) IsRun() bool {
	switch c {
	case PlanEasy, PlanLongRun, PlanIntervals, PlanRecovery, PlanTempo:
		return true
	}
	return false
}

// PlanStatus is the lifecycle state of a planned activity.
type PlanStatus string

const (
	PlanStatusPlanned   PlanStatus = "PLANNED"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusSkipped   PlanStatus = "SKIPPED"
	PlanStatusChanged   PlanStatus = "CHANGED"
)

// PlannedActivity is a calendar entry owned by the planning UI. Read-only to
// the engines.
type PlannedActivity struct {
	ID                  string
	Date                time.Time
	Category            PlanCategory
	Status              PlanStatus
	EstimatedDistanceKm *float64
	TargetZone          string
	IsRace              bool
}

// GoalStatus marks whether a goal is currently in force.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalArchived GoalStatus = "archived"
)

// Goal target units the engines know how to act on. Targets with any other
// unit are treated as "no applicable goal" and skipped.
const (
	TargetWeeklyDistanceKm       = "weekly_distance_km"
	TargetWeeklyStrengthSessions = "weekly_strength_sessions"
)

// GoalTarget is a single unit/value pair inside a PerformanceGoal.
type GoalTarget struct {
	Unit  string
	Value float64
}

// PerformanceGoal is a user-defined target read from the goal store.
type PerformanceGoal struct {
	ID         string
	Name       string
	Status     GoalStatus
	Targets    []GoalTarget
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// ActiveOn reports whether the goal applies on the given date.
func (g PerformanceGoal) ActiveOn(date time.Time) bool {
	if g.Status != GoalActive {
		return false
	}
	if g.ValidFrom != nil && date.Before(startOfDay(*g.ValidFrom)) {
		return false
	}
	if g.ValidUntil != nil && date.After(endOfDay(*g.ValidUntil)) {
		return false
	}
	return true
}

// Target returns the goal's target for the given unit, if present.
func (g PerformanceGoal) Target(unit string) (GoalTarget, bool) {
	for _, t := range g.Targets {
		if t.Unit == unit && t.Value > 0 {
			return t, true
		}
	}
	return GoalTarget{}, false
}

// WeeklyForecast combines completed-to-date and still-planned volume for the
// current week. Derived, never stored.
type WeeklyForecast struct {
	RunningKm        float64
	StrengthSessions int
}

// TrainingSuggestion is a single ranked recommendation produced by the
// suggestion engine. Regenerated on every call, never persisted.
type TrainingSuggestion struct {
	ID          string
	Type        ActivityType
	Label       string
	Description string
	Reason      string
	DurationMin *float64
	DistanceKm  *float64
	Intensity   Intensity
	Priority    int
}

// ConflictType identifies the interference rule that produced a warning.
type ConflictType string

const (
	ConflictInterference   ConflictType = "INTERFERENCE_EFFECT"
	ConflictDoubleStrength ConflictType = "DOUBLE_STRENGTH"
	ConflictRecoveryRisk   ConflictType = "RECOVERY_RISK"
)

// RiskLevel grades the severity of a conflict warning.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ConflictWarning flags a physiologically adverse same-day combination of
// training stimuli. Ephemeral engine output.
type ConflictWarning struct {
	ID          string
	Date        time.Time
	Type        ConflictType
	Risk        RiskLevel
	Message     string
	Explanation string
	ActivityIDs []string
	Suggestion  string
}

// Preferences carries the user-tunable knobs the engines honour.
type Preferences struct {
	LongRunThresholdKm float64
	BirthYear          int
	// Modalities restricts which suggestion types may be emitted. Empty
	// means all modalities are enabled.
	Modalities []ActivityType
}

// DefaultLongRunKm is the long-run threshold applied when the user has not
// configured one.
const DefaultLongRunKm = 15.0

// DefaultPreferences returns the engine defaults.
func DefaultPreferences() Preferences {
	return Preferences{LongRunThresholdKm: DefaultLongRunKm}
}

// ModalityEnabled reports whether suggestions of the given type may be
// emitted. Rest advisories are always allowed.
func (p Preferences) ModalityEnabled(t ActivityType) bool {
	if t == ActivityRest || len(p.Modalities) == 0 {
		return true
	}
	for _, m := range p.Modalities {
		if m == t {
			return true
		}
	}
	return false
}

// MaxHeartRate estimates max HR from the birth year (220 - age), defaulting
// to age 30 when unknown.
func (p Preferences) MaxHeartRate(now time.Time) float64 {
	age := 30
	if p.BirthYear > 0 && p.BirthYear < now.Year() {
		age = now.Year() - p.BirthYear
	}
	return float64(220 - age)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
