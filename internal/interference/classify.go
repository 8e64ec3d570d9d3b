// Package interference classifies activities into physiological signal
// categories and flags same-day combinations likely to blunt training
// adaptation. The model is the MTOR/AMPK pathway proxy: resistance work
// drives MTOR, sustained or intense cardio drives AMPK, and mixing the two
// on the same day risks interference.
package interference

import (
	"strings"

	"example.com/intelligence/internal/domain"
)

// SignalCategory is the derived, non-persisted pathway tag assigned per
// activity at analysis time.
type SignalCategory int

const (
	SignalUnknown SignalCategory = iota
	SignalMTOR
	SignalAMPKHigh
	SignalAMPKLow
	SignalHybrid
	SignalNeutral
)

// String implements fmt.Stringer.
func (s SignalCategory) String() string {
	switch s {
	case SignalMTOR:
		return "MTOR"
	case SignalAMPKHigh:
		return "AMPK_HIGH"
	case SignalAMPKLow:
		return "AMPK_LOW"
	case SignalHybrid:
		return "HYBRID"
	case SignalNeutral:
		return "NEUTRAL"
	default:
		return "UNKNOWN"
	}
}

// ActivityLike is the normalised shape the classifier works on. Both logged
// and planned sessions reduce to it, so the detector never probes loosely
// typed fields.
type ActivityLike struct {
	ID        string
	Date      string // calendar date, used for same-day grouping
	Type      domain.ActivityType
	Category  domain.PlanCategory
	Intensity domain.Intensity
	Title     string
}

// FromRecord normalises a logged activity.
func FromRecord(a domain.ActivityRecord) ActivityLike {
	return ActivityLike{
		ID:        a.ID,
		Date:      domain.DayKey(a.Date),
		Type:      a.Type,
		Intensity: a.Intensity,
		Title:     a.Title,
	}
}

// FromPlanned normalises a planned activity.
func FromPlanned(p domain.PlannedActivity) ActivityLike {
	return ActivityLike{
		ID:       p.ID,
		Date:     domain.DayKey(p.Date),
		Category: p.Category,
		Title:    string(p.Category),
	}
}

var (
	hybridKeywords   = []string{"crossfit", "hyrox", "bootcamp", "circuit"}
	strengthKeywords = []string{"strength", "weights", "lifting", "gym"}
	highKeywords     = []string{"interval", "tempo", "race", "long run", "long_run"}
	lowKeywords      = []string{"recovery", "walk"}
	neutralKeywords  = []string{"rest", "yoga", "stretch", "mobility"}
)

// Classify maps an activity to its signal category. Precedence: hybrid
// keywords, then explicit strength, then cardio split by intensity and
// keyword (defaulting to AMPK_HIGH when ambiguous), then neutral keywords.
// Anything unmatched is UNKNOWN.
func Classify(a ActivityLike) SignalCategory {
	title := strings.ToLower(a.Title)

	if containsAny(title, hybridKeywords) {
		return SignalHybrid
	}

	if a.Type == domain.ActivityStrength || a.Category == domain.PlanStrength || containsAny(title, strengthKeywords) {
		return SignalMTOR
	}

	if a.Type.IsCardio() || a.Category.IsRun() {
		switch {
		case a.Intensity == domain.IntensityHigh || a.Intensity == domain.IntensityUltra:
			return SignalAMPKHigh
		case isHighCategory(a.Category) || containsAny(title, highKeywords):
			return SignalAMPKHigh
		case a.Intensity == domain.IntensityLow || a.Type == domain.ActivityWalking ||
			a.Category == domain.PlanRecovery || containsAny(title, lowKeywords):
			return SignalAMPKLow
		default:
			// Cardio with no further signal is conservatively treated as
			// the adaptation-blunting kind.
			return SignalAMPKHigh
		}
	}

	if a.Type == domain.ActivityRest || a.Category == domain.PlanRest || containsAny(title, neutralKeywords) {
		return SignalNeutral
	}

	return SignalUnknown
}

func isHighCategory(c domain.PlanCategory) bool {
	switch c {
	case domain.PlanIntervals, domain.PlanTempo, domain.PlanLongRun:
		return true
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
