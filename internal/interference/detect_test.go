package interference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/intelligence/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func record(id string, d int, typ domain.ActivityType, intensity domain.Intensity, title string) ActivityLike {
	return FromRecord(domain.ActivityRecord{
		ID:        id,
		Date:      day(d),
		Type:      typ,
		Intensity: intensity,
		Title:     title,
	})
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		in   ActivityLike
		want SignalCategory
	}{
		{"hybrid keyword wins over strength type", record("a", 1, domain.ActivityStrength, "", "CrossFit WOD"), SignalHybrid},
		{"explicit strength", record("a", 1, domain.ActivityStrength, "", "Leg day"), SignalMTOR},
		{"strength keyword on unknown type", record("a", 1, "", "", "Gym session"), SignalMTOR},
		{"high intensity run", record("a", 1, domain.ActivityRunning, domain.IntensityHigh, ""), SignalAMPKHigh},
		{"ultra intensity run", record("a", 1, domain.ActivityRunning, domain.IntensityUltra, ""), SignalAMPKHigh},
		{"interval keyword", record("a", 1, domain.ActivityRunning, "", "6x800m intervals"), SignalAMPKHigh},
		{"tempo keyword", record("a", 1, domain.ActivityCycling, "", "Tempo ride"), SignalAMPKHigh},
		{"ambiguous cardio defaults high", record("a", 1, domain.ActivityRunning, "", "Morning run"), SignalAMPKHigh},
		{"low intensity run", record("a", 1, domain.ActivityRunning, domain.IntensityLow, ""), SignalAMPKLow},
		{"recovery keyword", record("a", 1, domain.ActivityRunning, "", "Recovery jog"), SignalAMPKLow},
		{"walking is low", record("a", 1, domain.ActivityWalking, "", ""), SignalAMPKLow},
		{"rest is neutral", record("a", 1, domain.ActivityRest, "", ""), SignalNeutral},
		{"yoga keyword is neutral", record("a", 1, "", "", "Yoga flow"), SignalNeutral},
		{"unmatched is unknown", record("a", 1, "", "", "Something else"), SignalUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.in), "title=%q", tt.in.Title)
		})
	}
}

func TestClassifyPlanned(t *testing.T) {
	require.Equal(t, SignalMTOR, Classify(FromPlanned(domain.PlannedActivity{ID: "p", Date: day(1), Category: domain.PlanStrength})))
	require.Equal(t, SignalAMPKHigh, Classify(FromPlanned(domain.PlannedActivity{ID: "p", Date: day(1), Category: domain.PlanIntervals})))
	require.Equal(t, SignalAMPKLow, Classify(FromPlanned(domain.PlannedActivity{ID: "p", Date: day(1), Category: domain.PlanRecovery})))
	require.Equal(t, SignalNeutral, Classify(FromPlanned(domain.PlannedActivity{ID: "p", Date: day(1), Category: domain.PlanRest})))
}

func TestDetectInterferenceEffect(t *testing.T) {
	warnings := Detect([]ActivityLike{
		record("lift-1", 5, domain.ActivityStrength, "", "Upper body"),
		record("run-1", 5, domain.ActivityRunning, domain.IntensityHigh, "Intervals"),
	})

	require.Len(t, warnings, 1)
	w := warnings[0]
	require.Equal(t, domain.ConflictInterference, w.Type)
	require.Equal(t, domain.RiskHigh, w.Risk)
	require.ElementsMatch(t, []string{"lift-1", "run-1"}, w.ActivityIDs)
	require.Equal(t, day(5), w.Date)
	require.NotEmpty(t, w.Explanation)
	require.NotEmpty(t, w.Suggestion)
}

func TestDetectDoubleStrength(t *testing.T) {
	warnings := Detect([]ActivityLike{
		record("lift-1", 7, domain.ActivityStrength, "", "Morning lift"),
		record("lift-2", 7, domain.ActivityStrength, "", "Evening lift"),
	})

	require.Len(t, warnings, 1)
	require.Equal(t, domain.ConflictDoubleStrength, warnings[0].Type)
	require.Equal(t, domain.RiskModerate, warnings[0].Risk)
	require.ElementsMatch(t, []string{"lift-1", "lift-2"}, warnings[0].ActivityIDs)
}

func TestDetectHybridPlusStrength(t *testing.T) {
	warnings := Detect([]ActivityLike{
		record("wod-1", 9, "", "", "CrossFit WOD"),
		record("lift-1", 9, domain.ActivityStrength, "", "Squats"),
	})

	// Hybrid counts as intense cardio for the interference rule and also
	// triggers the recovery-risk rule.
	require.Len(t, warnings, 2)
	require.Equal(t, domain.ConflictInterference, warnings[0].Type)
	require.Equal(t, domain.ConflictRecoveryRisk, warnings[1].Type)
	require.Equal(t, domain.RiskHigh, warnings[1].Risk)
}

func TestDetectSeparateDaysNoConflict(t *testing.T) {
	warnings := Detect([]ActivityLike{
		record("lift-1", 1, domain.ActivityStrength, "", "Lift"),
		record("run-1", 2, domain.ActivityRunning, domain.IntensityHigh, "Intervals"),
	})
	require.Empty(t, warnings)
}

func TestDetectLowCardioDoesNotConflict(t *testing.T) {
	warnings := Detect([]ActivityLike{
		record("lift-1", 3, domain.ActivityStrength, "", "Lift"),
		record("jog-1", 3, domain.ActivityRunning, domain.IntensityLow, "Recovery jog"),
	})
	require.Empty(t, warnings)
}

func TestDetectDeterministicIDs(t *testing.T) {
	input := []ActivityLike{
		record("lift-1", 5, domain.ActivityStrength, "", "Lift"),
		record("run-1", 5, domain.ActivityRunning, domain.IntensityHigh, "Intervals"),
	}
	first := Detect(input)
	second := Detect(input)
	require.Equal(t, first, second)
	require.NotEmpty(t, first[0].ID)
}
