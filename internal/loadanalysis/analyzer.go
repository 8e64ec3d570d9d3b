// Package loadanalysis aggregates one week of activity into an intensity
// distribution, a volume trend against the trailing baseline, and a
// plan-adherence narrative.
package loadanalysis

import (
	"fmt"
	"math"
	"time"

	"example.com/intelligence/internal/domain"
)

// Heart-rate ratio thresholds for intensity bucketing when no explicit tag
// is present.
const (
	moderateHRRatio = 0.70
	highHRRatio     = 0.80
)

// Volume trend classification boundaries, percent difference against the
// trailing four-week baseline.
const (
	aggressiveDiffPct  = 20.0
	progressiveDiffPct = 10.0
	deloadDiffPct      = -10.0
)

// Distance discrepancy (km) beyond which an adherence observation is emitted.
const distanceDiscrepancyKm = 2.0

// TrendClass labels the weekly volume trajectory.
type TrendClass string

const (
	TrendAggressive  TrendClass = "Aggressive"
	TrendProgressive TrendClass = "Progressive"
	TrendMaintenance TrendClass = "Maintenance"
	TrendDeload      TrendClass = "Deload"
)

// IntensityDistribution buckets the week's cardio minutes into effort zones.
type IntensityDistribution struct {
	LowMinutes      float64
	ModerateMinutes float64
	HighMinutes     float64
	LowPercent      float64
	ModeratePercent float64
	HighPercent     float64
}

// VolumeTrend compares the weekly forecast against the trailing baseline.
type VolumeTrend struct {
	Classification TrendClass
	ForecastKm     float64
	BaselineKm     float64
	DiffPercent    float64
}

// AdherenceReport summarises how the week tracked against the plan.
type AdherenceReport struct {
	Percent      float64
	PlannedCount int
	Completed    int
	Missed       int
	Extra        int
	Observations []string
}

// WeeklyReport is the analyzer's structured output.
type WeeklyReport struct {
	WeekStart time.Time
	Intensity IntensityDistribution
	Trend     VolumeTrend
	Adherence AdherenceReport
}

// Analyze computes the full weekly report from the snapshot. now anchors
// "missed" determination and the forecast; prefs supplies the max-HR
// estimate for intensity derivation.
func Analyze(snap domain.Snapshot, weekStart, now time.Time, prefs domain.Preferences) WeeklyReport {
	weekStart = domain.WeekStart(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 7)

	return WeeklyReport{
		WeekStart: weekStart,
		Intensity: intensityDistribution(snap, weekStart, weekEnd, prefs.MaxHeartRate(now)),
		Trend:     volumeTrend(snap, weekStart, now),
		Adherence: adherence(snap, weekStart, weekEnd, now),
	}
}

// intensityDistribution buckets cardio minutes. An explicit intensity tag
// wins; otherwise the heart-rate ratio against max HR decides; sessions with
// neither default to moderate rather than being dropped.
func intensityDistribution(snap domain.Snapshot, from, to time.Time, maxHR float64) IntensityDistribution {
	var dist IntensityDistribution
	for _, a := range snap.History() {
		if !a.Type.IsCardio() || !domain.InRange(a.Date, from, to) {
			continue
		}
		switch bucketFor(a, maxHR) {
		case domain.IntensityLow:
			dist.LowMinutes += a.DurationMin
		case domain.IntensityHigh:
			dist.HighMinutes += a.DurationMin
		default:
			dist.ModerateMinutes += a.DurationMin
		}
	}

	total := dist.LowMinutes + dist.ModerateMinutes + dist.HighMinutes
	if total > 0 {
		dist.LowPercent = round1(dist.LowMinutes / total * 100)
		dist.ModeratePercent = round1(dist.ModerateMinutes / total * 100)
		dist.HighPercent = round1(dist.HighMinutes / total * 100)
	}
	return dist
}

func bucketFor(a domain.ActivityRecord, maxHR float64) domain.Intensity {
	switch a.Intensity {
	case domain.IntensityLow:
		return domain.IntensityLow
	case domain.IntensityModerate:
		return domain.IntensityModerate
	case domain.IntensityHigh, domain.IntensityUltra:
		return domain.IntensityHigh
	}

	if a.AvgHeartRate != nil && maxHR > 0 {
		ratio := *a.AvgHeartRate / maxHR
		switch {
		case ratio < moderateHRRatio:
			return domain.IntensityLow
		case ratio < highHRRatio:
			return domain.IntensityModerate
		default:
			return domain.IntensityHigh
		}
	}

	return domain.IntensityModerate
}

// volumeTrend classifies this week's forecast against the mean of the
// trailing four weeks. A zero baseline yields a 0% difference, not an error.
func volumeTrend(snap domain.Snapshot, weekStart, now time.Time) VolumeTrend {
	forecast := snap.Forecast(weekStart, now).RunningKm
	baseline := snap.TrailingWeeklyAverageKm(weekStart, 4)

	var diff float64
	if baseline > 0 {
		diff = (forecast - baseline) / baseline * 100
	}

	class := TrendMaintenance
	switch {
	case diff > aggressiveDiffPct:
		class = TrendAggressive
	case diff > progressiveDiffPct:
		class = TrendProgressive
	case diff < deloadDiffPct:
		class = TrendDeload
	}

	return VolumeTrend{
		Classification: class,
		ForecastKm:     round1(forecast),
		BaselineKm:     round1(baseline),
		DiffPercent:    round1(diff),
	}
}

// adherence walks the week's plan and emits the narrative in insertion
// order: the overall adherence message first, then per-activity distance
// discrepancies, then missed call-outs, then unplanned extras.
func adherence(snap domain.Snapshot, from, to, now time.Time) AdherenceReport {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	history := snap.History()

	var report AdherenceReport
	var missed []domain.PlannedActivity
	var discrepancies []string

	for _, p := range snap.Planned {
		if !domain.InRange(p.Date, from, to) {
			continue
		}
		report.PlannedCount++

		switch p.Status {
		case domain.PlanStatusCompleted:
			report.Completed++
			if msg := distanceDiscrepancy(p, history); msg != "" {
				discrepancies = append(discrepancies, msg)
			}
		case domain.PlanStatusPlanned:
			if p.Date.Before(today) {
				report.Missed++
				missed = append(missed, p)
			}
		}
	}

	extras := unplannedExtras(snap, from, to)
	report.Extra = len(extras)

	if report.PlannedCount == 0 {
		report.Percent = 100
	} else {
		report.Percent = round1(float64(report.Completed) / float64(report.PlannedCount) * 100)
	}

	if report.PlannedCount > 0 {
		if report.Completed == report.PlannedCount {
			report.Observations = append(report.Observations,
				fmt.Sprintf("All %d planned sessions completed this week.", report.PlannedCount))
		} else {
			report.Observations = append(report.Observations,
				fmt.Sprintf("Completed %d of %d planned sessions (%d missed).",
					report.Completed, report.PlannedCount, report.Missed))
		}
	}

	report.Observations = append(report.Observations, discrepancies...)

	for _, p := range missed {
		report.Observations = append(report.Observations,
			fmt.Sprintf("Missed %s planned for %s.", p.Category, p.Date.Format("Mon Jan 2")))
	}

	for _, a := range extras {
		report.Observations = append(report.Observations,
			fmt.Sprintf("Unplanned %s session on %s.", a.Type, a.Date.Format("Mon Jan 2")))
	}

	return report
}

// distanceDiscrepancy reports an overshoot/undershoot beyond the threshold
// for a completed plan with a distance estimate and a matching logged
// activity.
func distanceDiscrepancy(p domain.PlannedActivity, history []domain.ActivityRecord) string {
	if p.EstimatedDistanceKm == nil {
		return ""
	}
	for _, a := range history {
		if !domain.SameDay(a.Date, p.Date) || !planMatchesActivity(p, a) || a.DistanceKm == nil {
			continue
		}
		diff := *a.DistanceKm - *p.EstimatedDistanceKm
		if math.Abs(diff) <= distanceDiscrepancyKm {
			return ""
		}
		direction := "over"
		if diff < 0 {
			direction = "under"
		}
		return fmt.Sprintf("%s on %s: %.1f km logged vs %.1f km planned (%.1f km %s).",
			p.Category, p.Date.Format("Mon Jan 2"), *a.DistanceKm, *p.EstimatedDistanceKm, math.Abs(diff), direction)
	}
	return ""
}

// unplannedExtras returns completed sessions in the week with no matching
// plan entry on the same day.
func unplannedExtras(snap domain.Snapshot, from, to time.Time) []domain.ActivityRecord {
	var extras []domain.ActivityRecord
	for _, a := range snap.History() {
		if !domain.InRange(a.Date, from, to) || a.Type == domain.ActivityRest {
			continue
		}
		matched := false
		for _, p := range snap.Planned {
			if domain.SameDay(p.Date, a.Date) && planMatchesActivity(p, a) {
				matched = true
				break
			}
		}
		if !matched {
			extras = append(extras, a)
		}
	}
	return extras
}

// planMatchesActivity pairs a plan entry with a logged session by modality.
func planMatchesActivity(p domain.PlannedActivity, a domain.ActivityRecord) bool {
	if p.Category == domain.PlanStrength {
		return a.Type == domain.ActivityStrength
	}
	if p.Category.IsRun() {
		return a.Type == domain.ActivityRunning
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
