package suggest

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"example.com/intelligence/internal/domain"
)

// Tunables for the individual rules.
const (
	goalGapMinKm = 3.0
	goalGapMaxKm = 25.0
	goalGapCapKm = 30.0

	recoveryForecastFactor = 1.10
	recoveryMinBaselineKm  = 10.0
	recoveryJogMinutes     = 30.0

	overloadForecastFactor = 1.50
	overloadMinLastWeekKm  = 10.0

	progressionFactor    = 1.05
	progressionMinLastKm = 5.0

	hardSessionMinutes    = 90.0
	restedDayRunMinutes   = 45.0
	longRunStaleDays      = 7
	longRunForcedGapDays  = 14
	qualityWindowDays     = 10
	favoriteWindowDays    = 30
	favoriteMinOccurrence = 2
	favoriteToleranceKm   = 2.0

	// weekdayPatternMinCount guards the weekday-pattern rule against firing
	// on a single historical occurrence.
	weekdayPatternMinCount = 2
)

// rule is a single independent recommendation generator. Rules may emit zero
// or more candidates; the engine handles deduplication and ranking.
type rule struct {
	name  string
	apply func(*ruleContext) []domain.TrainingSuggestion
}

// rules is the fixed evaluation order. Emission order is the tie-breaker
// within a priority class, so the order here is part of the contract.
var rules = []rule{
	{"goal-gap", goalGapRule},
	{"recovery-advisory", recoveryAdvisoryRule},
	{"load-safety", loadSafetyRule},
	{"strength-gap", strengthGapRule},
	{"weekday-pattern", weekdayPatternRule},
	{"post-hard-day", postHardDayRule},
	{"progressive-overload", progressiveOverloadRule},
	{"long-run", longRunRule},
	{"quality-variety", qualityVarietyRule},
	{"favorite-distance", favoriteDistanceRule},
}

// goalGapRule sizes a run to exactly the distance still missing from an
// active weekly distance goal, once the week is in its back half.
func goalGapRule(c *ruleContext) []domain.TrainingSuggestion {
	goal, target, ok := c.activeGoalTarget(domain.TargetWeeklyDistanceKm)
	if !ok || !c.isBackHalf() {
		return nil
	}

	remaining := target.Value - c.forecast.RunningKm
	if remaining < goalGapMinKm || remaining > goalGapMaxKm {
		return nil
	}

	distance := round1(math.Min(remaining, goalGapCapKm))
	duration := math.Round(distance * c.easyPace)

	return []domain.TrainingSuggestion{c.suggestion("goal-gap", domain.ActivityRunning, PriorityGoal,
		"Close the distance goal",
		fmt.Sprintf("Run %.1f km to reach this week's distance target.", distance),
		fmt.Sprintf("Goal %q still needs %.1f km this week.", goal.Name, remaining),
		withDistance(distance), withDuration(duration), withIntensity(domain.IntensityModerate))}
}

// recoveryAdvisoryRule fires when the weekly forecast runs well ahead of the
// trailing four-week average: a rest advisory plus a concrete easy jog.
func recoveryAdvisoryRule(c *ruleContext) []domain.TrainingSuggestion {
	if c.trailingAvgKm <= recoveryMinBaselineKm {
		return nil
	}
	if c.forecast.RunningKm <= c.trailingAvgKm*recoveryForecastFactor {
		return nil
	}

	jogKm := round1(recoveryJogMinutes / c.easyPace)

	return []domain.TrainingSuggestion{
		c.suggestion("recovery-rest", domain.ActivityRest, PriorityRoutine,
			"Consider a rest day",
			"This week's volume is running ahead of your recent average. A rest day protects the adaptation.",
			fmt.Sprintf("Forecast %.1f km vs %.1f km trailing average.", c.forecast.RunningKm, c.trailingAvgKm)),
		c.suggestion("recovery-jog", domain.ActivityRunning, PriorityRoutine,
			"Easy recovery jog",
			fmt.Sprintf("An easy %.0f-minute jog (about %.1f km) keeps the legs moving without adding load.", recoveryJogMinutes, jogKm),
			"Active recovery during a high-volume week.",
			withDistance(jogKm), withDuration(recoveryJogMinutes), withIntensity(domain.IntensityLow)),
	}
}

// loadSafetyRule is the high-priority override: the forecast jumping past
// 150% of last completed week is a classic overuse setup.
func loadSafetyRule(c *ruleContext) []domain.TrainingSuggestion {
	if c.lastWeekKm <= overloadMinLastWeekKm {
		return nil
	}
	if c.forecast.RunningKm <= c.lastWeekKm*overloadForecastFactor {
		return nil
	}

	return []domain.TrainingSuggestion{c.suggestion("load-safety", domain.ActivityRest, PrioritySafety,
		"Training load warning",
		fmt.Sprintf("This week is heading for %.1f km, more than 150%% of last week's %.1f km. Cut volume back to reduce injury risk.",
			c.forecast.RunningKm, c.lastWeekKm),
		"Weekly volume spike beyond the safe progression range.")}
}

// strengthGapRule fires when an active strength-frequency goal can only be
// met by training on every remaining day of the week.
func strengthGapRule(c *ruleContext) []domain.TrainingSuggestion {
	goal, target, ok := c.activeGoalTarget(domain.TargetWeeklyStrengthSessions)
	if !ok {
		return nil
	}

	remaining := int(target.Value) - c.forecast.StrengthSessions
	if remaining <= 0 || remaining < c.daysLeftInWeek() {
		return nil
	}

	return []domain.TrainingSuggestion{c.suggestion("strength-gap", domain.ActivityStrength, PriorityGoal,
		"Strength session due",
		fmt.Sprintf("%d strength sessions still needed with %d days left this week.", remaining, c.daysLeftInWeek()),
		fmt.Sprintf("Goal %q requires %.0f sessions per week.", goal.Name, target.Value),
		withDuration(45))}
}

// weekdayPatternRule surfaces what the user habitually does on this weekday.
func weekdayPatternRule(c *ruleContext) []domain.TrainingSuggestion {
	var sameDay []domain.ActivityRecord
	for _, a := range c.history {
		if a.Date.Weekday() == c.date.Weekday() && a.Date.Before(c.date) {
			sameDay = append(sameDay, a)
		}
	}

	counts := make(map[domain.ActivityType]int)
	for _, a := range sameDay {
		counts[a.Type]++
	}

	var best domain.ActivityType
	bestCount := 0
	types := make([]domain.ActivityType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}

	if bestCount < weekdayPatternMinCount {
		return nil
	}
	if best != domain.ActivityRunning && best != domain.ActivityStrength {
		return nil
	}

	var totalDur, totalKm float64
	kmSessions := 0
	for _, a := range sameDay {
		if a.Type != best {
			continue
		}
		totalDur += a.DurationMin
		if a.DistanceKm != nil {
			totalKm += *a.DistanceKm
			kmSessions++
		}
	}

	duration := roundTo(totalDur/float64(bestCount), 5)
	opts := []suggestionOption{withDuration(duration)}
	if best == domain.ActivityRunning && kmSessions > 0 {
		opts = append(opts, withDistance(round1(totalKm/float64(kmSessions))))
	}

	weekday := c.date.Weekday().String()
	return []domain.TrainingSuggestion{c.suggestion("weekday-pattern", best, PriorityPattern,
		fmt.Sprintf("Your usual %s %s", weekday, best),
		fmt.Sprintf("You have done a %s session on %d of your past %ss. Keep the habit going.", best, bestCount, weekday),
		fmt.Sprintf("Most common activity for %ss across your history.", weekday),
		opts...)}
}

// postHardDayRule suggests recovery after a hard day, or a default easy run
// after a fully rested day when nothing else has fired.
func postHardDayRule(c *ruleContext) []domain.TrainingSuggestion {
	yesterday := c.date.AddDate(0, 0, -1)

	hard := false
	trained := false
	for _, a := range c.history {
		if !domain.SameDay(a.Date, yesterday) {
			continue
		}
		trained = true
		if a.Intensity == domain.IntensityHigh || a.Intensity == domain.IntensityUltra || a.DurationMin > hardSessionMinutes {
			hard = true
		}
	}

	if hard {
		km := round1(recoveryJogMinutes / c.easyPace)
		return []domain.TrainingSuggestion{c.suggestion("post-hard-recovery", domain.ActivityRunning, PriorityRoutine,
			"Recovery run",
			fmt.Sprintf("Yesterday was a hard day. An easy %.0f-minute run (about %.1f km) helps you absorb it.", recoveryJogMinutes, km),
			"High-intensity or long session logged yesterday.",
			withDistance(km), withDuration(recoveryJogMinutes), withIntensity(domain.IntensityLow))}
	}

	if !trained && len(c.current) == 0 {
		km := round1(restedDayRunMinutes / c.easyPace)
		return []domain.TrainingSuggestion{c.suggestion("rested-day-run", domain.ActivityRunning, PriorityRoutine,
			"Easy run",
			fmt.Sprintf("You rested yesterday. A relaxed %.0f-minute run (about %.1f km) fits well today.", restedDayRunMinutes, km),
			"Fully rested yesterday with no other recommendation for today.",
			withDistance(km), withDuration(restedDayRunMinutes), withIntensity(domain.IntensityLow))}
	}

	return nil
}

// progressiveOverloadRule suggests the exact distance missing to hit a 5%
// week-over-week progression.
func progressiveOverloadRule(c *ruleContext) []domain.TrainingSuggestion {
	if c.lastWeekKm <= progressionMinLastKm {
		return nil
	}
	target := c.lastWeekKm * progressionFactor
	if c.forecast.RunningKm >= target {
		return nil
	}

	missing := round1(target - c.forecast.RunningKm)
	duration := math.Round(missing * c.easyPace)

	return []domain.TrainingSuggestion{c.suggestion("progressive-overload", domain.ActivityRunning, PriorityRoutine,
		"Keep the progression going",
		fmt.Sprintf("Another %.1f km this week reaches a 5%% build on last week's %.1f km.", missing, c.lastWeekKm),
		"Weekly volume currently below the progression target.",
		withDistance(missing), withDuration(duration), withIntensity(domain.IntensityModerate))}
}

// longRunRule reminds about the weekly long run once it has gone stale.
func longRunRule(c *ruleContext) []domain.TrainingSuggestion {
	if !c.hasRunningHistory() {
		return nil
	}
	threshold := c.prefs.LongRunThresholdKm

	gapDays := math.MaxInt32
	for _, a := range c.history {
		if a.Type != domain.ActivityRunning || a.DistanceKm == nil || *a.DistanceKm < threshold {
			continue
		}
		if a.Date.After(c.date) {
			continue
		}
		d := int(c.date.Sub(a.Date).Hours() / 24)
		if d < gapDays {
			gapDays = d
		}
	}

	if gapDays < longRunStaleDays {
		return nil
	}
	if !c.isWeekend() && gapDays <= longRunForcedGapDays {
		return nil
	}

	duration := math.Round(threshold * c.easyPace)
	return []domain.TrainingSuggestion{c.suggestion("long-run", domain.ActivityRunning, PriorityRoutine,
		"Long run due",
		fmt.Sprintf("No run of %.0f km or more recently. A %.0f km long run keeps the endurance base intact.", threshold, threshold),
		"Long-run stimulus missing for over a week.",
		withDistance(threshold), withDuration(duration), withIntensity(domain.IntensityModerate))}
}

// qualityVarietyRule nudges towards an interval or tempo session when all
// recent running has been easy.
func qualityVarietyRule(c *ruleContext) []domain.TrainingSuggestion {
	if !c.hasRunningHistory() || !c.isMidweek() {
		return nil
	}

	from := c.date.AddDate(0, 0, -qualityWindowDays)
	for _, a := range c.history {
		if a.Type != domain.ActivityRunning || !domain.InRange(a.Date, from, c.date) {
			continue
		}
		if a.Intensity == domain.IntensityHigh || a.Intensity == domain.IntensityUltra {
			return nil
		}
	}

	return []domain.TrainingSuggestion{c.suggestion("quality-variety", domain.ActivityRunning, PriorityRoutine,
		"Add some speed",
		"All recent runs have been easy. A midweek interval or tempo session restores the intensity mix.",
		fmt.Sprintf("No high-intensity run in the past %d days.", qualityWindowDays),
		withDuration(40), withIntensity(domain.IntensityHigh))}
}

// favoriteDistanceRule recognises a recurring run distance from the trailing
// 30 days and offers it, unless another suggestion already covers it.
func favoriteDistanceRule(c *ruleContext) []domain.TrainingSuggestion {
	runs := c.runsBetween(c.date.AddDate(0, 0, -favoriteWindowDays), c.date)

	type bucketStats struct {
		count    int
		totalKm  float64
		totalMin float64
	}
	buckets := make(map[float64]*bucketStats)
	for _, a := range runs {
		b := math.Round(*a.DistanceKm*2) / 2
		s := buckets[b]
		if s == nil {
			s = &bucketStats{}
			buckets[b] = s
		}
		s.count++
		s.totalKm += *a.DistanceKm
		if a.DurationMin > 0 {
			s.totalMin += a.DurationMin
		}
	}

	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	best := -1.0
	bestCount := 0
	for _, k := range keys {
		if buckets[k].count > bestCount {
			best, bestCount = k, buckets[k].count
		}
	}
	if bestCount < favoriteMinOccurrence {
		return nil
	}

	for _, s := range c.current {
		if s.Type == domain.ActivityRunning && s.DistanceKm != nil && math.Abs(*s.DistanceKm-best) <= favoriteToleranceKm {
			return nil
		}
	}

	stats := buckets[best]
	pace := c.easyPace
	if stats.totalMin > 0 && stats.totalKm > 0 {
		pace = clamp(stats.totalMin/stats.totalKm, minSanePace, maxSanePace)
	}
	duration := math.Round(best * pace)

	return []domain.TrainingSuggestion{c.suggestion("favorite-distance", domain.ActivityRunning, PriorityRoutine,
		"Your go-to distance",
		fmt.Sprintf("You have run about %.1f km %d times this month. Another round?", best, bestCount),
		"Recurring distance in the trailing 30 days.",
		withDistance(best), withDuration(duration), withIntensity(domain.IntensityModerate))}
}

type suggestionOption func(*domain.TrainingSuggestion)

func withDistance(km float64) suggestionOption {
	return func(s *domain.TrainingSuggestion) { s.DistanceKm = &km }
}

func withDuration(minutes float64) suggestionOption {
	return func(s *domain.TrainingSuggestion) { s.DurationMin = &minutes }
}

func withIntensity(i domain.Intensity) suggestionOption {
	return func(s *domain.TrainingSuggestion) { s.Intensity = i }
}

// suggestion builds a TrainingSuggestion with a deterministic ID derived
// from the rule ID and target date.
func (c *ruleContext) suggestion(ruleID string, typ domain.ActivityType, priority int, label, description, reason string, opts ...suggestionOption) domain.TrainingSuggestion {
	name := fmt.Sprintf("intelligence/suggestion/%s/%s", ruleID, c.date.Format("2006-01-02"))
	s := domain.TrainingSuggestion{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(),
		Type:        typ,
		Label:       label,
		Description: description,
		Reason:      reason,
		Priority:    priority,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
