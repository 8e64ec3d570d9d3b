package interference

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"example.com/intelligence/internal/domain"
)

// Fixed physiological explanations and mitigations per rule type. Content is
// deterministic given the rule; nothing is computed from the inputs.
const (
	interferenceMessage     = "Strength and intense cardio scheduled on the same day"
	interferenceExplanation = "High-intensity endurance work activates AMPK signalling, which suppresses the MTOR pathway your strength session just triggered. Stacking both on one day blunts the adaptation from each."
	interferenceSuggestion  = "Separate the sessions by at least 6 hours. If the same day is unavoidable, lift before you run."

	doubleStrengthMessage     = "Two or more strength sessions on the same day"
	doubleStrengthExplanation = "Repeated resistance stimulus within one day adds fatigue faster than it adds signal; muscle protein synthesis from the first session is still running."
	doubleStrengthSuggestion  = "Consolidate into a single session, or move the second session to the following day."

	recoveryRiskMessage     = "Hybrid session combined with dedicated strength work"
	recoveryRiskExplanation = "A mixed-modality session already taxes both the MTOR and AMPK pathways. Adding a dedicated strength session on top leaves no recovery window for either."
	recoveryRiskSuggestion  = "Drop one of the two sessions or push the strength work to tomorrow."
)

// Detect groups the given activities by calendar date and evaluates the
// interference rules per day. All applicable rules fire independently; the
// returned warnings are ordered by date, then rule type.
func Detect(activities []ActivityLike) []domain.ConflictWarning {
	byDay := make(map[string][]ActivityLike)
	for _, a := range activities {
		byDay[a.Date] = append(byDay[a.Date], a)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	var warnings []domain.ConflictWarning
	for _, day := range days {
		warnings = append(warnings, evaluateDay(day, byDay[day])...)
	}
	return warnings
}

func evaluateDay(day string, activities []ActivityLike) []domain.ConflictWarning {
	var mtor, ampkHigh, hybrid []string
	for _, a := range activities {
		switch Classify(a) {
		case SignalMTOR:
			mtor = append(mtor, a.ID)
		case SignalAMPKHigh:
			ampkHigh = append(ampkHigh, a.ID)
		case SignalHybrid:
			hybrid = append(hybrid, a.ID)
		}
	}

	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil
	}

	var warnings []domain.ConflictWarning

	if len(mtor) > 0 && len(ampkHigh)+len(hybrid) > 0 {
		ids := append(append([]string{}, mtor...), append(ampkHigh, hybrid...)...)
		warnings = append(warnings, warning(date, domain.ConflictInterference, domain.RiskHigh,
			interferenceMessage, interferenceExplanation, interferenceSuggestion, ids))
	}

	if len(mtor) >= 2 {
		warnings = append(warnings, warning(date, domain.ConflictDoubleStrength, domain.RiskModerate,
			doubleStrengthMessage, doubleStrengthExplanation, doubleStrengthSuggestion, mtor))
	}

	if len(hybrid) > 0 && len(mtor) > 0 {
		ids := append(append([]string{}, hybrid...), mtor...)
		warnings = append(warnings, warning(date, domain.ConflictRecoveryRisk, domain.RiskHigh,
			recoveryRiskMessage, recoveryRiskExplanation, recoveryRiskSuggestion, ids))
	}

	return warnings
}

// warning builds a ConflictWarning with a deterministic ID so identical
// inputs always produce identical output.
func warning(date time.Time, ctype domain.ConflictType, risk domain.RiskLevel, msg, explanation, suggestion string, ids []string) domain.ConflictWarning {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	name := fmt.Sprintf("intelligence/conflict/%s/%s/%v", ctype, date.Format("2006-01-02"), sorted)
	return domain.ConflictWarning{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(),
		Date:        date,
		Type:        ctype,
		Risk:        risk,
		Message:     msg,
		Explanation: explanation,
		ActivityIDs: ids,
		Suggestion:  suggestion,
	}
}
