package suggest

import (
	"math"
	"sort"

	"example.com/intelligence/internal/domain"
)

// dedupeToleranceKm is the similarity window: a candidate matching an
// existing suggestion's modality within this distance is redundant.
const dedupeToleranceKm = 1.5

// Generate evaluates all rules in order against the input and returns the
// ranked suggestion list. The result is a pure function of the input:
// identical inputs produce identical output, element for element.
func Generate(in Input) []domain.TrainingSuggestion {
	ctx := newRuleContext(in)

	var collected []domain.TrainingSuggestion
	for _, r := range rules {
		ctx.current = collected
		for _, candidate := range r.apply(ctx) {
			if !ctx.prefs.ModalityEnabled(candidate.Type) {
				continue
			}
			if similarExists(collected, candidate) {
				continue
			}
			collected = append(collected, candidate)
		}
	}

	// Stable sort: priority classes first, emission order within a class.
	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Priority < collected[j].Priority
	})
	return collected
}

// similarExists reports whether an equivalent suggestion is already present:
// same modality with a distance inside the tolerance window. Suggestions
// without distances never collide, so distinct advisories coexist.
func similarExists(existing []domain.TrainingSuggestion, candidate domain.TrainingSuggestion) bool {
	if candidate.DistanceKm == nil {
		return false
	}
	for _, s := range existing {
		if s.Type != candidate.Type || s.DistanceKm == nil {
			continue
		}
		if math.Abs(*s.DistanceKm-*candidate.DistanceKm) <= dedupeToleranceKm {
			return true
		}
	}
	return false
}
