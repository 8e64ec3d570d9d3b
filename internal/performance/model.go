// Package performance models running performance: effort-to-fitness
// conversion, race-time prediction, pace zones, and calorie estimation.
// Every function is pure. Malformed numeric input (zero, negative, or
// non-finite values) yields a documented neutral value, never an error.
package performance

import "math"

// Daniels/Gilbert oxygen-cost and drop-off coefficients. Velocity is in
// metres per minute, elapsed time in minutes.
const (
	vo2ConstA = -4.60
	vo2ConstB = 0.182258
	vo2ConstC = 0.000104

	dropBase  = 0.8
	dropCoefA = 0.1894393
	dropExpA  = -0.012778
	dropCoefB = 0.2989558
	dropExpB  = -0.1932605
)

// Zone intensity fractions of the fitness score used for pace derivation.
const (
	easyFraction      = 0.70
	thresholdFraction = 0.88
	intervalFraction  = 1.00
)

// FitnessScore converts a race result into a single aerobic fitness index
// (VDOT-style). A 20:00 5 km yields roughly 49.8. Returns 0 for
// non-positive or non-finite input.
func FitnessScore(distanceKm, timeSeconds float64) float64 {
	if !validPositive(distanceKm) || !validPositive(timeSeconds) {
		return 0
	}
	minutes := timeSeconds / 60
	velocity := distanceKm * 1000 / minutes
	vo2 := oxygenCost(velocity)
	frac := dropBase + dropCoefA*math.Exp(dropExpA*minutes) + dropCoefB*math.Exp(dropExpB*minutes)
	if frac <= 0 || vo2 <= 0 {
		return 0
	}
	return vo2 / frac
}

// PredictRaceTime inverts FitnessScore: given a fitness score, it predicts
// the finishing time in seconds over the target distance. The inversion is a
// bisection on time, bounded by 2:00 and 20:00 min/km paces (grounded on the
// same guarantees as the forward model: score decreases monotonically with
// time over a fixed distance). Returns 0 for invalid input.
func PredictRaceTime(score, distanceKm float64) float64 {
	if !validPositive(score) || !validPositive(distanceKm) {
		return 0
	}

	lo := distanceKm * 2 * 60  // fastest considered pace
	hi := distanceKm * 20 * 60 // slowest considered pace

	if FitnessScore(distanceKm, lo) < score {
		return lo
	}
	if FitnessScore(distanceKm, hi) > score {
		return hi
	}

	for i := 0; i < 80 && hi-lo > 0.01; i++ {
		mid := (lo + hi) / 2
		if FitnessScore(distanceKm, mid) > score {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Round((lo + hi) / 2)
}

// Zones holds training paces in minutes per kilometre. Easy is the slowest
// (numerically largest) pace; interval the fastest.
type Zones struct {
	Easy      float64
	Threshold float64
	Interval  float64
}

// PaceZones derives easy/threshold/interval paces from a fitness score by
// inverting the oxygen-cost curve at fixed intensity fractions. The zero
// value is returned for invalid scores.
func PaceZones(score float64) Zones {
	if !validPositive(score) {
		return Zones{}
	}
	return Zones{
		Easy:      paceForVO2(score * easyFraction),
		Threshold: paceForVO2(score * thresholdFraction),
		Interval:  paceForVO2(score * intervalFraction),
	}
}

// CooperVO2 estimates VO2max from the distance covered in a 12-minute Cooper
// test. Returns 0 when the distance is not positive.
func CooperVO2(distanceMeters float64) float64 {
	if !validPositive(distanceMeters) {
		return 0
	}
	return (distanceMeters - 504.9) / 44.73
}

// RiegelPredict extrapolates a known race result to another distance using
// Riegel's endurance model with the conventional 1.06 fatigue exponent.
func RiegelPredict(knownTimeSeconds, knownDistanceKm, targetDistanceKm float64) float64 {
	if !validPositive(knownTimeSeconds) || !validPositive(knownDistanceKm) || !validPositive(targetDistanceKm) {
		return 0
	}
	return knownTimeSeconds * math.Pow(targetDistanceKm/knownDistanceKm, 1.06)
}

// CalorieParams carries the optional physiological inputs for calorie
// estimation. Missing fields fall back to zero, which makes the respective
// estimate degrade to 0 rather than fail.
type CalorieParams struct {
	WeightKg   float64
	SpeedKph   float64
	PowerWatts float64
}

// MET multipliers for duration-based fallback estimates.
const (
	walkingMET  = 3.5
	strengthMET = 6.0
)

// Joules per kilocalorie and gross metabolic efficiency used to convert
// cycling mechanical work into energy expenditure.
const (
	joulesPerKcal     = 4184.0
	cyclingEfficiency = 0.24
)

// EstimateCalories estimates energy expenditure for a session.
// Running uses weight x speed x hours; cycling converts mechanical power to
// metabolic cost via a fixed efficiency; walking and strength fall back to
// MET-based multipliers. Unknown activity types return 0, not an error.
func EstimateCalories(activityType string, durationSeconds float64, params CalorieParams) float64 {
	if !validPositive(durationSeconds) {
		return 0
	}
	hours := durationSeconds / 3600

	switch activityType {
	case "running":
		if params.WeightKg <= 0 || params.SpeedKph <= 0 {
			return 0
		}
		return params.WeightKg * params.SpeedKph * hours
	case "cycling":
		if params.PowerWatts <= 0 {
			return 0
		}
		return params.PowerWatts * durationSeconds / joulesPerKcal / cyclingEfficiency
	case "walking":
		return met(walkingMET, params.WeightKg, hours)
	case "strength":
		return met(strengthMET, params.WeightKg, hours)
	default:
		return 0
	}
}

func met(factor, weightKg, hours float64) float64 {
	if weightKg <= 0 {
		return 0
	}
	return factor * weightKg * hours
}

// oxygenCost returns the VO2 demand of running at the given velocity (m/min).
func oxygenCost(velocity float64) float64 {
	return vo2ConstA + vo2ConstB*velocity + vo2ConstC*velocity*velocity
}

// paceForVO2 inverts oxygenCost and converts the resulting velocity to a
// pace in min/km.
func paceForVO2(vo2 float64) float64 {
	disc := vo2ConstB*vo2ConstB + 4*vo2ConstC*(vo2-vo2ConstA)
	if disc <= 0 {
		return 0
	}
	velocity := (-vo2ConstB + math.Sqrt(disc)) / (2 * vo2ConstC)
	if velocity <= 0 {
		return 0
	}
	return 1000 / velocity
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
