package rating

import "math"

// Blend weight schedule. The majority weight goes to the larger of the two
// ratings; the larger the one-race deviation, the more of an outlier the
// new data point is treated as.
const (
	hugeDiff  = 40
	largeDiff = 30
	midDiff   = 20
)

// Update folds a single-race performance rating into a runner's persistent
// rating. A runner with no rating, or one returning from inactivity, takes
// the new rating outright and becomes active. Otherwise the two values are
// blended, weighting the larger value more heavily as the gap grows so one
// anomalous race cannot swing a rating built from history.
//
// Returns the new persistent rating (rounded to 3 decimals) and the new
// active status. Never fails.
func Update(current *float64, active bool, perf float64) (float64, bool) {
	if current == nil || !active {
		return round3(perf), true
	}

	hi := math.Max(*current, perf)
	lo := math.Min(*current, perf)
	diff := hi - lo

	var blended float64
	switch {
	case diff >= hugeDiff:
		blended = hi*0.90 + lo*0.10
	case diff >= largeDiff:
		blended = hi*0.85 + lo*0.15
	case diff > midDiff:
		blended = hi*0.80 + lo*0.20
	default:
		blended = hi*0.75 + lo*0.25
	}
	return round3(blended), true
}
