package prediction

import "math"

// ConfidenceLabel is a coarse plausibility grade.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "High"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceLow    ConfidenceLabel = "Low"
)

// Ratio thresholds for the overall label. These are fixed.
const (
	highRatio   = 0.85
	mediumRatio = 0.6
)

type valueRange struct {
	lo, hi float64
}

// plausibleRanges bounds the properties with known physical ranges (inclusive).
// Any property not listed is plausible iff finite.
var plausibleRanges = map[string]valueRange{
	"mu":    {0, 10},
	"alpha": {10, 300},
	"homo":  {-15, 5},
	"lumo":  {-15, 5},
	"gap":   {0, 20},
}

// IsPlausible reports whether v is a believable value for code.
func IsPlausible(code string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	r, ok := plausibleRanges[code]
	if !ok {
		return true
	}
	return v >= r.lo && v <= r.hi
}

// labelForRatio maps a plausible fraction onto a label.
func labelForRatio(ratio float64) ConfidenceLabel {
	switch {
	case ratio > highRatio:
		return ConfidenceHigh
	case ratio > mediumRatio:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EstimateConfidence grades a prediction vector. codes[i] names values[i].
// The overall label follows the fraction of plausible values; each property
// gets the overall label unless its own value is NaN or infinite, in which
// case it is Low. An empty vector, or one whose length disagrees with codes,
// is Medium throughout.
func EstimateConfidence(codes []string, values []float64) (ConfidenceLabel, []ConfidenceLabel) {
	per := make([]ConfidenceLabel, len(values))
	if len(values) == 0 || len(values) != len(codes) {
		for i := range per {
			per[i] = ConfidenceMedium
		}
		return ConfidenceMedium, per
	}

	plausible := 0
	for i, v := range values {
		if IsPlausible(codes[i], v) {
			plausible++
		}
	}
	overall := labelForRatio(float64(plausible) / float64(len(values)))

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			per[i] = ConfidenceLow
		} else {
			per[i] = overall
		}
	}
	return overall, per
}

//Personal.AI order the ending
