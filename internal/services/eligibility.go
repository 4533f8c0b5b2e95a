package services

import (
	"math/rand/v2"

	"spinwheel/internal/models"
)

// EligibleSegments returns the indices of the segments a visitor who spent
// amountSpent can win right now. In unlimited mode every segment qualifies
// and quotas are not read. Otherwise a segment drops out when a rule blocks
// it (effective limit 0) or when it is limited and has nothing left today.
// Rule overrides only gate; the counter always tracks the segment's own limit.
func EligibleSegments(wheel *models.Wheel, amountSpent string, unlimited bool) []int {
	eligible := make([]int, 0, len(wheel.Segments))
	for i := range wheel.Segments {
		seg := &wheel.Segments[i]
		if unlimited {
			eligible = append(eligible, i)
			continue
		}
		if eff := EffectiveLimit(seg, amountSpent); eff != nil && *eff == 0 {
			continue
		}
		if seg.Limited() && seg.Remaining() <= 0 {
			continue
		}
		eligible = append(eligible, i)
	}
	return eligible
}

// Picker chooses one index out of a non-empty eligible list.
type Picker interface {
	Pick(eligible []int) int
}

// UniformPicker picks with equal probability among the eligible indices.
type UniformPicker struct{}

func (UniformPicker) Pick(eligible []int) int {
	return eligible[rand.IntN(len(eligible))]
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func(eligible []int) int

func (f PickerFunc) Pick(eligible []int) int {
	return f(eligible)
}
