package services

import (
	"math"
	"testing"

	"spinwheel/internal/models"
)

func TestEligibleSegments(t *testing.T) {
	wheel := &models.Wheel{
		Segments: []models.Segment{
			{Text: "Free Fries", DailyLimit: models.IntPtr(2), DailyRemaining: models.IntPtr(2)},
			{Text: "Sold Out", DailyLimit: models.IntPtr(1), DailyRemaining: models.IntPtr(0)},
			{Text: "Big Spender", Rules: []models.Rule{{Op: "<", Amount: 1000, DailyLimit: 0}}},
			{Text: "Try Again"},
		},
	}

	t.Run("Test exhausted and blocked segments are skipped", func(t *testing.T) {
		got := EligibleSegments(wheel, "250", false)
		want := []int{0, 3}
		if !equalInts(got, want) {
			t.Fatalf("Expected eligible %v, but got %v", want, got)
		}
	})

	t.Run("Test rule stops blocking above the threshold", func(t *testing.T) {
		got := EligibleSegments(wheel, "1500", false)
		want := []int{0, 2, 3}
		if !equalInts(got, want) {
			t.Fatalf("Expected eligible %v, but got %v", want, got)
		}
	})

	t.Run("Test unlimited mode ignores quotas and rules", func(t *testing.T) {
		got := EligibleSegments(wheel, "250", true)
		want := []int{0, 1, 2, 3}
		if !equalInts(got, want) {
			t.Fatalf("Expected eligible %v, but got %v", want, got)
		}
	})

	t.Run("Test nothing left", func(t *testing.T) {
		empty := &models.Wheel{Segments: []models.Segment{
			{Text: "A", DailyLimit: models.IntPtr(0), DailyRemaining: models.IntPtr(0)},
		}}
		if got := EligibleSegments(empty, "", false); len(got) != 0 {
			t.Fatalf("Expected no eligible segments, but got %v", got)
		}
	})
}

func TestUniformPicker_Distribution(t *testing.T) {
	const draws = 20000
	eligible := []int{0, 2, 5, 7}
	counts := make(map[int]int, len(eligible))

	var p UniformPicker
	for range draws {
		counts[p.Pick(eligible)]++
	}

	if len(counts) != len(eligible) {
		t.Fatalf("Expected %d distinct picks, but got %v", len(eligible), counts)
	}
	expected := float64(draws) / float64(len(eligible))
	for _, idx := range eligible {
		dev := math.Abs(float64(counts[idx])-expected) / expected
		if dev > 0.05 {
			t.Errorf("Expected index %d near %.0f picks, but got %d", idx, expected, counts[idx])
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
