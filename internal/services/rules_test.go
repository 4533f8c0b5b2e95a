package services

import (
	"testing"

	"spinwheel/internal/models"
)

func TestEffectiveLimit(t *testing.T) {
	seg := &models.Segment{
		Text:       "Free Dessert",
		DailyLimit: models.IntPtr(5),
		Rules: []models.Rule{
			{Op: ">", Amount: 1000, DailyLimit: 2},
			{Op: ">", Amount: 500, DailyLimit: 1},
			{Op: "<", Amount: 100, DailyLimit: 0},
		},
	}

	t.Run("First matching rule wins", func(t *testing.T) {
		got := EffectiveLimit(seg, "1500")
		if got == nil || *got != 2 {
			t.Fatalf("Expected effective limit 2, but got %v", got)
		}
	})

	t.Run("Later rule applies when earlier ones miss", func(t *testing.T) {
		got := EffectiveLimit(seg, "750")
		if got == nil || *got != 1 {
			t.Fatalf("Expected effective limit 1, but got %v", got)
		}
	})

	t.Run("Zero override blocks the segment", func(t *testing.T) {
		got := EffectiveLimit(seg, "50")
		if got == nil || *got != 0 {
			t.Fatalf("Expected effective limit 0, but got %v", got)
		}
	})

	t.Run("No match falls back to the segment limit", func(t *testing.T) {
		got := EffectiveLimit(seg, "300")
		if got == nil || *got != 5 {
			t.Fatalf("Expected effective limit 5, but got %v", got)
		}
	})

	t.Run("Unlimited segment without a match stays unlimited", func(t *testing.T) {
		free := &models.Segment{Rules: []models.Rule{{Op: ">=", Amount: 100, DailyLimit: 3}}}
		if got := EffectiveLimit(free, "10"); got != nil {
			t.Fatalf("Expected nil effective limit, but got %d", *got)
		}
		if got := EffectiveLimit(free, "100"); got == nil || *got != 3 {
			t.Fatalf("Expected effective limit 3 at the threshold, but got %v", got)
		}
	})

	t.Run("Unparseable amounts match no rule", func(t *testing.T) {
		negated := &models.Segment{
			DailyLimit: models.IntPtr(4),
			Rules:      []models.Rule{{Op: "!=", Amount: 10, DailyLimit: 0}},
		}
		for _, amount := range []string{"", "abc", "NaN", "Inf", "12abc"} {
			got := EffectiveLimit(negated, amount)
			if got == nil || *got != 4 {
				t.Errorf("Expected fallback limit 4 for amount %q, but got %v", amount, got)
			}
		}
	})
}

func TestMatchRule(t *testing.T) {
	cases := []struct {
		op   string
		lhs  float64
		rhs  float64
		want bool
	}{
		{">", 10, 5, true},
		{">", 5, 5, false},
		{">=", 5, 5, true},
		{"<", 4, 5, true},
		{"<=", 5, 5, true},
		{"<=", 6, 5, false},
		{"==", 5, 5, true},
		{"==", 5.5, 5, false},
		{"!=", 5.5, 5, true},
		{"!=", 5, 5, false},
		{"~", 5, 5, false},
	}
	for _, c := range cases {
		if got := matchRule(c.op, c.lhs, c.rhs); got != c.want {
			t.Errorf("matchRule(%q, %v, %v) = %v, want %v", c.op, c.lhs, c.rhs, got, c.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if v, ok := ParseAmount(" 250.5 "); !ok || v != 250.5 {
		t.Fatalf("Expected 250.5, but got %v (ok=%v)", v, ok)
	}
	if _, ok := ParseAmount("₹500"); ok {
		t.Fatal("Expected currency-prefixed text not to parse")
	}
}
