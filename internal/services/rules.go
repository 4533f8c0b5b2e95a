package services

import (
	"math"
	"strconv"
	"strings"

	"spinwheel/internal/models"
)

// Rule operators accepted by the editor.
var ruleOps = map[string]bool{
	">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true,
}

// ParseAmount reads the amount a visitor says they spent. ok is false for
// anything that is not a finite number, including the empty string.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

func matchRule(op string, lhs, rhs float64) bool {
	switch op {
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	}
	return false
}

// EffectiveLimit returns the daily limit that applies to seg for a visitor
// who spent amountSpent. The first rule whose comparison holds decides,
// and a result of 0 blocks the segment for this attempt. Without a match the
// segment's own limit applies (nil meaning unlimited).
//
// An amount that does not parse matches no rule, "!=" included.
func EffectiveLimit(seg *models.Segment, amountSpent string) *int {
	amount, ok := ParseAmount(amountSpent)
	if ok {
		for _, r := range seg.Rules {
			if matchRule(r.Op, amount, r.Amount) {
				return models.IntPtr(r.DailyLimit)
			}
		}
	}
	if seg.DailyLimit == nil {
		return nil
	}
	return models.IntPtr(*seg.DailyLimit)
}
