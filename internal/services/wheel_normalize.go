package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"spinwheel/internal/models"
)

const (
	DefaultThankYouMessage      = "Thanks for Availing the Offer!"
	DefaultSessionExpiryMinutes = 60
	DefaultSpinBaseTurns        = 6
	DefaultCenterImageRadius    = 70
	DefaultBackgroundColor      = "#ffffff"

	maxRuleDailyLimit   = 1000
	maxExpiryMinutes    = 1440
	maxDescriptionLen   = 500
	maxThankYouLen      = 200
	defaultSegmentColor = "#cccccc"
)

var (
	hexColor   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	routeChars = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// NormalizeRouteName trims and lower-cases a route name and checks it is a
// single URL path segment.
func NormalizeRouteName(s string) (string, error) {
	r := strings.ToLower(strings.TrimSpace(s))
	if r == "" {
		return "", fmt.Errorf("%w: routeName is required", ErrInvalidInput)
	}
	if !routeChars.MatchString(r) {
		return "", fmt.Errorf("%w: routeName may only contain letters, digits, '-' and '_'", ErrInvalidInput)
	}
	return r, nil
}

// SanitizeRules drops every rule with an unknown operator, a negative or
// missing amount, or a daily limit outside 0..1000.
func SanitizeRules(in []models.RuleInput) []models.Rule {
	out := make([]models.Rule, 0, len(in))
	for _, r := range in {
		op := strings.TrimSpace(r.Op)
		if !ruleOps[op] {
			continue
		}
		if !r.Amount.Valid || r.Amount.Value < 0 {
			continue
		}
		if !r.DailyLimit.Valid || r.DailyLimit.Value < 0 || r.DailyLimit.Value > maxRuleDailyLimit {
			continue
		}
		out = append(out, models.Rule{
			Op:         op,
			Amount:     r.Amount.Value,
			DailyLimit: int(math.Floor(r.DailyLimit.Value)),
		})
	}
	return out
}

// NormalizeSegments turns editor input into segments. A blank limit means
// unlimited; otherwise the limit is floored at 0 and the remaining count is
// clamped to [0, limit], defaulting to the limit.
func NormalizeSegments(in []models.SegmentInput) ([]models.Segment, error) {
	out := make([]models.Segment, 0, len(in))
	for i, s := range in {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: segment %d: text is required", ErrInvalidInput, i)
		}
		if s.PrizeType != "" && !s.PrizeType.Valid() {
			return nil, fmt.Errorf("%w: segment %d: unknown prizeType %q", ErrInvalidInput, i, s.PrizeType)
		}
		seg := models.Segment{
			Text:      text,
			Color:     sanitizeColor(s.Color, defaultSegmentColor),
			Image:     s.Image,
			PrizeType: s.PrizeType.OrDefault(),
			Amount:    strings.TrimSpace(s.Amount),
			Rules:     SanitizeRules(s.Rules),
		}
		if s.DailyLimit.Valid {
			limit := max(0, int(math.Floor(s.DailyLimit.Value)))
			remaining := limit
			if s.DailyRemaining.Valid {
				remaining = min(limit, max(0, int(math.Floor(s.DailyRemaining.Value))))
			}
			seg.DailyLimit = models.IntPtr(limit)
			seg.DailyRemaining = models.IntPtr(remaining)
		}
		out = append(out, seg)
	}
	return out, nil
}

// seedNewSegments prepares freshly created segments: each limited segment
// starts the day with its full quota.
func seedNewSegments(segments []models.Segment, today time.Time) {
	for i := range segments {
		seg := &segments[i]
		if seg.DailyLimit == nil {
			continue
		}
		seg.DailyRemaining = models.IntPtr(*seg.DailyLimit)
		t := today
		seg.LastResetAt = &t
	}
}

// carryOverSegments merges edited segments with the stored ones by index.
// Removing a limit clears the quota state; adding one starts a full quota
// today; changing one keeps the stored counter (or the submitted one, if
// sent) clamped to the new limit along with the stored reset date.
func carryOverSegments(next []models.Segment, prev []models.Segment, submitted []models.SegmentInput, today time.Time) {
	for i := range next {
		seg := &next[i]
		if seg.DailyLimit == nil {
			seg.DailyRemaining = nil
			seg.LastResetAt = nil
			continue
		}
		var old *models.Segment
		if i < len(prev) {
			old = &prev[i]
		}
		if old == nil || old.DailyLimit == nil {
			seg.DailyRemaining = models.IntPtr(*seg.DailyLimit)
			t := today
			seg.LastResetAt = &t
			continue
		}

		base := old.Remaining()
		if submitted[i].DailyRemaining.Valid {
			base = int(math.Floor(submitted[i].DailyRemaining.Value))
		}
		seg.DailyRemaining = models.IntPtr(min(*seg.DailyLimit, max(0, base)))
		if old.LastResetAt != nil {
			t := *old.LastResetAt
			seg.LastResetAt = &t
		} else {
			t := today
			seg.LastResetAt = &t
		}
	}
}

func sanitizeShortText(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen])
	}
	return s
}

func sanitizeColor(s, fallback string) string {
	s = strings.TrimSpace(s)
	if hexColor.MatchString(s) {
		return s
	}
	return fallback
}

// sanitizeSpinDuration allows 1..60 seconds; anything unusable means "use
// the client default".
func sanitizeSpinDuration(n models.Number) *float64 {
	if !n.Valid {
		return nil
	}
	v := math.Max(1, math.Min(60, n.Value))
	return &v
}

func sanitizeSpinBaseTurns(n models.Number) int {
	if !n.Valid {
		return DefaultSpinBaseTurns
	}
	return int(math.Max(1, math.Min(20, math.Floor(n.Value))))
}

func sanitizeCenterImageRadius(n models.Number) int {
	if !n.Valid {
		return DefaultCenterImageRadius
	}
	return int(math.Max(20, math.Min(160, math.Floor(n.Value))))
}

// sanitizeSessionExpiry allows 0 (repeat spins) up to one day.
func sanitizeSessionExpiry(n models.Number) int {
	if !n.Valid {
		return DefaultSessionExpiryMinutes
	}
	return int(math.Max(0, math.Min(maxExpiryMinutes, math.Floor(n.Value))))
}

func sanitizeThankYou(s *string) string {
	if s == nil {
		return DefaultThankYouMessage
	}
	return sanitizeShortText(*s, maxThankYouLen)
}

func normalizeCustomFields(fields []models.CustomField) []models.CustomField {
	out := make([]models.CustomField, 0, len(fields))
	for _, f := range fields {
		f.ID = strings.TrimSpace(f.ID)
		f.Label = strings.TrimSpace(f.Label)
		if f.ID == "" || f.Label == "" {
			continue
		}
		switch f.Type {
		case "text", "number", "email", "tel":
		default:
			f.Type = "text"
		}
		out = append(out, f)
	}
	return out
}
