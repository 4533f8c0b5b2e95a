package models

import "time"

// PrizeType classifies what a segment pays out.
type PrizeType string

const (
	PrizeCash    PrizeType = "cash"
	PrizeLoyalty PrizeType = "loyalty"
	PrizeOther   PrizeType = "other"
)

// Valid reports whether t is one of the known prize classifications.
func (t PrizeType) Valid() bool {
	switch t {
	case PrizeCash, PrizeLoyalty, PrizeOther:
		return true
	}
	return false
}

// OrDefault returns t, or PrizeOther when t is empty or unknown.
func (t PrizeType) OrDefault() PrizeType {
	if t.Valid() {
		return t
	}
	return PrizeOther
}

// Rule overrides a segment's daily limit for spenders whose amount satisfies
// the comparison. Rules are evaluated in order and the first match wins.
type Rule struct {
	Op         string  `json:"op" bson:"op"`
	Amount     float64 `json:"amount" bson:"amount"`
	DailyLimit int     `json:"dailyLimit" bson:"dailyLimit"`
}

// Segment is one wedge of a wheel. Its position in Wheel.Segments is its
// identity.
//
// DailyRemaining is nil whenever DailyLimit is nil and otherwise stays within
// [0, *DailyLimit]. LastResetAt is always a local midnight.
type Segment struct {
	Text           string     `json:"text" bson:"text"`
	Color          string     `json:"color" bson:"color"`
	Image          string     `json:"image,omitempty" bson:"image,omitempty"`
	PrizeType      PrizeType  `json:"prizeType" bson:"prizeType"`
	Amount         string     `json:"amount" bson:"amount"`
	DailyLimit     *int       `json:"dailyLimit" bson:"dailyLimit"`
	DailyRemaining *int       `json:"dailyRemaining" bson:"dailyRemaining"`
	LastResetAt    *time.Time `json:"lastResetAt,omitempty" bson:"lastResetAt,omitempty"`
	Rules          []Rule     `json:"rules" bson:"rules"`
}

// Limited reports whether the segment has a daily quota.
func (s *Segment) Limited() bool {
	return s.DailyLimit != nil
}

// Remaining returns the quota left today, falling back to the daily limit
// when no counter has been stored yet. It returns 0 for unlimited segments.
func (s *Segment) Remaining() int {
	if s.DailyRemaining != nil {
		return *s.DailyRemaining
	}
	if s.DailyLimit != nil {
		return *s.DailyLimit
	}
	return 0
}

// Wheel is the aggregate an admin configures and visitors spin.
type Wheel struct {
	ID                     string     `json:"_id" bson:"_id"`
	Name                   string     `json:"name" bson:"name"`
	RouteName              string     `json:"routeName" bson:"routeName"`
	Description            string     `json:"description" bson:"description"`
	Segments               []Segment  `json:"segments" bson:"segments"`
	CenterImage            string     `json:"centerImage,omitempty" bson:"centerImage,omitempty"`
	CenterImageRadius      int        `json:"centerImageRadius" bson:"centerImageRadius"`
	WheelBackgroundColor   string     `json:"wheelBackgroundColor" bson:"wheelBackgroundColor"`
	WrapperBackgroundColor string     `json:"wrapperBackgroundColor" bson:"wrapperBackgroundColor"`
	SpinDurationSec        *float64   `json:"spinDurationSec" bson:"spinDurationSec"`
	SpinBaseTurns          int        `json:"spinBaseTurns" bson:"spinBaseTurns"`
	FormConfig             FormConfig `json:"formConfig" bson:"formConfig"`
	SessionExpiryMinutes   int        `json:"sessionExpiryMinutes" bson:"sessionExpiryMinutes"`
	ThankYouMessage        string     `json:"thankYouMessage" bson:"thankYouMessage"`
	CreatedAt              time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Unlimited reports whether the wheel allows repeat spins, in which case
// quotas are neither checked nor decremented.
func (w *Wheel) Unlimited() bool {
	return w.SessionExpiryMinutes == 0
}

// Clone returns a deep copy so callers can mutate segments without touching
// a stored document.
func (w *Wheel) Clone() *Wheel {
	if w == nil {
		return nil
	}
	c := *w
	c.Segments = CloneSegments(w.Segments)
	c.FormConfig = w.FormConfig.Clone()
	if w.SpinDurationSec != nil {
		v := *w.SpinDurationSec
		c.SpinDurationSec = &v
	}
	return &c
}

// CloneSegments deep-copies a segment slice including pointer fields.
func CloneSegments(in []Segment) []Segment {
	if in == nil {
		return nil
	}
	out := make([]Segment, len(in))
	for i, s := range in {
		out[i] = s
		if s.DailyLimit != nil {
			v := *s.DailyLimit
			out[i].DailyLimit = &v
		}
		if s.DailyRemaining != nil {
			v := *s.DailyRemaining
			out[i].DailyRemaining = &v
		}
		if s.LastResetAt != nil {
			v := *s.LastResetAt
			out[i].LastResetAt = &v
		}
		if s.Rules != nil {
			out[i].Rules = append([]Rule(nil), s.Rules...)
		}
	}
	return out
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
