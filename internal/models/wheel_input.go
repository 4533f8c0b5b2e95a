package models

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// Number is a loosely typed numeric field as sent by the editor: a JSON
// number, a numeric string, an empty string or null. Set records whether the
// key was present at all; Valid whether it carried a finite number.
type Number struct {
	Set   bool
	Valid bool
	Value float64
}

// NumberOf returns a valid Number holding v.
func NumberOf(v float64) Number {
	return Number{Set: true, Valid: true, Value: v}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	n.Set = true
	n.Valid = false
	n.Value = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unq)
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Valid = true
	n.Value = v
	return nil
}

// RuleInput is an unsanitised rule from the editor.
type RuleInput struct {
	Op         string `json:"op"`
	Amount     Number `json:"amount"`
	DailyLimit Number `json:"dailyLimit"`
}

// SegmentInput is an unsanitised segment from the editor.
type SegmentInput struct {
	Text           string      `json:"text"`
	Color          string      `json:"color"`
	Image          string      `json:"image"`
	PrizeType      PrizeType   `json:"prizeType"`
	Amount         string      `json:"amount"`
	DailyLimit     Number      `json:"dailyLimit"`
	DailyRemaining Number      `json:"dailyRemaining"`
	Rules          []RuleInput `json:"rules"`
}

// WheelInput is the body of a wheel create or update. Pointer and Number
// fields distinguish "not sent" from zero values, since an update only
// touches what it carries. A nil Segments slice means "keep segments".
type WheelInput struct {
	Name                   *string          `json:"name"`
	RouteName              *string          `json:"routeName"`
	Description            *string          `json:"description"`
	Segments               []SegmentInput   `json:"segments"`
	CenterImage            *string          `json:"centerImage"`
	CenterImageRadius      Number           `json:"centerImageRadius"`
	WheelBackgroundColor   *string          `json:"wheelBackgroundColor"`
	WrapperBackgroundColor *string          `json:"wrapperBackgroundColor"`
	SpinDurationSec        Number           `json:"spinDurationSec"`
	SpinBaseTurns          Number           `json:"spinBaseTurns"`
	FormConfig             *FormConfigInput `json:"formConfig"`
	SessionExpiryMinutes   Number           `json:"sessionExpiryMinutes"`
	ThankYouMessage        *string          `json:"thankYouMessage"`
}
