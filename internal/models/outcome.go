package models

import "time"

// SpinOutcome is what a successful spin returns to the visitor: the index of
// the winning segment plus its prize details.
type SpinOutcome struct {
	Index       int       `json:"index"`
	Text        string    `json:"text"`
	PrizeType   PrizeType `json:"prizeType"`
	PrizeAmount string    `json:"prizeAmount"`
}

// SessionStatus is the gatekeeper's answer for a device on a route.
type SessionStatus struct {
	HasSpun         bool       `json:"hasSpun"`
	Winner          string     `json:"winner,omitempty"`
	PrizeAmount     string     `json:"prizeAmount,omitempty"`
	PrizeType       PrizeType  `json:"prizeType,omitempty"`
	OutTime         *time.Time `json:"outTime,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	ThankYouMessage string     `json:"thankYouMessage,omitempty"`
}
