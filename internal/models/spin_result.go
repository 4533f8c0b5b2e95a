package models

import "time"

// SpinResult is one visitor's single-use ticket for one wheel. It is created
// when the entry form is submitted (or anonymously when the form is off) and
// becomes terminal once Winner is set.
type SpinResult struct {
	ID              string            `json:"_id" bson:"_id"`
	WheelID         string            `json:"wheelId" bson:"wheelId"`
	RouteName       string            `json:"routeName" bson:"routeName"`
	Surname         string            `json:"surname" bson:"surname"`
	Name            string            `json:"name" bson:"name"`
	AmountSpent     string            `json:"amountSpent" bson:"amountSpent"`
	CustomFieldData map[string]string `json:"customFieldData" bson:"customFieldData"`
	FormEnabled     bool              `json:"formEnabled" bson:"formEnabled"`
	InTime          time.Time         `json:"inTime" bson:"inTime"`
	OutTime         *time.Time        `json:"outTime,omitempty" bson:"outTime,omitempty"`
	Winner          *string           `json:"winner,omitempty" bson:"winner,omitempty"`
	PrizeType       PrizeType         `json:"prizeType" bson:"prizeType"`
	PrizeAmount     string            `json:"prizeAmount" bson:"prizeAmount"`
	UserID          string            `json:"userId,omitempty" bson:"userId,omitempty"`
	Approved        bool              `json:"approved" bson:"approved"`
	UserAgent       string            `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	IPAddress       string            `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	DeviceID        string            `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Spun reports whether the ticket has been consumed.
func (r *SpinResult) Spun() bool {
	return r.Winner != nil
}

// Outcome is what a spin writes onto its session.
type Outcome struct {
	Winner      string    `json:"winner"`
	PrizeType   PrizeType `json:"prizeType"`
	PrizeAmount string    `json:"prizeAmount"`
	UserID      string    `json:"userId,omitempty"`
	OutTime     time.Time `json:"outTime"`
}

// Apply writes o onto r.
func (o Outcome) Apply(r *SpinResult) {
	winner := o.Winner
	out := o.OutTime
	r.Winner = &winner
	r.PrizeType = o.PrizeType.OrDefault()
	r.PrizeAmount = o.PrizeAmount
	if o.UserID != "" {
		r.UserID = o.UserID
	}
	r.OutTime = &out
}

// Clone returns a copy that shares nothing mutable with r.
func (r *SpinResult) Clone() *SpinResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.CustomFieldData != nil {
		c.CustomFieldData = make(map[string]string, len(r.CustomFieldData))
		for k, v := range r.CustomFieldData {
			c.CustomFieldData[k] = v
		}
	}
	if r.OutTime != nil {
		v := *r.OutTime
		c.OutTime = &v
	}
	if r.Winner != nil {
		v := *r.Winner
		c.Winner = &v
	}
	return &c
}
