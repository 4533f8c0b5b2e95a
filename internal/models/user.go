package models

import "time"

// PointsEntry is one line of a user's loyalty ledger.
type PointsEntry struct {
	WheelID      string    `json:"wheelId" bson:"wheelId"`
	SpinResultID string    `json:"spinResultId" bson:"spinResultId"`
	Points       int       `json:"points" bson:"points"`
	Prize        string    `json:"prize" bson:"prize"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// User accumulates loyalty points. (Surname, Name) acts as its natural key.
type User struct {
	ID            string        `json:"_id" bson:"_id"`
	Surname       string        `json:"surname" bson:"surname"`
	Name          string        `json:"name" bson:"name"`
	Phone         string        `json:"phone" bson:"phone"`
	Email         string        `json:"email" bson:"email"`
	LoyaltyPoints int           `json:"loyaltyPoints" bson:"loyaltyPoints"`
	PointsHistory []PointsEntry `json:"pointsHistory" bson:"pointsHistory"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PointsHistory = append([]PointsEntry(nil), u.PointsHistory...)
	return &c
}
