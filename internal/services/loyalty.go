package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/logger"
)

var firstDigits = regexp.MustCompile(`\d+`)

// LoyaltyPoints extracts the point value from a prize amount such as
// "30 Loyalty Points". It returns 0 when the text has no digits.
func LoyaltyPoints(amount string) int {
	m := firstDigits.FindString(amount)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// LoyaltyAwarder credits loyalty prizes to the winner's user record.
type LoyaltyAwarder struct {
	users store.UserRepository
}

func NewLoyaltyAwarder(users store.UserRepository) *LoyaltyAwarder {
	return &LoyaltyAwarder{users: users}
}

// AwardIfLoyalty credits the points of a loyalty segment to the user named on
// the session, creating the user on first win. It returns the user ID, or ""
// when nothing was awarded.
func (a *LoyaltyAwarder) AwardIfLoyalty(ctx context.Context, wheelID string, seg *models.Segment, session *models.SpinResult, at time.Time) (string, error) {
	if seg.PrizeType != models.PrizeLoyalty {
		return "", nil
	}
	points := LoyaltyPoints(seg.Amount)
	if points <= 0 {
		return "", nil
	}

	user, err := a.users.FindOrCreateUser(ctx, session.Surname, session.Name)
	if err != nil {
		return "", fmt.Errorf("find or create user: %w", err)
	}
	entry := models.PointsEntry{
		WheelID:      wheelID,
		SpinResultID: session.ID,
		Points:       points,
		Prize:        seg.Text,
		Timestamp:    at,
	}
	if _, err := a.users.AwardPoints(ctx, user.ID, entry); err != nil {
		return "", fmt.Errorf("award points: %w", err)
	}
	logger.Infof("Awarded %d loyalty points to user %s for session %s", points, user.ID, session.ID)
	return user.ID, nil
}
