package services

import (
	"context"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store/memstore"
)

func TestLoyaltyPoints(t *testing.T) {
	cases := map[string]int{
		"30 Loyalty Points": 30,
		"Bonus 15 pts":      15,
		"points":            0,
		"":                  0,
	}
	for amount, want := range cases {
		if got := LoyaltyPoints(amount); got != want {
			t.Errorf("LoyaltyPoints(%q) = %d, want %d", amount, got, want)
		}
	}
}

func TestLoyaltyAwarder_AwardIfLoyalty(t *testing.T) {
	st := memstore.New()
	awarder := NewLoyaltyAwarder(st)
	ctx := context.Background()
	at := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.Local)
	session := &models.SpinResult{ID: "session-1", Surname: "Doe", Name: "Jane"}

	t.Run("Test loyalty segment credits points", func(t *testing.T) {
		seg := &models.Segment{Text: "Loyalty 30", PrizeType: models.PrizeLoyalty, Amount: "30 Loyalty Points"}
		userID, err := awarder.AwardIfLoyalty(ctx, "wheel-1", seg, session, at)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		user, err := st.GetUser(ctx, userID)
		if err != nil {
			t.Fatalf("Expected user %q to exist, but got %v", userID, err)
		}
		if user.LoyaltyPoints != 30 || len(user.PointsHistory) != 1 {
			t.Fatalf("Expected 30 points with 1 ledger entry, but got %d with %d", user.LoyaltyPoints, len(user.PointsHistory))
		}
		entry := user.PointsHistory[0]
		if entry.SpinResultID != "session-1" || entry.WheelID != "wheel-1" || entry.Prize != "Loyalty 30" || !entry.Timestamp.Equal(at) {
			t.Errorf("Unexpected ledger entry %+v", entry)
		}
	})

	t.Run("Test repeat win reuses the user", func(t *testing.T) {
		seg := &models.Segment{Text: "Loyalty 10", PrizeType: models.PrizeLoyalty, Amount: "10"}
		first, _ := awarder.AwardIfLoyalty(ctx, "wheel-1", seg, session, at)
		second, _ := awarder.AwardIfLoyalty(ctx, "wheel-1", seg, session, at)
		if first == "" || first != second {
			t.Fatalf("Expected the same user twice, but got %q and %q", first, second)
		}
		user, _ := st.GetUser(ctx, first)
		if user.LoyaltyPoints != 50 {
			t.Errorf("Expected 50 points in total, but got %d", user.LoyaltyPoints)
		}
	})

	t.Run("Test cash prize creates no user", func(t *testing.T) {
		other := &models.SpinResult{ID: "session-2", Surname: "Roe", Name: "Rick"}
		seg := &models.Segment{Text: "Cash", PrizeType: models.PrizeCash, Amount: "₹500"}
		userID, err := awarder.AwardIfLoyalty(ctx, "wheel-1", seg, other, at)
		if err != nil || userID != "" {
			t.Fatalf("Expected no award, but got %q, %v", userID, err)
		}
	})

	t.Run("Test loyalty segment without digits awards nothing", func(t *testing.T) {
		seg := &models.Segment{Text: "Mystery", PrizeType: models.PrizeLoyalty, Amount: "some points"}
		if userID, _ := awarder.AwardIfLoyalty(ctx, "wheel-1", seg, session, at); userID != "" {
			t.Fatalf("Expected no award, but got user %q", userID)
		}
	})
}
