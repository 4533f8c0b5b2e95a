// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"
)

// Run exercises st. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Wheels", func(t *testing.T) { testWheels(t, newStore(t)) })
	t.Run("DecrementRemaining", func(t *testing.T) { testDecrement(t, newStore(t)) })
	t.Run("ConcurrentDecrement", func(t *testing.T) { testConcurrentDecrement(t, newStore(t)) })
	t.Run("SpinResults", func(t *testing.T) { testSpinResults(t, newStore(t)) })
	t.Run("FindRecentSpin", func(t *testing.T) { testFindRecentSpin(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Logins", func(t *testing.T) { testLogins(t, newStore(t)) })
}

var day = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local)

func intPtr(v int) *int { return &v }

func newWheel(route string) *models.Wheel {
	reset := day
	return &models.Wheel{
		Name:                 "Wheel " + route,
		RouteName:            route,
		SessionExpiryMinutes: 60,
		FormConfig:           models.DefaultFormConfig(),
		Segments: []models.Segment{
			{Text: "Limited", PrizeType: models.PrizeCash, Amount: "100", DailyLimit: intPtr(2), DailyRemaining: intPtr(2), LastResetAt: &reset},
			{Text: "Free", PrizeType: models.PrizeOther},
			{Text: "Fresh", PrizeType: models.PrizeOther, DailyLimit: intPtr(1)},
			{Text: "Rules", PrizeType: models.PrizeOther, Rules: []models.Rule{{Op: ">", Amount: 100, DailyLimit: 0}}},
		},
		CreatedAt: day,
		UpdatedAt: day,
	}
}

func testWheels(t *testing.T, st store.Store) {
	ctx := context.Background()
	w := newWheel("alpha")
	if err := st.CreateWheel(ctx, w); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if w.ID == "" {
		t.Fatal("Expected an ID to be assigned")
	}
	if err := st.CreateWheel(ctx, newWheel("alpha")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Expected ErrConflict for a duplicate route, but got %v", err)
	}

	got, err := st.GetWheelByRoute(ctx, "alpha")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if got.ID != w.ID || len(got.Segments) != 4 || got.FormConfig.Title == "" {
		t.Fatalf("Unexpected wheel %+v", got)
	}
	if got.Segments[0].LastResetAt == nil || !got.Segments[0].LastResetAt.Equal(day) {
		t.Errorf("Expected lastResetAt %v, but got %v", day, got.Segments[0].LastResetAt)
	}
	if got.Segments[1].DailyLimit != nil || got.Segments[3].Rules[0].Op != ">" {
		t.Errorf("Unexpected segments %+v", got.Segments)
	}

	got.Name = "Renamed"
	got.UpdatedAt = day.Add(time.Hour)
	if err := st.UpdateWheel(ctx, got); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	other := newWheel("beta")
	if err := st.CreateWheel(ctx, other); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	other.RouteName = "alpha"
	if err := st.UpdateWheel(ctx, other); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Expected ErrConflict when taking a route, but got %v", err)
	}

	segs := models.CloneSegments(got.Segments)
	segs[0].DailyRemaining = intPtr(1)
	if err := st.UpdateSegments(ctx, w.ID, segs); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	reloaded, err := st.GetWheel(ctx, w.ID)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if reloaded.Name != "Renamed" || *reloaded.Segments[0].DailyRemaining != 1 {
		t.Errorf("Expected the rename and the segment write to survive, but got %q and %d", reloaded.Name, *reloaded.Segments[0].DailyRemaining)
	}

	list, err := st.ListWheels(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Expected 2 wheels, but got %d, %v", len(list), err)
	}
	if list[0].ID != w.ID {
		t.Errorf("Expected the most recently updated wheel first")
	}

	if err := st.DeleteWheel(ctx, w.ID); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err := st.GetWheel(ctx, w.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}
	if err := st.DeleteWheel(ctx, w.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}
}

func testDecrement(t *testing.T, st store.Store) {
	ctx := context.Background()
	w := newWheel("dec")
	if err := st.CreateWheel(ctx, w); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	for i, want := range []bool{true, true, false} {
		ok, err := st.DecrementRemaining(ctx, w.ID, 0)
		if err != nil {
			t.Fatalf("Decrement %d: expected no error, but got %v", i, err)
		}
		if ok != want {
			t.Fatalf("Decrement %d: expected %v, but got %v", i, want, ok)
		}
	}

	if ok, _ := st.DecrementRemaining(ctx, w.ID, 1); ok {
		t.Error("Expected an unlimited segment not to decrement")
	}
	if ok, _ := st.DecrementRemaining(ctx, w.ID, 2); !ok {
		t.Error("Expected a counter-less limited segment to fall back to its limit")
	}
	if ok, _ := st.DecrementRemaining(ctx, w.ID, 2); ok {
		t.Error("Expected the fallback segment to be exhausted")
	}
	if ok, _ := st.DecrementRemaining(ctx, w.ID, 42); ok {
		t.Error("Expected an out-of-range index not to decrement")
	}
	if _, err := st.DecrementRemaining(ctx, "missing", 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, but got %v", err)
	}

	got, err := st.GetWheel(ctx, w.ID)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if *got.Segments[0].DailyRemaining != 0 || *got.Segments[2].DailyRemaining != 0 {
		t.Errorf("Expected both counters at 0, but got %d and %d", *got.Segments[0].DailyRemaining, *got.Segments[2].DailyRemaining)
	}
	if got.Segments[1].DailyRemaining != nil {
		t.Errorf("Expected the unlimited segment untouched")
	}
}

func testConcurrentDecrement(t *testing.T, st store.Store) {
	ctx := context.Background()
	w := newWheel("race")
	w.Segments[0].DailyLimit = intPtr(5)
	w.Segments[0].DailyRemaining = intPtr(5)
	if err := st.CreateWheel(ctx, w); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.DecrementRemaining(ctx, w.ID, 0)
			if err != nil {
				t.Errorf("Expected no error, but got %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 5 {
		t.Fatalf("Expected exactly 5 successful decrements, but got %d", wins)
	}
}

func newResult(wheelID, route string, created time.Time) *models.SpinResult {
	return &models.SpinResult{
		WheelID:         wheelID,
		RouteName:       route,
		Surname:         "Doe",
		Name:            "Jane",
		AmountSpent:     "150",
		CustomFieldData: map[string]string{"phone": "555"},
		FormEnabled:     true,
		InTime:          created,
		PrizeType:       models.PrizeOther,
		DeviceID:        "device-1",
		IPAddress:       "10.0.0.1",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func testSpinResults(t *testing.T, st store.Store) {
	ctx := context.Background()
	first := newResult("w1", "cafe", day.Add(time.Hour))
	second := newResult("w1", "cafe", day.Add(2*time.Hour))
	upper := newResult("w2", "CAFE", day.Add(3*time.Hour))
	other := newResult("w3", "bar", day.Add(4*time.Hour))
	for _, r := range []*models.SpinResult{first, second, upper, other} {
		if err := st.CreateSpinResult(ctx, r); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
	}

	got, err := st.GetSpinResult(ctx, first.ID)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if got.Spun() || got.CustomFieldData["phone"] != "555" || got.DeviceID != "device-1" {
		t.Fatalf("Unexpected result %+v", got)
	}

	out := models.Outcome{Winner: "Free", PrizeType: models.PrizeOther, PrizeAmount: "", OutTime: day.Add(90 * time.Minute)}
	ok, err := st.ClaimOutcome(ctx, first.ID, out)
	if err != nil || !ok {
		t.Fatalf("Expected the first claim to succeed, but got %v, %v", ok, err)
	}
	out.Winner = "Limited"
	if ok, err := st.ClaimOutcome(ctx, first.ID, out); err != nil || ok {
		t.Fatalf("Expected the second claim to fail, but got %v, %v", ok, err)
	}
	if _, err := st.ClaimOutcome(ctx, "missing", out); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}
	got, _ = st.GetSpinResult(ctx, first.ID)
	if got.Winner == nil || *got.Winner != "Free" || got.OutTime == nil || !got.OutTime.Equal(day.Add(90*time.Minute)) {
		t.Fatalf("Expected winner Free at %v, but got %+v", day.Add(90*time.Minute), got)
	}

	if err := st.LinkUser(ctx, first.ID, "user-1"); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	approved, err := st.SetApproved(ctx, first.ID, true)
	if err != nil || !approved.Approved || approved.UserID != "user-1" {
		t.Fatalf("Expected an approved result linked to user-1, but got %+v, %v", approved, err)
	}
	if _, err := st.SetApproved(ctx, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}

	byWheel, _ := st.ListSpinResultsByWheel(ctx, "w1")
	if len(byWheel) != 2 || byWheel[0].ID != second.ID {
		t.Fatalf("Expected 2 results newest first, but got %d", len(byWheel))
	}
	byRoute, _ := st.ListSpinResultsByRoute(ctx, "cafe")
	if len(byRoute) != 2 {
		t.Fatalf("Expected an exact route match to return 2, but got %d", len(byRoute))
	}

	n, err := st.DeleteSpinResultsByRoute(ctx, "Cafe")
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 deletions ignoring case, but got %d, %v", n, err)
	}
	if _, err := st.GetSpinResult(ctx, other.ID); err != nil {
		t.Fatalf("Expected the other route to survive, but got %v", err)
	}
}

func testFindRecentSpin(t *testing.T, st store.Store) {
	ctx := context.Background()
	claim := func(r *models.SpinResult, winner string, at time.Time) {
		t.Helper()
		if err := st.CreateSpinResult(ctx, r); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if winner == "" {
			return
		}
		if ok, err := st.ClaimOutcome(ctx, r.ID, models.Outcome{Winner: winner, OutTime: at}); err != nil || !ok {
			t.Fatalf("Expected claim to succeed, but got %v, %v", ok, err)
		}
	}

	older := newResult("w1", "cafe", day)
	claim(older, "Old", day.Add(time.Hour))
	newer := newResult("w1", "cafe", day)
	newer.DeviceID = "device-2"
	claim(newer, "New", day.Add(2*time.Hour))
	unspun := newResult("w1", "cafe", day)
	unspun.DeviceID = "device-3"
	unspun.IPAddress = "10.0.0.3"
	claim(unspun, "", time.Time{})

	since := day.Add(30 * time.Minute)
	cases := []struct {
		name     string
		route    string
		device   string
		ip       string
		since    time.Time
		winner   string
		notFound bool
	}{
		{"device match", "cafe", "device-1", "", since, "Old", false},
		{"ip match picks newest", "cafe", "", "10.0.0.1", since, "New", false},
		{"either identifier", "cafe", "device-9", "10.0.0.1", since, "New", false},
		{"window excludes older", "cafe", "device-1", "", day.Add(90 * time.Minute), "", true},
		{"unspun ignored", "cafe", "device-3", "10.0.0.3", since, "", true},
		{"other route", "bar", "device-1", "10.0.0.1", since, "", true},
		{"no identifiers", "cafe", "", "", since, "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := st.FindRecentSpin(ctx, c.route, c.device, c.ip, c.since)
			if c.notFound {
				if !errors.Is(err, store.ErrNotFound) {
					t.Fatalf("Expected ErrNotFound, but got %+v, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			if *got.Winner != c.winner {
				t.Fatalf("Expected winner %s, but got %s", c.winner, *got.Winner)
			}
		})
	}
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	u, err := st.FindOrCreateUser(ctx, "Doe", "Jane")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	again, err := st.FindOrCreateUser(ctx, "Doe", "Jane")
	if err != nil || again.ID != u.ID {
		t.Fatalf("Expected the same user, but got %q and %q (%v)", u.ID, again.ID, err)
	}
	if other, _ := st.FindOrCreateUser(ctx, "Doe", "John"); other.ID == u.ID {
		t.Fatal("Expected a different user for a different name")
	}

	at := day.Add(time.Hour)
	for _, pts := range []int{30, 15} {
		if _, err := st.AwardPoints(ctx, u.ID, models.PointsEntry{WheelID: "w1", SpinResultID: "s1", Points: pts, Prize: "Loyalty", Timestamp: at}); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
	}
	got, err := st.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if got.LoyaltyPoints != 45 || len(got.PointsHistory) != 2 || got.PointsHistory[1].Points != 15 {
		t.Fatalf("Expected 45 points over 2 entries, but got %+v", got)
	}
	if !got.PointsHistory[0].Timestamp.Equal(at) {
		t.Errorf("Expected timestamp %v, but got %v", at, got.PointsHistory[0].Timestamp)
	}
	if _, err := st.AwardPoints(ctx, "missing", models.PointsEntry{Points: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}
}

func testLogins(t *testing.T, st store.Store) {
	ctx := context.Background()
	l := &models.Login{Username: "admin", PasswordHash: "hash", RouteName: models.AllRoutes, Onboard: day, Access: "enable"}
	if err := st.CreateLogin(ctx, l); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	dup := &models.Login{Username: "admin", PasswordHash: "x", RouteName: "cafe", Onboard: day.Add(time.Hour)}
	if err := st.CreateLogin(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Expected ErrConflict, but got %v", err)
	}
	staff := &models.Login{Username: "staff", PasswordHash: "x", RouteName: "cafe", Onboard: day.Add(time.Hour), Access: "enable"}
	if err := st.CreateLogin(ctx, staff); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	got, err := st.FindLoginByUsername(ctx, "admin")
	if err != nil || got.ID != l.ID || got.PasswordHash != "hash" {
		t.Fatalf("Unexpected login %+v, %v", got, err)
	}

	staff.Username = "admin"
	if err := st.UpdateLogin(ctx, staff); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Expected ErrConflict, but got %v", err)
	}
	staff.Username = "staff"
	staff.Access = "disable"
	if err := st.UpdateLogin(ctx, staff); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if got, _ := st.GetLogin(ctx, staff.ID); got.Access != "disable" {
		t.Errorf("Expected access disable, but got %q", got.Access)
	}

	list, _ := st.ListLogins(ctx)
	if len(list) != 2 || list[0].Username != "admin" {
		t.Fatalf("Expected 2 logins oldest first, but got %d", len(list))
	}
	if err := st.DeleteLogin(ctx, staff.ID); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err := st.GetLogin(ctx, staff.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}
}
