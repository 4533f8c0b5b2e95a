package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store/memstore"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local)}
}

// firstPicker always returns the first eligible index, so tests can steer
// the winner through eligibility alone.
var firstPicker = PickerFunc(func(eligible []int) int { return eligible[0] })

func seedWheel(t *testing.T, st *memstore.Store, w *models.Wheel) *models.Wheel {
	t.Helper()
	if w.RouteName == "" {
		w.RouteName = "test-route"
	}
	if err := st.CreateWheel(context.Background(), w); err != nil {
		t.Fatalf("Failed to seed wheel: %v", err)
	}
	return w
}

func seedSession(t *testing.T, st *memstore.Store, w *models.Wheel, amountSpent string) *models.SpinResult {
	t.Helper()
	r := &models.SpinResult{
		WheelID:     w.ID,
		RouteName:   w.RouteName,
		Surname:     "Doe",
		Name:        "Jane",
		AmountSpent: amountSpent,
		InTime:      time.Now(),
		PrizeType:   models.PrizeOther,
	}
	if err := st.CreateSpinResult(context.Background(), r); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
	return r
}

func mustWheel(t *testing.T, st *memstore.Store, id string) *models.Wheel {
	t.Helper()
	w, err := st.GetWheel(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load wheel %s: %v", id, err)
	}
	return w
}

func remaining(seg models.Segment) string {
	if seg.DailyRemaining == nil {
		return "nil"
	}
	return strconv.Itoa(*seg.DailyRemaining)
}
