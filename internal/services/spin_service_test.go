package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store/memstore"
)

func TestSpinService_DailyQuota(t *testing.T) {
	clock := newTestClock()
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 60,
		Segments: []models.Segment{
			{Text: "A", PrizeType: models.PrizeCash, Amount: "100", DailyLimit: models.IntPtr(1)},
			{Text: "B", PrizeType: models.PrizeOther, DailyLimit: models.IntPtr(2)},
		},
	})
	svc := NewSpinService(st, WithClock(clock.Now), WithPicker(firstPicker))
	ctx := context.Background()

	spin := func(t *testing.T) (*models.SpinOutcome, error) {
		t.Helper()
		return svc.Spin(ctx, w.ID, seedSession(t, st, w, "").ID)
	}

	t.Run("Test quotas drain in order", func(t *testing.T) {
		for i, want := range []string{"A", "B", "B"} {
			out, err := spin(t)
			if err != nil {
				t.Fatalf("Spin %d: expected no error, but got %v", i, err)
			}
			if out.Text != want {
				t.Fatalf("Spin %d: expected %s, but got %s", i, want, out.Text)
			}
		}
		if _, err := spin(t); !errors.Is(err, ErrNoEligibleSegments) {
			t.Fatalf("Expected ErrNoEligibleSegments, but got %v", err)
		}
		stored := mustWheel(t, st, w.ID)
		if remaining(stored.Segments[0]) != "0" || remaining(stored.Segments[1]) != "0" {
			t.Errorf("Expected both counters at 0, but got %s and %s", remaining(stored.Segments[0]), remaining(stored.Segments[1]))
		}
	})

	t.Run("Test next day resets quotas", func(t *testing.T) {
		clock.Advance(24 * time.Hour)
		out, err := spin(t)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if out.Index != 0 || out.PrizeType != models.PrizeCash || out.PrizeAmount != "100" {
			t.Fatalf("Expected segment A with cash 100, but got %+v", out)
		}
		stored := mustWheel(t, st, w.ID)
		if remaining(stored.Segments[0]) != "0" || remaining(stored.Segments[1]) != "2" {
			t.Errorf("Expected counters 0 and 2, but got %s and %s", remaining(stored.Segments[0]), remaining(stored.Segments[1]))
		}
	})

	if got := svc.Stats().Spins.Load(); got != 4 {
		t.Errorf("Expected 4 spins counted, but got %d", got)
	}
	if got := svc.Stats().NoEligible.Load(); got != 1 {
		t.Errorf("Expected 1 no-eligible spin counted, but got %d", got)
	}
}

func TestSpinService_UnlimitedMode(t *testing.T) {
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 0,
		Segments: []models.Segment{
			{Text: "A", DailyLimit: models.IntPtr(1), DailyRemaining: models.IntPtr(0)},
			{Text: "B", Rules: []models.Rule{{Op: ">", Amount: 0, DailyLimit: 0}}},
		},
	})
	svc := NewSpinService(st, WithClock(newTestClock().Now), WithPicker(firstPicker))

	for i := 0; i < 3; i++ {
		out, err := svc.Spin(context.Background(), w.ID, seedSession(t, st, w, "500").ID)
		if err != nil {
			t.Fatalf("Spin %d: expected no error, but got %v", i, err)
		}
		if out.Text != "A" {
			t.Fatalf("Spin %d: expected A, but got %s", i, out.Text)
		}
	}
	if got := remaining(mustWheel(t, st, w.ID).Segments[0]); got != "1" {
		t.Errorf("Expected the counter left at its reset value 1, but got %s", got)
	}
}

func TestSpinService_RuleGate(t *testing.T) {
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 60,
		Segments: []models.Segment{
			{Text: "Premium", DailyLimit: models.IntPtr(5), Rules: []models.Rule{{Op: "<", Amount: 1000, DailyLimit: 0}}},
			{Text: "Standard"},
		},
	})
	svc := NewSpinService(st, WithClock(newTestClock().Now), WithPicker(firstPicker))
	ctx := context.Background()

	out, err := svc.Spin(ctx, w.ID, seedSession(t, st, w, "200").ID)
	if err != nil || out.Text != "Standard" {
		t.Fatalf("Expected Standard for a small spender, but got %+v, %v", out, err)
	}
	out, err = svc.Spin(ctx, w.ID, seedSession(t, st, w, "2000").ID)
	if err != nil || out.Text != "Premium" {
		t.Fatalf("Expected Premium for a big spender, but got %+v, %v", out, err)
	}
	if got := remaining(mustWheel(t, st, w.ID).Segments[0]); got != "4" {
		t.Errorf("Expected Premium counter 4, but got %s", got)
	}
}

func TestSpinService_SessionChecks(t *testing.T) {
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 60,
		Segments:             []models.Segment{{Text: "A"}},
	})
	other := seedWheel(t, st, &models.Wheel{RouteName: "other-route", Segments: []models.Segment{{Text: "Z"}}})
	svc := NewSpinService(st, WithClock(newTestClock().Now), WithPicker(firstPicker))
	ctx := context.Background()

	t.Run("Test unknown wheel", func(t *testing.T) {
		if _, err := svc.Spin(ctx, "missing", "x"); !errors.Is(err, ErrWheelNotFound) {
			t.Fatalf("Expected ErrWheelNotFound, but got %v", err)
		}
	})

	t.Run("Test missing session", func(t *testing.T) {
		if _, err := svc.Spin(ctx, w.ID, "  "); !errors.Is(err, ErrSessionRequired) {
			t.Fatalf("Expected ErrSessionRequired, but got %v", err)
		}
	})

	t.Run("Test unknown session", func(t *testing.T) {
		if _, err := svc.Spin(ctx, w.ID, "nope"); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("Expected ErrInvalidSession, but got %v", err)
		}
	})

	t.Run("Test session from another wheel", func(t *testing.T) {
		s := seedSession(t, st, other, "")
		if _, err := svc.Spin(ctx, w.ID, s.ID); !errors.Is(err, ErrSessionWheelMismatch) {
			t.Fatalf("Expected ErrSessionWheelMismatch, but got %v", err)
		}
	})

	t.Run("Test second spin on the same session", func(t *testing.T) {
		s := seedSession(t, st, w, "")
		if _, err := svc.Spin(ctx, w.ID, s.ID); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if _, err := svc.Spin(ctx, w.ID, s.ID); !errors.Is(err, ErrAlreadySpun) {
			t.Fatalf("Expected ErrAlreadySpun, but got %v", err)
		}
		stored, _ := st.GetSpinResult(ctx, s.ID)
		if stored.Winner == nil || *stored.Winner != "A" || stored.OutTime == nil {
			t.Errorf("Expected recorded winner A with an outTime, but got %+v", stored)
		}
	})
}

func TestSpinService_LoyaltyLink(t *testing.T) {
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 60,
		Segments:             []models.Segment{{Text: "Points", PrizeType: models.PrizeLoyalty, Amount: "30 Loyalty Points"}},
	})
	svc := NewSpinService(st, WithClock(newTestClock().Now))
	ctx := context.Background()
	s := seedSession(t, st, w, "")

	if _, err := svc.Spin(ctx, w.ID, s.ID); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	stored, _ := st.GetSpinResult(ctx, s.ID)
	if stored.UserID == "" {
		t.Fatal("Expected the session to be linked to a user")
	}
	user, err := st.GetUser(ctx, stored.UserID)
	if err != nil {
		t.Fatalf("Expected the linked user to exist, but got %v", err)
	}
	if user.LoyaltyPoints != 30 || user.PointsHistory[0].SpinResultID != s.ID {
		t.Errorf("Expected 30 points tied to session %s, but got %+v", s.ID, user)
	}
	if got := svc.Stats().LoyaltyAwards.Load(); got != 1 {
		t.Errorf("Expected 1 loyalty award counted, but got %d", got)
	}
}

// racingStore drains a segment between the engine's read and its decrement,
// the way a concurrent spin on another replica would.
type racingStore struct {
	*memstore.Store
	steal int
}

func (r *racingStore) DecrementRemaining(ctx context.Context, wheelID string, index int) (bool, error) {
	if r.steal > 0 {
		r.steal--
		if _, err := r.Store.DecrementRemaining(ctx, wheelID, index); err != nil {
			return false, err
		}
	}
	return r.Store.DecrementRemaining(ctx, wheelID, index)
}

func TestSpinService_QuotaRace(t *testing.T) {
	t.Run("Test retry lands on the next eligible segment", func(t *testing.T) {
		mem := memstore.New()
		st := &racingStore{Store: mem, steal: 1}
		w := seedWheel(t, mem, &models.Wheel{
			SessionExpiryMinutes: 60,
			Segments: []models.Segment{
				{Text: "Scarce", DailyLimit: models.IntPtr(1)},
				{Text: "Plenty", DailyLimit: models.IntPtr(10)},
			},
		})
		svc := NewSpinService(st, WithClock(newTestClock().Now), WithPicker(firstPicker))

		out, err := svc.Spin(context.Background(), w.ID, seedSession(t, mem, w, "").ID)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if out.Text != "Plenty" {
			t.Fatalf("Expected Plenty after losing the race, but got %s", out.Text)
		}
		if got := svc.Stats().QuotaRaces.Load(); got != 1 {
			t.Errorf("Expected 1 quota race counted, but got %d", got)
		}
	})

	t.Run("Test repeated loss gives up", func(t *testing.T) {
		mem := memstore.New()
		st := &racingStore{Store: mem, steal: 2}
		w := seedWheel(t, mem, &models.Wheel{
			SessionExpiryMinutes: 60,
			Segments: []models.Segment{
				{Text: "One", DailyLimit: models.IntPtr(1)},
				{Text: "Two", DailyLimit: models.IntPtr(1)},
			},
		})
		svc := NewSpinService(st, WithClock(newTestClock().Now), WithPicker(firstPicker))

		s := seedSession(t, mem, w, "")
		if _, err := svc.Spin(context.Background(), w.ID, s.ID); !errors.Is(err, ErrNoEligibleSegments) {
			t.Fatalf("Expected ErrNoEligibleSegments, but got %v", err)
		}
		stored, _ := mem.GetSpinResult(context.Background(), s.ID)
		if stored.Spun() {
			t.Error("Expected the session to remain unspun")
		}
	})
}

func TestSpinService_ConcurrentSpinsNeverOversell(t *testing.T) {
	clock := newTestClock()
	today := StartOfDay(clock.now)
	st := memstore.New()
	w := seedWheel(t, st, &models.Wheel{
		SessionExpiryMinutes: 60,
		Segments: []models.Segment{
			{Text: "Limited", DailyLimit: models.IntPtr(5), DailyRemaining: models.IntPtr(5), LastResetAt: &today},
		},
	})
	svc := NewSpinService(st, WithClock(clock.Now))

	const spinners = 20
	sessions := make([]string, spinners)
	for i := range sessions {
		sessions[i] = seedSession(t, st, w, "").ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range sessions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.Spin(context.Background(), w.ID, id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if wins != 5 {
		t.Fatalf("Expected exactly 5 winners, but got %d", wins)
	}
	if got := remaining(mustWheel(t, st, w.ID).Segments[0]); got != "0" {
		t.Errorf("Expected the counter at 0, but got %s", got)
	}
}
