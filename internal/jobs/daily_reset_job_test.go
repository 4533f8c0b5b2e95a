package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/services"
	"spinwheel/internal/store/memstore"

	"github.com/robfig/cron/v3"
)

type fakeResetter struct {
	calls int
	err   error
}

func (f *fakeResetter) ResetAll(ctx context.Context) (int, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return 3, f.err
}

func TestDailyResetJob_Run(t *testing.T) {
	t.Run("Test job calls the resetter", func(t *testing.T) {
		f := &fakeResetter{}
		NewDailyResetJob(f).Run()
		if f.calls != 1 {
			t.Fatalf("Expected 1 call, but got %d", f.calls)
		}
	})

	t.Run("Test errors do not panic", func(t *testing.T) {
		f := &fakeResetter{err: errors.New("boom")}
		NewDailyResetJob(f).Run()
		if f.calls != 1 {
			t.Fatalf("Expected 1 call, but got %d", f.calls)
		}
	})
}

func TestDailyResetJob_RefillsStoredWheels(t *testing.T) {
	st := memstore.New()
	yesterday := services.StartOfDay(time.Now()).AddDate(0, 0, -1)
	w := &models.Wheel{
		RouteName: "cafe",
		Segments:  []models.Segment{{Text: "A", DailyLimit: models.IntPtr(3), DailyRemaining: models.IntPtr(0), LastResetAt: &yesterday}},
	}
	if err := st.CreateWheel(context.Background(), w); err != nil {
		t.Fatalf("Failed to seed wheel: %v", err)
	}

	NewDailyResetJob(services.NewWheelService(st).Resetter()).Run()

	got, _ := st.GetWheel(context.Background(), w.ID)
	if got.Segments[0].DailyRemaining == nil || *got.Segments[0].DailyRemaining != 3 {
		t.Fatalf("Expected the counter refilled to 3, but got %v", got.Segments[0].DailyRemaining)
	}
}

func TestSchedule(t *testing.T) {
	c := cron.New()
	if _, err := Schedule(c, "@daily", &fakeResetter{}); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("Expected 1 entry, but got %d", len(c.Entries()))
	}
	if _, err := Schedule(c, "not a spec", &fakeResetter{}); err == nil {
		t.Fatal("Expected an error for a bad spec")
	}
}
