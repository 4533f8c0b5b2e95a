package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/logger"
)

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// ApplyDailyReset refills every limited segment whose last reset is not
// today and clears quota state from segments that no longer have a limit.
// It reports whether anything changed.
func ApplyDailyReset(segments []models.Segment, today time.Time) bool {
	changed := false
	for i := range segments {
		seg := &segments[i]
		if seg.DailyLimit == nil {
			if seg.DailyRemaining != nil || seg.LastResetAt != nil {
				seg.DailyRemaining = nil
				seg.LastResetAt = nil
				changed = true
			}
			continue
		}
		if seg.LastResetAt == nil || !StartOfDay(*seg.LastResetAt).Equal(today) {
			seg.DailyRemaining = models.IntPtr(*seg.DailyLimit)
			t := today
			seg.LastResetAt = &t
			changed = true
		}
	}
	return changed
}

// DailyResetter keeps stored quota counters current. It is called on every
// wheel read and before every spin, and by the nightly job.
type DailyResetter struct {
	wheels store.WheelRepository
	opts   options
}

func NewDailyResetter(wheels store.WheelRepository, opts ...Option) *DailyResetter {
	return &DailyResetter{wheels: wheels, opts: buildOptions(opts)}
}

// EnsureDailyReset applies the daily reset to w in place and persists the
// segments if anything changed. Calling it again on the same day is a no-op.
func (r *DailyResetter) EnsureDailyReset(ctx context.Context, w *models.Wheel) (*models.Wheel, error) {
	today := StartOfDay(r.opts.now())
	if !ApplyDailyReset(w.Segments, today) {
		return w, nil
	}
	if err := r.wheels.UpdateSegments(ctx, w.ID, w.Segments); err != nil {
		return nil, fmt.Errorf("persist daily reset for wheel %s: %w", w.ID, err)
	}
	r.opts.stats.DailyResets.Inc()
	logger.Infof("Daily quotas reset for wheel %s (%s)", w.ID, w.RouteName)
	return w, nil
}

// ResetAll runs EnsureDailyReset over every wheel and returns how many were
// written. A failure on one wheel does not stop the others.
func (r *DailyResetter) ResetAll(ctx context.Context) (int, error) {
	wheels, err := r.wheels.ListWheels(ctx)
	if err != nil {
		return 0, fmt.Errorf("list wheels: %w", err)
	}
	today := StartOfDay(r.opts.now())
	written := 0
	var errs []error
	for _, w := range wheels {
		if !ApplyDailyReset(w.Segments, today) {
			continue
		}
		if err := r.wheels.UpdateSegments(ctx, w.ID, w.Segments); err != nil {
			errs = append(errs, fmt.Errorf("wheel %s: %w", w.ID, err))
			continue
		}
		r.opts.stats.DailyResets.Inc()
		written++
	}
	return written, errors.Join(errs...)
}
