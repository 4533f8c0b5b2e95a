package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/logger"
)

// maxQuotaRetries is how many times a spin re-reads the wheel after losing
// a conditional decrement to a concurrent spin.
const maxQuotaRetries = 1

// SpinService runs a spin: it resets quotas, filters eligible segments,
// picks a winner, takes one unit of quota and records the outcome on the
// visitor's session exactly once.
type SpinService struct {
	wheels   store.WheelRepository
	results  store.SpinResultRepository
	resetter *DailyResetter
	loyalty  *LoyaltyAwarder
	opts     options
}

// NewSpinService creates a SpinService backed by st.
func NewSpinService(st store.Store, opts ...Option) *SpinService {
	o := buildOptions(opts)
	shared := append(append([]Option{}, opts...), WithStats(o.stats))
	return &SpinService{
		wheels:   st,
		results:  st,
		resetter: NewDailyResetter(st, shared...),
		loyalty:  NewLoyaltyAwarder(st),
		opts:     o,
	}
}

// Stats exposes the service's counters.
func (s *SpinService) Stats() *SpinStats {
	return s.opts.stats
}

// Spin consumes the session's ticket on wheelID and returns the prize won.
func (s *SpinService) Spin(ctx context.Context, wheelID, sessionID string) (*models.SpinOutcome, error) {
	wheel, err := s.wheels.GetWheel(ctx, wheelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("load wheel: %w", err)
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	session, err := s.results.GetSpinResult(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.WheelID != wheel.ID {
		return nil, ErrSessionWheelMismatch
	}
	if session.Spun() {
		s.opts.stats.AlreadySpun.Inc()
		return nil, ErrAlreadySpun
	}

	index, wheel, err := s.allocate(ctx, wheel, session.AmountSpent)
	if err != nil {
		return nil, err
	}
	seg := wheel.Segments[index]

	now := s.opts.now()
	outcome := models.Outcome{
		Winner:      seg.Text,
		PrizeType:   seg.PrizeType.OrDefault(),
		PrizeAmount: seg.Amount,
		OutTime:     now,
	}
	claimed, err := s.results.ClaimOutcome(ctx, session.ID, outcome)
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}
	if !claimed {
		// A concurrent spin on the same session won; the unit of quota taken
		// above is not returned.
		logger.Warningf("Session %s was claimed concurrently; segment %d of wheel %s already decremented", session.ID, index, wheel.ID)
		s.opts.stats.AlreadySpun.Inc()
		return nil, ErrAlreadySpun
	}

	userID, err := s.loyalty.AwardIfLoyalty(ctx, wheel.ID, &seg, session, now)
	if err != nil {
		return nil, err
	}
	if userID != "" {
		s.opts.stats.LoyaltyAwards.Inc()
		if err := s.results.LinkUser(ctx, session.ID, userID); err != nil {
			return nil, fmt.Errorf("link user to session: %w", err)
		}
	}

	s.opts.stats.Spins.Inc()
	logger.Infof("Wheel %s session %s won segment %d (%s)", wheel.ID, session.ID, index, seg.Text)
	return &models.SpinOutcome{
		Index:       index,
		Text:        seg.Text,
		PrizeType:   seg.PrizeType.OrDefault(),
		PrizeAmount: seg.Amount,
	}, nil
}

// allocate picks the winning segment and takes its quota. It returns the
// wheel as last read so the caller sees the same segment list the pick was
// made from.
func (s *SpinService) allocate(ctx context.Context, wheel *models.Wheel, amountSpent string) (int, *models.Wheel, error) {
	unlimited := wheel.Unlimited()
	for attempt := 0; ; attempt++ {
		var err error
		wheel, err = s.resetter.EnsureDailyReset(ctx, wheel)
		if err != nil {
			return 0, nil, err
		}

		eligible := EligibleSegments(wheel, amountSpent, unlimited)
		if len(eligible) == 0 {
			s.opts.stats.NoEligible.Inc()
			return 0, nil, ErrNoEligibleSegments
		}
		index := s.opts.picker.Pick(eligible)

		seg := &wheel.Segments[index]
		if unlimited || !seg.Limited() {
			return index, wheel, nil
		}

		ok, err := s.wheels.DecrementRemaining(ctx, wheel.ID, index)
		if err != nil {
			return 0, nil, fmt.Errorf("decrement quota: %w", err)
		}
		if ok {
			seg.DailyRemaining = models.IntPtr(max(0, seg.Remaining()-1))
			return index, wheel, nil
		}

		s.opts.stats.QuotaRaces.Inc()
		if attempt >= maxQuotaRetries {
			logger.Warningf("Wheel %s: quota for segment %d exhausted concurrently, giving up", wheel.ID, index)
			s.opts.stats.NoEligible.Inc()
			return 0, nil, ErrNoEligibleSegments
		}
		logger.Warningf("Wheel %s: quota for segment %d exhausted concurrently, re-evaluating", wheel.ID, index)

		wheel, err = s.wheels.GetWheel(ctx, wheel.ID)
		if err != nil {
			return 0, nil, fmt.Errorf("reload wheel: %w", err)
		}
	}
}
