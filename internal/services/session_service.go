package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/logger"
	"github.com/google/uuid"
)

// CreateSessionRequest carries an already-parsed entry form submission.
type CreateSessionRequest struct {
	WheelID     string
	RouteName   string
	Surname     string
	Name        string
	AmountSpent string
	// Fields holds every submitted value keyed by form key; values for the
	// wheel's custom fields are picked out of it.
	Fields    map[string]string
	DeviceID  string
	UserAgent string
	IPAddress string
}

// ResultInput is a client-computed outcome for the fallback recorder.
type ResultInput struct {
	Winner      string           `json:"winner"`
	PrizeType   models.PrizeType `json:"prizeType"`
	PrizeAmount *string          `json:"prizeAmount"`
	UserID      string           `json:"userId"`
}

// SessionService opens spin sessions, records fallback results and answers
// "has this device already won here" questions.
type SessionService struct {
	wheels  store.WheelRepository
	results store.SpinResultRepository
	opts    options
}

func NewSessionService(st store.Store, opts ...Option) *SessionService {
	return &SessionService{wheels: st, results: st, opts: buildOptions(opts)}
}

// CreateSession opens a ticket for one spin on the requested wheel.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.SpinResult, error) {
	wheelID := strings.TrimSpace(req.WheelID)
	routeName := strings.TrimSpace(req.RouteName)
	if wheelID == "" || routeName == "" {
		return nil, fmt.Errorf("%w: wheelId and routeName are required", ErrInvalidInput)
	}

	wheel, err := s.wheels.GetWheel(ctx, wheelID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load wheel: %w", err)
	}
	if wheel == nil || !strings.EqualFold(wheel.RouteName, routeName) {
		return nil, fmt.Errorf("%w: invalid wheelId or routeName", ErrInvalidInput)
	}

	surname := strings.TrimSpace(req.Surname)
	name := strings.TrimSpace(req.Name)
	amountSpent := strings.TrimSpace(req.AmountSpent)
	if wheel.FormConfig.Enabled && (surname == "" || name == "" || amountSpent == "") {
		return nil, ErrMissingFields
	}

	status, err := s.status(ctx, wheel, req.DeviceID, req.IPAddress)
	if err != nil {
		return nil, err
	}
	if status.HasSpun {
		return nil, ErrAlreadyWon
	}

	custom := make(map[string]string, len(wheel.FormConfig.CustomFields))
	for _, f := range wheel.FormConfig.CustomFields {
		custom[f.ID] = req.Fields[f.ID]
	}

	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	now := s.opts.now()
	result := &models.SpinResult{
		WheelID:         wheel.ID,
		RouteName:       wheel.RouteName,
		Surname:         surname,
		Name:            name,
		AmountSpent:     amountSpent,
		CustomFieldData: custom,
		FormEnabled:     wheel.FormConfig.Enabled,
		InTime:          now,
		PrizeType:       models.PrizeOther,
		UserAgent:       req.UserAgent,
		IPAddress:       req.IPAddress,
		DeviceID:        deviceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.results.CreateSpinResult(ctx, result); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.opts.stats.SessionsOpened.Inc()
	return result, nil
}

// RecordResult stores a client-computed outcome. Like a server-side spin it
// only succeeds on a session that has not spun yet.
func (s *SessionService) RecordResult(ctx context.Context, sessionID string, in ResultInput) (*models.SpinResult, error) {
	winner := strings.TrimSpace(in.Winner)
	if winner == "" {
		return nil, fmt.Errorf("%w: winner is required", ErrInvalidInput)
	}
	if in.PrizeType != "" && !in.PrizeType.Valid() {
		return nil, fmt.Errorf("%w: unknown prizeType %q", ErrInvalidInput, in.PrizeType)
	}

	existing, err := s.results.GetSpinResult(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	outcome := models.Outcome{
		Winner:      winner,
		PrizeType:   existing.PrizeType,
		PrizeAmount: existing.PrizeAmount,
		UserID:      in.UserID,
		OutTime:     s.opts.now(),
	}
	if in.PrizeType != "" {
		outcome.PrizeType = in.PrizeType
	}
	if in.PrizeAmount != nil {
		outcome.PrizeAmount = *in.PrizeAmount
	}

	claimed, err := s.results.ClaimOutcome(ctx, sessionID, outcome)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("record result: %w", err)
	}
	if !claimed {
		s.opts.stats.AlreadySpun.Inc()
		return nil, ErrAlreadySpun
	}
	logger.Infof("Session %s recorded client result %q", sessionID, winner)
	return s.results.GetSpinResult(ctx, sessionID)
}

// CheckSession reports whether the device (by fingerprint or IP) already won
// on routeName within the wheel's expiry window.
func (s *SessionService) CheckSession(ctx context.Context, routeName, deviceID, ip string) (*models.SessionStatus, error) {
	routeName = strings.ToLower(strings.TrimSpace(routeName))
	if routeName == "" {
		return nil, fmt.Errorf("%w: routeName is required", ErrInvalidInput)
	}
	wheel, err := s.wheels.GetWheelByRoute(ctx, routeName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("load wheel: %w", err)
	}
	return s.status(ctx, wheel, deviceID, ip)
}

func (s *SessionService) status(ctx context.Context, wheel *models.Wheel, deviceID, ip string) (*models.SessionStatus, error) {
	if wheel.Unlimited() {
		return &models.SessionStatus{HasSpun: false}, nil
	}
	window := time.Duration(wheel.SessionExpiryMinutes) * time.Minute
	since := s.opts.now().Add(-window)

	recent, err := s.results.FindRecentSpin(ctx, wheel.RouteName, strings.TrimSpace(deviceID), strings.TrimSpace(ip), since)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &models.SessionStatus{HasSpun: false}, nil
		}
		return nil, fmt.Errorf("find recent spin: %w", err)
	}

	outTime := *recent.OutTime
	expiresAt := outTime.Add(window)
	thanks := wheel.ThankYouMessage
	if thanks == "" {
		thanks = DefaultThankYouMessage
	}
	return &models.SessionStatus{
		HasSpun:         true,
		Winner:          *recent.Winner,
		PrizeAmount:     recent.PrizeAmount,
		PrizeType:       recent.PrizeType,
		OutTime:         &outTime,
		ExpiresAt:       &expiresAt,
		ThankYouMessage: thanks,
	}, nil
}

// ListByWheel returns a wheel's sessions, newest first.
func (s *SessionService) ListByWheel(ctx context.Context, wheelID string) ([]*models.SpinResult, error) {
	return s.results.ListSpinResultsByWheel(ctx, wheelID)
}

// ListByRoute returns a route's sessions, newest first.
func (s *SessionService) ListByRoute(ctx context.Context, routeName string) ([]*models.SpinResult, error) {
	return s.results.ListSpinResultsByRoute(ctx, strings.ToLower(strings.TrimSpace(routeName)))
}

// Approve sets the admin review flag.
func (s *SessionService) Approve(ctx context.Context, id string, approved bool) (*models.SpinResult, error) {
	r, err := s.results.SetApproved(ctx, id, approved)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrResultNotFound
	}
	return r, err
}
