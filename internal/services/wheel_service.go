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

// WheelService is the admin side of wheels. Every read runs the daily reset
// so segments are never shown with yesterday's counters.
type WheelService struct {
	wheels   store.WheelRepository
	results  store.SpinResultRepository
	resetter *DailyResetter
	opts     options
}

func NewWheelService(st store.Store, opts ...Option) *WheelService {
	return &WheelService{
		wheels:   st,
		results:  st,
		resetter: NewDailyResetter(st, opts...),
		opts:     buildOptions(opts),
	}
}

// Resetter exposes the service's daily resetter for scheduled jobs.
func (s *WheelService) Resetter() *DailyResetter {
	return s.resetter
}

// List returns every wheel, most recently updated first, without images.
func (s *WheelService) List(ctx context.Context) ([]*models.Wheel, error) {
	wheels, err := s.wheels.ListWheels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wheels: %w", err)
	}
	for _, w := range wheels {
		w.CenterImage = ""
		for i := range w.Segments {
			w.Segments[i].Image = ""
		}
	}
	return wheels, nil
}

// Get loads a wheel by ID, refreshing its daily quotas.
func (s *WheelService) Get(ctx context.Context, id string) (*models.Wheel, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "undefined" {
		return nil, fmt.Errorf("%w: invalid wheel id", ErrInvalidInput)
	}
	w, err := s.wheels.GetWheel(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("load wheel: %w", err)
	}
	return s.resetter.EnsureDailyReset(ctx, w)
}

// GetByRoute loads a wheel by its route name, refreshing its daily quotas.
func (s *WheelService) GetByRoute(ctx context.Context, routeName string) (*models.Wheel, error) {
	w, err := s.wheels.GetWheelByRoute(ctx, strings.ToLower(strings.TrimSpace(routeName)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("load wheel: %w", err)
	}
	return s.resetter.EnsureDailyReset(ctx, w)
}

// Create validates and stores a new wheel.
func (s *WheelService) Create(ctx context.Context, in *models.WheelInput) (*models.Wheel, error) {
	var routeIn, name string
	if in.RouteName != nil {
		routeIn = *in.RouteName
	}
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	routeName, err := NormalizeRouteName(routeIn)
	if err != nil {
		return nil, err
	}
	if _, err := s.wheels.GetWheelByRoute(ctx, routeName); err == nil {
		return nil, ErrRouteTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check route: %w", err)
	}

	segments, err := NormalizeSegments(in.Segments)
	if err != nil {
		return nil, err
	}
	now := s.opts.now()
	seedNewSegments(segments, StartOfDay(now))

	w := &models.Wheel{
		Name:                   name,
		RouteName:              routeName,
		Segments:               segments,
		CenterImageRadius:      sanitizeCenterImageRadius(in.CenterImageRadius),
		WheelBackgroundColor:   DefaultBackgroundColor,
		WrapperBackgroundColor: DefaultBackgroundColor,
		SpinDurationSec:        sanitizeSpinDuration(in.SpinDurationSec),
		SpinBaseTurns:          sanitizeSpinBaseTurns(in.SpinBaseTurns),
		FormConfig:             models.MergeFormConfig(in.FormConfig),
		SessionExpiryMinutes:   sanitizeSessionExpiry(in.SessionExpiryMinutes),
		ThankYouMessage:        sanitizeThankYou(in.ThankYouMessage),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	w.FormConfig.CustomFields = normalizeCustomFields(w.FormConfig.CustomFields)
	if in.Description != nil {
		w.Description = sanitizeShortText(*in.Description, maxDescriptionLen)
	}
	if in.CenterImage != nil {
		w.CenterImage = *in.CenterImage
	}
	if in.WheelBackgroundColor != nil {
		w.WheelBackgroundColor = sanitizeColor(*in.WheelBackgroundColor, DefaultBackgroundColor)
	}
	if in.WrapperBackgroundColor != nil {
		w.WrapperBackgroundColor = sanitizeColor(*in.WrapperBackgroundColor, DefaultBackgroundColor)
	}

	if err := s.wheels.CreateWheel(ctx, w); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrRouteTaken
		}
		return nil, fmt.Errorf("create wheel: %w", err)
	}
	logger.Infof("Created wheel %s on route %q with %d segments", w.ID, w.RouteName, len(w.Segments))
	return w, nil
}

// Update applies the fields present in in to the wheel. Segments are matched
// to the stored ones by index so quota counters survive edits.
func (s *WheelService) Update(ctx context.Context, id string, in *models.WheelInput) (*models.Wheel, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "undefined" {
		return nil, fmt.Errorf("%w: invalid wheel id", ErrInvalidInput)
	}
	existing, err := s.wheels.GetWheel(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("load wheel: %w", err)
	}
	w := existing.Clone()
	now := s.opts.now()

	if in.RouteName != nil {
		routeName, err := NormalizeRouteName(*in.RouteName)
		if err != nil {
			return nil, err
		}
		if other, err := s.wheels.GetWheelByRoute(ctx, routeName); err == nil && other.ID != id {
			return nil, ErrRouteTaken
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check route: %w", err)
		}
		w.RouteName = routeName
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			w.Name = name
		}
	}
	if in.Segments != nil {
		segments, err := NormalizeSegments(in.Segments)
		if err != nil {
			return nil, err
		}
		carryOverSegments(segments, existing.Segments, in.Segments, StartOfDay(now))
		w.Segments = segments
	}

	if in.FormConfig != nil {
		w.FormConfig = models.MergeFormConfig(in.FormConfig)
		w.FormConfig.CustomFields = normalizeCustomFields(w.FormConfig.CustomFields)
	}

	if in.SpinDurationSec.Set {
		w.SpinDurationSec = sanitizeSpinDuration(in.SpinDurationSec)
	}
	if in.SpinBaseTurns.Set {
		w.SpinBaseTurns = sanitizeSpinBaseTurns(in.SpinBaseTurns)
	}
	if in.CenterImageRadius.Set {
		w.CenterImageRadius = sanitizeCenterImageRadius(in.CenterImageRadius)
	}
	if in.SessionExpiryMinutes.Set {
		w.SessionExpiryMinutes = sanitizeSessionExpiry(in.SessionExpiryMinutes)
	}
	if in.Description != nil {
		w.Description = sanitizeShortText(*in.Description, maxDescriptionLen)
	}
	if in.CenterImage != nil {
		w.CenterImage = *in.CenterImage
	}
	if in.WheelBackgroundColor != nil {
		w.WheelBackgroundColor = sanitizeColor(*in.WheelBackgroundColor, orDefault(existing.WheelBackgroundColor, DefaultBackgroundColor))
	}
	if in.WrapperBackgroundColor != nil {
		w.WrapperBackgroundColor = sanitizeColor(*in.WrapperBackgroundColor, orDefault(existing.WrapperBackgroundColor, DefaultBackgroundColor))
	}
	if in.ThankYouMessage != nil {
		w.ThankYouMessage = sanitizeThankYou(in.ThankYouMessage)
	}
	w.UpdatedAt = now

	if err := s.wheels.UpdateWheel(ctx, w); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrRouteTaken
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("update wheel: %w", err)
	}
	return w, nil
}

// Delete removes a wheel along with every session recorded on its route.
// It returns the route name whose sessions were deleted.
func (s *WheelService) Delete(ctx context.Context, id string) (string, int64, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "undefined" {
		return "", 0, fmt.Errorf("%w: invalid wheel id", ErrInvalidInput)
	}
	w, err := s.wheels.GetWheel(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", 0, ErrWheelNotFound
		}
		return "", 0, fmt.Errorf("load wheel: %w", err)
	}

	routeName := strings.TrimSpace(w.RouteName)
	var deleted int64
	if routeName != "" {
		deleted, err = s.results.DeleteSpinResultsByRoute(ctx, routeName)
		if err != nil {
			return "", 0, fmt.Errorf("delete spin results: %w", err)
		}
	}
	if err := s.wheels.DeleteWheel(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", 0, fmt.Errorf("delete wheel: %w", err)
	}
	logger.Infof("Deleted wheel %s and %d spin results on route %q", id, deleted, routeName)
	return routeName, deleted, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
