// Package store defines the persistence contract the engine relies on. Each
// write is atomic per document only; there are no cross-document
// transactions. The conditional writes (DecrementRemaining, ClaimOutcome) are
// what close the quota and double-spin races.
package store

import (
	"context"
	"errors"
	"time"

	"spinwheel/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("store: conflict")
)

type WheelRepository interface {
	ListWheels(ctx context.Context) ([]*models.Wheel, error)
	GetWheel(ctx context.Context, id string) (*models.Wheel, error)
	// GetWheelByRoute looks a wheel up by its lower-cased route name.
	GetWheelByRoute(ctx context.Context, routeName string) (*models.Wheel, error)
	CreateWheel(ctx context.Context, w *models.Wheel) error
	UpdateWheel(ctx context.Context, w *models.Wheel) error
	UpdateSegments(ctx context.Context, wheelID string, segments []models.Segment) error
	// DecrementRemaining lowers segment index's remaining count by one only
	// if it is currently above zero. It reports whether the write happened.
	DecrementRemaining(ctx context.Context, wheelID string, index int) (bool, error)
	DeleteWheel(ctx context.Context, id string) error
}

type SpinResultRepository interface {
	CreateSpinResult(ctx context.Context, r *models.SpinResult) error
	GetSpinResult(ctx context.Context, id string) (*models.SpinResult, error)
	// ClaimOutcome writes the outcome only if the session has no winner yet
	// and reports whether it did.
	ClaimOutcome(ctx context.Context, id string, o models.Outcome) (bool, error)
	LinkUser(ctx context.Context, id, userID string) error
	// FindRecentSpin returns the newest spun result on routeName whose device
	// id or IP matches (empty identifiers never match) and whose outTime is
	// at or after since.
	FindRecentSpin(ctx context.Context, routeName, deviceID, ip string, since time.Time) (*models.SpinResult, error)
	ListSpinResultsByWheel(ctx context.Context, wheelID string) ([]*models.SpinResult, error)
	ListSpinResultsByRoute(ctx context.Context, routeName string) ([]*models.SpinResult, error)
	SetApproved(ctx context.Context, id string, approved bool) (*models.SpinResult, error)
	// DeleteSpinResultsByRoute removes every result whose route name equals
	// routeName ignoring case.
	DeleteSpinResultsByRoute(ctx context.Context, routeName string) (int64, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// FindOrCreateUser returns the user with exactly this surname and name,
	// creating one with zero points when none exists.
	FindOrCreateUser(ctx context.Context, surname, name string) (*models.User, error)
	// AwardPoints adds entry.Points to the balance and appends entry to the
	// ledger in a single write.
	AwardPoints(ctx context.Context, userID string, entry models.PointsEntry) (*models.User, error)
}

type LoginRepository interface {
	ListLogins(ctx context.Context) ([]*models.Login, error)
	GetLogin(ctx context.Context, id string) (*models.Login, error)
	FindLoginByUsername(ctx context.Context, username string) (*models.Login, error)
	CreateLogin(ctx context.Context, l *models.Login) error
	UpdateLogin(ctx context.Context, l *models.Login) error
	DeleteLogin(ctx context.Context, id string) error
}

// Store is the full set of repositories a backend provides.
type Store interface {
	WheelRepository
	SpinResultRepository
	UserRepository
	LoginRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
