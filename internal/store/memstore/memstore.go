// Package memstore keeps every document in process memory. It is used for
// tests and for running the service without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
)

// Store holds wheels, spin results, users and logins keyed by ID.
type Store struct {
	mu      sync.RWMutex
	wheels  map[string]*models.Wheel
	results map[string]*models.SpinResult
	users   map[string]*models.User
	logins  map[string]*models.Login
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		wheels:  make(map[string]*models.Wheel),
		results: make(map[string]*models.SpinResult),
		users:   make(map[string]*models.User),
		logins:  make(map[string]*models.Login),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Wheels

func (s *Store) ListWheels(ctx context.Context) ([]*models.Wheel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Wheel, 0, len(s.wheels))
	for _, w := range s.wheels {
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) GetWheel(ctx context.Context, id string) (*models.Wheel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wheels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return w.Clone(), nil
}

func (s *Store) GetWheelByRoute(ctx context.Context, routeName string) (*models.Wheel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wheels {
		if w.RouteName == routeName {
			return w.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) routeTaken(routeName, exceptID string) bool {
	for id, w := range s.wheels {
		if id != exceptID && w.RouteName == routeName {
			return true
		}
	}
	return false
}

func (s *Store) CreateWheel(ctx context.Context, w *models.Wheel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.routeTaken(w.RouteName, "") {
		return store.ErrConflict
	}
	w.ID = newID(w.ID)
	s.wheels[w.ID] = w.Clone()
	return nil
}

func (s *Store) UpdateWheel(ctx context.Context, w *models.Wheel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wheels[w.ID]; !ok {
		return store.ErrNotFound
	}
	if s.routeTaken(w.RouteName, w.ID) {
		return store.ErrConflict
	}
	s.wheels[w.ID] = w.Clone()
	return nil
}

func (s *Store) UpdateSegments(ctx context.Context, wheelID string, segments []models.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wheels[wheelID]
	if !ok {
		return store.ErrNotFound
	}
	w.Segments = models.CloneSegments(segments)
	return nil
}

func (s *Store) DecrementRemaining(ctx context.Context, wheelID string, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wheels[wheelID]
	if !ok {
		return false, store.ErrNotFound
	}
	if index < 0 || index >= len(w.Segments) {
		return false, nil
	}
	seg := &w.Segments[index]
	if !seg.Limited() || seg.Remaining() <= 0 {
		return false, nil
	}
	seg.DailyRemaining = models.IntPtr(seg.Remaining() - 1)
	return true, nil
}

func (s *Store) DeleteWheel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wheels[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.wheels, id)
	return nil
}

// Spin results

func (s *Store) CreateSpinResult(ctx context.Context, r *models.SpinResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = newID(r.ID)
	s.results[r.ID] = r.Clone()
	return nil
}

func (s *Store) GetSpinResult(ctx context.Context, id string) (*models.SpinResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) ClaimOutcome(ctx context.Context, id string, o models.Outcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if r.Spun() {
		return false, nil
	}
	o.Apply(r)
	r.UpdatedAt = o.OutTime
	return true, nil
}

func (s *Store) LinkUser(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[id]
	if !ok {
		return store.ErrNotFound
	}
	r.UserID = userID
	return nil
}

func (s *Store) FindRecentSpin(ctx context.Context, routeName, deviceID, ip string, since time.Time) (*models.SpinResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.SpinResult
	for _, r := range s.results {
		if r.RouteName != routeName || !r.Spun() || r.OutTime == nil || r.OutTime.Before(since) {
			continue
		}
		matched := (deviceID != "" && r.DeviceID == deviceID) || (ip != "" && r.IPAddress == ip)
		if !matched {
			continue
		}
		if best == nil || r.OutTime.After(*best.OutTime) {
			best = r
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best.Clone(), nil
}

func (s *Store) listResults(keep func(*models.SpinResult) bool) []*models.SpinResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SpinResult, 0)
	for _, r := range s.results {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListSpinResultsByWheel(ctx context.Context, wheelID string) ([]*models.SpinResult, error) {
	return s.listResults(func(r *models.SpinResult) bool { return r.WheelID == wheelID }), nil
}

func (s *Store) ListSpinResultsByRoute(ctx context.Context, routeName string) ([]*models.SpinResult, error) {
	return s.listResults(func(r *models.SpinResult) bool { return r.RouteName == routeName }), nil
}

func (s *Store) SetApproved(ctx context.Context, id string, approved bool) (*models.SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Approved = approved
	return r.Clone(), nil
}

func (s *Store) DeleteSpinResultsByRoute(ctx context.Context, routeName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.results {
		if strings.EqualFold(r.RouteName, routeName) {
			delete(s.results, id)
			n++
		}
	}
	return n, nil
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) FindOrCreateUser(ctx context.Context, surname, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Surname == surname && u.Name == name {
			return u.Clone(), nil
		}
	}
	now := time.Now()
	u := &models.User{
		ID:            uuid.NewString(),
		Surname:       surname,
		Name:          name,
		PointsHistory: []models.PointsEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.users[u.ID] = u
	return u.Clone(), nil
}

func (s *Store) AwardPoints(ctx context.Context, userID string, entry models.PointsEntry) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.LoyaltyPoints += entry.Points
	u.PointsHistory = append(u.PointsHistory, entry)
	u.UpdatedAt = entry.Timestamp
	return u.Clone(), nil
}

// Logins

func cloneLogin(l *models.Login) *models.Login {
	c := *l
	return &c
}

func (s *Store) ListLogins(ctx context.Context) ([]*models.Login, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Login, 0, len(s.logins))
	for _, l := range s.logins {
		out = append(out, cloneLogin(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Onboard.Before(out[j].Onboard) })
	return out, nil
}

func (s *Store) GetLogin(ctx context.Context, id string) (*models.Login, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneLogin(l), nil
}

func (s *Store) FindLoginByUsername(ctx context.Context, username string) (*models.Login, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.logins {
		if l.Username == username {
			return cloneLogin(l), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateLogin(ctx context.Context, l *models.Login) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.logins {
		if existing.Username == l.Username {
			return store.ErrConflict
		}
	}
	l.ID = newID(l.ID)
	s.logins[l.ID] = cloneLogin(l)
	return nil
}

func (s *Store) UpdateLogin(ctx context.Context, l *models.Login) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logins[l.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.logins {
		if id != l.ID && existing.Username == l.Username {
			return store.ErrConflict
		}
	}
	s.logins[l.ID] = cloneLogin(l)
	return nil
}

func (s *Store) DeleteLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logins[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.logins, id)
	return nil
}
