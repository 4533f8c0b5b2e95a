package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/logger"
	"golang.org/x/crypto/bcrypt"
)

// LoginInput is the body of a login create or update. Nil fields are left
// unchanged on update.
type LoginInput struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	RouteName *string `json:"routeName"`
	Access    *string `json:"access"`
}

// LoginService manages admin credentials and checks sign-ins.
type LoginService struct {
	logins  store.LoginRepository
	results store.SpinResultRepository
	opts    options
}

func NewLoginService(st store.Store, opts ...Option) *LoginService {
	return &LoginService{logins: st, results: st, opts: buildOptions(opts)}
}

// Authenticate checks a username and password. Only enabled logins scoped to
// every route may enter the admin area.
func (s *LoginService) Authenticate(ctx context.Context, username, password string) (*models.Login, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", ErrInvalidInput)
	}
	l, err := s.logins.FindLoginByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !l.Enabled() || !l.Admin() {
		logger.Warningf("Login %q denied admin access (route %q, access %q)", l.Username, l.RouteName, l.Access)
		return nil, ErrAccessDenied
	}
	return l, nil
}

// Authorize re-checks a signed-in login on every admin request, so deleting
// or disabling it takes effect before the cookie expires.
func (s *LoginService) Authorize(ctx context.Context, id string) (*models.Login, error) {
	if id == "" {
		return nil, ErrAccessDenied
	}
	l, err := s.logins.GetLogin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("load login: %w", err)
	}
	if !l.Enabled() || !l.Admin() {
		return nil, ErrAccessDenied
	}
	return l, nil
}

func (s *LoginService) List(ctx context.Context) ([]*models.Login, error) {
	return s.logins.ListLogins(ctx)
}

// Create stores a new login with a hashed password.
func (s *LoginService) Create(ctx context.Context, in LoginInput) (*models.Login, error) {
	if in.Username == nil || strings.TrimSpace(*in.Username) == "" || in.Password == nil || *in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if in.RouteName == nil || strings.TrimSpace(*in.RouteName) == "" {
		return nil, fmt.Errorf("%w: routeName is required", ErrInvalidInput)
	}
	hash, err := hashPassword(*in.Password)
	if err != nil {
		return nil, err
	}
	l := &models.Login{
		Username:     strings.TrimSpace(*in.Username),
		PasswordHash: hash,
		RouteName:    strings.TrimSpace(*in.RouteName),
		Onboard:      s.opts.now(),
		Access:       "enable",
	}
	if in.Access != nil {
		access, err := normalizeAccess(*in.Access)
		if err != nil {
			return nil, err
		}
		l.Access = access
	}
	if err := s.logins.CreateLogin(ctx, l); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create login: %w", err)
	}
	return l, nil
}

// Update changes the fields present in in.
func (s *LoginService) Update(ctx context.Context, id string, in LoginInput) (*models.Login, error) {
	l, err := s.logins.GetLogin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLoginNotFound
		}
		return nil, fmt.Errorf("load login: %w", err)
	}
	if in.Username != nil {
		if u := strings.TrimSpace(*in.Username); u != "" {
			l.Username = u
		}
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		l.PasswordHash = hash
	}
	if in.RouteName != nil {
		l.RouteName = strings.TrimSpace(*in.RouteName)
	}
	if in.Access != nil {
		access, err := normalizeAccess(*in.Access)
		if err != nil {
			return nil, err
		}
		l.Access = access
	}
	if err := s.logins.UpdateLogin(ctx, l); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrUsernameTaken
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrLoginNotFound
		}
		return nil, fmt.Errorf("update login: %w", err)
	}
	return l, nil
}

// Delete removes a login and every session recorded on its route.
func (s *LoginService) Delete(ctx context.Context, id string) (int64, error) {
	l, err := s.logins.GetLogin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrLoginNotFound
		}
		return 0, fmt.Errorf("load login: %w", err)
	}
	var deleted int64
	if route := strings.TrimSpace(l.RouteName); route != "" {
		deleted, err = s.results.DeleteSpinResultsByRoute(ctx, route)
		if err != nil {
			return 0, fmt.Errorf("delete spin results: %w", err)
		}
	}
	if err := s.logins.DeleteLogin(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("delete login: %w", err)
	}
	logger.Infof("Deleted login %q and %d spin results", l.Username, deleted)
	return deleted, nil
}

// EnsureAdmin creates an all-routes login for username if none exists.
func (s *LoginService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.logins.FindLoginByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("find login: %w", err)
	}
	route := models.AllRoutes
	if _, err := s.Create(ctx, LoginInput{Username: &username, Password: &password, RouteName: &route}); err != nil {
		return err
	}
	logger.Infof("Seeded admin login %q", username)
	return nil
}

func hashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func normalizeAccess(a string) (string, error) {
	switch a = strings.ToLower(strings.TrimSpace(a)); a {
	case "enable", "disable":
		return a, nil
	}
	return "", fmt.Errorf("%w: access must be enable or disable", ErrInvalidInput)
}
