package services

import (
	"context"
	"errors"
	"testing"

	"spinwheel/internal/models"
	"spinwheel/internal/store/memstore"
)

func TestLoginService_Authenticate(t *testing.T) {
	st := memstore.New()
	svc := NewLoginService(st)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "s3cret"); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err := svc.Create(ctx, LoginInput{Username: strPtr("cafe-staff"), Password: strPtr("pw"), RouteName: strPtr("cafe")}); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	t.Run("Test admin signs in", func(t *testing.T) {
		l, err := svc.Authenticate(ctx, " admin ", "s3cret")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !l.Admin() || l.PasswordHash == "s3cret" {
			t.Fatalf("Expected a hashed all-routes login, but got %+v", l)
		}
	})

	t.Run("Test wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "admin", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Expected ErrInvalidCredentials, but got %v", err)
		}
		if _, err := svc.Authenticate(ctx, "ghost", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Expected ErrInvalidCredentials, but got %v", err)
		}
	})

	t.Run("Test route-scoped login is denied", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "cafe-staff", "pw"); !errors.Is(err, ErrAccessDenied) {
			t.Fatalf("Expected ErrAccessDenied, but got %v", err)
		}
	})

	t.Run("Test disabled admin is denied", func(t *testing.T) {
		admin, _ := st.FindLoginByUsername(ctx, "admin")
		if _, err := svc.Update(ctx, admin.ID, LoginInput{Access: strPtr("Disable")}); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if _, err := svc.Authenticate(ctx, "admin", "s3cret"); !errors.Is(err, ErrAccessDenied) {
			t.Fatalf("Expected ErrAccessDenied, but got %v", err)
		}
	})

	t.Run("Test EnsureAdmin leaves an existing login alone", func(t *testing.T) {
		if err := svc.EnsureAdmin(ctx, "admin", "other"); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		logins, _ := svc.List(ctx)
		if len(logins) != 2 {
			t.Fatalf("Expected 2 logins, but got %d", len(logins))
		}
	})
}

func TestLoginService_CreateAndUpdate(t *testing.T) {
	st := memstore.New()
	svc := NewLoginService(st)
	ctx := context.Background()

	l, err := svc.Create(ctx, LoginInput{Username: strPtr("a"), Password: strPtr("pw"), RouteName: strPtr("r1")})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if l.Access != "enable" || l.Onboard.IsZero() {
		t.Errorf("Expected an enabled login with an onboard time, but got %+v", l)
	}
	if _, err := svc.Create(ctx, LoginInput{Username: strPtr("a"), Password: strPtr("pw"), RouteName: strPtr("r2")}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Expected ErrUsernameTaken, but got %v", err)
	}
	if _, err := svc.Create(ctx, LoginInput{Username: strPtr("b"), Password: strPtr("pw")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, but got %v", err)
	}
	if _, err := svc.Create(ctx, LoginInput{Username: strPtr("b"), Password: strPtr("pw"), RouteName: strPtr("r"), Access: strPtr("maybe")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, but got %v", err)
	}

	oldHash := l.PasswordHash
	updated, err := svc.Update(ctx, l.ID, LoginInput{Password: strPtr("new"), RouteName: strPtr(models.AllRoutes)})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if updated.PasswordHash == oldHash || !updated.Admin() {
		t.Errorf("Expected a new hash and admin scope, but got %+v", updated)
	}
	if _, err := svc.Authenticate(ctx, "a", "new"); err != nil {
		t.Errorf("Expected the new password to work, but got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", LoginInput{}); !errors.Is(err, ErrLoginNotFound) {
		t.Fatalf("Expected ErrLoginNotFound, but got %v", err)
	}
}

func TestLoginService_DeleteCascades(t *testing.T) {
	st := memstore.New()
	svc := NewLoginService(st)
	ctx := context.Background()

	w := seedWheel(t, st, &models.Wheel{RouteName: "cafe"})
	seedSession(t, st, w, "")
	seedSession(t, st, w, "")

	l, err := svc.Create(ctx, LoginInput{Username: strPtr("staff"), Password: strPtr("pw"), RouteName: strPtr("Cafe")})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	deleted, err := svc.Delete(ctx, l.ID)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if deleted != 2 {
		t.Fatalf("Expected 2 results deleted, but got %d", deleted)
	}
	if _, err := svc.Delete(ctx, l.ID); !errors.Is(err, ErrLoginNotFound) {
		t.Fatalf("Expected ErrLoginNotFound, but got %v", err)
	}
}

func TestLoginService_Authorize(t *testing.T) {
	st := memstore.New()
	svc := NewLoginService(st)
	ctx := context.Background()

	admin, err := svc.Create(ctx, LoginInput{Username: strPtr("root"), Password: strPtr("pw"), RouteName: strPtr("ALL")})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	staff, err := svc.Create(ctx, LoginInput{Username: strPtr("staff"), Password: strPtr("pw"), RouteName: strPtr("cafe")})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	if l, err := svc.Authorize(ctx, admin.ID); err != nil || l.Username != "root" {
		t.Fatalf("Expected root to be authorized, but got %v, %v", l, err)
	}
	for name, id := range map[string]string{"empty": "", "unknown": "nope", "scoped": staff.ID} {
		t.Run("Test "+name+" is denied", func(t *testing.T) {
			if _, err := svc.Authorize(ctx, id); !errors.Is(err, ErrAccessDenied) {
				t.Fatalf("Expected ErrAccessDenied, but got %v", err)
			}
		})
	}

	if _, err := svc.Update(ctx, admin.ID, LoginInput{Access: strPtr("disable")}); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err := svc.Authorize(ctx, admin.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Expected a disabled login to be denied, but got %v", err)
	}
}
