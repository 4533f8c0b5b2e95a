package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store/memstore"
)

func formWheel(t *testing.T, st *memstore.Store, expiry int) *models.Wheel {
	t.Helper()
	fc := models.DefaultFormConfig()
	fc.Enabled = true
	fc.CustomFields = []models.CustomField{{ID: "phone", Label: "Phone", Type: "tel", Enabled: true}}
	return seedWheel(t, st, &models.Wheel{
		RouteName:            "cafe",
		SessionExpiryMinutes: expiry,
		FormConfig:           fc,
		ThankYouMessage:      "See you tomorrow!",
		Segments:             []models.Segment{{Text: "Coffee", PrizeType: models.PrizeOther}},
	})
}

func TestSessionService_CreateSession(t *testing.T) {
	st := memstore.New()
	w := formWheel(t, st, 60)
	svc := NewSessionService(st, WithClock(newTestClock().Now))
	ctx := context.Background()

	valid := CreateSessionRequest{
		WheelID:     w.ID,
		RouteName:   "CAFE",
		Surname:     " Doe ",
		Name:        "Jane",
		AmountSpent: "450",
		Fields:      map[string]string{"phone": "555-0100", "ignored": "x"},
		DeviceID:    "device-1",
		UserAgent:   "test-agent",
		IPAddress:   "10.0.0.1",
	}

	t.Run("Test valid submission opens a session", func(t *testing.T) {
		r, err := svc.CreateSession(ctx, valid)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if r.ID == "" || r.RouteName != "cafe" || r.Surname != "Doe" || r.Spun() {
			t.Fatalf("Unexpected session %+v", r)
		}
		if len(r.CustomFieldData) != 1 || r.CustomFieldData["phone"] != "555-0100" {
			t.Errorf("Expected only the phone custom field, but got %v", r.CustomFieldData)
		}
		if r.DeviceID != "device-1" || r.PrizeType != models.PrizeOther || !r.FormEnabled {
			t.Errorf("Unexpected session metadata %+v", r)
		}
	})

	t.Run("Test unknown wheel or wrong route", func(t *testing.T) {
		req := valid
		req.RouteName = "elsewhere"
		if _, err := svc.CreateSession(ctx, req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, but got %v", err)
		}
		req = valid
		req.WheelID = "missing"
		if _, err := svc.CreateSession(ctx, req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, but got %v", err)
		}
	})

	t.Run("Test form fields are required when the form is enabled", func(t *testing.T) {
		req := valid
		req.AmountSpent = "  "
		if _, err := svc.CreateSession(ctx, req); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("Expected ErrMissingFields, but got %v", err)
		}
	})

	t.Run("Test missing device id is generated", func(t *testing.T) {
		req := valid
		req.DeviceID = ""
		req.IPAddress = ""
		r, err := svc.CreateSession(ctx, req)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if r.DeviceID == "" {
			t.Fatal("Expected a generated device id")
		}
	})
}

func TestSessionService_Gatekeeper(t *testing.T) {
	clock := newTestClock()
	st := memstore.New()
	w := formWheel(t, st, 60)
	sessions := NewSessionService(st, WithClock(clock.Now))
	spins := NewSpinService(st, WithClock(clock.Now))
	ctx := context.Background()

	req := CreateSessionRequest{
		WheelID: w.ID, RouteName: "cafe", Surname: "Doe", Name: "Jane", AmountSpent: "10",
		DeviceID: "device-1", IPAddress: "10.0.0.1",
	}

	status, err := sessions.CheckSession(ctx, "cafe", "device-1", "10.0.0.1")
	if err != nil || status.HasSpun {
		t.Fatalf("Expected a fresh device, but got %+v, %v", status, err)
	}

	first, err := sessions.CreateSession(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err := spins.Spin(ctx, w.ID, first.ID); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	t.Run("Test same device is recognised", func(t *testing.T) {
		clock.Advance(10 * time.Minute)
		status, err := sessions.CheckSession(ctx, "CAFE", "device-1", "")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !status.HasSpun || status.Winner != "Coffee" || status.ThankYouMessage != "See you tomorrow!" {
			t.Fatalf("Unexpected status %+v", status)
		}
		if got := status.ExpiresAt.Sub(*status.OutTime); got != time.Hour {
			t.Errorf("Expected a one hour window, but got %v", got)
		}
	})

	t.Run("Test same IP on a new device is recognised", func(t *testing.T) {
		status, _ := sessions.CheckSession(ctx, "cafe", "device-2", "10.0.0.1")
		if !status.HasSpun {
			t.Fatal("Expected the IP to match")
		}
	})

	t.Run("Test a new session is refused inside the window", func(t *testing.T) {
		if _, err := sessions.CreateSession(ctx, req); !errors.Is(err, ErrAlreadyWon) {
			t.Fatalf("Expected ErrAlreadyWon, but got %v", err)
		}
	})

	t.Run("Test window expires", func(t *testing.T) {
		clock.Advance(time.Hour)
		status, _ := sessions.CheckSession(ctx, "cafe", "device-1", "10.0.0.1")
		if status.HasSpun {
			t.Fatalf("Expected the window to be over, but got %+v", status)
		}
		if _, err := sessions.CreateSession(ctx, req); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
	})

	t.Run("Test unknown route", func(t *testing.T) {
		if _, err := sessions.CheckSession(ctx, "nowhere", "device-1", ""); !errors.Is(err, ErrWheelNotFound) {
			t.Fatalf("Expected ErrWheelNotFound, but got %v", err)
		}
		if _, err := sessions.CheckSession(ctx, " ", "device-1", ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, but got %v", err)
		}
	})
}

func TestSessionService_UnlimitedWheelNeverGates(t *testing.T) {
	clock := newTestClock()
	st := memstore.New()
	w := formWheel(t, st, 0)
	sessions := NewSessionService(st, WithClock(clock.Now))
	spins := NewSpinService(st, WithClock(clock.Now))
	ctx := context.Background()

	req := CreateSessionRequest{
		WheelID: w.ID, RouteName: "cafe", Surname: "Doe", Name: "Jane", AmountSpent: "10",
		DeviceID: "device-1", IPAddress: "10.0.0.1",
	}
	for i := 0; i < 3; i++ {
		s, err := sessions.CreateSession(ctx, req)
		if err != nil {
			t.Fatalf("Session %d: expected no error, but got %v", i, err)
		}
		if _, err := spins.Spin(ctx, w.ID, s.ID); err != nil {
			t.Fatalf("Spin %d: expected no error, but got %v", i, err)
		}
	}
	status, err := sessions.CheckSession(ctx, "cafe", "device-1", "10.0.0.1")
	if err != nil || status.HasSpun {
		t.Fatalf("Expected hasSpun false, but got %+v, %v", status, err)
	}
}

func TestSessionService_RecordResult(t *testing.T) {
	st := memstore.New()
	w := formWheel(t, st, 60)
	svc := NewSessionService(st, WithClock(newTestClock().Now))
	ctx := context.Background()
	s := seedSession(t, st, w, "10")
	amount := "5 coffees"

	t.Run("Test invalid input", func(t *testing.T) {
		if _, err := svc.RecordResult(ctx, s.ID, ResultInput{Winner: " "}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, but got %v", err)
		}
		if _, err := svc.RecordResult(ctx, s.ID, ResultInput{Winner: "Coffee", PrizeType: "gold"}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, but got %v", err)
		}
		if _, err := svc.RecordResult(ctx, "missing", ResultInput{Winner: "Coffee"}); !errors.Is(err, ErrResultNotFound) {
			t.Fatalf("Expected ErrResultNotFound, but got %v", err)
		}
	})

	t.Run("Test first result is stored", func(t *testing.T) {
		r, err := svc.RecordResult(ctx, s.ID, ResultInput{Winner: "Coffee", PrizeType: models.PrizeOther, PrizeAmount: &amount})
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if r.Winner == nil || *r.Winner != "Coffee" || r.PrizeAmount != amount || r.OutTime == nil {
			t.Fatalf("Unexpected result %+v", r)
		}
	})

	t.Run("Test second result is refused", func(t *testing.T) {
		if _, err := svc.RecordResult(ctx, s.ID, ResultInput{Winner: "Tea"}); !errors.Is(err, ErrAlreadySpun) {
			t.Fatalf("Expected ErrAlreadySpun, but got %v", err)
		}
	})
}

func TestSessionService_ListAndApprove(t *testing.T) {
	st := memstore.New()
	w := formWheel(t, st, 60)
	svc := NewSessionService(st)
	ctx := context.Background()
	s := seedSession(t, st, w, "10")

	byWheel, _ := svc.ListByWheel(ctx, w.ID)
	byRoute, _ := svc.ListByRoute(ctx, "Cafe")
	if len(byWheel) != 1 || len(byRoute) != 1 {
		t.Fatalf("Expected 1 result per listing, but got %d and %d", len(byWheel), len(byRoute))
	}

	r, err := svc.Approve(ctx, s.ID, true)
	if err != nil || !r.Approved {
		t.Fatalf("Expected an approved result, but got %+v, %v", r, err)
	}
	if _, err := svc.Approve(ctx, "missing", true); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("Expected ErrResultNotFound, but got %v", err)
	}
}
