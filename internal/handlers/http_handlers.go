package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"spinwheel/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	wheels   *services.WheelService
	sessions *services.SessionService
	spins    *services.SpinService
	logins   *services.LoginService
	db       Pinger
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(wheels *services.WheelService, sessions *services.SessionService, spins *services.SpinService, logins *services.LoginService, db Pinger) *HTTPHandler {
	return &HTTPHandler{
		wheels:   wheels,
		sessions: sessions,
		spins:    spins,
		logins:   logins,
		db:       db,
	}
}

// RegisterRoutes registers all the application routes under /api.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.Health)

	auth := api.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.RequireAdmin(), h.Me)

	// Visitor-facing endpoints.
	wheels := api.Group("/wheels")
	wheels.GET("/route/:routeName", h.GetWheelByRoute)
	wheels.GET("/:id", h.GetWheel)
	wheels.POST("/:id/spin", h.Spin)

	results := api.Group("/spin-results")
	results.POST("/session", h.CreateSession)
	results.PUT("/session/:sessionId/result", h.RecordResult)
	results.POST("/check-session", h.CheckSession)
	results.GET("/check-session", h.CheckSession)

	// Editor endpoints.
	admin := api.Group("", h.RequireAdmin())
	admin.GET("/wheels", h.ListWheels)
	admin.POST("/wheels", h.CreateWheel)
	admin.PUT("/wheels/:id", h.UpdateWheel)
	admin.DELETE("/wheels/:id", h.DeleteWheel)

	admin.GET("/spin-results/wheel/:wheelId", h.ListResultsByWheel)
	admin.GET("/spin-results/route/:routeName", h.ListResultsByRoute)
	admin.GET("/spin-results/route/:routeName/export", h.ExportResultsCSV)
	admin.PUT("/spin-results/:id/approve", h.ApproveResult)

	admin.GET("/logins", h.ListLogins)
	admin.POST("/logins", h.CreateLogin)
	admin.PUT("/logins/:id", h.UpdateLogin)
	admin.DELETE("/logins/:id", h.DeleteLogin)
}

// Health reports store connectivity and the engine counters.
func (h *HTTPHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "db": "up", "stats": h.spins.Stats().Snapshot()}
	if err := h.db.Ping(ctx); err != nil {
		logger.Errorf("Health check ping failed: %v", err)
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["db"] = "down"
	}
	c.JSON(status, body)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrWheelNotFound),
		errors.Is(err, services.ErrResultNotFound),
		errors.Is(err, services.ErrLoginNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrSessionRequired),
		errors.Is(err, services.ErrInvalidSession),
		errors.Is(err, services.ErrSessionWheelMismatch),
		errors.Is(err, services.ErrRouteTaken):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAlreadySpun),
		errors.Is(err, services.ErrAlreadyWon),
		errors.Is(err, services.ErrNoEligibleSegments),
		errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAccessDenied):
		return http.StatusForbidden
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// respondError writes err with the status it maps to. Unexpected errors are
// logged and reported under "error".
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return nil
	}
	err := json.NewDecoder(c.Request.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: malformed JSON body", services.ErrInvalidInput)
}
