package handlers

import (
	"errors"
	"net/http"

	"spinwheel/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

const (
	sessionLoginKey = "loginId"
	contextLoginKey = "login"
)

// Login signs an admin in and stores the login id in the session cookie.
func (h *HTTPHandler) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Missing credentials"})
		return
	}

	l, err := h.logins.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := statusFor(err)
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(status, gin.H{"ok": false, "message": "Missing credentials"})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(status, gin.H{"ok": false, "message": "Invalid username or password"})
		case errors.Is(err, services.ErrAccessDenied):
			c.JSON(status, gin.H{"ok": false, "message": "Access denied"})
		default:
			logger.Errorf("Login for %q failed: %v", body.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	session := sessions.Default(c)
	session.Set(sessionLoginKey, l.ID)
	if err := session.Save(); err != nil {
		logger.Errorf("Saving session for %q failed: %v", l.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	logger.Infof("Admin %q signed in from %s", l.Username, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the signed-in login.
func (h *HTTPHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, c.MustGet(contextLoginKey))
}

// RequireAdmin aborts with 401 unless the session carries an enabled
// all-routes login.
func (h *HTTPHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := sessions.Default(c).Get(sessionLoginKey).(string)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Login required"})
			return
		}
		l, err := h.logins.Authorize(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrAccessDenied) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Login required"})
				return
			}
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Set(contextLoginKey, l)
		c.Next()
	}
}

func (h *HTTPHandler) ListLogins(c *gin.Context) {
	logins, err := h.logins.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logins)
}

func (h *HTTPHandler) CreateLogin(c *gin.Context) {
	var in services.LoginInput
	if err := decodeJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	l, err := h.logins.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *HTTPHandler) UpdateLogin(c *gin.Context) {
	var in services.LoginInput
	if err := decodeJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	l, err := h.logins.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DeleteLogin removes a login and the sessions recorded on its route.
func (h *HTTPHandler) DeleteLogin(c *gin.Context) {
	deleted, err := h.logins.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrLoginNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "Login not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deletedSpinResults": deleted})
}
