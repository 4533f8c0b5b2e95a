package handlers

import (
	"net/http"
	"strings"

	"spinwheel/internal/models"

	"github.com/gin-gonic/gin"
)

// ListWheels returns every wheel, newest first, without images.
func (h *HTTPHandler) ListWheels(c *gin.Context) {
	wheels, err := h.wheels.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wheels)
}

func (h *HTTPHandler) GetWheel(c *gin.Context) {
	w, err := h.wheels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *HTTPHandler) GetWheelByRoute(c *gin.Context) {
	w, err := h.wheels.GetByRoute(c.Request.Context(), c.Param("routeName"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *HTTPHandler) CreateWheel(c *gin.Context) {
	var in models.WheelInput
	if err := decodeJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	w, err := h.wheels.Create(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *HTTPHandler) UpdateWheel(c *gin.Context) {
	var in models.WheelInput
	if err := decodeJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	w, err := h.wheels.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteWheel removes the wheel and the sessions recorded on its route.
func (h *HTTPHandler) DeleteWheel(c *gin.Context) {
	routeName, deleted, err := h.wheels.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var route any
	if routeName != "" {
		route = routeName
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                         true,
		"deletedSpinResultsForRoute": route,
		"deletedSpinResults":         deleted,
	})
}

// Spin consumes the caller's session and allocates a prize. The session id
// comes from the X-Session-Id header or the sessionId body field.
func (h *HTTPHandler) Spin(c *gin.Context) {
	sessionID := strings.TrimSpace(c.GetHeader("X-Session-Id"))
	if sessionID == "" {
		var body struct {
			SessionID string `json:"sessionId"`
		}
		if err := decodeJSON(c, &body); err != nil {
			h.respondError(c, err)
			return
		}
		sessionID = strings.TrimSpace(body.SessionID)
	}

	outcome, err := h.spins.Spin(c.Request.Context(), c.Param("id"), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
