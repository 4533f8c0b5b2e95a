package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/logger"
)

// CreateSession opens a spin ticket from the entry form. Custom field values
// arrive as top-level body keys next to the fixed fields.
func (h *HTTPHandler) CreateSession(c *gin.Context) {
	body := map[string]any{}
	if c.Request.Body != nil {
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			h.respondError(c, fmt.Errorf("%w: malformed JSON body", services.ErrInvalidInput))
			return
		}
	}
	fields := make(map[string]string, len(body))
	for k, v := range body {
		fields[k] = formValue(v)
	}

	result, err := h.sessions.CreateSession(c.Request.Context(), services.CreateSessionRequest{
		WheelID:     fields["wheelId"],
		RouteName:   fields["routeName"],
		Surname:     fields["surname"],
		Name:        fields["name"],
		AmountSpent: fields["amountSpent"],
		Fields:      fields,
		DeviceID:    fields["deviceFingerprint"],
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": result.ID})
}

// formValue flattens a decoded JSON value into the string the form sent.
func formValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// RecordResult stores a client-computed outcome on an unspun session.
func (h *HTTPHandler) RecordResult(c *gin.Context) {
	var in services.ResultInput
	if err := decodeJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.sessions.RecordResult(c.Request.Context(), c.Param("sessionId"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckSession tells the client whether this device already won on a route.
// POST reads the body; GET reads the query string.
func (h *HTTPHandler) CheckSession(c *gin.Context) {
	var req struct {
		RouteName         string `json:"routeName"`
		DeviceFingerprint string `json:"deviceFingerprint"`
	}
	if c.Request.Method == http.MethodGet {
		req.RouteName = c.Query("routeName")
		req.DeviceFingerprint = c.Query("deviceFingerprint")
	} else if err := decodeJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	status, err := h.sessions.CheckSession(c.Request.Context(), req.RouteName, req.DeviceFingerprint, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *HTTPHandler) ListResultsByWheel(c *gin.Context) {
	results, err := h.sessions.ListByWheel(c.Request.Context(), c.Param("wheelId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *HTTPHandler) ListResultsByRoute(c *gin.Context) {
	results, err := h.sessions.ListByRoute(c.Request.Context(), c.Param("routeName"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ApproveResult sets or clears the review flag.
func (h *HTTPHandler) ApproveResult(c *gin.Context) {
	var body struct {
		Approved bool `json:"approved"`
	}
	if err := decodeJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.sessions.Approve(c.Request.Context(), c.Param("id"), body.Approved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportResultsCSV streams a route's sessions as a CSV download.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	routeName := strings.ToLower(strings.TrimSpace(c.Param("routeName")))
	results, err := h.sessions.ListByRoute(c.Request.Context(), routeName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	custom := customFieldKeys(results)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=spin_results_%s.csv", routeName))

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)

	header := []string{"Surname", "Name", "Amount Spent"}
	header = append(header, custom...)
	header = append(header, "Winner", "Prize Type", "Prize Amount", "Approved", "In Time", "Out Time", "IP Address")
	if err := w.Write(header); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}

	for _, r := range results {
		row := []string{r.Surname, r.Name, r.AmountSpent}
		for _, k := range custom {
			row = append(row, r.CustomFieldData[k])
		}
		winner, outTime := "", ""
		if r.Spun() {
			winner = *r.Winner
			outTime = r.OutTime.Format(time.RFC3339)
		}
		row = append(row, winner, string(r.PrizeType), r.PrizeAmount, strconv.FormatBool(r.Approved),
			r.InTime.Format(time.RFC3339), outTime, r.IPAddress)
		if err := w.Write(row); err != nil {
			logger.Errorf("Error writing CSV row: %v", err)
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}

// customFieldKeys collects every custom field id seen across results, sorted.
func customFieldKeys(results []*models.SpinResult) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range results {
		for k := range r.CustomFieldData {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
