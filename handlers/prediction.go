package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"home-price-api/middleware"
	"home-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type PredictionHandler struct {
	svc *services.PredictionService
}

func NewPredictionHandler(svc *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

// Create handles POST onto the collection.
func (h *PredictionHandler) Create(c *gin.Context) {
	raw, err := decodeBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListSession returns the records stored under ?session_token=, newest
// first. Pagination is opt-in through ?limit=.
func (h *PredictionHandler) ListSession(c *gin.Context) {
	token := c.Query("session_token")
	p := ParsePagination(c)

	fetch := 0
	if p.Limit > 0 {
		fetch = p.Limit + 1
	}
	rows, err := h.svc.ListSession(c.Request.Context(), token, fetch, p.Before)
	if err != nil {
		writeError(c, err)
		return
	}

	if p.Limit > 0 && len(rows) > p.Limit {
		rows = rows[:p.Limit]
		c.Header(NextCursorHeader, formatCursor(rows[len(rows)-1]))
	}
	c.JSON(http.StatusOK, rows)
}

// UpdateInSession handles PATCH and PUT; both are partial updates.
func (h *PredictionHandler) UpdateInSession(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	token := c.Query("session_token")
	if token == "" {
		writeError(c, &services.Error{Code: services.ErrorMissingSessionToken, Reason: "session_token query parameter is required"})
		return
	}

	raw, err := decodeBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	p, err := h.svc.UpdateInSession(c.Request.Context(), id, token, raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PredictionHandler) DeleteInSession(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteInSession(c.Request.Context(), id, c.Query("session_token")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NotAvailable answers the list and per-id endpoints, which are
// deliberately closed to callers.
func NotAvailable(c *gin.Context) {
	services.RecordRejection(services.ErrorMethodNotAllowed)
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Not available"})
}

// parseID reads :id. A non-numeric id cannot name a record, so it is a 404
// like any other miss. Zero parses; the store reports it missing.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		writeError(c, &services.Error{Code: services.ErrorNotFound, Reason: "Prediction not found or does not belong to this session"})
		return 0, false
	}
	return uint(id), true
}

// decodeBody reads a JSON object, or a urlencoded/multipart form, into a
// map. Numbers are kept as json.Number so validation sees the literal.
func decodeBody(c *gin.Context) (map[string]any, error) {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return decodeForm(c)
	}

	raw := map[string]any{}
	if c.Request.Body == nil {
		return raw, nil
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, &services.Error{Code: services.ErrorInvalidBody, Reason: "request body must be a JSON object", Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decodeForm(c *gin.Context) (map[string]any, error) {
	var err error
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		err = c.Request.ParseMultipartForm(1 << 20)
	} else {
		err = c.Request.ParseForm()
	}
	if err != nil {
		return nil, &services.Error{Code: services.ErrorInvalidBody, Reason: "malformed form body", Err: err}
	}

	raw := map[string]any{}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			raw[key] = values[len(values)-1]
		}
	}
	return raw, nil
}

func writeError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	reason := "internal server error"
	var e *services.Error
	if errors.As(err, &e) {
		reason = e.Reason
	}

	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		log.Printf("request %s %s failed [%s]: %v", c.Request.Method, c.FullPath(), middleware.GetRequestID(c), err)
	} else {
		services.RecordRejection(code)
	}
	c.JSON(status, gin.H{"error": reason})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorMissingFields, services.ErrorMissingSessionToken, services.ErrorInvalidType,
		services.ErrorOutOfRange, services.ErrorInvalidBody:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
