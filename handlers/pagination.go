package handlers

import (
	"strconv"
	"strings"
	"time"

	"home-price-api/models"
	"home-price-api/services"

	"github.com/gin-gonic/gin"
)

const (
	MaxLimit = 200

	// NextCursorHeader carries the position of the last row of a truncated
	// page as "<created_at>,<id>"; pass it back as ?before= for the next page.
	NextCursorHeader = "X-Next-Cursor"
)

// PaginationParams is opt-in: a zero Limit means the full list.
type PaginationParams struct {
	Limit  int
	Before *services.Cursor
}

func ParsePagination(c *gin.Context) PaginationParams {
	var p PaginationParams

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if cursor, ok := parseCursor(c.Query("before")); ok {
		p.Before = &cursor
	}

	return p
}

func formatCursor(p models.PricePrediction) string {
	cursor := services.CursorFor(p)
	return cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "," + strconv.FormatUint(uint64(cursor.ID), 10)
}

// parseCursor accepts "<created_at>,<id>" or a bare RFC 3339 timestamp.
func parseCursor(s string) (services.Cursor, bool) {
	if s == "" {
		return services.Cursor{}, false
	}
	ts, idStr, hasID := strings.Cut(s, ",")

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return services.Cursor{}, false
	}
	cursor := services.Cursor{CreatedAt: t.UTC()}
	if hasID {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return services.Cursor{}, false
		}
		cursor.ID = uint(id)
	}
	return cursor, true
}
