package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// parseLimit reads the limit query parameter clamped to the server maximum
func parseLimit(c echo.Context, def int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// parseCursor reads the cursor query parameter as an RFC3339 timestamp.
// An absent cursor yields the zero time (first page).
func parseCursor(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("cursor")
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
	}
	return t, nil
}

// slicePage applies the limit+1 overflow convention: items beyond the limit
// signal a next page, and the cursor for it is the sort key of the last kept
// item. Items must already be filtered and sorted newest-first.
func slicePage[T any](items []T, limit int, createdAt func(T) time.Time) ([]T, *string) {
	if len(items) <= limit {
		return items, nil
	}
	page := items[:limit]
	cursor := createdAt(page[len(page)-1]).Format(time.RFC3339Nano)
	return page, &cursor
}
