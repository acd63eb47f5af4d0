package pagination

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

// ParseDateTime accepts ISO-8601 date-times with or without fractional seconds.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q", s)
}

// SyncWindow reads the lastModifiedDateTime and now query params clients use
// to page through changes. now defaults to the current time.
func SyncWindow(c echo.Context) (from, to time.Time, err error) {
	raw := c.QueryParam("lastModifiedDateTime")
	if raw == "" {
		return from, to, fmt.Errorf("lastModifiedDateTime is required")
	}
	if from, err = ParseDateTime(raw); err != nil {
		return from, to, err
	}
	to = time.Now()
	if raw := c.QueryParam("now"); raw != "" {
		if to, err = ParseDateTime(raw); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}
