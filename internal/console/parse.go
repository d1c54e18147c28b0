package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/rfsched/internal/schedule"
)

// ParseDate parses a YYYY-MM-DD calendar date in local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", schedule.ErrInvalidInput, strings.TrimSpace(s))
	}
	return t, nil
}

// ParseTimestamp parses a minute-granularity YYYY-MM-DD HH:MM timestamp in
// local time.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(PromptLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD HH:MM)", schedule.ErrInvalidInput, strings.TrimSpace(s))
	}
	return t, nil
}

// ParseDeviceID parses a numeric device identifier.
func ParseDeviceID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a device id", schedule.ErrInvalidInput, strings.TrimSpace(s))
	}
	return id, nil
}
