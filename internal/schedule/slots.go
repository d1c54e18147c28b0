package schedule

import (
	"fmt"
	"time"
)

// HourlySlots returns the one-hour slots covering [startHour, endHour) on the
// given calendar date, in ascending order with no gaps or overlaps. Hours are
// bounded by [0,24]; endHour 24 means the last slot ends at midnight of the
// next day.
func HourlySlots(date time.Time, startHour, endHour int) ([]TimeSlot, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, startHour, endHour)
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	slots := make([]TimeSlot, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		start := midnight.Add(time.Duration(h) * time.Hour)
		slots = append(slots, TimeSlot{Start: start, End: start.Add(time.Hour)})
	}
	return slots, nil
}
