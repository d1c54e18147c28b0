package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// ChooseSlot resolves a 1-based user selection against the availability view
// and picks one free device for it. The smallest free device id wins the
// tie-break, so identical views always yield the same choice.
func ChooseSlot(avail Availability, input string) (TimeSlot, int64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return TimeSlot{}, 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, input)
	}
	if n < 1 || n > len(avail) {
		return TimeSlot{}, 0, fmt.Errorf("%w: %d not in [1, %d]", ErrSelectionOutOfRange, n, len(avail))
	}
	entry := avail[n-1]
	return entry.Slot, entry.Devices[0], nil
}
