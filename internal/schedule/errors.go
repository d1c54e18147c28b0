package schedule

import "errors"

var (
	// ErrInvalidRange rejects hour ranges outside [0,24] or with start >= end.
	ErrInvalidRange = errors.New("invalid hour range")

	// ErrInvalidInput rejects user selections that are not integers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSelectionOutOfRange rejects slot selections outside [1, len(slots)].
	ErrSelectionOutOfRange = errors.New("selection out of range")

	// ErrStaleIndex means an ephemeral cancellation id does not exist in the
	// index built by the current listing.
	ErrStaleIndex = errors.New("no reservation found with that id")
)
