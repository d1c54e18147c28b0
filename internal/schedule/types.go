package schedule

import "time"

// Device is one hardware unit in the shared pool. The id is assigned by the
// authority and totally ordered; it is the only stable handle a client has.
type Device struct {
	ID   int64
	Name string
}

// TimeSlot is a half-open interval [Start, End) of wall-clock instants.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// Reservation is one exclusive hold on a device as reported by the authority.
// InternalKey is the authority's own record key; it is only useful for
// cancellation and is never shown to the user.
type Reservation struct {
	Owner       string
	DeviceID    int64
	Start       time.Time
	End         time.Time
	InternalKey string
}
