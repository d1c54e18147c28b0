package schedule

// Overlaps reports whether the slot conflicts with any of the given
// reservations. Intervals are half-open: [a,b) and [c,d) overlap iff
// a < d && b > c, so a reservation ending exactly when the slot starts does
// not conflict.
func Overlaps(slot TimeSlot, reservations []Reservation) bool {
	for _, r := range reservations {
		if slot.Start.Before(r.End) && slot.End.After(r.Start) {
			return true
		}
	}
	return false
}
