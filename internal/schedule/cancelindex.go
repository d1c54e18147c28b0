package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CancelIndex maps the ephemeral ids shown during one cancellation listing
// (0..n-1) to the authority's internal reservation keys. The authority
// exposes no stable client-facing id, so the index is only valid for the
// listing that produced it and must be rebuilt on every listing.
type CancelIndex struct {
	// Entries holds the acting account's reservations ordered by device id
	// ascending, then start time ascending; the ephemeral id of an entry is
	// its position.
	Entries []Reservation
}

// BuildCancelIndex indexes the reservations in the snapshot owned by owner.
// Ties beyond (device id, start) keep their snapshot order, so identical
// snapshots always produce identical indexes.
func BuildCancelIndex(snapshot []Reservation, owner string) CancelIndex {
	var mine []Reservation
	for _, r := range snapshot {
		if r.Owner == owner {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		if mine[i].DeviceID != mine[j].DeviceID {
			return mine[i].DeviceID < mine[j].DeviceID
		}
		return mine[i].Start.Before(mine[j].Start)
	})
	return CancelIndex{Entries: mine}
}

// Resolve maps an ephemeral id back to the reservation it was assigned to in
// this listing.
func (ix CancelIndex) Resolve(input string) (Reservation, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return Reservation{}, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, input)
	}
	if n < 0 || n >= len(ix.Entries) {
		return Reservation{}, fmt.Errorf("%w: id %d", ErrStaleIndex, n)
	}
	return ix.Entries[n], nil
}
