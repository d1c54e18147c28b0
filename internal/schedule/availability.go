package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers bounds the per-device evaluation pool when the caller
// does not set a limit. The cap is independent of device count.
const DefaultMaxWorkers = 8

// SlotAvailability lists the devices free during one slot, ascending by id.
type SlotAvailability struct {
	Slot    TimeSlot
	Devices []int64
}

// Availability is the aggregated free-slot view for one calendar day, sorted
// ascending by slot start. It only contains slots with at least one free
// device and is built fresh per request, never cached.
type Availability []SlotAvailability

// Aggregator computes the free-slot view for one calendar day from a device
// catalog and a reservation snapshot. The view is advisory: the snapshot may
// be stale by submission time, and the authority performs the final
// admission check.
type Aggregator struct {
	Clock      clockwork.Clock
	MaxWorkers int
}

// Aggregate evaluates every device against the canonical hourly slots for
// date, skipping slots whose end is not strictly after now. Per-device
// evaluation fans out across a bounded worker pool; the merged result is
// deterministic regardless of completion order.
func (a Aggregator) Aggregate(ctx context.Context, devices []Device, snapshot []Reservation, date time.Time, startHour, endHour int) (Availability, error) {
	slots, err := HourlySlots(date, startHour, endHour)
	if err != nil {
		return nil, err
	}

	clock := a.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	now := clock.Now()

	byDevice := make(map[int64][]Reservation)
	for _, r := range snapshot {
		if sameDay(r.Start, date) {
			byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
		}
	}

	workers := a.MaxWorkers
	if workers < 1 {
		workers = DefaultMaxWorkers
	}

	free := make([][]int64, len(slots))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, dev := range devices {
		dev := dev
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			held := byDevice[dev.ID]
			var open []int
			for i, slot := range slots {
				if !slot.End.After(now) {
					continue
				}
				if !Overlaps(slot, held) {
					open = append(open, i)
				}
			}
			mu.Lock()
			for _, i := range open {
				free[i] = append(free[i], dev.ID)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var avail Availability
	for i, slot := range slots {
		ids := free[i]
		if len(ids) == 0 {
			continue
		}
		sort.Slice(ids, func(x, y int) bool { return ids[x] < ids[y] })
		avail = append(avail, SlotAvailability{Slot: slot, Devices: ids})
	}
	return avail, nil
}

func sameDay(t, date time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
