package oracle

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"auroracast/internal/aurora"
	"auroracast/internal/logging"
)

// Tracker serializes forecast refreshes for a single consumer surface.
// Concurrent refreshes for the same spot collapse into one provider call,
// and a slow fetch that finishes after a newer one started can never
// overwrite the newer result.
type Tracker struct {
	cap     Capability
	flights singleflight.Group

	mu      sync.Mutex
	seq     uint64
	applied uint64
	latest  *aurora.ForecastResult
}

func NewTracker(capability Capability) *Tracker {
	return &Tracker{cap: capability}
}

// Refresh fetches a forecast and installs it as the latest unless a newer
// refresh has already landed. The caller always receives the result of its
// own fetch, even when it lost the race to be the latest.
func (t *Tracker) Refresh(ctx context.Context, loc aurora.Coordinates) (*aurora.ForecastResult, error) {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	key := fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon)
	v, err, _ := t.flights.Do(key, func() (any, error) {
		return t.cap.FetchForecast(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*aurora.ForecastResult)

	t.mu.Lock()
	defer t.mu.Unlock()
	if seq >= t.applied {
		t.applied = seq
		t.latest = res
	} else {
		logging.ForecastDebug("refresh %d finished after %d, keeping the newer result", seq, t.applied)
	}
	return res, nil
}

// Latest returns the most recently installed result, or nil before the
// first successful refresh.
func (t *Tracker) Latest() *aurora.ForecastResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}
