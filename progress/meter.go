// Package progress computes smoothed transfer-rate telemetry for one record.
package progress

import (
	"sync"
	"time"
)

// smoothing weight for the exponential moving average of the rate.
const ewmaWeight = 0.25

// Rate is a point-in-time view of a meter.
type Rate struct {
	BytesPerSec float64
	ETA         time.Duration
}

// Meter derives a smoothed byte rate from absolute progress observations.
// Observations carry the total number of bytes moved so far (including any
// resume offset), which is how transfer progress callbacks report.
type Meter struct {
	mu       sync.Mutex
	total    int64
	observed int64
	lastAt   time.Time
	perSec   float64
	clock    func() time.Time
}

// NewMeter returns an idle meter.
func NewMeter() *Meter {
	return NewMeterWithClock(time.Now)
}

// NewMeterWithClock returns a meter using the given time source. Tests use
// this to make rate computation deterministic.
func NewMeterWithClock(clock func() time.Time) *Meter {
	if clock == nil {
		clock = time.Now
	}
	return &Meter{clock: clock}
}

// Reset arms the meter for a transfer of totalBytes, with startOffset bytes
// already present at the destination. The pre-existing bytes never count
// towards the rate.
func (m *Meter) Reset(totalBytes, startOffset int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = totalBytes
	m.observed = startOffset
	m.lastAt = m.clock()
	m.perSec = 0
}

// Observe records the absolute transferred byte count.
func (m *Meter) Observe(transferred int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	delta := transferred - m.observed
	elapsed := now.Sub(m.lastAt).Seconds()
	if delta <= 0 || elapsed <= 0 {
		return
	}
	instant := float64(delta) / elapsed
	if m.perSec == 0 {
		m.perSec = instant
	} else {
		m.perSec = ewmaWeight*instant + (1-ewmaWeight)*m.perSec
	}
	m.observed = transferred
	m.lastAt = now
}

// Current returns the smoothed rate and the remaining-time estimate.
// ETA is zero while the rate is unknown or the total is unknown.
func (m *Meter) Current() Rate {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := Rate{BytesPerSec: m.perSec}
	if m.perSec > 0 && m.total > m.observed {
		r.ETA = time.Duration(float64(m.total-m.observed) / m.perSec * float64(time.Second))
	}
	return r
}
