package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMeter_RateFromObservations(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewMeterWithClock(clock.Now)

	m.Reset(10_000, 0)
	clock.Advance(time.Second)
	m.Observe(1000)

	rate := m.Current()
	req.InDelta(1000.0, rate.BytesPerSec, 0.1)
	req.Equal(9*time.Second, rate.ETA)
}

func TestMeter_SmoothsRateChanges(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewMeterWithClock(clock.Now)

	m.Reset(100_000, 0)
	clock.Advance(time.Second)
	m.Observe(1000) // 1000 B/s
	clock.Advance(time.Second)
	m.Observe(5000) // instant 4000 B/s

	rate := m.Current()
	req.Greater(rate.BytesPerSec, 1000.0)
	req.Less(rate.BytesPerSec, 4000.0)
}

func TestMeter_ResumeOffsetExcludedFromRate(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewMeterWithClock(clock.Now)

	m.Reset(10_000, 5000)
	clock.Advance(time.Second)
	m.Observe(6000)

	// Only the 1000 fresh bytes count, not the 5000 already present.
	req.InDelta(1000.0, m.Current().BytesPerSec, 0.1)
}

func TestMeter_NoRateWithoutProgress(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewMeterWithClock(clock.Now)

	m.Reset(10_000, 0)
	rate := m.Current()
	req.Zero(rate.BytesPerSec)
	req.Zero(rate.ETA)

	// Regressing or repeated observations are ignored.
	clock.Advance(time.Second)
	m.Observe(500)
	m.Observe(400)
	req.InDelta(500.0, m.Current().BytesPerSec, 0.1)
}
