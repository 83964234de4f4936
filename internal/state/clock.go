package state

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"LocalSketch/internal/surface"
)

// Clock is a lamport counter.
type Clock struct {
	counter atomic.Uint64
}

// Tick advances the clock and returns the new value.
func (c *Clock) Tick() uint64 {
	return c.counter.Add(1)
}

// Witness moves the clock forward to at least seq.
func (c *Clock) Witness(seq uint64) {
	for {
		cur := c.counter.Load()
		if seq <= cur || c.counter.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Now returns the current value without advancing.
func (c *Clock) Now() uint64 {
	return c.counter.Load()
}

// Recorder stamps local gestures with this site's identity.
type Recorder struct {
	site  string
	clock *Clock
	now   func() time.Time
}

func NewRecorder(clock *Clock) *Recorder {
	return &Recorder{
		site:  uuid.NewString(),
		clock: clock,
		now:   time.Now,
	}
}

func (r *Recorder) Site() string { return r.site }

// Record turns the points of a finished gesture into a shareable Gesture.
func (r *Recorder) Record(points []surface.Point, st surface.Style) Gesture {
	return Gesture{
		ID:     uuid.NewString(),
		Site:   r.site,
		Seq:    r.clock.Tick(),
		Points: points,
		Color:  surface.HexColor(st.Color),
		Width:  st.Width,
		Time:   r.now(),
	}
}
