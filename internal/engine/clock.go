package engine

import (
	"context"
	"fmt"
	"time"
)

// Clock advances a playhead in real time at a fixed frame rate.
type Clock struct {
	FPS int
}

// Run calls tick with the elapsed playhead once immediately and then on every
// frame interval, starting at startMs. It returns nil once the playhead reaches
// endMs (endMs <= startMs plays until ctx is done) and ctx.Err() when canceled.
// Stopping the clock does not cancel a render already in flight.
func (c Clock) Run(ctx context.Context, startMs, endMs int64, tick func(playheadMs int64)) error {
	if c.FPS <= 0 {
		return fmt.Errorf("clock: fps must be positive, got %d", c.FPS)
	}
	ticker := time.NewTicker(time.Second / time.Duration(c.FPS))
	defer ticker.Stop()

	begin := time.Now()
	tick(startMs)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			ms := startMs + now.Sub(begin).Milliseconds()
			if endMs > startMs && ms >= endMs {
				return nil
			}
			tick(ms)
		}
	}
}

// FrameTimes lists the playhead of every frame in [startMs, endMs) at fps.
func FrameTimes(startMs, endMs int64, fps int) []int64 {
	if fps <= 0 || endMs <= startMs {
		return nil
	}
	var out []int64
	for i := int64(0); ; i++ {
		ms := startMs + i*1000/int64(fps)
		if ms >= endMs {
			return out
		}
		out = append(out, ms)
	}
}
