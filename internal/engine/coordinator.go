// Package engine drives previews: a render coordinator that keeps at most one
// composite in flight and always ends on the latest playhead, a preview
// session holding the current project revision, and a playback clock.
package engine

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/nle/internal/compositor"
	"github.com/ivlev/nle/internal/system"
)

// RenderFunc composes the frame for playheadMs onto canvas.
type RenderFunc func(ctx context.Context, playheadMs int64, canvas *compositor.Canvas) error

// PresentFunc receives every frame that is still current when its render
// completes. The receiver owns the frame and must Release it.
type PresentFunc func(f *Frame)

// Frame is a finished composite, copied out of the coordinator's canvas.
type Frame struct {
	PlayheadMs int64
	Seq        uint64
	Image      *image.RGBA
	RenderedAt time.Time
	Err        error // non-nil when some layers were degraded
}

// Release hands the pixel buffer back to the image pool.
func (f *Frame) Release() {
	if f == nil || f.Image == nil {
		return
	}
	system.PutImage(f.Image)
	f.Image = nil
}

// Stats counts coordinator activity since creation.
type Stats struct {
	Requested uint64
	Rendered  uint64
	Presented uint64
	Stale     uint64
	Failed    uint64
}

// Coordinator serializes renders. RequestRender never blocks: it parks the value
// in a single pending slot and starts the render loop if it is idle. Bursts
// collapse to the newest value, and a render whose request was superseded while
// it ran is discarded instead of presented.
type Coordinator struct {
	log     *logrus.Entry
	render  RenderFunc
	present PresentFunc
	canvas  *compositor.Canvas

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	pending    int64
	hasPending bool
	latest     uint64
	running    bool
	closed     bool
	idle       chan struct{}
	stats      Stats
}

// NewCoordinator returns an idle coordinator. A nil log uses the logrus standard logger.
func NewCoordinator(log *logrus.Entry, render RenderFunc, present PresentFunc) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		log:     log.WithField("component", "coordinator"),
		render:  render,
		present: present,
		canvas:  compositor.NewCanvas(0, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RequestRender asks for a frame at playheadMs. It returns immediately.
func (c *Coordinator) RequestRender(playheadMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.log.WithField("playhead_ms", playheadMs).Debug("render requested after close, ignored")
		return
	}
	c.pending = playheadMs
	c.hasPending = true
	c.latest++
	c.stats.Requested++

	if !c.running {
		c.running = true
		c.idle = make(chan struct{})
		go c.loop()
	}
}

// loop renders until the pending slot is empty after a completed composite.
func (c *Coordinator) loop() {
	for {
		c.mu.Lock()
		if !c.hasPending || c.closed {
			c.running = false
			close(c.idle)
			c.mu.Unlock()
			return
		}
		playheadMs, seq := c.pending, c.latest
		c.hasPending = false
		c.mu.Unlock()

		log := c.log.WithFields(logrus.Fields{"playhead_ms": playheadMs, "seq": seq})
		err := c.render(c.ctx, playheadMs, c.canvas)

		c.mu.Lock()
		c.stats.Rendered++
		if err != nil {
			c.stats.Failed++
		}
		stale := seq != c.latest
		if stale {
			c.stats.Stale++
		}
		aborted := c.closed || errors.Is(err, context.Canceled)
		if !stale && !aborted {
			c.stats.Presented++
		}
		c.mu.Unlock()

		switch {
		case aborted:
			log.Debug("render aborted")
		case stale:
			log.Debug("stale render discarded")
		default:
			if err != nil {
				log.WithError(err).Warn("frame rendered with degraded layers")
			}
			if c.present != nil {
				c.present(&Frame{
					PlayheadMs: playheadMs,
					Seq:        seq,
					Image:      system.CloneImage(c.canvas.Image()),
					RenderedAt: time.Now(),
					Err:        err,
				})
			}
		}
	}
}

// WaitIdle blocks until no render is running or pending, or ctx is done.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close drops any pending request, cancels the render context and waits for
// the loop to exit. Later requests are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.hasPending = false
	running, idle := c.running, c.idle
	c.mu.Unlock()

	c.cancel()
	if running {
		<-idle
	}
	c.canvas.Release()
}
