package engine

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/nle/internal/compositor"
)

type recorder struct {
	mu        sync.Mutex
	rendered  []int64
	presented []int64
}

func (r *recorder) present(f *Frame) {
	r.mu.Lock()
	r.presented = append(r.presented, f.PlayheadMs)
	r.mu.Unlock()
	f.Release()
}

func (r *recorder) snapshot() ([]int64, []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.rendered...), append([]int64(nil), r.presented...)
}

func waitIdle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCoordinatorCoalescesBurst(t *testing.T) {
	rec := &recorder{}
	started := make(chan int64, 4)
	gate := make(chan struct{})

	render := func(ctx context.Context, ms int64, canvas *compositor.Canvas) error {
		rec.mu.Lock()
		rec.rendered = append(rec.rendered, ms)
		first := len(rec.rendered) == 1
		rec.mu.Unlock()
		started <- ms
		if first {
			<-gate
		}
		canvas.Resize(2, 2)
		canvas.Fill(color.RGBA{uint8(ms), 0, 0, 255})
		return nil
	}

	c := NewCoordinator(nil, render, rec.present)
	defer c.Close()

	c.RequestRender(10)
	<-started
	c.RequestRender(20)
	c.RequestRender(30)
	close(gate)
	waitIdle(t, c)

	rendered, presented := rec.snapshot()
	if !equal(rendered, []int64{10, 30}) {
		t.Errorf("rendered = %v, want [10 30]", rendered)
	}
	if !equal(presented, []int64{30}) {
		t.Errorf("presented = %v, want [30]", presented)
	}

	s := c.Stats()
	if s.Requested != 3 || s.Rendered != 2 || s.Presented != 1 || s.Stale != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestCoordinatorNeverPresentsOlderAfterNewer(t *testing.T) {
	rec := &recorder{}
	render := func(ctx context.Context, ms int64, canvas *compositor.Canvas) error {
		time.Sleep(200 * time.Microsecond)
		return nil
	}
	c := NewCoordinator(nil, render, rec.present)
	defer c.Close()

	for i := int64(1); i <= 200; i++ {
		c.RequestRender(i)
		if i%17 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	waitIdle(t, c)

	_, presented := rec.snapshot()
	if len(presented) == 0 || presented[len(presented)-1] != 200 {
		t.Fatalf("last presented = %v, want 200", presented)
	}
	for i := 1; i < len(presented); i++ {
		if presented[i] <= presented[i-1] {
			t.Fatalf("frame %d presented after %d", presented[i], presented[i-1])
		}
	}
}

func TestCoordinatorPresentsDegradedFrames(t *testing.T) {
	rec := &recorder{}
	errSeek := errors.New("seek failed")
	render := func(ctx context.Context, ms int64, canvas *compositor.Canvas) error {
		return errSeek
	}
	var got *Frame
	c := NewCoordinator(nil, render, func(f *Frame) {
		got = f
		rec.present(f)
	})
	defer c.Close()

	c.RequestRender(5)
	waitIdle(t, c)

	if got == nil || !errors.Is(got.Err, errSeek) {
		t.Fatalf("degraded frame not presented: %+v", got)
	}
	if s := c.Stats(); s.Failed != 1 || s.Presented != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestCoordinatorFrameIsACopy(t *testing.T) {
	var frames []*Frame
	var mu sync.Mutex
	render := func(ctx context.Context, ms int64, canvas *compositor.Canvas) error {
		canvas.Resize(1, 1)
		canvas.Fill(color.RGBA{uint8(ms), 0, 0, 255})
		return nil
	}
	c := NewCoordinator(nil, render, func(f *Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})
	defer c.Close()

	c.RequestRender(1)
	waitIdle(t, c)
	c.RequestRender(2)
	waitIdle(t, c)

	if len(frames) != 2 {
		t.Fatalf("presented %d frames, want 2", len(frames))
	}
	if r := frames[0].Image.RGBAAt(0, 0).R; r != 1 {
		t.Errorf("first frame was overwritten by the next render: R=%d", r)
	}
	if frames[1].Seq <= frames[0].Seq {
		t.Errorf("seq not increasing: %d then %d", frames[0].Seq, frames[1].Seq)
	}
	for _, f := range frames {
		f.Release()
		f.Release()
	}
}

func TestCoordinatorClose(t *testing.T) {
	rec := &recorder{}
	release := make(chan struct{})
	render := func(ctx context.Context, ms int64, canvas *compositor.Canvas) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-release:
			return nil
		}
	}
	c := NewCoordinator(nil, render, rec.present)
	c.RequestRender(1)
	c.RequestRender(2)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatal("Close did not return")
	}

	c.RequestRender(3)
	waitIdle(t, c)
	if _, presented := rec.snapshot(); len(presented) != 0 {
		t.Errorf("frames presented after close: %v", presented)
	}
}
