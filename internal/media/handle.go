package media

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"time"
)

// ErrNotReady is returned by Seek on a handle that is still opening or failed to open.
var ErrNotReady = errors.New("media handle not ready")

// ErrClosed is returned by Seek once the handle has been closed.
var ErrClosed = errors.New("media handle closed")

// PageFunc maps a source position in seconds to a page index. The result is
// clamped to the source afterwards.
type PageFunc func(seconds float64) int

// FirstPage always shows page 0. Used for stills.
func FirstPage(float64) int { return 0 }

// PagesPerSecond maps time onto frames of a sequence played at fps.
func PagesPerSecond(fps float64) PageFunc {
	return func(seconds float64) int { return int(math.Floor(seconds * fps)) }
}

// PagePerInterval shows each page for d, as in a slideshow.
func PagePerInterval(d time.Duration) PageFunc {
	return func(seconds float64) int { return int(math.Floor(seconds / d.Seconds())) }
}

// PagedHandle presents the page of a Source that corresponds to the last seek.
// The source is only touched under mu, so Close waits for a seek in flight
// and later seeks fail with ErrClosed instead of reaching a closed source.
type PagedHandle struct {
	src    Source
	pageAt PageFunc

	mu     sync.Mutex
	page   int
	frame  image.Image
	closed bool
}

// NewPagedHandle wraps src. The first page is not rendered until the first Seek.
func NewPagedHandle(src Source, pageAt PageFunc) *PagedHandle {
	return &PagedHandle{src: src, pageAt: pageAt, page: -1}
}

func (h *PagedHandle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed && h.src.PageCount() > 0
}

// Seek renders the page for seconds unless it is already current.
func (h *PagedHandle) Seek(ctx context.Context, seconds float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	n := h.src.PageCount()
	if n == 0 {
		return ErrNotReady
	}
	page := min(max(h.pageAt(seconds), 0), n-1)
	if page == h.page && h.frame != nil {
		return nil
	}
	img, err := h.src.RenderPage(page)
	if err != nil {
		return err
	}
	h.page, h.frame = page, img
	return nil
}

func (h *PagedHandle) Frame() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// Page returns the index of the current page, or -1 before the first seek.
func (h *PagedHandle) Page() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.page
}

// Close releases the source. It is idempotent. The last frame stays readable.
func (h *PagedHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.src.Close()
}
