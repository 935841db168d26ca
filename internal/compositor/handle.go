package compositor

import (
	"context"
	"image"
)

// Handle is an externally managed playback object for one resource.
// The compositor only reads through it and never opens or closes handles.
type Handle interface {
	// Ready reports whether the handle can seek and present a frame.
	Ready() bool
	// Seek positions the handle at seconds into its source.
	Seek(ctx context.Context, seconds float64) error
	// Frame returns the content at the last seek position. The image may be
	// reused by the next Seek.
	Frame() image.Image
}

// Provider looks up the handle for a resource id.
type Provider interface {
	Handle(resourceID string) (Handle, bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(resourceID string) (Handle, bool)

func (f ProviderFunc) Handle(resourceID string) (Handle, bool) { return f(resourceID) }

// MapProvider serves handles from a fixed map.
type MapProvider map[string]Handle

func (m MapProvider) Handle(resourceID string) (Handle, bool) {
	h, ok := m[resourceID]
	return h, ok
}
