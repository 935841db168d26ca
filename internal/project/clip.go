package project

import "github.com/ivlev/nle/internal/span"

// MinDurationMs is the shortest clip the timeline accepts.
const MinDurationMs = 1

// Clip is the sum type over VideoClip, AudioClip and TextClip.
// The unexported method keeps the set closed to this package; every consumer
// switches over the three concrete types.
type Clip interface {
	Kind() Kind
	Common() ClipBase
	withBase(b ClipBase) Clip
}

// ClipBase carries the fields shared by every clip variant.
type ClipBase struct {
	ID         string
	TrackID    string
	StartMs    int64
	DurationMs int64
}

// Range returns the clip's half-open timeline interval.
func (b ClipBase) Range() span.Range {
	return span.ToRange(b.StartMs, b.DurationMs)
}

// VideoClip places a window of a video resource on the timeline.
type VideoClip struct {
	ClipBase
	ResourceID     string
	TrimStartMs    int64
	TrimDurationMs int64 // 0 = until the end of the source
}

// AudioClip places a window of an audio resource on the timeline.
type AudioClip struct {
	ClipBase
	ResourceID     string
	TrimStartMs    int64
	TrimDurationMs int64
	Volume         float64
}

// TextClip renders literal text in canvas pixel space.
type TextClip struct {
	ClipBase
	Text      string
	Style     TextStyle
	Transform Transform
}

// TextStyle describes how a TextClip is drawn.
type TextStyle struct {
	FontFamily string
	FontSize   float64
	FontWeight string // "normal", "bold" or a numeric CSS weight
	Color      string
	Align      Align
}

// Align is the horizontal anchor of a text block relative to Transform.X.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Transform positions a TextClip. Rotation is in degrees.
type Transform struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64
}

// DefaultTextStyle is applied to text clips created without an explicit style.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontFamily: "Go",
		FontSize:   48,
		FontWeight: "normal",
		Color:      "#ffffff",
		Align:      AlignLeft,
	}
}

// DefaultTransform is the identity transform at the canvas origin.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

func (c VideoClip) Kind() Kind               { return KindVideo }
func (c VideoClip) Common() ClipBase         { return c.ClipBase }
func (c VideoClip) withBase(b ClipBase) Clip { c.ClipBase = b; return c }
func (c AudioClip) Kind() Kind               { return KindAudio }
func (c AudioClip) Common() ClipBase         { return c.ClipBase }
func (c AudioClip) withBase(b ClipBase) Clip { c.ClipBase = b; return c }
func (c TextClip) Kind() Kind                { return KindText }
func (c TextClip) Common() ClipBase          { return c.ClipBase }
func (c TextClip) withBase(b ClipBase) Clip  { c.ClipBase = b; return c }

// WithPlacement returns a copy of c moved to trackID at [startMs, startMs+durationMs).
func WithPlacement(c Clip, trackID string, startMs, durationMs int64) Clip {
	b := c.Common()
	b.TrackID = trackID
	b.StartMs = startMs
	b.DurationMs = durationMs
	return c.withBase(b)
}

// ResourceOf returns the resource id referenced by a media clip.
func ResourceOf(c Clip) (string, bool) {
	switch v := c.(type) {
	case VideoClip:
		return v.ResourceID, true
	case AudioClip:
		return v.ResourceID, true
	case TextClip:
		return "", false
	default:
		panic("project: unknown clip variant")
	}
}

// SourceTimeMs maps a timeline instant inside a media clip to the offset in its source.
func SourceTimeMs(trimStartMs int64, b ClipBase, playheadMs int64) int64 {
	return trimStartMs + (playheadMs - b.StartMs)
}
