// Package project holds the immutable timeline model: Project, Track, Clip variants
// and Resource metadata, plus lookup and validation helpers shared by the editing
// operations, the compositor and the persistence layer.
//
// Values are never mutated in place once handed out. Operations build new slices
// and return a new Project; anyone holding an older revision keeps a consistent
// snapshot.
package project

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind is the media kind shared by tracks, clips and resources.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindText  Kind = "text"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindText:
		return true
	}
	return false
}

// Default render settings.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultFPS        = 30
	DefaultBackground = "#000000"
)

// Project is the aggregate root of the timeline.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Resources map[string]Resource
	Tracks    []Track // kept sorted by Order, Order is dense 0..n-1
	Settings  RenderSettings
}

// RenderSettings describes the output canvas.
type RenderSettings struct {
	Width           int
	Height          int
	FPS             int
	BackgroundColor string
}

// Resource describes an externally stored binary asset. The payload never lives here.
type Resource struct {
	ID         string
	Name       string
	Kind       Kind
	MimeType   string
	Size       int64
	DurationMs int64 // 0 when unknown
	Width      int   // 0 when unknown or not visual
	Height     int
}

// Track is an ordered lane of same-kind clips.
type Track struct {
	ID      string
	Kind    Kind
	Name    string
	Order   int
	Opacity float64
	Muted   bool
	Hidden  bool
	Clips   []Clip
}

// New returns an empty project with default render settings.
func New(name string) Project {
	now := time.Now().UTC()
	return Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Resources: map[string]Resource{},
		Settings:  DefaultSettings(),
	}
}

// Default returns the project used when nothing could be loaded.
func Default() Project {
	return New("Untitled project")
}

// DefaultSettings returns 1280x720 @ 30fps on black.
func DefaultSettings() RenderSettings {
	return RenderSettings{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		FPS:             DefaultFPS,
		BackgroundColor: DefaultBackground,
	}
}

// DefaultTrackName derives a display name from the kind and the track position.
func DefaultTrackName(kind Kind, n int) string {
	switch kind {
	case KindVideo:
		return "Video " + strconv.Itoa(n)
	case KindAudio:
		return "Audio " + strconv.Itoa(n)
	case KindText:
		return "Text " + strconv.Itoa(n)
	}
	return "Track " + strconv.Itoa(n)
}

// Accepts reports whether a clip of kind c may be placed on this track.
// No cross-kind placement is allowed.
func (t Track) Accepts(c Kind) bool {
	return t.Kind == c
}

// EndMs returns the end of the last clip on the track.
func (t Track) EndMs() int64 {
	var end int64
	for _, c := range t.Clips {
		if e := c.Common().Range().End; e > end {
			end = e
		}
	}
	return end
}

// DurationMs returns the end of the last clip across all tracks.
func (p Project) DurationMs() int64 {
	var end int64
	for _, t := range p.Tracks {
		if e := t.EndMs(); e > end {
			end = e
		}
	}
	return end
}
