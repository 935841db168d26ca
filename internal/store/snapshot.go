package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/ivlev/nle/internal/project"
)

// SnapshotVersion is written into every saved project.
const SnapshotVersion = "1"

// Snapshot is the on-disk form of a project.
type Snapshot struct {
	Version   string     `yaml:"version" validate:"required,eq=1"`
	ID        string     `yaml:"id" validate:"required"`
	Name      string     `yaml:"name"`
	CreatedAt time.Time  `yaml:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at"`
	Settings  Settings   `yaml:"settings"`
	Resources []Resource `yaml:"resources" validate:"dive"`
	Tracks    []Track    `yaml:"tracks" validate:"dive"`
}

type Settings struct {
	Width           int    `yaml:"width" validate:"gt=0,lte=8192"`
	Height          int    `yaml:"height" validate:"gt=0,lte=8192"`
	FPS             int    `yaml:"fps" validate:"gt=0,lte=240"`
	BackgroundColor string `yaml:"background_color" validate:"required"`
}

type Resource struct {
	ID         string `yaml:"id" validate:"required"`
	Name       string `yaml:"name" validate:"required"`
	Kind       string `yaml:"kind" validate:"oneof=video audio"`
	MimeType   string `yaml:"mime_type,omitempty"`
	Size       int64  `yaml:"size,omitempty" validate:"gte=0"`
	DurationMs int64  `yaml:"duration_ms,omitempty" validate:"gte=0"`
	Width      int    `yaml:"width,omitempty" validate:"gte=0"`
	Height     int    `yaml:"height,omitempty" validate:"gte=0"`
}

type Track struct {
	ID      string  `yaml:"id" validate:"required"`
	Kind    string  `yaml:"kind" validate:"oneof=video audio text"`
	Name    string  `yaml:"name"`
	Order   int     `yaml:"order" validate:"gte=0"`
	Opacity float64 `yaml:"opacity" validate:"gte=0,lte=1"`
	Muted   bool    `yaml:"muted,omitempty"`
	Hidden  bool    `yaml:"hidden,omitempty"`
	Clips   []Clip  `yaml:"clips" validate:"dive"`
}

// Clip flattens the three clip variants; Kind selects which fields apply.
type Clip struct {
	ID             string     `yaml:"id" validate:"required"`
	Kind           string     `yaml:"kind" validate:"oneof=video audio text"`
	StartMs        int64      `yaml:"start_ms" validate:"gte=0"`
	DurationMs     int64      `yaml:"duration_ms" validate:"gte=1"`
	ResourceID     string     `yaml:"resource_id,omitempty" validate:"required_unless=Kind text"`
	TrimStartMs    int64      `yaml:"trim_start_ms,omitempty" validate:"gte=0"`
	TrimDurationMs int64      `yaml:"trim_duration_ms,omitempty" validate:"gte=0"`
	Volume         *float64   `yaml:"volume,omitempty" validate:"omitempty,gte=0,lte=1"`
	Text           string     `yaml:"text,omitempty"`
	Style          *TextStyle `yaml:"style,omitempty" validate:"required_if=Kind text"`
	Transform      *Transform `yaml:"transform,omitempty" validate:"required_if=Kind text"`
}

type TextStyle struct {
	FontFamily string  `yaml:"font_family"`
	FontSize   float64 `yaml:"font_size" validate:"gt=0"`
	FontWeight string  `yaml:"font_weight"`
	Color      string  `yaml:"color" validate:"required"`
	Align      string  `yaml:"align" validate:"oneof=left center right"`
}

type Transform struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Scale    float64 `yaml:"scale"`
	Rotation float64 `yaml:"rotation"`
}

// FromProject converts p to its on-disk form. Resources are sorted by id.
func FromProject(p project.Project) Snapshot {
	s := Snapshot{
		Version:   SnapshotVersion,
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Settings: Settings{
			Width:           p.Settings.Width,
			Height:          p.Settings.Height,
			FPS:             p.Settings.FPS,
			BackgroundColor: p.Settings.BackgroundColor,
		},
	}

	for _, r := range p.Resources {
		s.Resources = append(s.Resources, Resource{
			ID:         r.ID,
			Name:       r.Name,
			Kind:       string(r.Kind),
			MimeType:   r.MimeType,
			Size:       r.Size,
			DurationMs: r.DurationMs,
			Width:      r.Width,
			Height:     r.Height,
		})
	}
	sort.Slice(s.Resources, func(i, j int) bool { return s.Resources[i].ID < s.Resources[j].ID })

	for _, t := range p.Tracks {
		tr := Track{
			ID:      t.ID,
			Kind:    string(t.Kind),
			Name:    t.Name,
			Order:   t.Order,
			Opacity: t.Opacity,
			Muted:   t.Muted,
			Hidden:  t.Hidden,
			Clips:   make([]Clip, 0, len(t.Clips)),
		}
		for _, c := range t.Clips {
			tr.Clips = append(tr.Clips, clipToDTO(c))
		}
		s.Tracks = append(s.Tracks, tr)
	}
	return s
}

func clipToDTO(c project.Clip) Clip {
	b := c.Common()
	out := Clip{ID: b.ID, Kind: string(c.Kind()), StartMs: b.StartMs, DurationMs: b.DurationMs}

	switch v := c.(type) {
	case project.VideoClip:
		out.ResourceID = v.ResourceID
		out.TrimStartMs = v.TrimStartMs
		out.TrimDurationMs = v.TrimDurationMs
	case project.AudioClip:
		out.ResourceID = v.ResourceID
		out.TrimStartMs = v.TrimStartMs
		out.TrimDurationMs = v.TrimDurationMs
		vol := v.Volume
		out.Volume = &vol
	case project.TextClip:
		out.Text = v.Text
		out.Style = &TextStyle{
			FontFamily: v.Style.FontFamily,
			FontSize:   v.Style.FontSize,
			FontWeight: v.Style.FontWeight,
			Color:      v.Style.Color,
			Align:      string(v.Style.Align),
		}
		out.Transform = &Transform{X: v.Transform.X, Y: v.Transform.Y, Scale: v.Transform.Scale, Rotation: v.Transform.Rotation}
	default:
		panic(fmt.Sprintf("store: unknown clip variant %T", c))
	}
	return out
}

// Project converts the snapshot back. It assumes the snapshot passed struct
// validation; invariants across tracks are left to project.Validate.
func (s Snapshot) Project() project.Project {
	p := project.Project{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Resources: make(map[string]project.Resource, len(s.Resources)),
		Settings: project.RenderSettings{
			Width:           s.Settings.Width,
			Height:          s.Settings.Height,
			FPS:             s.Settings.FPS,
			BackgroundColor: s.Settings.BackgroundColor,
		},
	}

	for _, r := range s.Resources {
		p.Resources[r.ID] = project.Resource{
			ID:         r.ID,
			Name:       r.Name,
			Kind:       project.Kind(r.Kind),
			MimeType:   r.MimeType,
			Size:       r.Size,
			DurationMs: r.DurationMs,
			Width:      r.Width,
			Height:     r.Height,
		}
	}

	for _, t := range s.Tracks {
		tr := project.Track{
			ID:      t.ID,
			Kind:    project.Kind(t.Kind),
			Name:    t.Name,
			Order:   t.Order,
			Opacity: t.Opacity,
			Muted:   t.Muted,
			Hidden:  t.Hidden,
			Clips:   make([]project.Clip, 0, len(t.Clips)),
		}
		for _, c := range t.Clips {
			tr.Clips = append(tr.Clips, c.clip(t.ID))
		}
		p.Tracks = append(p.Tracks, tr)
	}
	return p
}

func (c Clip) clip(trackID string) project.Clip {
	base := project.ClipBase{ID: c.ID, TrackID: trackID, StartMs: c.StartMs, DurationMs: c.DurationMs}

	switch project.Kind(c.Kind) {
	case project.KindAudio:
		volume := 1.0
		if c.Volume != nil {
			volume = *c.Volume
		}
		return project.AudioClip{ClipBase: base, ResourceID: c.ResourceID, TrimStartMs: c.TrimStartMs, TrimDurationMs: c.TrimDurationMs, Volume: volume}
	case project.KindText:
		tc := project.TextClip{ClipBase: base, Text: c.Text, Style: project.DefaultTextStyle(), Transform: project.DefaultTransform()}
		if c.Style != nil {
			tc.Style = project.TextStyle{
				FontFamily: c.Style.FontFamily,
				FontSize:   c.Style.FontSize,
				FontWeight: c.Style.FontWeight,
				Color:      c.Style.Color,
				Align:      project.Align(c.Style.Align),
			}
		}
		if c.Transform != nil {
			tc.Transform = project.Transform{X: c.Transform.X, Y: c.Transform.Y, Scale: c.Transform.Scale, Rotation: c.Transform.Rotation}
		}
		return tc
	default:
		return project.VideoClip{ClipBase: base, ResourceID: c.ResourceID, TrimStartMs: c.TrimStartMs, TrimDurationMs: c.TrimDurationMs}
	}
}
