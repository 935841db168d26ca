package edit

import (
	"github.com/ivlev/nle/internal/project"
)

// TextClipPatch carries the fields to change on a text clip; nil means keep.
type TextClipPatch struct {
	Text       *string
	StartMs    *int64
	DurationMs *int64
	Style      *TextStylePatch
	Transform  *TransformPatch
}

// TextStylePatch is merged field by field into project.TextStyle.
type TextStylePatch struct {
	FontFamily *string
	FontSize   *float64
	FontWeight *string
	Color      *string
	Align      *project.Align
}

// TransformPatch is merged field by field into project.Transform.
type TransformPatch struct {
	X        *float64
	Y        *float64
	Scale    *float64
	Rotation *float64
}

// UpdateTextClip fails with track_kind_mismatch when clipID is not a text clip.
// Otherwise the patch is shallow-merged and the result re-validated, including
// the non-overlap gate.
func (e Editor) UpdateTextClip(p project.Project, clipID string, patch TextClipPatch) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	t := p.Tracks[loc.TrackIndex]
	tc, ok := t.Clips[loc.ClipIndex].(project.TextClip)
	if !ok {
		return p, wrongVariant(clipID, t.Clips[loc.ClipIndex].Kind(), project.KindText)
	}

	if patch.Text != nil {
		tc.Text = *patch.Text
	}
	if patch.StartMs != nil {
		tc.StartMs = *patch.StartMs
	}
	if patch.DurationMs != nil {
		tc.DurationMs = *patch.DurationMs
	}
	if s := patch.Style; s != nil {
		if s.FontFamily != nil {
			tc.Style.FontFamily = *s.FontFamily
		}
		if s.FontSize != nil {
			tc.Style.FontSize = *s.FontSize
		}
		if s.FontWeight != nil {
			tc.Style.FontWeight = *s.FontWeight
		}
		if s.Color != nil {
			tc.Style.Color = *s.Color
		}
		if s.Align != nil {
			tc.Style.Align = *s.Align
		}
	}
	if tp := patch.Transform; tp != nil {
		if tp.X != nil {
			tc.Transform.X = *tp.X
		}
		if tp.Y != nil {
			tc.Transform.Y = *tp.Y
		}
		if tp.Scale != nil {
			tc.Transform.Scale = *tp.Scale
		}
		if tp.Rotation != nil {
			tc.Transform.Rotation = *tp.Rotation
		}
	}

	if err := project.CheckTiming(tc.ClipBase); err != nil {
		return p, err
	}
	if err := checkText(tc.Style, tc.Transform); err != nil {
		return p, err
	}

	t.Clips = replaceClip(t.Clips, loc.ClipIndex, tc)
	return e.settle(p, loc.TrackIndex, t, clipID)
}
