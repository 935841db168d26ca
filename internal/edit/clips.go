package edit

import (
	"math"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/span"
)

// VideoClipInput describes a video clip to place on a track.
type VideoClipInput struct {
	TrackID        string
	ResourceID     string
	StartMs        int64
	DurationMs     int64
	TrimStartMs    int64
	TrimDurationMs int64
}

// AudioClipInput describes an audio clip to place on a track.
type AudioClipInput struct {
	TrackID        string
	ResourceID     string
	StartMs        int64
	DurationMs     int64
	TrimStartMs    int64
	TrimDurationMs int64
	Volume         *float64 // nil = 1
}

// TextClipInput describes a text clip to place on a track.
type TextClipInput struct {
	TrackID    string
	Text       string
	StartMs    int64
	DurationMs int64
	Style      *project.TextStyle // nil = project.DefaultTextStyle()
	Transform  *project.Transform // nil = project.DefaultTransform()
}

// Anchor selects which edge of a clip stays fixed during a resize.
type Anchor string

const (
	AnchorStart Anchor = "start" // the end stays fixed, the start edge moves
	AnchorEnd   Anchor = "end"   // the start stays fixed, the end edge moves
)

// AddVideoClip places a new video clip. See Editor.AddVideoClip.
func AddVideoClip(p project.Project, in VideoClipInput) (project.Project, error) {
	return Strict.AddVideoClip(p, in)
}

// AddAudioClip places a new audio clip. See Editor.AddAudioClip.
func AddAudioClip(p project.Project, in AudioClipInput) (project.Project, error) {
	return Strict.AddAudioClip(p, in)
}

// AddTextClip places a new text clip. See Editor.AddTextClip.
func AddTextClip(p project.Project, in TextClipInput) (project.Project, error) {
	return Strict.AddTextClip(p, in)
}

// MoveClipWithinTrack moves a clip in time on its own track.
func MoveClipWithinTrack(p project.Project, clipID string, nextStartMs int64) (project.Project, error) {
	return Strict.MoveClipWithinTrack(p, clipID, nextStartMs)
}

// MoveClipAcrossTracks moves a clip to another track of the same kind.
func MoveClipAcrossTracks(p project.Project, clipID, nextTrackID string, nextStartMs int64) (project.Project, error) {
	return Strict.MoveClipAcrossTracks(p, clipID, nextTrackID, nextStartMs)
}

// ResizeClip changes a clip's duration around the given anchor.
func ResizeClip(p project.Project, clipID string, nextDurationMs int64, anchor Anchor) (project.Project, error) {
	return Strict.ResizeClip(p, clipID, nextDurationMs, anchor)
}

// UpdateTextClip merges patch into a text clip.
func UpdateTextClip(p project.Project, clipID string, patch TextClipPatch) (project.Project, error) {
	return Strict.UpdateTextClip(p, clipID, patch)
}

// AddVideoClip validates, in order: the track exists, it is a video track, the
// resource exists and is a video, then the time bounds. The new clip gets a
// fresh id and is appended to the track.
func (e Editor) AddVideoClip(p project.Project, in VideoClipInput) (project.Project, error) {
	ti, t, err := targetTrack(p, in.TrackID, project.KindVideo)
	if err != nil {
		return p, err
	}
	if err := p.AssertResource(in.ResourceID, project.KindVideo); err != nil {
		return p, err
	}
	if err := checkMediaTiming(in.StartMs, in.DurationMs, in.TrimStartMs, in.TrimDurationMs); err != nil {
		return p, err
	}

	c := project.VideoClip{
		ClipBase:       project.ClipBase{ID: newID(), TrackID: t.ID, StartMs: in.StartMs, DurationMs: in.DurationMs},
		ResourceID:     in.ResourceID,
		TrimStartMs:    in.TrimStartMs,
		TrimDurationMs: in.TrimDurationMs,
	}
	t.Clips = appendClip(t.Clips, c)
	return e.settle(p, ti, t, c.ID)
}

// AddAudioClip is AddVideoClip for audio; Volume must be finite and in [0,1].
func (e Editor) AddAudioClip(p project.Project, in AudioClipInput) (project.Project, error) {
	ti, t, err := targetTrack(p, in.TrackID, project.KindAudio)
	if err != nil {
		return p, err
	}
	if err := p.AssertResource(in.ResourceID, project.KindAudio); err != nil {
		return p, err
	}
	if err := checkMediaTiming(in.StartMs, in.DurationMs, in.TrimStartMs, in.TrimDurationMs); err != nil {
		return p, err
	}
	volume := 1.0
	if in.Volume != nil {
		volume = *in.Volume
	}
	if !project.ValidUnit(volume) {
		return p, project.InvalidTime("volume", volume)
	}

	c := project.AudioClip{
		ClipBase:       project.ClipBase{ID: newID(), TrackID: t.ID, StartMs: in.StartMs, DurationMs: in.DurationMs},
		ResourceID:     in.ResourceID,
		TrimStartMs:    in.TrimStartMs,
		TrimDurationMs: in.TrimDurationMs,
		Volume:         volume,
	}
	t.Clips = appendClip(t.Clips, c)
	return e.settle(p, ti, t, c.ID)
}

// AddTextClip places literal text; text clips reference no resource.
func (e Editor) AddTextClip(p project.Project, in TextClipInput) (project.Project, error) {
	ti, t, err := targetTrack(p, in.TrackID, project.KindText)
	if err != nil {
		return p, err
	}
	base := project.ClipBase{ID: newID(), TrackID: t.ID, StartMs: in.StartMs, DurationMs: in.DurationMs}
	if err := project.CheckTiming(base); err != nil {
		return p, err
	}

	style := project.DefaultTextStyle()
	if in.Style != nil {
		style = *in.Style
	}
	tr := project.DefaultTransform()
	if in.Transform != nil {
		tr = *in.Transform
	}
	if err := checkText(style, tr); err != nil {
		return p, err
	}

	c := project.TextClip{ClipBase: base, Text: in.Text, Style: style, Transform: tr}
	t.Clips = appendClip(t.Clips, c)
	return e.settle(p, ti, t, c.ID)
}

// MoveClipWithinTrack clamps nextStartMs to >= 0 and keeps the duration.
// The clip itself is excluded from the collision check.
func (e Editor) MoveClipWithinTrack(p project.Project, clipID string, nextStartMs int64) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	t := p.Tracks[loc.TrackIndex]
	c := t.Clips[loc.ClipIndex]
	b := c.Common()

	moved := project.WithPlacement(c, t.ID, span.AtLeast(nextStartMs, 0), b.DurationMs)
	t.Clips = replaceClip(t.Clips, loc.ClipIndex, moved)
	return e.settle(p, loc.TrackIndex, t, clipID)
}

// MoveClipAcrossTracks removes the clip from its track and appends it to
// nextTrackID at nextStartMs, provided the destination accepts its kind.
func (e Editor) MoveClipAcrossTracks(p project.Project, clipID, nextTrackID string, nextStartMs int64) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	di := p.TrackIndex(nextTrackID)
	if di < 0 {
		return p, project.TrackNotFound(nextTrackID)
	}
	origin := p.Tracks[loc.TrackIndex]
	c := origin.Clips[loc.ClipIndex]
	if err := project.AssertAccepts(p.Tracks[di], c.Kind()); err != nil {
		return p, err
	}
	if di == loc.TrackIndex {
		return e.MoveClipWithinTrack(p, clipID, nextStartMs)
	}

	origin.Clips = dropClip(origin.Clips, loc.ClipIndex)
	next := replaceTrack(p, loc.TrackIndex, origin)

	dest := next.Tracks[di]
	moved := project.WithPlacement(c, dest.ID, span.AtLeast(nextStartMs, 0), c.Common().DurationMs)
	dest.Clips = appendClip(dest.Clips, moved)

	out, err := e.settle(next, di, dest, clipID)
	if err != nil {
		return p, err
	}
	return out, nil
}

// ResizeClip sets the duration to max(1, nextDurationMs).
// AnchorEnd keeps the start; AnchorStart keeps the end and moves the start,
// clamping it at 0.
func (e Editor) ResizeClip(p project.Project, clipID string, nextDurationMs int64, anchor Anchor) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	t := p.Tracks[loc.TrackIndex]
	c := t.Clips[loc.ClipIndex]
	b := c.Common()

	duration := span.AtLeast(nextDurationMs, project.MinDurationMs)
	start := b.StartMs
	switch anchor {
	case AnchorEnd:
	case AnchorStart:
		start = span.AtLeast(b.StartMs+b.DurationMs-duration, 0)
	default:
		return p, project.InvalidTime("anchor", anchor)
	}

	t.Clips = replaceClip(t.Clips, loc.ClipIndex, project.WithPlacement(c, t.ID, start, duration))
	return e.settle(p, loc.TrackIndex, t, clipID)
}

// RemoveClip deletes a clip from whichever track holds it.
func RemoveClip(p project.Project, clipID string) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	t := p.Tracks[loc.TrackIndex]
	t.Clips = dropClip(t.Clips, loc.ClipIndex)
	return replaceTrack(p, loc.TrackIndex, t), nil
}

// SetAudioVolume changes the gain of an audio clip.
func SetAudioVolume(p project.Project, clipID string, volume float64) (project.Project, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return p, err
	}
	t := p.Tracks[loc.TrackIndex]
	ac, ok := t.Clips[loc.ClipIndex].(project.AudioClip)
	if !ok {
		return p, wrongVariant(clipID, t.Clips[loc.ClipIndex].Kind(), project.KindAudio)
	}
	if !project.ValidUnit(volume) {
		return p, project.InvalidTime("volume", volume)
	}
	ac.Volume = volume
	t.Clips = replaceClip(t.Clips, loc.ClipIndex, ac)
	return replaceTrack(p, loc.TrackIndex, t), nil
}

func targetTrack(p project.Project, trackID string, k project.Kind) (int, project.Track, error) {
	ti := p.TrackIndex(trackID)
	if ti < 0 {
		return -1, project.Track{}, project.TrackNotFound(trackID)
	}
	t := p.Tracks[ti]
	if err := project.AssertAccepts(t, k); err != nil {
		return -1, project.Track{}, err
	}
	return ti, t, nil
}

func checkMediaTiming(startMs, durationMs, trimStartMs, trimDurationMs int64) error {
	if err := project.CheckTiming(project.ClipBase{StartMs: startMs, DurationMs: durationMs}); err != nil {
		return err
	}
	if trimStartMs < 0 {
		return project.InvalidTime("trimStartMs", trimStartMs)
	}
	if trimDurationMs < 0 {
		return project.InvalidTime("trimDurationMs", trimDurationMs)
	}
	return nil
}

func checkText(style project.TextStyle, tr project.Transform) error {
	if !(style.FontSize > 0) || math.IsInf(style.FontSize, 0) {
		return project.InvalidTime("fontSize", style.FontSize)
	}
	for name, v := range map[string]float64{"x": tr.X, "y": tr.Y, "scale": tr.Scale, "rotation": tr.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return project.InvalidTime(name, v)
		}
	}
	return nil
}

func wrongVariant(clipID string, got, want project.Kind) error {
	return project.NewError(project.CodeTrackKindMismatch, "operation does not apply to this clip kind", map[string]any{
		"clip_id":   clipID,
		"clip_kind": got,
		"want_kind": want,
	})
}
