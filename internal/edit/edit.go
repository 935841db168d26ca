// Package edit implements the timeline operations. Each one is a total function
// from (Project, args) to a new Project or a typed *project.Error; the input
// Project is never mutated and is returned as-is on failure.
//
// Every operation that changes timing ends in Editor.settle, the single place
// where the per-track non-overlap invariant is enforced (PolicyReject) or
// restored by displacement (PolicySqueeze).
package edit

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/nle/internal/project"
)

// Swappable in tests.
var (
	newID = uuid.NewString
	now   = func() time.Time { return time.Now().UTC() }
)

// Policy selects how a timing edit reacts to a collision with sibling clips.
type Policy int

const (
	// PolicyReject fails the edit with clip_overlap.
	PolicyReject Policy = iota
	// PolicySqueeze keeps the edited clip where it was asked to go and pushes
	// conflicting siblings forward.
	PolicySqueeze
)

func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicySqueeze:
		return "squeeze"
	}
	return "unknown"
}

// Editor applies timing edits under a collision policy.
type Editor struct {
	Policy Policy
}

var (
	// Strict is the fail-fast editor used by the package-level functions.
	Strict = Editor{Policy: PolicyReject}
	// Ripple makes room instead of rejecting.
	Ripple = Editor{Policy: PolicySqueeze}
)

// settle runs the collision policy for clipID on t and installs t at index ti.
// The edited clip's timing is checked first; under squeeze every displaced clip
// is checked as well, since pushing forward can run past the end of time.
func (e Editor) settle(p project.Project, ti int, t project.Track, clipID string) (project.Project, error) {
	if i := t.ClipIndex(clipID); i >= 0 {
		if err := project.CheckTiming(t.Clips[i].Common()); err != nil {
			return p, err
		}
	}
	switch e.Policy {
	case PolicySqueeze:
		t = Squeeze(t, clipID)
		if err := checkTrackTiming(t); err != nil {
			return p, err
		}
	default:
		if err := t.CheckNoOverlap(clipID); err != nil {
			return p, err
		}
	}
	return replaceTrack(p, ti, t), nil
}

func checkTrackTiming(t project.Track) error {
	for _, c := range t.Clips {
		if err := project.CheckTiming(c.Common()); err != nil {
			return err
		}
	}
	return nil
}

func replaceTrack(p project.Project, i int, t project.Track) project.Project {
	tracks := make([]project.Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	tracks[i] = t
	p.Tracks = tracks
	p.UpdatedAt = now()
	return p
}

// densify rewrites Order to match slice position. tracks must be a fresh slice.
func densify(tracks []project.Track) []project.Track {
	for i := range tracks {
		tracks[i].Order = i
	}
	return tracks
}

func appendClip(clips []project.Clip, c project.Clip) []project.Clip {
	out := make([]project.Clip, len(clips), len(clips)+1)
	copy(out, clips)
	return append(out, c)
}

func replaceClip(clips []project.Clip, i int, c project.Clip) []project.Clip {
	out := make([]project.Clip, len(clips))
	copy(out, clips)
	out[i] = c
	return out
}

func dropClip(clips []project.Clip, i int) []project.Clip {
	out := make([]project.Clip, 0, len(clips)-1)
	out = append(out, clips[:i]...)
	return append(out, clips[i+1:]...)
}
