package edit

import (
	"github.com/ivlev/nle/internal/project"
)

// AddTrack appends an empty track of the given kind at the bottom of the stack.
func AddTrack(p project.Project, kind project.Kind) (project.Project, error) {
	if !kind.Valid() {
		return p, project.NewError(project.CodeTrackKindMismatch, "unknown track kind", map[string]any{"kind": kind})
	}

	sameKind := 0
	for _, t := range p.Tracks {
		if t.Kind == kind {
			sameKind++
		}
	}

	tracks := make([]project.Track, len(p.Tracks), len(p.Tracks)+1)
	copy(tracks, p.Tracks)
	tracks = append(tracks, project.Track{
		ID:      newID(),
		Kind:    kind,
		Name:    project.DefaultTrackName(kind, sameKind+1),
		Order:   len(p.Tracks),
		Opacity: 1,
	})

	p.Tracks = tracks
	p.UpdatedAt = now()
	return p, nil
}

// RemoveTrack drops a track together with its clips and re-densifies order.
func RemoveTrack(p project.Project, trackID string) (project.Project, error) {
	i := p.TrackIndex(trackID)
	if i < 0 {
		return p, project.TrackNotFound(trackID)
	}

	tracks := make([]project.Track, 0, len(p.Tracks)-1)
	tracks = append(tracks, p.Tracks[:i]...)
	tracks = append(tracks, p.Tracks[i+1:]...)

	p.Tracks = densify(tracks)
	p.UpdatedAt = now()
	return p, nil
}

// ReorderTrack moves the track at fromIndex to toIndex.
func ReorderTrack(p project.Project, fromIndex, toIndex int) (project.Project, error) {
	n := len(p.Tracks)
	if fromIndex < 0 || fromIndex >= n {
		return p, project.TrackIndexNotFound(fromIndex, n)
	}
	if toIndex < 0 || toIndex >= n {
		return p, project.TrackIndexNotFound(toIndex, n)
	}

	moved := p.Tracks[fromIndex]
	rest := make([]project.Track, 0, n)
	rest = append(rest, p.Tracks[:fromIndex]...)
	rest = append(rest, p.Tracks[fromIndex+1:]...)

	tracks := make([]project.Track, 0, n)
	tracks = append(tracks, rest[:toIndex]...)
	tracks = append(tracks, moved)
	tracks = append(tracks, rest[toIndex:]...)

	p.Tracks = densify(tracks)
	p.UpdatedAt = now()
	return p, nil
}

// SetTrackOpacity sets a track's compositing opacity; value must be finite and in [0,1].
func SetTrackOpacity(p project.Project, trackID string, value float64) (project.Project, error) {
	return updateTrack(p, trackID, func(t *project.Track) error {
		if !project.ValidUnit(value) {
			return project.InvalidTime("opacity", value)
		}
		t.Opacity = value
		return nil
	})
}

// SetTrackHidden excludes a track from composition without removing it.
func SetTrackHidden(p project.Project, trackID string, hidden bool) (project.Project, error) {
	return updateTrack(p, trackID, func(t *project.Track) error {
		t.Hidden = hidden
		return nil
	})
}

// SetTrackMuted flags a track as muted for a future mixer.
func SetTrackMuted(p project.Project, trackID string, muted bool) (project.Project, error) {
	return updateTrack(p, trackID, func(t *project.Track) error {
		t.Muted = muted
		return nil
	})
}

// RenameTrack changes the display name of a track.
func RenameTrack(p project.Project, trackID, name string) (project.Project, error) {
	return updateTrack(p, trackID, func(t *project.Track) error {
		t.Name = name
		return nil
	})
}

// updateTrack applies fn to a copy of the track. Clips are shared with the previous
// revision, so fn must not touch t.Clips elements in place.
func updateTrack(p project.Project, trackID string, fn func(t *project.Track) error) (project.Project, error) {
	i := p.TrackIndex(trackID)
	if i < 0 {
		return p, project.TrackNotFound(trackID)
	}
	t := p.Tracks[i]
	if err := fn(&t); err != nil {
		return p, err
	}
	return replaceTrack(p, i, t), nil
}
