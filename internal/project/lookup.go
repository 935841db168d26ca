package project

import (
	"math"

	"github.com/ivlev/nle/internal/span"
)

// TrackIndex returns the position of trackID in p.Tracks, or -1.
func (p Project) TrackIndex(trackID string) int {
	for i, t := range p.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// FindTrack returns the track with the given id.
func (p Project) FindTrack(trackID string) (Track, error) {
	i := p.TrackIndex(trackID)
	if i < 0 {
		return Track{}, TrackNotFound(trackID)
	}
	return p.Tracks[i], nil
}

// ClipLocation is the position of a clip inside a project.
type ClipLocation struct {
	TrackIndex int
	ClipIndex  int
}

// LocateClip scans every track for clipID.
func (p Project) LocateClip(clipID string) (ClipLocation, error) {
	for ti, t := range p.Tracks {
		if ci := t.ClipIndex(clipID); ci >= 0 {
			return ClipLocation{TrackIndex: ti, ClipIndex: ci}, nil
		}
	}
	return ClipLocation{}, ClipNotFound(clipID)
}

// FindClip returns the clip with the given id and its owning track.
func (p Project) FindClip(clipID string) (Clip, Track, error) {
	loc, err := p.LocateClip(clipID)
	if err != nil {
		return nil, Track{}, err
	}
	t := p.Tracks[loc.TrackIndex]
	return t.Clips[loc.ClipIndex], t, nil
}

// ClipIndex returns the position of clipID in t.Clips, or -1.
func (t Track) ClipIndex(clipID string) int {
	for i, c := range t.Clips {
		if c.Common().ID == clipID {
			return i
		}
	}
	return -1
}

// AssertAccepts fails with track_kind_mismatch when t cannot hold a clip of kind k.
func AssertAccepts(t Track, k Kind) error {
	if !t.Accepts(k) {
		return TrackKindMismatch(t.ID, t.Kind, k)
	}
	return nil
}

// AssertResource fails with resource_kind_mismatch when resourceID is missing from p
// or its kind differs from k.
func (p Project) AssertResource(resourceID string, k Kind) error {
	r, ok := p.Resources[resourceID]
	if !ok {
		return ResourceMissing(resourceID)
	}
	if r.Kind != k {
		return ResourceKindMismatch(resourceID, r.Kind, k)
	}
	return nil
}

// FirstOverlap returns the first clip on t, other than clipID, that overlaps r.
func (t Track) FirstOverlap(clipID string, r span.Range) (Clip, bool) {
	for _, c := range t.Clips {
		b := c.Common()
		if b.ID == clipID {
			continue
		}
		if span.Overlaps(r, b.Range()) {
			return c, true
		}
	}
	return nil, false
}

// CheckNoOverlap verifies that the clip clipID does not overlap any sibling on t.
// It is the single gate every timing edit passes through.
func (t Track) CheckNoOverlap(clipID string) error {
	i := t.ClipIndex(clipID)
	if i < 0 {
		return ClipNotFound(clipID)
	}
	if other, ok := t.FirstOverlap(clipID, t.Clips[i].Common().Range()); ok {
		return ClipOverlap(clipID, other.Common().ID)
	}
	return nil
}

// ValidUnit reports whether v is a finite number in [0, 1].
func ValidUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
