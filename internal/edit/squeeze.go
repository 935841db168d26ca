package edit

import (
	"sort"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/span"
)

// Squeeze restores non-overlap on t while keeping the clip priorityID exactly
// where it is. Conflicting clips are laid out back to back after the priority
// clip, then a single sweep pushes anything still colliding forward.
//
// It never fails, never drops a clip and never shortens one; start times only
// move forward. Near math.MaxInt64 a pushed clip may end past the
// representable range; callers check the result with project.CheckTiming.
// If priorityID is not on t the track is returned unchanged. The returned
// track's clips are sorted by (StartMs, ID).
func Squeeze(t project.Track, priorityID string) project.Track {
	pi := t.ClipIndex(priorityID)
	if pi < 0 {
		return t
	}
	priority := t.Clips[pi]
	pr := priority.Common().Range()

	var before, overlap, after []project.Clip
	for i, c := range t.Clips {
		if i == pi {
			continue
		}
		r := c.Common().Range()
		switch {
		case span.Overlaps(r, pr):
			overlap = append(overlap, c)
		case r.End <= pr.Start:
			before = append(before, c)
		default:
			after = append(after, c)
		}
	}

	sortClips(overlap)
	cursor := pr.End
	for i, c := range overlap {
		b := c.Common()
		overlap[i] = project.WithPlacement(c, b.TrackID, cursor, b.DurationMs)
		cursor += b.DurationMs
	}

	merged := make([]project.Clip, 0, len(t.Clips))
	merged = append(merged, before...)
	merged = append(merged, priority)
	merged = append(merged, overlap...)
	merged = append(merged, after...)
	sortClips(merged)

	cursor = 0
	for i, c := range merged {
		b := c.Common()
		if b.ID == priorityID {
			if pr.End > cursor {
				cursor = pr.End
			}
			continue
		}
		start := span.AtLeast(b.StartMs, cursor)
		// A clip pushed into the priority clip jumps past it.
		if span.Overlaps(span.ToRange(start, b.DurationMs), pr) {
			start = pr.End
		}
		if start != b.StartMs {
			merged[i] = project.WithPlacement(c, b.TrackID, start, b.DurationMs)
		}
		cursor = start + b.DurationMs
	}
	sortClips(merged)

	t.Clips = merged
	return t
}

// SqueezeTrack applies Squeeze to one track of p. It fails with invalid_time
// when a displaced clip would end past math.MaxInt64.
func SqueezeTrack(p project.Project, trackID, priorityClipID string) (project.Project, error) {
	ti := p.TrackIndex(trackID)
	if ti < 0 {
		return p, project.TrackNotFound(trackID)
	}
	t := p.Tracks[ti]
	if t.ClipIndex(priorityClipID) < 0 {
		return p, project.ClipNotFound(priorityClipID)
	}
	t = Squeeze(t, priorityClipID)
	if err := checkTrackTiming(t); err != nil {
		return p, err
	}
	return replaceTrack(p, ti, t), nil
}

// sortClips orders by (StartMs, ID) so ties resolve the same way every time.
func sortClips(clips []project.Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		a, b := clips[i].Common(), clips[j].Common()
		if a.StartMs != b.StartMs {
			return a.StartMs < b.StartMs
		}
		return a.ID < b.ID
	})
}
