package project

import (
	"fmt"
	"math"

	"github.com/ivlev/nle/internal/span"
)

// Validate checks every model invariant of p and returns the first violation.
//
// Checked: dense track order matching slice position, unique ids, track kinds,
// clip/track ownership, clip kinds, resource references, time bounds and
// pairwise non-overlap inside each track.
func Validate(p Project) error {
	trackIDs := make(map[string]bool, len(p.Tracks))
	clipIDs := make(map[string]bool)

	for i, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("track %d: empty id", i)
		}
		if trackIDs[t.ID] {
			return fmt.Errorf("track %s: duplicate id", t.ID)
		}
		trackIDs[t.ID] = true

		if !t.Kind.Valid() {
			return fmt.Errorf("track %s: unknown kind %q", t.ID, t.Kind)
		}
		if t.Order != i {
			return fmt.Errorf("track %s: order %d at position %d", t.ID, t.Order, i)
		}
		if !ValidUnit(t.Opacity) {
			return InvalidTime("opacity", t.Opacity)
		}

		for _, c := range t.Clips {
			b := c.Common()
			if b.ID == "" {
				return fmt.Errorf("track %s: clip with empty id", t.ID)
			}
			if clipIDs[b.ID] {
				return fmt.Errorf("clip %s: duplicate id", b.ID)
			}
			clipIDs[b.ID] = true

			if b.TrackID != t.ID {
				return fmt.Errorf("clip %s: track id %q but owned by %q", b.ID, b.TrackID, t.ID)
			}
			if err := AssertAccepts(t, c.Kind()); err != nil {
				return err
			}
			if err := CheckTiming(b); err != nil {
				return err
			}

			switch v := c.(type) {
			case VideoClip:
				if err := checkMedia(p, v.ResourceID, KindVideo, v.TrimStartMs); err != nil {
					return err
				}
			case AudioClip:
				if err := checkMedia(p, v.ResourceID, KindAudio, v.TrimStartMs); err != nil {
					return err
				}
				if !ValidUnit(v.Volume) {
					return InvalidTime("volume", v.Volume)
				}
			case TextClip:
			}
		}

		if err := checkTrackOverlaps(t); err != nil {
			return err
		}
	}

	return nil
}

// CheckTiming validates the start/duration bounds of a clip. The end
// StartMs+DurationMs must be representable as int64.
func CheckTiming(b ClipBase) error {
	if b.StartMs < 0 {
		return InvalidTime("startMs", b.StartMs)
	}
	if b.DurationMs < MinDurationMs {
		return InvalidTime("durationMs", b.DurationMs)
	}
	if b.StartMs > math.MaxInt64-b.DurationMs {
		return InvalidTime("durationMs", b.DurationMs)
	}
	return nil
}

func checkMedia(p Project, resourceID string, k Kind, trimStartMs int64) error {
	if err := p.AssertResource(resourceID, k); err != nil {
		return err
	}
	if trimStartMs < 0 {
		return InvalidTime("trimStartMs", trimStartMs)
	}
	return nil
}

func checkTrackOverlaps(t Track) error {
	for i := 0; i < len(t.Clips); i++ {
		a := t.Clips[i].Common()
		for j := i + 1; j < len(t.Clips); j++ {
			b := t.Clips[j].Common()
			if span.Overlaps(a.Range(), b.Range()) {
				return ClipOverlap(a.ID, b.ID)
			}
		}
	}
	return nil
}
