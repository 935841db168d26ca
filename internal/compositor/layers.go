package compositor

import (
	"sort"

	"github.com/ivlev/nle/internal/project"
)

// Layer is one clip that is active at a playhead, with the state of its track.
type Layer struct {
	TrackID    string
	TrackOrder int
	Opacity    float64
	Muted      bool
	Clip       project.Clip
}

// ActiveLayers returns every clip whose interval contains playheadMs on a visible
// track, bottom layer first. Audio clips are included for mixing even though they
// are never drawn. More than one clip per track is tolerated.
func ActiveLayers(p project.Project, playheadMs int64) []Layer {
	tracks := make([]project.Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].Order < tracks[j].Order })

	var layers []Layer
	for _, t := range tracks {
		if t.Hidden {
			continue
		}
		var active []project.Clip
		for _, c := range t.Clips {
			if c.Common().Range().Contains(playheadMs) {
				active = append(active, c)
			}
		}
		sort.SliceStable(active, func(i, j int) bool {
			a, b := active[i].Common(), active[j].Common()
			if a.StartMs != b.StartMs {
				return a.StartMs < b.StartMs
			}
			return a.ID < b.ID
		})
		for _, c := range active {
			layers = append(layers, Layer{TrackID: t.ID, TrackOrder: t.Order, Opacity: t.Opacity, Muted: t.Muted, Clip: c})
		}
	}
	return layers
}
