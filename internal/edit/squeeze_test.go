package edit

import (
	"math"
	"reflect"
	"testing"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/span"
)

func videoClip(id string, start, dur int64) project.Clip {
	return project.VideoClip{ClipBase: project.ClipBase{ID: id, TrackID: "t", StartMs: start, DurationMs: dur}, ResourceID: "r"}
}

func starts(t project.Track) map[string]int64 {
	out := make(map[string]int64, len(t.Clips))
	for _, c := range t.Clips {
		out[c.Common().ID] = c.Common().StartMs
	}
	return out
}

func assertNoOverlap(t *testing.T, tr project.Track) {
	t.Helper()
	for i, a := range tr.Clips {
		for _, b := range tr.Clips[i+1:] {
			if span.Overlaps(a.Common().Range(), b.Common().Range()) {
				t.Fatalf("clips %s and %s overlap", a.Common().ID, b.Common().ID)
			}
		}
	}
}

func TestSqueeze(t *testing.T) {
	tests := []struct {
		name     string
		clips    []project.Clip
		priority string
		want     map[string]int64
	}{
		{
			name:     "overlapping clip moves after priority",
			clips:    []project.Clip{videoClip("P", 0, 1000), videoClip("O", 500, 1000)},
			priority: "P",
			want:     map[string]int64{"P": 0, "O": 1000},
		},
		{
			name:     "displacement cascades into later clips",
			clips:    []project.Clip{videoClip("P", 0, 1000), videoClip("O", 500, 1000), videoClip("L", 1500, 500)},
			priority: "P",
			want:     map[string]int64{"P": 0, "O": 1000, "L": 2000},
		},
		{
			name:     "several overlaps are laid out back to back by start then id",
			clips:    []project.Clip{videoClip("P", 1000, 1000), videoClip("b", 1500, 200), videoClip("a", 1500, 300), videoClip("c", 1200, 100)},
			priority: "P",
			want:     map[string]int64{"P": 1000, "c": 2000, "a": 2100, "b": 2400},
		},
		{
			name:     "clips before the priority stay put",
			clips:    []project.Clip{videoClip("E", 0, 500), videoClip("P", 500, 500), videoClip("O", 900, 100)},
			priority: "P",
			want:     map[string]int64{"E": 0, "P": 500, "O": 1000},
		},
		{
			name:     "clip pushed into the priority jumps past it",
			clips:    []project.Clip{videoClip("E", 0, 500), videoClip("X", 200, 300), videoClip("P", 600, 500)},
			priority: "P",
			want:     map[string]int64{"E": 0, "P": 600, "X": 1100},
		},
		{
			name:     "unknown priority leaves the track alone",
			clips:    []project.Clip{videoClip("A", 0, 1000), videoClip("B", 500, 1000)},
			priority: "missing",
			want:     map[string]int64{"A": 0, "B": 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := project.Track{ID: "t", Kind: project.KindVideo, Clips: tt.clips}
			out := Squeeze(in, tt.priority)

			got := starts(out)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("%s start = %d, want %d", id, got[id], want)
				}
			}
			if len(out.Clips) != len(tt.clips) {
				t.Errorf("clip count changed: %d -> %d", len(tt.clips), len(out.Clips))
			}
			if tt.priority != "missing" {
				assertNoOverlap(t, out)
			}
		})
	}
}

func TestSqueezeNeverShortensOrMovesBackward(t *testing.T) {
	clips := []project.Clip{
		videoClip("P", 300, 700),
		videoClip("a", 0, 400),
		videoClip("b", 350, 50),
		videoClip("c", 900, 600),
		videoClip("d", 1000, 10),
	}
	in := project.Track{ID: "t", Kind: project.KindVideo, Clips: clips}
	out := Squeeze(in, "P")
	assertNoOverlap(t, out)

	before := map[string]project.ClipBase{}
	for _, c := range clips {
		before[c.Common().ID] = c.Common()
	}
	for _, c := range out.Clips {
		b := c.Common()
		prev := before[b.ID]
		if b.DurationMs != prev.DurationMs {
			t.Errorf("%s duration changed %d -> %d", b.ID, prev.DurationMs, b.DurationMs)
		}
		if b.ID == "P" && b.StartMs != prev.StartMs {
			t.Errorf("priority clip moved to %d", b.StartMs)
		}
	}
	for i := 1; i < len(out.Clips); i++ {
		if out.Clips[i-1].Common().StartMs > out.Clips[i].Common().StartMs {
			t.Errorf("output not sorted by start at index %d", i)
		}
	}
}

func TestSqueezeIsIdempotent(t *testing.T) {
	in := project.Track{ID: "t", Kind: project.KindVideo, Clips: []project.Clip{
		videoClip("P", 0, 1000), videoClip("O", 500, 1000), videoClip("L", 1500, 500),
	}}
	once := Squeeze(in, "P")
	twice := Squeeze(once, "P")

	a, b := starts(once), starts(twice)
	for id := range a {
		if a[id] != b[id] {
			t.Errorf("%s: %d after one pass, %d after two", id, a[id], b[id])
		}
	}

	clean := project.Track{ID: "t", Kind: project.KindVideo, Clips: []project.Clip{
		videoClip("x", 0, 100), videoClip("y", 100, 100),
	}}
	got := starts(Squeeze(clean, "y"))
	if got["x"] != 0 || got["y"] != 100 {
		t.Errorf("non-conflicting track changed: %v", got)
	}
}

func TestRippleEditorSqueezesInsteadOfRejecting(t *testing.T) {
	deterministic(t)
	p, err := Ripple.AddVideoClip(fixture(), VideoClipInput{TrackID: "tv", ResourceID: "res-v", StartMs: 500, DurationMs: 1000})
	if err != nil {
		t.Fatalf("Ripple.AddVideoClip: %v", err)
	}
	if got := clipOf(t, p, "id-1"); got.StartMs != 500 {
		t.Errorf("edited clip must keep its requested start, got %d", got.StartMs)
	}
	if got := clipOf(t, p, "A"); got.StartMs != 1500 {
		t.Errorf("displaced clip start = %d, want 1500", got.StartMs)
	}
	if err := project.Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p, err = Ripple.MoveClipAcrossTracks(p, "B", "tv", 0)
	if err != nil {
		t.Fatalf("Ripple.MoveClipAcrossTracks: %v", err)
	}
	if err := project.Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := clipOf(t, p, "B"); got.StartMs != 0 || got.TrackID != "tv" {
		t.Errorf("B = %+v", got)
	}
}

func TestRippleRejectsPushPastEndOfTime(t *testing.T) {
	deterministic(t)
	const end = math.MaxInt64
	p, err := AddVideoClip(fixture(), VideoClipInput{TrackID: "tv", ResourceID: "res-v", StartMs: end - 1000, DurationMs: 1000})
	if err != nil {
		t.Fatalf("AddVideoClip: %v", err)
	}

	out, err := Ripple.AddVideoClip(p, VideoClipInput{TrackID: "tv", ResourceID: "res-v", StartMs: end - 1500, DurationMs: 1000})
	wantCode(t, err, project.CodeInvalidTime)
	if !reflect.DeepEqual(out, p) {
		t.Error("failed ripple edit must leave the project unchanged")
	}

	tr := project.Track{ID: "tv", Kind: project.KindVideo, Clips: []project.Clip{
		videoClip("x", end-1000, 1000), videoClip("y", end-1500, 1000),
	}}
	q := fixture()
	q.Tracks[0] = tr
	_, err = SqueezeTrack(q, "tv", "y")
	wantCode(t, err, project.CodeInvalidTime)
}

func TestSqueezeTrack(t *testing.T) {
	deterministic(t)
	_, err := SqueezeTrack(fixture(), "missing", "A")
	wantCode(t, err, project.CodeTrackNotFound)
	_, err = SqueezeTrack(fixture(), "tv", "B")
	wantCode(t, err, project.CodeClipNotFound)

	p, err := SqueezeTrack(fixture(), "tv", "A")
	if err != nil {
		t.Fatalf("SqueezeTrack: %v", err)
	}
	if got := clipOf(t, p, "A"); got.StartMs != 0 {
		t.Errorf("A moved to %d", got.StartMs)
	}
}

func TestPolicyString(t *testing.T) {
	if PolicyReject.String() != "reject" || PolicySqueeze.String() != "squeeze" {
		t.Errorf("unexpected names %s/%s", PolicyReject, PolicySqueeze)
	}
}
