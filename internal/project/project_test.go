package project

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func fixture() Project {
	p := New("fixture")
	p.Resources["res-v"] = Resource{ID: "res-v", Name: "clip.mp4", Kind: KindVideo, MimeType: "video/mp4"}
	p.Resources["res-a"] = Resource{ID: "res-a", Name: "voice.wav", Kind: KindAudio, MimeType: "audio/wav"}
	p.Tracks = []Track{
		{ID: "tv", Kind: KindVideo, Name: "Video 1", Order: 0, Opacity: 1, Clips: []Clip{
			VideoClip{ClipBase: ClipBase{ID: "v1", TrackID: "tv", StartMs: 0, DurationMs: 1000}, ResourceID: "res-v"},
			VideoClip{ClipBase: ClipBase{ID: "v2", TrackID: "tv", StartMs: 1000, DurationMs: 500}, ResourceID: "res-v"},
		}},
		{ID: "ta", Kind: KindAudio, Name: "Audio 1", Order: 1, Opacity: 1, Clips: []Clip{
			AudioClip{ClipBase: ClipBase{ID: "a1", TrackID: "ta", StartMs: 200, DurationMs: 300}, ResourceID: "res-a", Volume: 0.8},
		}},
		{ID: "tt", Kind: KindText, Name: "Text 1", Order: 2, Opacity: 0.5, Clips: []Clip{
			TextClip{ClipBase: ClipBase{ID: "t1", TrackID: "tt", StartMs: 0, DurationMs: 2000}, Text: "hi", Style: DefaultTextStyle(), Transform: DefaultTransform()},
		}},
	}
	return p
}

func TestValidateAcceptsFixture(t *testing.T) {
	if err := Validate(fixture()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Project)
		code   Code
		substr string
	}{
		{
			name: "overlap",
			mutate: func(p *Project) {
				p.Tracks[0].Clips[1] = WithPlacement(p.Tracks[0].Clips[1], "tv", 900, 500)
			},
			code: CodeClipOverlap,
		},
		{
			name: "cross kind",
			mutate: func(p *Project) {
				p.Tracks[1].Clips = append(p.Tracks[1].Clips, TextClip{ClipBase: ClipBase{ID: "x", TrackID: "ta", StartMs: 5000, DurationMs: 10}})
			},
			code: CodeTrackKindMismatch,
		},
		{
			name: "missing resource",
			mutate: func(p *Project) {
				delete(p.Resources, "res-a")
			},
			code: CodeResourceKindMismatch,
		},
		{
			name: "zero duration",
			mutate: func(p *Project) {
				p.Tracks[2].Clips[0] = WithPlacement(p.Tracks[2].Clips[0], "tt", 0, 0)
			},
			code: CodeInvalidTime,
		},
		{
			name: "end past int64",
			mutate: func(p *Project) {
				p.Tracks[2].Clips[0] = WithPlacement(p.Tracks[2].Clips[0], "tt", math.MaxInt64-1, 2)
			},
			code: CodeInvalidTime,
		},
		{
			name: "sparse order",
			mutate: func(p *Project) {
				p.Tracks[2].Order = 7
			},
			substr: "order",
		},
		{
			name: "wrong owner",
			mutate: func(p *Project) {
				p.Tracks[0].Clips[0] = WithPlacement(p.Tracks[0].Clips[0], "ta", 0, 1000)
			},
			substr: "owned by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture()
			tt.mutate(&p)
			err := Validate(p)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.code != "" && CodeOf(err) != tt.code {
				t.Errorf("code = %q, want %q (%v)", CodeOf(err), tt.code, err)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q should mention %q", err, tt.substr)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	p := fixture()

	c, tr, err := p.FindClip("a1")
	if err != nil {
		t.Fatalf("FindClip: %v", err)
	}
	if tr.ID != "ta" || c.Kind() != KindAudio {
		t.Errorf("unexpected clip %v on track %s", c, tr.ID)
	}

	if _, _, err := p.FindClip("nope"); CodeOf(err) != CodeClipNotFound {
		t.Errorf("FindClip(nope) code = %q", CodeOf(err))
	}
	if _, err := p.FindTrack("nope"); CodeOf(err) != CodeTrackNotFound {
		t.Errorf("FindTrack(nope) code = %q", CodeOf(err))
	}

	if err := p.AssertResource("res-v", KindAudio); CodeOf(err) != CodeResourceKindMismatch {
		t.Errorf("AssertResource kind mismatch code = %q", CodeOf(err))
	}
	if got := p.DurationMs(); got != 2000 {
		t.Errorf("DurationMs = %d, want 2000", got)
	}
}

func TestCheckNoOverlapTouchingIsLegal(t *testing.T) {
	p := fixture()
	if err := p.Tracks[0].CheckNoOverlap("v2"); err != nil {
		t.Errorf("touching clips must be legal: %v", err)
	}
}

func TestErrorMatching(t *testing.T) {
	err := ClipOverlap("a", "b")
	if !errors.Is(err, &Error{Code: CodeClipOverlap}) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, &Error{Code: CodeClipNotFound}) {
		t.Error("errors.Is must not match a different code")
	}
	if !strings.Contains(err.Error(), "clip_id=a") {
		t.Errorf("error text should carry fields: %s", err)
	}
	if !strings.Contains(CodeClipOverlap.Hint(), "empty region") {
		t.Errorf("overlap hint = %q", CodeClipOverlap.Hint())
	}
}

func TestResourceOf(t *testing.T) {
	p := fixture()
	if id, ok := ResourceOf(p.Tracks[0].Clips[0]); !ok || id != "res-v" {
		t.Errorf("ResourceOf(video) = %q, %v", id, ok)
	}
	if _, ok := ResourceOf(p.Tracks[2].Clips[0]); ok {
		t.Error("text clips carry no resource")
	}
}
