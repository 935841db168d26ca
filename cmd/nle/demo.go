package main

import (
	"github.com/google/uuid"

	"github.com/ivlev/nle/internal/edit"
	"github.com/ivlev/nle/internal/project"
)

// stillDurationMs задаёт, сколько держится на экране картинка в демо-проекте.
const stillDurationMs = 3000

// newEmptyProject создаёт проект с одной дорожкой каждого типа.
func newEmptyProject(name string) (project.Project, error) {
	p := project.New(name)
	var err error
	for _, k := range []project.Kind{project.KindVideo, project.KindAudio, project.KindText} {
		if p, err = edit.AddTrack(p, k); err != nil {
			return p, err
		}
	}
	return p, nil
}

// newDemoProject регистрирует ресурсы и раскладывает их встык: изображения
// и PDF на видеодорожку, аудио на аудиодорожку, титр поверх первого клипа.
func newDemoProject(name string, resources []project.Resource) (project.Project, error) {
	p, err := newEmptyProject(name)
	if err != nil {
		return p, err
	}
	videoTrack, audioTrack, textTrack := p.Tracks[0].ID, p.Tracks[1].ID, p.Tracks[2].ID

	var videoEnd, audioEnd int64
	for _, r := range resources {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if p, err = edit.AddResource(p, r); err != nil {
			return p, err
		}

		d := r.DurationMs
		if d <= 0 {
			d = stillDurationMs
		}
		switch r.Kind {
		case project.KindVideo:
			p, err = edit.AddVideoClip(p, edit.VideoClipInput{TrackID: videoTrack, ResourceID: r.ID, StartMs: videoEnd, DurationMs: d})
			videoEnd += d
		case project.KindAudio:
			p, err = edit.AddAudioClip(p, edit.AudioClipInput{TrackID: audioTrack, ResourceID: r.ID, StartMs: audioEnd, DurationMs: d})
			audioEnd += d
		}
		if err != nil {
			return p, err
		}
	}

	titleMs := int64(stillDurationMs)
	if first, ok := firstClip(p, videoTrack); ok {
		titleMs = first.DurationMs
	}
	style := project.DefaultTextStyle()
	style.FontWeight = "bold"
	style.Align = project.AlignCenter
	tr := project.Transform{
		X:     float64(p.Settings.Width) / 2,
		Y:     float64(p.Settings.Height) / 8,
		Scale: 1,
	}
	return edit.AddTextClip(p, edit.TextClipInput{
		TrackID:    textTrack,
		Text:       name,
		StartMs:    0,
		DurationMs: titleMs,
		Style:      &style,
		Transform:  &tr,
	})
}

func firstClip(p project.Project, trackID string) (project.ClipBase, bool) {
	t, err := p.FindTrack(trackID)
	if err != nil || len(t.Clips) == 0 {
		return project.ClipBase{}, false
	}
	first := t.Clips[0].Common()
	for _, c := range t.Clips[1:] {
		if b := c.Common(); b.StartMs < first.StartMs {
			first = b
		}
	}
	return first, true
}
