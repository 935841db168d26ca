// Package compositor turns a project revision and a playhead into one raster
// frame. Media is read through caller-owned handles. A missing or unready
// handle drops its layer without failing the frame.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/system"
)

// Options tune how a frame is produced.
type Options struct {
	// SeekTimeout bounds every single seek. Zero means no timeout.
	SeekTimeout time.Duration
	// SeekConcurrency is how many resources seek in parallel. Zero means one.
	SeekConcurrency int
	// Debug stamps a timecode and a QR code of the frame identity.
	Debug bool
	// Interpolator scales video and transforms text. Nil means draw.ApproxBiLinear.
	Interpolator draw.Interpolator
}

// Compositor draws frames. ComposeFrame calls must not overlap; the render
// coordinator guarantees that.
type Compositor struct {
	log   *logrus.Entry
	opts  Options
	fonts *fontCache
}

// New returns a compositor. A nil log uses the logrus standard logger.
func New(log *logrus.Entry, opts Options) *Compositor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.SeekConcurrency < 1 {
		opts.SeekConcurrency = 1
	}
	if opts.Interpolator == nil {
		opts.Interpolator = draw.ApproxBiLinear
	}
	return &Compositor{
		log:   log.WithField("component", "compositor"),
		opts:  opts,
		fonts: newFontCache(),
	}
}

// ComposeFrame renders the project at playheadMs onto canvas.
//
// The canvas is resized to the project dimensions and, in ClearBackground mode,
// filled with the background color. Layers are drawn bottom-up by track order
// with the track opacity applied per layer. Seek failures skip that layer only;
// they are joined into the returned error after every other layer was drawn.
func (c *Compositor) ComposeFrame(ctx context.Context, p project.Project, playheadMs int64, canvas *Canvas, mode ClearMode, handles Provider) error {
	log := c.log.WithField("playhead_ms", playheadMs)

	canvas.Resize(p.Settings.Width, p.Settings.Height)
	if mode == ClearBackground {
		bg, err := ParseColor(p.Settings.BackgroundColor)
		if err != nil {
			log.WithError(err).Warn("bad background color, using black")
			bg = color.NRGBA{A: 255}
		}
		canvas.Fill(bg)
	}
	dst := canvas.Image()

	layers := ActiveLayers(p, playheadMs)
	frames, release, seekErr := c.seekLayers(ctx, log, layers, playheadMs, handles)
	defer release()

	for i, l := range layers {
		if l.Opacity <= 0 {
			continue
		}
		switch clip := l.Clip.(type) {
		case project.VideoClip:
			if frames[i] != nil {
				c.drawVideo(dst, frames[i], l.Opacity)
			}
		case project.TextClip:
			c.drawText(dst, clip, l.Opacity)
		case project.AudioClip:
			// Audio is part of the active set but never drawn.
		default:
			panic(fmt.Sprintf("compositor: unknown clip variant %T", clip))
		}
	}

	if c.opts.Debug {
		if err := c.drawDebug(dst, p, playheadMs); err != nil {
			log.WithError(err).Debug("debug overlay skipped")
		}
	}
	return seekErr
}

// seekLayers positions the handle of every video layer and captures its frame.
// Layers sharing a resource seek one after another on the same handle, so all
// but the last capture are copied into pooled buffers; distinct resources seek
// concurrently. frames[i] is nil for layers that are not drawable video.
func (c *Compositor) seekLayers(ctx context.Context, log *logrus.Entry, layers []Layer, playheadMs int64, handles Provider) ([]image.Image, func(), error) {
	frames := make([]image.Image, len(layers))
	errs := make([]error, len(layers))
	var copies []*image.RGBA
	copiesAt := make([]*image.RGBA, len(layers))

	groups := make(map[string][]int)
	var order []string
	for i, l := range layers {
		vc, ok := l.Clip.(project.VideoClip)
		if !ok {
			continue
		}
		if _, seen := groups[vc.ResourceID]; !seen {
			order = append(order, vc.ResourceID)
		}
		groups[vc.ResourceID] = append(groups[vc.ResourceID], i)
	}

	var g errgroup.Group
	g.SetLimit(c.opts.SeekConcurrency)
	for _, resourceID := range order {
		idxs := groups[resourceID]
		rlog := log.WithField("resource_id", resourceID)

		var h Handle
		var ok bool
		if handles != nil {
			h, ok = handles.Handle(resourceID)
		}
		if !ok || h == nil {
			rlog.Debug("no media handle, layer skipped")
			continue
		}
		if !h.Ready() {
			rlog.Debug("media handle not ready, layer skipped")
			continue
		}

		g.Go(func() error {
			for k, i := range idxs {
				vc := layers[i].Clip.(project.VideoClip)
				seconds := float64(project.SourceTimeMs(vc.TrimStartMs, vc.ClipBase, playheadMs)) / 1000

				if err := c.seek(ctx, h, seconds); err != nil {
					errs[i] = fmt.Errorf("seek %s to %.3fs for clip %s: %w", resourceID, seconds, vc.ID, err)
					rlog.WithError(err).WithField("clip_id", vc.ID).Debug("seek failed, layer skipped")
					continue
				}
				f := h.Frame()
				if f == nil {
					continue
				}
				if k < len(idxs)-1 {
					copiesAt[i] = system.CloneImage(f)
					f = copiesAt[i]
				}
				frames[i] = f
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, img := range copiesAt {
		if img != nil {
			copies = append(copies, img)
		}
	}
	release := func() {
		for _, img := range copies {
			system.PutImage(img)
		}
	}
	return frames, release, errors.Join(errs...)
}

func (c *Compositor) seek(ctx context.Context, h Handle, seconds float64) error {
	if c.opts.SeekTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SeekTimeout)
		defer cancel()
	}
	return h.Seek(ctx, seconds)
}

// drawVideo stretches src over the whole canvas with a global alpha.
func (c *Compositor) drawVideo(dst *image.RGBA, src image.Image, opacity float64) {
	db, sb := dst.Bounds(), src.Bounds()
	mask := opacityMask(opacity)

	if sb.Size() == db.Size() {
		draw.DrawMask(dst, db, src, sb.Min, mask, image.Point{}, draw.Over)
		return
	}
	scaled := system.GetImage(db)
	defer system.PutImage(scaled)
	c.opts.Interpolator.Scale(scaled, db, src, sb, draw.Src, nil)
	draw.DrawMask(dst, db, scaled, db.Min, mask, image.Point{}, draw.Over)
}
