package compositor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/nle/internal/project"
)

const debugMargin = 8

// FormatTimecode renders milliseconds as HH:MM:SS.mmm.
func FormatTimecode(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}

// drawDebug stamps a QR code of "<project id>@<playhead ms>" into the bottom
// right corner and the timecode into the top left one.
func (c *Compositor) drawDebug(dst *image.RGBA, p project.Project, playheadMs int64) error {
	b := dst.Bounds()

	q, err := qrcode.New(fmt.Sprintf("%s@%d", p.ID, playheadMs), qrcode.Low)
	if err != nil {
		return fmt.Errorf("debug qr: %w", err)
	}
	size := min(b.Dx(), b.Dy()) / 5
	qr := q.Image(size)
	qb := qr.Bounds()
	at := image.Pt(b.Max.X-qb.Dx()-debugMargin, b.Max.Y-qb.Dy()-debugMargin)
	draw.Draw(dst, qb.Add(at.Sub(qb.Min)), qr, qb.Min, draw.Src)

	face, err := c.fonts.face(project.TextStyle{FontFamily: "mono", FontSize: 16})
	if err != nil {
		return err
	}
	label := FormatTimecode(playheadMs)
	w := font.MeasureString(face, label).Ceil()
	m := face.Metrics()
	box := image.Rect(b.Min.X+debugMargin, b.Min.Y+debugMargin, b.Min.X+debugMargin*2+w, b.Min.Y+debugMargin*2+m.Height.Ceil())
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{A: 160}), image.Point{}, draw.Over)
	d := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	d.Dot = fixed.P(box.Min.X+debugMargin/2, box.Min.Y+debugMargin/2+m.Ascent.Ceil())
	d.DrawString(label)
	return nil
}
