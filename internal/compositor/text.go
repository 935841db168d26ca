package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/system"
)

type faceKey struct {
	ttf  string
	size float64
}

// fontCache parses the embedded Go fonts once and keeps one face per size.
type fontCache struct {
	mu     sync.Mutex
	parsed map[string]*opentype.Font
	faces  map[faceKey]font.Face
}

func newFontCache() *fontCache {
	return &fontCache{
		parsed: make(map[string]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
	}
}

var ttfs = map[string][]byte{
	"regular":  goregular.TTF,
	"bold":     gobold.TTF,
	"mono":     gomono.TTF,
	"monobold": gomonobold.TTF,
}

// ttfFor maps a CSS-like family and weight onto one of the bundled Go fonts.
// Unknown families fall back to Go Regular.
func ttfFor(family, weight string) string {
	mono := false
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "mono", "monospace", "go mono", "courier", "courier new":
		mono = true
	}

	bold := false
	switch w := strings.ToLower(strings.TrimSpace(weight)); w {
	case "bold", "bolder":
		bold = true
	default:
		if n, err := strconv.Atoi(w); err == nil && n >= 600 {
			bold = true
		}
	}

	switch {
	case mono && bold:
		return "monobold"
	case mono:
		return "mono"
	case bold:
		return "bold"
	}
	return "regular"
}

func (fc *fontCache) face(style project.TextStyle) (font.Face, error) {
	key := faceKey{ttf: ttfFor(style.FontFamily, style.FontWeight), size: style.FontSize}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if f, ok := fc.faces[key]; ok {
		return f, nil
	}
	parsed, ok := fc.parsed[key.ttf]
	if !ok {
		var err error
		if parsed, err = opentype.Parse(ttfs[key.ttf]); err != nil {
			return nil, fmt.Errorf("parse font %s: %w", key.ttf, err)
		}
		fc.parsed[key.ttf] = parsed
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %s/%.1f: %w", key.ttf, key.size, err)
	}
	fc.faces[key] = f
	return f, nil
}

// rasterizeText lays the lines of s out on a transparent pooled buffer with the
// top of the first line at y=0. The caller must return the buffer to the pool.
// The second result is the x offset of the anchor implied by align.
func rasterizeText(face font.Face, s string, col color.Color, align project.Align) (*image.RGBA, int) {
	lines := strings.Split(s, "\n")
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	ascent := m.Ascent.Ceil()

	widths := make([]int, len(lines))
	boxW := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		boxW = max(boxW, widths[i])
	}
	boxH := lineHeight*(len(lines)-1) + ascent + m.Descent.Ceil()
	if boxW == 0 || boxH <= 0 {
		return nil, 0
	}

	buf := system.GetClearImage(image.Rect(0, 0, boxW, boxH))
	d := &font.Drawer{Dst: buf, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		x := 0
		switch align {
		case project.AlignCenter:
			x = (boxW - widths[i]) / 2
		case project.AlignRight:
			x = boxW - widths[i]
		}
		d.Dot = fixed.P(x, i*lineHeight+ascent)
		d.DrawString(line)
	}

	switch align {
	case project.AlignCenter:
		return buf, -boxW / 2
	case project.AlignRight:
		return buf, -boxW
	}
	return buf, 0
}

// textMatrix maps text-local coordinates to canvas coordinates: translate to
// (x,y), rotate by degrees, then scale, with the local origin shifted by ox.
func textMatrix(tr project.Transform, ox float64) f64.Aff3 {
	theta := tr.Rotation * math.Pi / 180
	sin, cos := math.Sincos(theta)
	s := tr.Scale
	return f64.Aff3{
		s * cos, -s * sin, tr.X + s*cos*ox,
		s * sin, s * cos, tr.Y + s*sin*ox,
	}
}

func (c *Compositor) drawText(dst *image.RGBA, tc project.TextClip, opacity float64) {
	log := c.log.WithField("clip_id", tc.ID)
	if tc.Text == "" || tc.Transform.Scale == 0 {
		return
	}

	face, err := c.fonts.face(tc.Style)
	if err != nil {
		log.WithError(err).Debug("text layer skipped")
		return
	}
	col, err := ParseColor(tc.Style.Color)
	if err != nil {
		log.WithError(err).Debug("bad text color, using white")
		col = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	col = withOpacity(col, opacity)
	if col.A == 0 {
		return
	}

	buf, ox := rasterizeText(face, tc.Text, col, tc.Style.Align)
	if buf == nil {
		return
	}
	defer system.PutImage(buf)

	tr := tc.Transform
	if tr.Rotation == 0 && tr.Scale == 1 {
		at := image.Pt(int(math.Round(tr.X))+ox, int(math.Round(tr.Y)))
		draw.Draw(dst, buf.Bounds().Add(at), buf, image.Point{}, draw.Over)
		return
	}
	c.opts.Interpolator.Transform(dst, textMatrix(tr, float64(ox)), buf, buf.Bounds(), draw.Over, nil)
}
