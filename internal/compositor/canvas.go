package compositor

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/nle/internal/system"
)

// ClearMode selects what happens to the previous canvas contents before a frame.
type ClearMode int

const (
	// ClearBackground fills the canvas with the project background color.
	ClearBackground ClearMode = iota
	// Accumulate draws over whatever the canvas already holds.
	Accumulate
)

// Canvas is the render target. Its buffer comes from the shared image pool.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: system.GetClearImage(image.Rect(0, 0, width, height))}
}

// Image exposes the backing buffer. It stays valid until the next Resize or Release.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize swaps in a transparent buffer when the size differs and reports whether it did.
func (c *Canvas) Resize(width, height int) bool {
	if w, h := c.Size(); w == width && h == height && c.img != nil {
		return false
	}
	system.PutImage(c.img)
	c.img = system.GetClearImage(image.Rect(0, 0, width, height))
	return true
}

// Fill paints every pixel with col.
func (c *Canvas) Fill(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// Release returns the buffer to the pool. The canvas must not be used afterwards.
func (c *Canvas) Release() {
	system.PutImage(c.img)
	c.img = nil
}
