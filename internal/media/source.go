package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/nle/internal/system"
)

// ImageExts are the still formats the decoders above understand.
var ImageExts = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// Source gives random access to the pages of a visual resource: PDF pages,
// the frames of an image sequence, or a single still.
type Source interface {
	PageCount() int
	PageSize(index int) (width, height int, err error)
	RenderPage(index int) (image.Image, error)
	Close() error
}

// ImageSource reads a single image file or a directory of images sorted by name.
type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && system.HasExt(entry.Name(), ImageExts...) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageSize(index int) (int, int, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) RenderPage(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}

// PDFSource renders PDF pages with MuPDF through go-fitz. One document is kept
// open per source; fitz documents are not safe for concurrent use.
type PDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
	dpi float64
}

// NewPDFSource opens path for rendering at dpi.
func NewPDFSource(path string, dpi float64) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, dpi: dpi}, nil
}

func (f *PDFSource) PageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.NumPage()
}

// PageSize returns the page bounds scaled from 72 DPI points to the render DPI.
func (f *PDFSource) PageSize(index int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	scale := f.dpi / 72
	return int(float64(rect.Dx()) * scale), int(float64(rect.Dy()) * scale), nil
}

func (f *PDFSource) RenderPage(index int) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.ImageDPI(index, f.dpi)
}

func (f *PDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}
