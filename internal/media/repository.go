package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/system"
)

const (
	MimePDF           = "application/pdf"
	MimeImageSequence = "video/x-image-sequence"
)

// AudioExts are registered as audio resources. They are never decoded.
var AudioExts = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}

// Repository locates the payload of a resource.
type Repository interface {
	Path(r project.Resource) (string, error)
}

// DirRepository stores resources as files or image directories under Root,
// named by Resource.Name.
type DirRepository struct {
	Root string
}

// Path resolves r under Root. Names escaping Root are rejected.
func (d DirRepository) Path(r project.Resource) (string, error) {
	if !filepath.IsLocal(r.Name) {
		return "", fmt.Errorf("resource %s: name %q is not a local path", r.ID, r.Name)
	}
	path := filepath.Join(d.Root, r.Name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("resource %s: %w", r.ID, err)
	}
	return path, nil
}

// Scan lists the media under Root as resource metadata without ids: image
// files and PDFs become video resources, directories of images become image
// sequences played at opts.SequenceFPS, audio files become audio resources.
// Anything else is skipped.
func (d DirRepository) Scan(opts Options) ([]project.Resource, error) {
	opts = opts.withDefaults()
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, err
	}

	var out []project.Resource
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		r, ok, err := inspect(filepath.Join(d.Root, e.Name()), e.IsDir(), opts)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", e.Name(), err)
		}
		if ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func inspect(path string, isDir bool, opts Options) (project.Resource, bool, error) {
	r := project.Resource{Name: filepath.Base(path)}

	if isDir {
		src, err := NewImageSource(path)
		if err != nil {
			return r, false, nil
		}
		r.Kind = project.KindVideo
		r.MimeType = MimeImageSequence
		r.DurationMs = int64(src.PageCount()) * 1000 / int64(opts.SequenceFPS)
		r.Width, r.Height, err = src.PageSize(0)
		return r, true, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return r, false, err
	}
	r.Size = fi.Size()

	switch {
	case system.HasExt(path, AudioExts...):
		r.Kind = project.KindAudio
		r.MimeType = detect(path, "audio/", "audio/mpeg")
		return r, true, nil

	case system.HasExt(path, ".pdf"):
		doc, err := fitz.New(path)
		if err != nil {
			return r, false, err
		}
		defer doc.Close()
		r.Kind = project.KindVideo
		r.MimeType = MimePDF
		r.DurationMs = int64(doc.NumPage()) * opts.PageDuration.Milliseconds()
		if b, err := doc.Bound(0); err == nil {
			r.Width, r.Height = b.Dx(), b.Dy()
		}
		return r, true, nil

	case system.HasExt(path, ImageExts...):
		src, err := NewImageSource(path)
		if err != nil {
			return r, false, err
		}
		r.Kind = project.KindVideo
		r.MimeType = detect(path, "image/", "image/png")
		r.Width, r.Height, err = src.PageSize(0)
		return r, true, err
	}
	return r, false, nil
}

// detect sniffs the content type and falls back when it is outside family.
func detect(path, family, fallback string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil || !strings.HasPrefix(m.String(), family) {
		return fallback
	}
	return m.String()
}
