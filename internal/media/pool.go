// Package media owns the handles the compositor draws from: one lazily opened
// handle per resource id, backed by PDF pages, image sequences or stills.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/nle/internal/compositor"
	"github.com/ivlev/nle/internal/project"
)

// Options control how resources are opened.
type Options struct {
	PDFDPI          float64       // render resolution of PDF pages
	PageDuration    time.Duration // how long each PDF page stays on screen
	SequenceFPS     int           // playback rate of image sequences
	OpenConcurrency int           // parallel opens
}

func (o Options) withDefaults() Options {
	if o.PDFDPI <= 0 {
		o.PDFDPI = 96
	}
	if o.PageDuration <= 0 {
		o.PageDuration = 5 * time.Second
	}
	if o.SequenceFPS <= 0 {
		o.SequenceFPS = 30
	}
	if o.OpenConcurrency <= 0 {
		o.OpenConcurrency = 2
	}
	return o
}

// entry is the pool's handle for one resource. Until the background open
// finishes it reports not ready and the compositor skips it.
type entry struct {
	id   string
	done chan struct{}
	h    *PagedHandle
	err  error
}

func (e *entry) opened() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *entry) Ready() bool { return e.opened() && e.err == nil && e.h.Ready() }

func (e *entry) Seek(ctx context.Context, seconds float64) error {
	if !e.Ready() {
		return ErrNotReady
	}
	return e.h.Seek(ctx, seconds)
}

func (e *entry) Frame() image.Image {
	if !e.Ready() {
		return nil
	}
	return e.h.Frame()
}

// Pool keeps one handle per resource id. It implements compositor.Provider.
type Pool struct {
	log  *logrus.Entry
	repo Repository
	opts Options
	sem  chan struct{}

	mu        sync.Mutex
	resources map[string]project.Resource
	entries   map[string]*entry
	closed    bool
}

// NewPool returns an empty pool. Call Sync to register the project's resources.
func NewPool(log *logrus.Entry, repo Repository, opts Options) *Pool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = opts.withDefaults()
	return &Pool{
		log:       log.WithField("component", "media"),
		repo:      repo,
		opts:      opts,
		sem:       make(chan struct{}, opts.OpenConcurrency),
		resources: make(map[string]project.Resource),
		entries:   make(map[string]*entry),
	}
}

var _ compositor.Provider = (*Pool)(nil)

// Sync replaces the known resources with those of p. Handles of resources that
// disappeared or changed are closed in the background. It may run while a frame
// is being composed: a compose still holding a dropped handle waits for its
// seek to finish, and later seeks on it fail with ErrClosed.
func (p *Pool) Sync(pr project.Project) {
	p.mu.Lock()
	var stale []*entry
	for id, e := range p.entries {
		if r, ok := pr.Resources[id]; !ok || r != p.resources[id] {
			stale = append(stale, e)
			delete(p.entries, id)
		}
	}
	p.resources = make(map[string]project.Resource, len(pr.Resources))
	for id, r := range pr.Resources {
		p.resources[id] = r
	}
	p.mu.Unlock()

	for _, e := range stale {
		go p.closeEntry(e)
	}
}

// Handle returns the handle for resourceID, starting a background open on
// first use. Unknown resources, audio and failed opens are absent.
func (p *Pool) Handle(resourceID string) (compositor.Handle, bool) {
	e, ok := p.entry(resourceID)
	if !ok {
		return nil, false
	}
	if e.opened() && e.err != nil {
		return nil, false
	}
	return e, true
}

func (p *Pool) entry(resourceID string) (*entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false
	}
	if e, ok := p.entries[resourceID]; ok {
		return e, true
	}
	r, ok := p.resources[resourceID]
	if !ok || r.Kind != project.KindVideo {
		return nil, false
	}

	e := &entry{id: resourceID, done: make(chan struct{})}
	p.entries[resourceID] = e
	go p.open(e, r)
	return e, true
}

func (p *Pool) open(e *entry, r project.Resource) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()
	defer close(e.done)

	log := p.log.WithFields(logrus.Fields{"resource_id": r.ID, "mime": r.MimeType})
	start := time.Now()

	path, err := p.repo.Path(r)
	if err != nil {
		e.err = err
		log.WithError(err).Warn("[!] Ресурс не найден")
		return
	}
	src, pageAt, err := p.source(path, r)
	if err != nil {
		e.err = fmt.Errorf("open %s: %w", path, err)
		log.WithError(err).Warn("[!] Не удалось открыть ресурс")
		return
	}
	e.h = NewPagedHandle(src, pageAt)
	log.WithFields(logrus.Fields{"pages": src.PageCount(), "took": time.Since(start)}).Debug("resource opened")
}

func (p *Pool) source(path string, r project.Resource) (Source, PageFunc, error) {
	switch {
	case r.MimeType == MimePDF:
		src, err := NewPDFSource(path, p.opts.PDFDPI)
		return src, PagePerInterval(p.opts.PageDuration), err
	case r.MimeType == MimeImageSequence:
		src, err := NewImageSource(path)
		return src, PagesPerSecond(float64(p.opts.SequenceFPS)), err
	case strings.HasPrefix(r.MimeType, "image/"):
		src, err := NewImageSource(path)
		return src, FirstPage, err
	}
	return nil, nil, fmt.Errorf("unsupported media type %q", r.MimeType)
}

// Preload starts opening every id and waits until all have finished or ctx is
// done. Failed opens are joined into the error; the handles stay absent.
func (p *Pool) Preload(ctx context.Context, ids ...string) error {
	var errs []error
	for _, id := range ids {
		e, ok := p.entry(id)
		if !ok {
			continue
		}
		select {
		case <-e.done:
			if e.err != nil {
				errs = append(errs, fmt.Errorf("resource %s: %w", id, e.err))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

// PreloadProject preloads every video resource referenced by a clip of pr.
func (p *Pool) PreloadProject(ctx context.Context, pr project.Project) error {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range pr.Tracks {
		for _, c := range t.Clips {
			if id, ok := project.ResourceOf(c); ok && c.Kind() == project.KindVideo && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return p.Preload(ctx, ids...)
}

func (p *Pool) closeEntry(e *entry) error {
	<-e.done
	if e.h == nil {
		return nil
	}
	return e.h.Close()
}

// Close waits for pending opens and closes every handle.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	entries := p.entries
	p.entries = make(map[string]*entry)
	p.mu.Unlock()

	var errs []error
	for id, e := range entries {
		if err := p.closeEntry(e); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
