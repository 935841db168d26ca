package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/nle/internal/compositor"
	"github.com/ivlev/nle/internal/project"
)

// Preview is an editing session: the current project revision, the playhead and
// the coordinator that keeps the presented frame in sync with both.
type Preview struct {
	log   *logrus.Entry
	coord *Coordinator

	writeMu  sync.Mutex
	project  atomic.Pointer[project.Project]
	playhead atomic.Int64
}

// NewPreview wires comp and handles into a coordinator that presents to present.
func NewPreview(log *logrus.Entry, p project.Project, comp *compositor.Compositor, handles compositor.Provider, mode compositor.ClearMode, present PresentFunc) *Preview {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	pv := &Preview{log: log.WithField("component", "preview")}
	pv.project.Store(&p)

	render := func(ctx context.Context, playheadMs int64, canvas *compositor.Canvas) error {
		return comp.ComposeFrame(ctx, *pv.project.Load(), playheadMs, canvas, mode, handles)
	}
	pv.coord = NewCoordinator(log, render, present)
	return pv
}

// Project returns the current revision.
func (pv *Preview) Project() project.Project { return *pv.project.Load() }

// Playhead returns the current playhead in milliseconds.
func (pv *Preview) Playhead() int64 { return pv.playhead.Load() }

// Coordinator exposes the underlying render coordinator.
func (pv *Preview) Coordinator() *Coordinator { return pv.coord }

// SetProject installs a new revision and re-renders the current playhead.
func (pv *Preview) SetProject(p project.Project) {
	pv.writeMu.Lock()
	pv.project.Store(&p)
	pv.writeMu.Unlock()
	pv.coord.RequestRender(pv.playhead.Load())
}

// Apply runs an edit against the current revision. On success the result
// becomes current and is re-rendered; on failure nothing changes.
func (pv *Preview) Apply(op func(project.Project) (project.Project, error)) error {
	pv.writeMu.Lock()
	next, err := op(*pv.project.Load())
	if err != nil {
		pv.writeMu.Unlock()
		code := project.CodeOf(err)
		pv.log.WithError(err).WithField("code", code).Debug(code.Hint())
		return err
	}
	pv.project.Store(&next)
	pv.writeMu.Unlock()

	pv.coord.RequestRender(pv.playhead.Load())
	return nil
}

// SeekTo moves the playhead, clamped at 0, and requests a frame for it.
func (pv *Preview) SeekTo(playheadMs int64) {
	if playheadMs < 0 {
		playheadMs = 0
	}
	pv.playhead.Store(playheadMs)
	pv.coord.RequestRender(playheadMs)
}

// Close stops rendering.
func (pv *Preview) Close() { pv.coord.Close() }
