// Package sync pushes local story edits to the backend. Mutations are
// classified against the last saved snapshot, queued with a debounce, flushed
// one at a time and reconciled parent-first so children can reference the
// ids the backend assigned to their parents.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/pkg/observability"
	"storycanvas/pkg/schedule"
)

// Snapshot is a queued project copy tagged with the store revision that produced it
type Snapshot struct {
	Project  *aggregates.Project
	Revision uint64
}

// Result is handed to the store after a successful content sync
type Result struct {
	Canonical *aggregates.Project
	IDMap     map[string]string
	Revision  uint64
}

// Pipeline serializes flushes to a StoryBackend. The queue holds a single entry:
// every Enqueue replaces it, so intermediate states are dropped under load.
type Pipeline struct {
	backend ports.StoryBackend
	sched   schedule.Scheduler
	delay   time.Duration
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
	baseCtx context.Context

	mu        gosync.Mutex
	pending   *Snapshot
	cancel    schedule.Cancel
	busy      bool
	followUp  bool
	lastSaved *aggregates.Project
	onSynced  func(Result)
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records flush metrics
func WithMetrics(c *observability.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithContext sets the context used by debounced flushes
func WithContext(ctx context.Context) Option {
	return func(p *Pipeline) { p.baseCtx = ctx }
}

// NewPipeline creates a sync pipeline
func NewPipeline(backend ports.StoryBackend, sched schedule.Scheduler, delay time.Duration, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		backend: backend,
		sched:   sched,
		delay:   delay,
		logger:  logger,
		tracer:  otel.Tracer(observability.TracerName),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnSynced registers the callback receiving content sync results.
// It runs on the flushing goroutine without pipeline locks held.
func (p *Pipeline) OnSynced(fn func(Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSynced = fn
}

// SetBaseline records the snapshot known to match the backend, typically right after a load
func (p *Pipeline) SetBaseline(project *aggregates.Project) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSaved = project.Clone()
}

// Baseline returns a copy of the last saved snapshot
func (p *Pipeline) Baseline() *aggregates.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSaved.Clone()
}

// Pending returns the queued snapshot, if any
func (p *Pipeline) Pending() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return nil
	}
	return &Snapshot{Project: p.pending.Project.Clone(), Revision: p.pending.Revision}
}

// Busy reports whether a flush is running
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Enqueue replaces the pending entry with a copy of project and restarts the debounce.
// With immediate set the flush runs synchronously on the caller.
func (p *Pipeline) Enqueue(ctx context.Context, project *aggregates.Project, revision uint64, immediate bool) error {
	p.mu.Lock()
	p.pending = &Snapshot{Project: project.Clone(), Revision: revision}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if !immediate {
		p.cancel = p.sched.AfterFunc(p.delay, func() {
			_ = p.Flush(p.baseCtx)
		})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.Flush(ctx)
}

// RemapPending rewrites ids inside the queued snapshot
func (p *Pipeline) RemapPending(idMap map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.pending.Project.RemapIDs(idMap)
	}
}

// Close cancels an outstanding debounce. The pending entry is kept.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Flush syncs the pending entry. A call made while another flush runs only marks
// a follow-up, which runs once the current flush ends.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.busy {
		p.followUp = true
		p.mu.Unlock()
		return nil
	}
	snap := p.pending
	if snap == nil {
		p.mu.Unlock()
		return nil
	}
	p.pending = nil
	p.busy = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	baseline := p.lastSaved
	p.mu.Unlock()

	kind := Classify(baseline, snap.Project)
	result, err := p.run(ctx, kind, baseline, snap)

	p.mu.Lock()
	if err != nil {
		// Keep the snapshot for the next flush unless a newer one arrived.
		if p.pending == nil {
			p.pending = snap
		}
	} else if result.saved != nil {
		p.lastSaved = result.saved
	}
	callback := p.onSynced
	p.mu.Unlock()

	// Still busy: a flush requested while the callback remaps the pending
	// entry becomes a follow-up instead of pushing stale ids.
	if err == nil && result.canonical != nil && callback != nil {
		callback(Result{Canonical: result.canonical.Clone(), IDMap: result.idMap, Revision: snap.Revision})
	}

	p.mu.Lock()
	p.busy = false
	again := p.followUp
	p.followUp = false
	p.mu.Unlock()

	if again {
		if ferr := p.Flush(ctx); err == nil {
			err = ferr
		}
	}
	return err
}

type flushResult struct {
	saved     *aggregates.Project
	canonical *aggregates.Project
	idMap     map[string]string
}

func (p *Pipeline) run(ctx context.Context, kind ChangeKind, baseline *aggregates.Project, snap *Snapshot) (flushResult, error) {
	if kind == ChangeNone {
		return flushResult{}, nil
	}

	ctx, span := p.tracer.Start(ctx, "sync.flush", trace.WithAttributes(
		attribute.String("project.id", snap.Project.ID),
		attribute.String("sync.kind", string(kind)),
		attribute.Int64("sync.revision", int64(snap.Revision)),
	))
	defer span.End()

	start := time.Now()
	var (
		res flushResult
		err error
	)
	switch kind {
	case ChangeLightweight:
		err = p.backend.UpdateProjectView(ctx, snap.Project.ID, ports.ViewOf(snap.Project))
		if err == nil {
			saved := baseline.Clone()
			saved.CurrentZoomLevel = snap.Project.CurrentZoomLevel
			saved.FocusedElementID = snap.Project.FocusedElementID
			saved.CurrentActID = snap.Project.CurrentActID
			res.saved = saved
		}
	case ChangeContent:
		res, err = p.reconcile(ctx, snap.Project)
	}
	p.metrics.RecordFlush(string(kind), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("sync flush failed, snapshot stays pending",
			zap.String("project_id", snap.Project.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return flushResult{}, err
	}

	p.logger.Debug("sync flush completed",
		zap.String("project_id", snap.Project.ID),
		zap.String("kind", string(kind)),
		zap.Int("remapped_ids", len(res.idMap)),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}
