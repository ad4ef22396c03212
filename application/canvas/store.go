// Package canvas holds the interactive state of an open project: the live
// model, the zoom state machine, expansion and selection, the temporary plot
// point, undo history and the rendered graph. A Store is created when a
// project is opened and closed when the user leaves it.
package canvas

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/application/projection"
	storysync "storycanvas/application/sync"
	"storycanvas/domain/config"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/services/layout"
	pkgerrors "storycanvas/pkg/errors"
	"storycanvas/pkg/observability"
	"storycanvas/pkg/schedule"
)

var errNoProject = pkgerrors.NewValidationError("no project is open")

// Deps are the collaborators of a Store. Backend, Pipeline and Backup may be nil
// for an offline canvas.
type Deps struct {
	Config    *config.DomainConfig
	Engine    *layout.Engine
	Backend   ports.StoryBackend
	Pipeline  *storysync.Pipeline
	Backup    ports.BackupStore
	Scheduler schedule.Scheduler
	View      View
	Logger    *zap.Logger
	Metrics   *observability.Collector
}

// Store is the single writer of the live model. Methods are safe to call from
// the UI goroutine while scheduler callbacks fire on timer goroutines.
type Store struct {
	cfg       *config.DomainConfig
	engine    *layout.Engine
	projector *projection.Projector
	backend   ports.StoryBackend
	pipeline  *storysync.Pipeline
	backup    ports.BackupStore
	sched     schedule.Scheduler
	view      View
	logger    *zap.Logger
	metrics   *observability.Collector

	mu             sync.Mutex
	ctx            context.Context
	project        *aggregates.Project
	revision       uint64
	expandedID     string
	selectedID     string
	temp           *entities.PlotPoint
	rendered       projection.Graph
	undo           *UndoManager
	guarded        bool
	suppressed     bool
	settle         schedule.Cancel
	plotPointCount int
	timers         []schedule.Cancel
	// syncedIDs maps client ids to the ids the backend assigned
	syncedIDs map[string]string
}

// NewStore wires a store. Nothing is loaded until Load or Open is called.
func NewStore(d Deps) *Store {
	if d.Config == nil {
		d.Config = config.DefaultDomainConfig()
	}
	if d.Engine == nil {
		d.Engine = layout.NewEngine(d.Config, nil)
	}
	if d.Scheduler == nil {
		d.Scheduler = schedule.Real{}
	}
	if d.View == nil {
		d.View = NopView{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	s := &Store{
		cfg:       d.Config,
		engine:    d.Engine,
		projector: projection.NewProjector(d.Engine),
		backend:   d.Backend,
		pipeline:  d.Pipeline,
		backup:    d.Backup,
		sched:     d.Scheduler,
		view:      d.View,
		logger:    d.Logger,
		metrics:   d.Metrics,
		ctx:       context.Background(),
		rendered:  projection.Graph{Nodes: []projection.Node{}, Edges: []projection.Edge{}},
		undo:      NewUndoManager(d.Config.UndoCapacity),
		syncedIDs: make(map[string]string),
	}
	if s.pipeline != nil {
		s.pipeline.OnSynced(s.applySynced)
	}
	return s
}

// Load fetches a project from the backend and opens it. When the backend cannot
// answer, the local backup is used instead.
func (s *Store) Load(ctx context.Context, projectID string) error {
	if s.backend == nil {
		return s.loadBackup(ctx, projectID, pkgerrors.NewUnavailableError("backend", nil))
	}
	p, err := s.backend.GetProject(ctx, projectID)
	if err != nil {
		return s.loadBackup(ctx, projectID, err)
	}
	return s.open(ctx, p, true)
}

func (s *Store) loadBackup(ctx context.Context, projectID string, cause error) error {
	if s.backup == nil {
		return pkgerrors.Wrap(cause, "failed to load project")
	}
	p, err := s.backup.Load(ctx, projectID)
	if err != nil {
		s.logger.Error("Project unavailable from backend and backup",
			zap.String("project_id", projectID),
			zap.NamedError("backend_error", cause),
			zap.Error(err))
		return pkgerrors.Wrap(cause, "failed to load project")
	}
	s.logger.Warn("Backend unavailable, opened local backup",
		zap.String("project_id", projectID),
		zap.Error(cause))
	return s.open(ctx, p, false)
}

// Open installs a project the caller already holds. The project is treated as
// unsaved, so the first flush reconciles it in full.
func (s *Store) Open(ctx context.Context, p *aggregates.Project) error {
	return s.open(ctx, p, false)
}

func (s *Store) open(ctx context.Context, p *aggregates.Project, saved bool) error {
	if p == nil {
		return pkgerrors.NewValidationError("project is required")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.stopTimers()

	s.mu.Lock()
	s.ctx = ctx
	if s.pipeline != nil {
		if saved {
			s.pipeline.SetBaseline(p)
		} else {
			s.pipeline.SetBaseline(nil)
		}
	}
	s.project = p.Clone()
	zoom := InitialZoom()
	s.project.CurrentZoomLevel = zoom.Level
	s.project.FocusedElementID = zoom.FocusedID
	s.expandedID, s.selectedID, s.temp = "", "", nil
	s.undo.Clear()
	s.syncedIDs = make(map[string]string)
	s.cancelSettleLocked()
	s.guarded, s.suppressed = false, false
	s.revision++
	s.plotPointCount = len(s.project.PlotPoints)
	s.repairLocked()
	s.view.CloseProperties()
	s.renderLocked(false)
	snap, rev := s.project.Clone(), s.revision
	s.startTimersLocked()
	s.mu.Unlock()

	s.logger.Info("Project opened",
		zap.String("project_id", p.ID),
		zap.Int("plot_points", len(p.PlotPoints)),
		zap.Bool("from_backend", saved))
	s.publish(ctx, snap, rev, false)
	return nil
}

// Close tears the store down: timers stop, the pending snapshot is flushed, and
// zoom, selection and the temp entity are reset.
func (s *Store) Close(ctx context.Context) error {
	s.stopTimers()

	var err error
	if s.pipeline != nil {
		s.pipeline.Close()
		err = s.pipeline.Flush(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelSettleLocked()
	s.project = nil
	s.expandedID, s.selectedID, s.temp = "", "", nil
	s.guarded, s.suppressed = false, false
	s.undo.Clear()
	s.syncedIDs = make(map[string]string)
	s.view.CloseProperties()
	s.renderLocked(false)
	return err
}

// Flush pushes the pending snapshot now
func (s *Store) Flush(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}
	return s.pipeline.Flush(ctx)
}

// Project returns a deep copy of the live model, or nil when nothing is open
func (s *Store) Project() *aggregates.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Zoom returns the current zoom state
func (s *Store) Zoom() ZoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoomLocked()
}

// ExpandedID returns the plot point whose scenes are shown at the overview
func (s *Store) ExpandedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expandedID
}

// SelectedID returns the selected node id
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Graph returns the last projected graph
func (s *Store) Graph() projection.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return projection.Graph{
		Nodes: append([]projection.Node(nil), s.rendered.Nodes...),
		Edges: append([]projection.Edge(nil), s.rendered.Edges...),
	}
}

// Revision increases with every local mutation
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// UndoDepth returns the number of snapshots that can be restored
func (s *Store) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.Len()
}

func (s *Store) zoomLocked() ZoomState {
	if s.project == nil {
		return InitialZoom()
	}
	return ZoomState{Level: s.project.CurrentZoomLevel, FocusedID: s.project.FocusedElementID}
}

// mutation describes how a change is committed
type mutation struct {
	snapshot  bool
	immediate bool
	animate   bool
}

// mutate applies fn to a copy of the live model and swaps it in when fn succeeds.
// fn runs under the lock and may also adjust store fields once it can no longer fail.
func (s *Store) mutate(m mutation, fn func(next *aggregates.Project) error) error {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return errNoProject
	}
	prev := s.project
	prevExpanded := s.expandedID
	next := prev.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if m.snapshot {
		s.undo.Push(prev, prevExpanded)
	}
	s.project = next
	snap, rev, ctx := s.commitLocked(m.animate)
	s.mu.Unlock()

	s.publish(ctx, snap, rev, m.immediate)
	return nil
}

// commitLocked bumps the revision, repairs overlaps when the plot-point count
// changed, and reprojects
func (s *Store) commitLocked(animate bool) (*aggregates.Project, uint64, context.Context) {
	s.revision++
	s.project.Touch(time.Now())
	if n := len(s.project.PlotPoints); n != s.plotPointCount {
		s.plotPointCount = n
		s.repairLocked()
	}
	s.dropStaleSelectionLocked()
	s.reprojectLocked(animate)
	return s.project.Clone(), s.revision, s.ctx
}

func (s *Store) repairLocked() {
	report := s.engine.RepairOverlaps(s.project)
	if report.Changed() {
		s.metrics.AddRepairs(report.PlotPointsMoved + report.ScenesMoved)
		s.logger.Info("Repaired overlapping positions",
			zap.String("project_id", s.project.ID),
			zap.Int("plot_points_moved", report.PlotPointsMoved),
			zap.Int("scenes_moved", report.ScenesMoved))
	}
}

func (s *Store) dropStaleSelectionLocked() {
	if s.expandedID != "" && s.project.PlotPointIndex(s.expandedID) < 0 &&
		(s.temp == nil || s.temp.ID != s.expandedID) {
		s.expandedID = ""
	}
}

// reprojectLocked is the reactive path. While the undo guard is set it only
// records that a rebuild is owed.
func (s *Store) reprojectLocked(animate bool) {
	if s.guarded {
		s.suppressed = true
		return
	}
	s.renderLocked(animate)
}

// renderLocked projects the model and diff-applies it to the view
func (s *Store) renderLocked(animate bool) {
	var g projection.Graph
	if s.project == nil {
		g = projection.Graph{Nodes: []projection.Node{}, Edges: []projection.Edge{}}
	} else {
		g = s.projector.Project(projection.InputFor(s.project, s.expandedID, s.temp))
	}
	d := projection.Diff(s.rendered, g)
	s.rendered = g
	if !d.IsEmpty() {
		s.view.ApplyGraph(d, animate)
	}
	if s.selectedID != "" {
		if _, ok := g.Node(s.selectedID); !ok {
			s.selectedID = ""
			s.view.CloseProperties()
		}
	}
}

// publish writes the backup and queues the snapshot for sync
func (s *Store) publish(ctx context.Context, snap *aggregates.Project, revision uint64, immediate bool) {
	s.saveBackup(ctx, snap)
	if s.pipeline == nil {
		return
	}
	if err := s.pipeline.Enqueue(ctx, snap, revision, immediate); err != nil {
		s.logger.Warn("Immediate sync failed, snapshot stays pending",
			zap.String("project_id", snap.ID),
			zap.Uint64("revision", revision),
			zap.Error(err))
	}
}

func (s *Store) saveBackup(ctx context.Context, snap *aggregates.Project) {
	if s.backup == nil || snap == nil {
		return
	}
	if err := s.backup.Save(ctx, snap); err != nil {
		s.logger.Warn("Local backup failed",
			zap.String("project_id", snap.ID),
			zap.Error(err))
	}
}

// applySynced receives the canonical project after a content flush
func (s *Store) applySynced(res storysync.Result) {
	s.mu.Lock()
	if s.project == nil || res.Canonical == nil || res.Canonical.ID != s.project.ID {
		s.mu.Unlock()
		return
	}
	remap := func(id string) string {
		if to, ok := res.IDMap[id]; ok {
			return to
		}
		return id
	}

	for from, to := range res.IDMap {
		s.syncedIDs[from] = to
	}
	if res.Revision == s.revision {
		s.project = res.Canonical
	} else {
		s.project.RemapIDs(res.IDMap)
		if s.pipeline != nil {
			s.pipeline.RemapPending(res.IDMap)
		}
	}
	s.plotPointCount = len(s.project.PlotPoints)
	s.expandedID = remap(s.expandedID)
	s.selectedID = remap(s.selectedID)
	if s.temp != nil {
		s.temp.ActID = remap(s.temp.ActID)
	}
	s.undo.Remap(res.IDMap)
	s.reprojectLocked(false)
	snap, ctx := s.project.Clone(), s.ctx
	replaced := res.Revision == s.revision
	s.mu.Unlock()

	s.logger.Debug("Applied synced project",
		zap.String("project_id", snap.ID),
		zap.Bool("replaced", replaced),
		zap.Int("remapped_ids", len(res.IDMap)))
	s.saveBackup(ctx, snap)
}

func (s *Store) startTimersLocked() {
	if s.backup != nil && s.cfg.BackupInterval > 0 {
		s.timers = append(s.timers, schedule.Every(s.sched, s.cfg.BackupInterval, s.backupTick))
	}
	if s.cfg.AutoPromoteInterval > 0 {
		s.timers = append(s.timers, schedule.Every(s.sched, s.cfg.AutoPromoteInterval, s.autoPromote))
	}
}

func (s *Store) stopTimers() {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, cancel := range timers {
		cancel()
	}
}

func (s *Store) backupTick() {
	s.mu.Lock()
	snap, ctx := s.project.Clone(), s.ctx
	s.mu.Unlock()
	s.saveBackup(ctx, snap)
}

func (s *Store) cancelSettleLocked() {
	if s.settle != nil {
		s.settle()
		s.settle = nil
	}
}
