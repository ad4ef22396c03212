package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/application/services"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/infrastructure/persistence/memory"
	"storycanvas/pkg/observability"
	"storycanvas/pkg/schedule"
)

// recordingBackend wraps the real service, recording calls and injecting failures
type recordingBackend struct {
	ports.StoryBackend

	mu                  gosync.Mutex
	calls               []string
	failUpdateProject   error
	failCreateCharacter error
	duringUpdateProject func()
}

func (b *recordingBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *recordingBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *recordingBackend) count(call string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (b *recordingBackend) UpdateProject(ctx context.Context, id string, meta ports.ProjectMeta) error {
	b.record("UpdateProject")
	b.mu.Lock()
	fail, hook := b.failUpdateProject, b.duringUpdateProject
	b.duringUpdateProject = nil
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail != nil {
		return fail
	}
	return b.StoryBackend.UpdateProject(ctx, id, meta)
}

func (b *recordingBackend) UpdateProjectView(ctx context.Context, id string, view ports.ProjectView) error {
	b.record("UpdateProjectView")
	return b.StoryBackend.UpdateProjectView(ctx, id, view)
}

func (b *recordingBackend) CreateAct(ctx context.Context, id string, a entities.Act) (entities.Act, error) {
	b.record("CreateAct")
	return b.StoryBackend.CreateAct(ctx, id, a)
}

func (b *recordingBackend) CreateCharacter(ctx context.Context, id string, c entities.Character) (entities.Character, error) {
	b.record("CreateCharacter")
	if b.failCreateCharacter != nil {
		return entities.Character{}, b.failCreateCharacter
	}
	return b.StoryBackend.CreateCharacter(ctx, id, c)
}

func (b *recordingBackend) CreatePlotPoint(ctx context.Context, id, actID string, pp entities.PlotPoint) (entities.PlotPoint, error) {
	b.record("CreatePlotPoint")
	return b.StoryBackend.CreatePlotPoint(ctx, id, actID, pp)
}

func (b *recordingBackend) CreateScene(ctx context.Context, id, actID, ppID string, s entities.Scene) (entities.Scene, error) {
	b.record("CreateScene")
	return b.StoryBackend.CreateScene(ctx, id, actID, ppID, s)
}

func (b *recordingBackend) DeleteScene(ctx context.Context, id, actID, ppID, sceneID string) error {
	b.record("DeleteScene")
	return b.StoryBackend.DeleteScene(ctx, id, actID, ppID, sceneID)
}

func (b *recordingBackend) DeletePlotPoint(ctx context.Context, id, actID, ppID string) error {
	b.record("DeletePlotPoint")
	return b.StoryBackend.DeletePlotPoint(ctx, id, actID, ppID)
}

func (b *recordingBackend) DeleteAct(ctx context.Context, id, actID string) error {
	b.record("DeleteAct")
	return b.StoryBackend.DeleteAct(ctx, id, actID)
}

type harness struct {
	backend  *recordingBackend
	sched    *schedule.Manual
	pipeline *Pipeline
	baseline *aggregates.Project
	results  []Result
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := services.NewProjectService(memory.NewProjectRepository(), memory.NewEventRecorder(), zap.NewNop())
	created, err := svc.CreateProject(context.Background(), "Sync")
	require.NoError(t, err)

	h := &harness{
		backend: &recordingBackend{StoryBackend: svc},
		sched:   schedule.NewManual(),
	}
	h.pipeline = NewPipeline(h.backend, h.sched, time.Second, zap.NewNop(),
		WithMetrics(observability.NewCollector("test")))
	h.pipeline.SetBaseline(created)
	h.pipeline.OnSynced(func(r Result) { h.results = append(h.results, r) })
	h.baseline = created
	return h
}

func (h *harness) local() *aggregates.Project {
	return h.baseline.Clone()
}

func (h *harness) remote(t *testing.T) *aggregates.Project {
	t.Helper()
	p, err := h.backend.StoryBackend.GetProject(context.Background(), h.baseline.ID)
	require.NoError(t, err)
	return p
}

func TestClassify(t *testing.T) {
	base, err := aggregates.NewProject("Classify")
	require.NoError(t, err)
	require.NoError(t, base.AddPlotPoint(entities.PlotPoint{ID: "p1", Title: "A", ActID: base.CurrentActID}))

	zoomed := base.Clone()
	zoomed.CurrentZoomLevel = valueobjects.ZoomPlotPointFocus
	assert.Equal(t, ChangeLightweight, Classify(base, zoomed))

	retitled := base.Clone()
	retitled.PlotPoints[0].Title = "B"
	assert.Equal(t, ChangeContent, Classify(base, retitled))

	both := zoomed.Clone()
	both.Tags = []string{"noir"}
	assert.Equal(t, ChangeContent, Classify(base, both), "content wins over view")

	touched := base.Clone()
	touched.LastModified = touched.LastModified.Add(time.Hour)
	touched.Version = 99
	assert.Equal(t, ChangeNone, Classify(base, touched))

	assert.Equal(t, ChangeContent, Classify(nil, base))
}

func TestPipeline_DebounceReplacesPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.local()
	first.Title = "First"
	require.NoError(t, h.pipeline.Enqueue(ctx, first, 1, false))

	h.sched.Advance(500 * time.Millisecond)
	second := h.local()
	second.Title = "Second"
	require.NoError(t, h.pipeline.Enqueue(ctx, second, 2, false))

	// The first timer was canceled by the second mutation.
	h.sched.Advance(700 * time.Millisecond)
	assert.Empty(t, h.backend.Calls())

	h.sched.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, h.backend.count("UpdateProject"), "only the latest snapshot is flushed")
	assert.Equal(t, "Second", h.remote(t).Title)
	assert.Nil(t, h.pipeline.Pending())
	require.Len(t, h.results, 1)
	assert.Equal(t, uint64(2), h.results[0].Revision)
}

func TestPipeline_ImmediateFlushesSynchronously(t *testing.T) {
	h := newHarness(t)

	local := h.local()
	local.Description = "now"
	require.NoError(t, h.pipeline.Enqueue(context.Background(), local, 1, true))

	assert.Equal(t, "now", h.remote(t).Description)
	assert.Equal(t, 0, h.sched.Pending())
}

func TestPipeline_LightweightUsesViewUpdateOnly(t *testing.T) {
	h := newHarness(t)

	local := h.local()
	local.CurrentZoomLevel = valueobjects.ZoomPlotPointFocus
	require.NoError(t, h.pipeline.Enqueue(context.Background(), local, 1, true))

	assert.Equal(t, []string{"UpdateProjectView"}, h.backend.Calls())
	assert.Equal(t, valueobjects.ZoomPlotPointFocus, h.remote(t).CurrentZoomLevel)
	assert.Empty(t, h.results, "no canonical refetch for lightweight changes")
	assert.Equal(t, ChangeNone, Classify(h.pipeline.Baseline(), local))
}

func TestPipeline_NoChangeSkips(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.pipeline.Enqueue(context.Background(), h.local(), 1, true))

	assert.Empty(t, h.backend.Calls())
}

func TestPipeline_BusyFlushIsCoalesced(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.local()
	first.Title = "First"
	second := h.local()
	second.Title = "Second"

	h.backend.duringUpdateProject = func() {
		// Arrives mid-flush: must not run concurrently.
		require.NoError(t, h.pipeline.Enqueue(ctx, second, 2, true))
		assert.True(t, h.pipeline.Busy())
		assert.NotNil(t, h.pipeline.Pending())
	}

	require.NoError(t, h.pipeline.Enqueue(ctx, first, 1, true))

	assert.Equal(t, 2, h.backend.count("UpdateProject"), "follow-up flush ran after the first")
	assert.Equal(t, "Second", h.remote(t).Title)
	assert.False(t, h.pipeline.Busy())
	assert.Nil(t, h.pipeline.Pending())
}

func TestPipeline_FailedSyncKeepsSnapshotPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.failUpdateProject = errors.New("backend unavailable")

	local := h.local()
	local.Title = "Unsaved"
	err := h.pipeline.Enqueue(ctx, local, 1, true)
	require.Error(t, err)

	pending := h.pipeline.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, "Unsaved", pending.Project.Title)
	assert.Equal(t, "Sync", h.remote(t).Title)

	h.backend.failUpdateProject = nil
	require.NoError(t, h.pipeline.Flush(ctx))
	assert.Equal(t, "Unsaved", h.remote(t).Title)
	assert.Nil(t, h.pipeline.Pending())
}

func TestPipeline_ContentReconciliationRemapsIDs(t *testing.T) {
	h := newHarness(t)
	local := h.local()

	act := entities.Act{ID: "local-act", Name: "Act 2", Order: 2}
	require.NoError(t, local.AddAct(act))
	hero := entities.Character{ID: "local-hero", Name: "Hero"}
	require.NoError(t, local.AddCharacter(hero))
	pp := entities.PlotPoint{ID: "local-pp", Title: "Storm", ActID: act.ID, Color: entities.DefaultPlotPointColor, Position: valueobjects.MustPosition(10, 20)}
	require.NoError(t, local.AddPlotPoint(pp))
	require.NoError(t, local.AddScene(pp.ID, entities.Scene{ID: "local-scene", Title: "Deck", CharacterIDs: []string{hero.ID}}))
	require.NoError(t, local.SetCurrentAct(act.ID))

	require.NoError(t, h.pipeline.Enqueue(context.Background(), local, 7, true))

	calls := h.backend.Calls()
	assert.Equal(t, []string{"UpdateProject", "CreateAct", "CreateCharacter", "CreatePlotPoint", "CreateScene", "UpdateProjectView"}, calls)

	require.Len(t, h.results, 1)
	res := h.results[0]
	assert.Equal(t, uint64(7), res.Revision)
	for _, localID := range []string{"local-act", "local-hero", "local-pp", "local-scene"} {
		assert.Contains(t, res.IDMap, localID)
	}

	canonical := res.Canonical
	require.Len(t, canonical.PlotPoints, 1)
	got := canonical.PlotPoints[0]
	assert.Equal(t, res.IDMap["local-pp"], got.ID)
	assert.Equal(t, res.IDMap["local-act"], got.ActID)
	require.Len(t, got.Scenes, 1)
	assert.Equal(t, []string{res.IDMap["local-hero"]}, got.Scenes[0].CharacterIDs)
	assert.Equal(t, res.IDMap["local-act"], canonical.CurrentActID)

	remapped := local.Clone()
	remapped.RemapIDs(res.IDMap)
	assert.Equal(t, ChangeNone, Classify(h.pipeline.Baseline(), remapped))
}

func TestPipeline_DeletesRemoteOnlyEntities(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.backend.StoryBackend
	actID := h.baseline.CurrentActID

	keep, err := svc.CreatePlotPoint(ctx, h.baseline.ID, actID, entities.PlotPoint{Title: "keep"})
	require.NoError(t, err)
	drop, err := svc.CreatePlotPoint(ctx, h.baseline.ID, actID, entities.PlotPoint{Title: "drop", Position: valueobjects.MustPosition(300, 0)})
	require.NoError(t, err)
	_, err = svc.CreateScene(ctx, h.baseline.ID, actID, keep.ID, entities.Scene{Title: "gone"})
	require.NoError(t, err)
	act2, err := svc.CreateAct(ctx, h.baseline.ID, entities.Act{Name: "Act 2"})
	require.NoError(t, err)

	loaded := h.remote(t)
	h.pipeline.SetBaseline(loaded)

	local := loaded.Clone()
	local.PlotPoints[0].Scenes = nil
	_, err = local.RemovePlotPoint(drop.ID)
	require.NoError(t, err)
	_, err = local.RemoveAct(act2.ID)
	require.NoError(t, err)

	require.NoError(t, h.pipeline.Enqueue(ctx, local, 1, true))

	assert.Equal(t, 1, h.backend.count("DeleteScene"))
	assert.Equal(t, 1, h.backend.count("DeletePlotPoint"))
	assert.Equal(t, 1, h.backend.count("DeleteAct"))

	remote := h.remote(t)
	require.Len(t, remote.PlotPoints, 1)
	assert.Equal(t, keep.ID, remote.PlotPoints[0].ID)
	assert.Empty(t, remote.PlotPoints[0].Scenes)
	assert.Len(t, remote.Acts, 1)
}

func TestPipeline_EntityFailureIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.backend.failCreateCharacter = errors.New("rejected")
	local := h.local()

	require.NoError(t, local.AddCharacter(entities.Character{ID: "c", Name: "Ghost"}))
	require.NoError(t, local.AddPlotPoint(entities.PlotPoint{ID: "pp", Title: "Still synced", ActID: local.CurrentActID}))
	require.NoError(t, local.AddScene("pp", entities.Scene{ID: "s", Title: "Needs ghost", CharacterIDs: []string{"c"}}))
	require.NoError(t, local.AddScene("pp", entities.Scene{ID: "s2", Title: "Alone"}))

	require.NoError(t, h.pipeline.Enqueue(context.Background(), local, 1, true))

	remote := h.remote(t)
	assert.Empty(t, remote.Characters)
	require.Len(t, remote.PlotPoints, 1)
	assert.Equal(t, "Still synced", remote.PlotPoints[0].Title)
	require.Len(t, remote.PlotPoints[0].Scenes, 1)
	assert.Equal(t, "Alone", remote.PlotPoints[0].Scenes[0].Title)
	assert.Nil(t, h.pipeline.Pending(), "partial success is still a completed sync")
}

func TestPipeline_RemapPending(t *testing.T) {
	h := newHarness(t)
	local := h.local()
	require.NoError(t, local.AddPlotPoint(entities.PlotPoint{ID: "old", ActID: local.CurrentActID}))
	require.NoError(t, h.pipeline.Enqueue(context.Background(), local, 1, false))

	h.pipeline.RemapPending(map[string]string{"old": "new"})

	assert.Equal(t, "new", h.pipeline.Pending().Project.PlotPoints[0].ID)
	h.pipeline.Close()
	assert.Equal(t, 0, h.sched.Pending())
}

func TestPipeline_FlushDuringSyncCallbackWaitsForRemap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.local()
	pp := entities.PlotPoint{ID: "local-pp", Title: "Draft", ActID: first.CurrentActID, Color: entities.DefaultPlotPointColor}
	require.NoError(t, first.AddPlotPoint(pp))
	second := first.Clone()
	second.PlotPoints[0].Title = "Revised"

	h.backend.duringUpdateProject = func() {
		require.NoError(t, h.pipeline.Enqueue(ctx, second, 2, false))
	}

	var busyInCallback []bool
	h.pipeline.OnSynced(func(r Result) {
		h.results = append(h.results, r)
		if len(h.results) > 1 {
			return
		}
		// The debounce comes due before the pending entry is remapped.
		h.sched.Advance(time.Second)
		busyInCallback = append(busyInCallback, h.pipeline.Busy())
		h.pipeline.RemapPending(r.IDMap)
	})

	require.NoError(t, h.pipeline.Enqueue(ctx, first, 1, true))

	assert.Equal(t, []bool{true}, busyInCallback)
	assert.Equal(t, 1, h.backend.count("CreatePlotPoint"))
	assert.Equal(t, 0, h.backend.count("DeletePlotPoint"))
	require.Len(t, h.results, 2)

	remote := h.remote(t)
	require.Len(t, remote.PlotPoints, 1)
	assert.Equal(t, h.results[0].IDMap["local-pp"], remote.PlotPoints[0].ID)
	assert.Equal(t, "Revised", remote.PlotPoints[0].Title)
	assert.False(t, h.pipeline.Busy())
	assert.Nil(t, h.pipeline.Pending())
}
