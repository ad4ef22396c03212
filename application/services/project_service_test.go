package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/domain/events"
	"storycanvas/infrastructure/persistence/memory"
	pkgerrors "storycanvas/pkg/errors"
)

func newService(t *testing.T) (*ProjectService, *memory.EventRecorder, *aggregates.Project) {
	t.Helper()
	recorder := memory.NewEventRecorder()
	svc := NewProjectService(memory.NewProjectRepository(), recorder, zap.NewNop())
	p, err := svc.CreateProject(context.Background(), "Backend")
	require.NoError(t, err)
	return svc, recorder, p
}

func TestProjectService_CreateAssignsServerIDs(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	actID := p.CurrentActID

	pp, err := svc.CreatePlotPoint(ctx, p.ID, actID, entities.PlotPoint{
		ID:       "temp-abc",
		Title:    "Hook",
		Position: valueobjects.MustPosition(1, 2),
		Scenes:   []entities.Scene{{ID: "ignored", Title: "x"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, "temp-abc", pp.ID)
	assert.False(t, valueobjects.IsTempID(pp.ID))
	assert.Empty(t, pp.Scenes)
	assert.Equal(t, entities.DefaultPlotPointColor, pp.Color)

	scene, err := svc.CreateScene(ctx, p.ID, actID, pp.ID, entities.Scene{ID: "local", Title: "Opening"})
	require.NoError(t, err)
	assert.NotEqual(t, "local", scene.ID)

	stored, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.PlotPoints, 1)
	assert.Equal(t, scene.ID, stored.PlotPoints[0].Scenes[0].ID)
	assert.Equal(t, 3, stored.Version)
}

func TestProjectService_UpdateUnknownIsNotFound(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"act", func() error { return svc.UpdateAct(ctx, p.ID, entities.Act{ID: "nope", Name: "x"}) }},
		{"character", func() error { return svc.UpdateCharacter(ctx, p.ID, entities.Character{ID: "nope", Name: "x"}) }},
		{"plot point", func() error {
			return svc.UpdatePlotPoint(ctx, p.ID, p.CurrentActID, entities.PlotPoint{ID: "nope"})
		}},
		{"scene", func() error {
			return svc.UpdateScene(ctx, p.ID, p.CurrentActID, "nope", entities.Scene{ID: "nope"})
		}},
		{"project", func() error {
			return svc.UpdateProject(ctx, "missing", ports.ProjectMeta{Title: "x"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, pkgerrors.IsNotFound(err), "got %v", err)
			assert.Equal(t, 404, pkgerrors.StatusCode(err))
		})
	}
}

func TestProjectService_UpdatePlotPointKeepsScenes(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	pp, err := svc.CreatePlotPoint(ctx, p.ID, p.CurrentActID, entities.PlotPoint{Title: "A"})
	require.NoError(t, err)
	_, err = svc.CreateScene(ctx, p.ID, p.CurrentActID, pp.ID, entities.Scene{Title: "S"})
	require.NoError(t, err)

	pp.Title = "A2"
	pp.Scenes = nil
	require.NoError(t, svc.UpdatePlotPoint(ctx, p.ID, p.CurrentActID, pp))

	stored, _ := svc.GetProject(ctx, p.ID)
	assert.Equal(t, "A2", stored.PlotPoints[0].Title)
	assert.Len(t, stored.PlotPoints[0].Scenes, 1)
}

func TestProjectService_DeleteActCascades(t *testing.T) {
	svc, recorder, p := newService(t)
	ctx := context.Background()
	act, err := svc.CreateAct(ctx, p.ID, entities.Act{Name: "Act 2"})
	require.NoError(t, err)
	assert.Equal(t, 2, act.Order)
	_, err = svc.CreatePlotPoint(ctx, p.ID, act.ID, entities.PlotPoint{Title: "late"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAct(ctx, p.ID, act.ID))

	stored, _ := svc.GetProject(ctx, p.ID)
	assert.Len(t, stored.Acts, 1)
	assert.Empty(t, stored.PlotPoints)
	assert.Equal(t, []string{
		events.TypeProjectCreated,
		events.TypeEntityCreated,
		events.TypeEntityCreated,
		events.TypeEntityDeleted,
	}, recorder.Types())

	err = svc.DeleteAct(ctx, p.ID, p.CurrentActID)
	assert.True(t, pkgerrors.IsInvariant(err))
}

func TestProjectService_SceneMustBelongToPath(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	a, _ := svc.CreatePlotPoint(ctx, p.ID, p.CurrentActID, entities.PlotPoint{Title: "A"})
	b, _ := svc.CreatePlotPoint(ctx, p.ID, p.CurrentActID, entities.PlotPoint{Title: "B"})
	s, err := svc.CreateScene(ctx, p.ID, p.CurrentActID, a.ID, entities.Scene{Title: "S"})
	require.NoError(t, err)

	err = svc.DeleteScene(ctx, p.ID, p.CurrentActID, b.ID, s.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = svc.DeletePlotPoint(ctx, p.ID, "other-act", a.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProjectService_ValidatesMetaAndView(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()

	err := svc.UpdateProject(ctx, p.ID, ports.ProjectMeta{Title: "", Status: "draft"})
	assert.True(t, pkgerrors.IsValidation(err))

	err = svc.UpdateProjectView(ctx, p.ID, ports.ProjectView{CurrentZoomLevel: "WIDE", CurrentActID: p.CurrentActID})
	assert.True(t, pkgerrors.IsValidation(err))

	require.NoError(t, svc.UpdateProjectView(ctx, p.ID, ports.ProjectView{
		CurrentZoomLevel: valueobjects.ZoomPlotPointFocus,
		FocusedElementID: "anything",
		CurrentActID:     p.CurrentActID,
	}))
	stored, _ := svc.GetProject(ctx, p.ID)
	assert.Equal(t, valueobjects.ZoomPlotPointFocus, stored.CurrentZoomLevel)
}

func TestProjectService_DeleteCharacterClearsReferences(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCharacter(ctx, p.ID, entities.Character{Name: "Mara"})
	require.NoError(t, err)
	pp, _ := svc.CreatePlotPoint(ctx, p.ID, p.CurrentActID, entities.PlotPoint{Title: "A"})
	_, err = svc.CreateScene(ctx, p.ID, p.CurrentActID, pp.ID, entities.Scene{Title: "S", CharacterIDs: []string{c.ID}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCharacter(ctx, p.ID, c.ID))

	stored, _ := svc.GetProject(ctx, p.ID)
	assert.Empty(t, stored.Characters)
	assert.Empty(t, stored.PlotPoints[0].Scenes[0].CharacterIDs)
}
