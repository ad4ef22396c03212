package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject("The Long Night")
	require.NoError(t, err)
	return p
}

func addPlotPoint(t *testing.T, p *Project, actID string, x, y float64) entities.PlotPoint {
	t.Helper()
	pp, err := entities.NewPlotPoint("beat", actID, valueobjects.MustPosition(x, y))
	require.NoError(t, err)
	require.NoError(t, p.AddPlotPoint(pp))
	return pp
}

func TestNewProject(t *testing.T) {
	p := newTestProject(t)

	require.Len(t, p.Acts, 1)
	assert.Equal(t, DefaultActName, p.Acts[0].Name)
	assert.Equal(t, 1, p.Acts[0].Order)
	assert.Equal(t, p.Acts[0].ID, p.CurrentActID)
	assert.Equal(t, valueobjects.ZoomStoryOverview, p.CurrentZoomLevel)
	assert.Equal(t, StatusDraft, p.Status)
	assert.NoError(t, p.Validate())

	_, err := NewProject("   ")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProject_AddPlotPointRejectsTemporaryIDs(t *testing.T) {
	p := newTestProject(t)
	temp := entities.NewTempPlotPoint(p.CurrentActID, valueobjects.MustPosition(10, 10))

	err := p.AddPlotPoint(temp)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvariant(err))
	assert.Empty(t, p.PlotPoints)
}

func TestProject_ValidateDetectsTemporaryPlotPoints(t *testing.T) {
	p := newTestProject(t)
	p.PlotPoints = append(p.PlotPoints, entities.NewTempPlotPoint(p.CurrentActID, valueobjects.Origin))

	assert.True(t, pkgerrors.IsInvariant(p.Validate()))
}

func TestProject_RemoveActCascades(t *testing.T) {
	p := newTestProject(t)
	first := p.CurrentActID
	second, err := entities.NewAct("Act 2", 0)
	require.NoError(t, err)
	require.NoError(t, p.AddAct(second))
	assert.Equal(t, 2, p.Acts[1].Order)

	keep := addPlotPoint(t, p, first, 0, 0)
	gone := addPlotPoint(t, p, second.ID, 200, 0)
	require.NoError(t, p.SetCurrentAct(second.ID))

	removed, err := p.RemoveAct(second.ID)
	require.NoError(t, err)

	require.Len(t, removed, 1)
	assert.Equal(t, gone.ID, removed[0].ID)
	require.Len(t, p.PlotPoints, 1)
	assert.Equal(t, keep.ID, p.PlotPoints[0].ID)
	assert.Equal(t, first, p.CurrentActID)

	_, err = p.RemoveAct(first)
	assert.True(t, pkgerrors.IsInvariant(err), "last act cannot be removed")
}

func TestProject_RemoveCharacterClearsSceneReferences(t *testing.T) {
	p := newTestProject(t)
	hero, _ := entities.NewCharacter("Hero")
	villain, _ := entities.NewCharacter("Villain")
	require.NoError(t, p.AddCharacter(hero))
	require.NoError(t, p.AddCharacter(villain))

	pp := addPlotPoint(t, p, p.CurrentActID, 0, 0)
	for _, title := range []string{"S1", "S2"} {
		s, err := entities.NewScene(title)
		require.NoError(t, err)
		s.CharacterIDs = []string{hero.ID, villain.ID}
		require.NoError(t, p.AddScene(pp.ID, s))
	}

	require.NoError(t, p.RemoveCharacter(hero.ID))

	assert.Len(t, p.Characters, 1)
	for _, s := range p.PlotPoints[0].Scenes {
		assert.Equal(t, []string{villain.ID}, s.CharacterIDs)
	}
}

func TestProject_AddSceneRejectsUnknownCharacters(t *testing.T) {
	p := newTestProject(t)
	pp := addPlotPoint(t, p, p.CurrentActID, 0, 0)
	s, _ := entities.NewScene("S1")
	s.CharacterIDs = []string{"ghost"}

	err := p.AddScene(pp.ID, s)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProject_CloneDoesNotAlias(t *testing.T) {
	p := newTestProject(t)
	pp := addPlotPoint(t, p, p.CurrentActID, 5, 5)
	s, _ := entities.NewScene("S1")
	pos := valueobjects.MustPosition(1, 2)
	s.Position = &pos
	require.NoError(t, p.AddScene(pp.ID, s))

	snapshot := p.Clone()
	p.PlotPoints[0].Title = "changed"
	p.PlotPoints[0].Scenes[0].Position.X = 99
	p.PlotPoints[0].Scenes[0].CharacterIDs = append(p.PlotPoints[0].Scenes[0].CharacterIDs, "x")
	p.Tags = append(p.Tags, "noir")

	assert.Equal(t, "beat", snapshot.PlotPoints[0].Title)
	assert.Equal(t, 1.0, snapshot.PlotPoints[0].Scenes[0].Position.X)
	assert.Empty(t, snapshot.PlotPoints[0].Scenes[0].CharacterIDs)
	assert.Empty(t, snapshot.Tags)
}

func TestProject_RemapIDs(t *testing.T) {
	p := newTestProject(t)
	oldAct := p.CurrentActID
	hero, _ := entities.NewCharacter("Hero")
	require.NoError(t, p.AddCharacter(hero))
	pp := addPlotPoint(t, p, oldAct, 0, 0)
	s, _ := entities.NewScene("S1")
	s.CharacterIDs = []string{hero.ID}
	require.NoError(t, p.AddScene(pp.ID, s))
	p.FocusedElementID = s.ID

	p.RemapIDs(map[string]string{
		oldAct:  "act-real",
		hero.ID: "hero-real",
		pp.ID:   "pp-real",
		s.ID:    "scene-real",
	})

	assert.Equal(t, "act-real", p.CurrentActID)
	assert.Equal(t, "act-real", p.Acts[0].ID)
	assert.Equal(t, "hero-real", p.Characters[0].ID)
	assert.Equal(t, "pp-real", p.PlotPoints[0].ID)
	assert.Equal(t, "act-real", p.PlotPoints[0].ActID)
	assert.Equal(t, "scene-real", p.PlotPoints[0].Scenes[0].ID)
	assert.Equal(t, []string{"hero-real"}, p.PlotPoints[0].Scenes[0].CharacterIDs)
	assert.Equal(t, "scene-real", p.FocusedElementID)
	assert.NoError(t, p.Validate())
}

func TestProject_ActAtRank(t *testing.T) {
	p := newTestProject(t)
	third := entities.Act{ID: "a3", Name: "Act 3", Order: 3}
	second := entities.Act{ID: "a2", Name: "Act 2", Order: 2}
	require.NoError(t, p.AddAct(third))
	require.NoError(t, p.AddAct(second))

	act, ok := p.ActAtRank(2)
	require.True(t, ok)
	assert.Equal(t, "a2", act.ID)

	act, ok = p.ActAtRank(3)
	require.True(t, ok)
	assert.Equal(t, "a3", act.ID)

	_, ok = p.ActAtRank(4)
	assert.False(t, ok)
}

func TestProject_RemoveSceneClearsFocus(t *testing.T) {
	p := newTestProject(t)
	pp := addPlotPoint(t, p, p.CurrentActID, 0, 0)
	s, _ := entities.NewScene("S1")
	require.NoError(t, p.AddScene(pp.ID, s))
	require.NoError(t, p.SetView(valueobjects.ZoomSceneDetail, s.ID, ""))

	_, err := p.RemoveScene(s.ID)
	require.NoError(t, err)

	assert.Empty(t, p.FocusedElementID)
	assert.Empty(t, p.PlotPoints[0].Scenes)
}

func TestProject_UpdateMetadata(t *testing.T) {
	p := newTestProject(t)

	require.NoError(t, p.UpdateMetadata("New", "desc", []string{"a"}, StatusWriting))
	assert.Equal(t, "New", p.Title)
	assert.Equal(t, StatusWriting, p.Status)

	assert.True(t, pkgerrors.IsValidation(p.UpdateMetadata("New", "", nil, "finished")))
}
