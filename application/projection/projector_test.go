package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/domain/config"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/domain/services/layout"
)

type fixture struct {
	project *aggregates.Project
	actTwo  string
	p1, p2  string
	s1, s2  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	p, err := aggregates.NewProject("Projection")
	require.NoError(t, err)

	act2 := entities.Act{ID: "act-2", Name: "Act 2", Order: 2}
	require.NoError(t, p.AddAct(act2))

	hero := entities.Character{ID: "hero", Name: "Hero", Color: "#f00"}
	require.NoError(t, p.AddCharacter(hero))

	p1 := entities.PlotPoint{ID: "p1", Title: "Opening", Position: valueobjects.MustPosition(100, 100), ActID: p.CurrentActID, Color: "#111"}
	p2 := entities.PlotPoint{ID: "p2", Title: "Turn", Position: valueobjects.MustPosition(400, 100), ActID: p.CurrentActID, Color: "#222"}
	other := entities.PlotPoint{ID: "p3", Title: "Elsewhere", Position: valueobjects.MustPosition(0, 0), ActID: act2.ID}
	for _, pp := range []entities.PlotPoint{p1, p2, other} {
		require.NoError(t, p.AddPlotPoint(pp))
	}

	s1 := entities.Scene{
		ID:           "s1",
		Title:        "Dock",
		CharacterIDs: []string{"hero"},
		Setting:      entities.Setting{Name: "Harbor"},
		Items:        []entities.Item{{ID: "key", Name: "Key"}},
	}
	s2 := entities.Scene{ID: "s2", Title: "Bar"}
	require.NoError(t, p.AddScene("p1", s1))
	require.NoError(t, p.AddScene("p1", s2))
	require.NoError(t, p.AddScene("p3", entities.Scene{ID: "s3", Title: "Hidden"}))

	return fixture{project: p, actTwo: act2.ID, p1: "p1", p2: "p2", s1: "s1", s2: "s2"}
}

func newProjector() *Projector {
	return NewProjector(layout.NewSeededEngine(config.DefaultDomainConfig(), 1))
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestProject_OverviewShowsOnlyActivePlotPoints(t *testing.T) {
	f := newFixture(t)

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomStoryOverview})

	assert.Equal(t, []string{"p1", "p2"}, ids(g.Nodes))
	assert.Empty(t, g.Edges)
}

func TestProject_ExpandedPlotPointShowsScenesAtOverview(t *testing.T) {
	f := newFixture(t)

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomStoryOverview, ExpandedID: f.p1})

	assert.Equal(t, []string{"p1", "s1", "s2", "p2"}, ids(g.Nodes))
	require.Len(t, g.Edges, 2)
	for _, e := range g.Edges {
		assert.Equal(t, "p1", e.Source)
		assert.Equal(t, EdgeContains, e.Kind)
	}
	node, ok := g.Node("p1")
	require.True(t, ok)
	assert.True(t, node.Expanded)
}

func TestProject_FocusLevelShowsAllScenesWithoutDetails(t *testing.T) {
	f := newFixture(t)

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomPlotPointFocus, FocusedID: f.s1})

	assert.Equal(t, []string{"p1", "s1", "s2", "p2"}, ids(g.Nodes))
}

func TestProject_SceneDetailOnlyForFocusedScene(t *testing.T) {
	f := newFixture(t)

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomSceneDetail, FocusedID: f.s1})

	assert.Equal(t, []string{
		"p1", "s1",
		CharacterNodeID("s1", "hero"),
		SettingNodeID("s1"),
		ItemNodeID("s1", "key"),
		"s2", "p2",
	}, ids(g.Nodes))

	char, _ := g.Node(CharacterNodeID("s1", "hero"))
	assert.Equal(t, KindCharacter, char.Kind)
	assert.Equal(t, "hero", char.EntityID)
	assert.Equal(t, "s1", char.ParentID)
	assert.True(t, char.Kind.IsDetail())

	// no details for the sibling scene
	for _, n := range g.Nodes {
		if n.Kind.IsDetail() {
			assert.Equal(t, "s1", n.ParentID)
		}
	}
}

func TestProject_SkipsDanglingCharacterReferences(t *testing.T) {
	f := newFixture(t)
	scene, _, ok := f.project.Scene(f.s1)
	require.True(t, ok)
	scene.CharacterIDs = append(scene.CharacterIDs, "removed")

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomSceneDetail, FocusedID: f.s1})

	assert.Len(t, g.NodesOfKind(KindCharacter), 1)
}

func TestProject_SatellitePositions(t *testing.T) {
	p, err := aggregates.NewProject("Satellites")
	require.NoError(t, err)
	pp := entities.PlotPoint{ID: "pp", Position: valueobjects.MustPosition(100, 100), ActID: p.CurrentActID}
	require.NoError(t, p.AddPlotPoint(pp))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.AddScene("pp", entities.Scene{ID: id, Title: id}))
	}

	g := newProjector().Project(Input{Project: p, Zoom: valueobjects.ZoomPlotPointFocus})
	scenes := g.NodesOfKind(KindScene)
	require.Len(t, scenes, 3)

	for i, n := range scenes {
		theta := float64(i) * 2 * math.Pi / 3
		assert.InDelta(t, 100+120*math.Cos(theta), n.Position.X, 1e-9)
		assert.InDelta(t, 100+120*math.Sin(theta), n.Position.Y, 1e-9)
	}
}

func TestProject_StoredScenePositionWins(t *testing.T) {
	f := newFixture(t)
	scene, _, _ := f.project.Scene(f.s2)
	pos := valueobjects.MustPosition(7, 8)
	scene.Position = &pos

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomPlotPointFocus})

	n, ok := g.Node(f.s2)
	require.True(t, ok)
	assert.Equal(t, pos, n.Position)
}

func TestProject_TempEntity(t *testing.T) {
	f := newFixture(t)
	temp := entities.NewTempPlotPoint(f.project.CurrentActID, valueobjects.MustPosition(900, 900))
	temp.Scenes = []entities.Scene{{ID: "ts", Title: "draft"}}

	g := newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomStoryOverview, ExpandedID: temp.ID, Temp: &temp})

	assert.Equal(t, []string{"p1", "p2", temp.ID, "ts"}, ids(g.Nodes))
	last, _ := g.Node(temp.ID)
	assert.True(t, last.Temporary)

	otherAct := entities.NewTempPlotPoint(f.actTwo, valueobjects.Origin)
	g = newProjector().Project(Input{Project: f.project, Zoom: valueobjects.ZoomStoryOverview, Temp: &otherAct})
	assert.Equal(t, []string{"p1", "p2"}, ids(g.Nodes))
}

func TestProject_IsReferentiallyTransparent(t *testing.T) {
	f := newFixture(t)
	in := Input{Project: f.project, Zoom: valueobjects.ZoomSceneDetail, FocusedID: f.s1, ExpandedID: f.p2}

	pr := newProjector()
	assert.Equal(t, pr.Project(in), pr.Project(in))
	assert.Equal(t, pr.Project(in), newProjector().Project(in))
}

func TestProject_SwitchingActs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.project.SetCurrentAct(f.actTwo))

	g := newProjector().Project(InputFor(f.project, "", nil))

	assert.Equal(t, []string{"p3"}, ids(g.Nodes))
}
