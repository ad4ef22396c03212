package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/domain/config"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
)

func newEngine() *Engine {
	return NewSeededEngine(config.DefaultDomainConfig(), 42)
}

func TestAllocate_EmptyCanvasUsesDefaultOrigin(t *testing.T) {
	e := newEngine()
	assert.Equal(t, valueobjects.MustPosition(400, 300), e.Allocate(nil))
}

func TestAllocate_IgnoresInvalidPositions(t *testing.T) {
	e := newEngine()
	got := e.Allocate([]valueobjects.Position{{X: math.NaN(), Y: 1}})
	assert.Equal(t, e.DefaultOrigin(), got)
}

func TestAllocate_NoCollisions(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	e := NewSeededEngine(cfg, 7)

	var placed []valueobjects.Position
	for i := 0; i < 40; i++ {
		placed = append(placed, e.Allocate(placed))
	}

	seen := map[string]bool{}
	for i, a := range placed {
		assert.False(t, seen[a.Key()], "position %d duplicates an earlier one", i)
		seen[a.Key()] = true
		for j := i + 1; j < len(placed); j++ {
			assert.Greater(t, a.DistanceTo(placed[j]), cfg.MinSeparation, "positions %d and %d too close", i, j)
		}
	}
}

func TestAllocate_FallbackIsSeeded(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxSearchRadius = 10 // below MinSeparation, so the ring search never runs
	existing := []valueobjects.Position{valueobjects.MustPosition(0, 0)}

	a := NewSeededEngine(cfg, 99).Allocate(existing)
	b := NewSeededEngine(cfg, 99).Allocate(existing)

	assert.Equal(t, a, b)
	assert.LessOrEqual(t, math.Abs(a.X), cfg.RandomFallbackSpan)
	assert.LessOrEqual(t, math.Abs(a.Y), cfg.RandomFallbackSpan)
}

func TestSatellitePosition(t *testing.T) {
	e := newEngine()
	center := valueobjects.MustPosition(100, 100)

	for i := 0; i < 3; i++ {
		theta := float64(i) * 2 * math.Pi / 3
		want := valueobjects.Position{X: 100 + 120*math.Cos(theta), Y: 100 + 120*math.Sin(theta)}
		got := e.SatellitePosition(center, i, 3)
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
	}

	// n = 0 is treated as a single slot
	assert.True(t, e.SatellitePosition(center, 0, 0).Equals(valueobjects.MustPosition(220, 100)))
}

func TestDetailPosition_TypesDoNotCollide(t *testing.T) {
	e := newEngine()
	center := valueobjects.MustPosition(0, 0)

	char0 := e.DetailPosition(center, DetailCharacter, 0)
	item0 := e.DetailPosition(center, DetailItem, 0)
	setting := e.DetailPosition(center, DetailSetting, 0)
	char1 := e.DetailPosition(center, DetailCharacter, 1)

	assert.True(t, char0.Equals(valueobjects.MustPosition(60, 0)))
	assert.InDelta(t, 60, item0.Y, 1e-9)
	assert.InDelta(t, -60, setting.X, 1e-9)
	assert.InDelta(t, 60*math.Cos(math.Pi/8), char1.X, 1e-9)

	all := []valueobjects.Position{char0, item0, setting, char1}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, all[i].Equals(all[j]))
		}
	}
}

func projectWithPlotPoints(t *testing.T, positions ...valueobjects.Position) *aggregates.Project {
	t.Helper()
	p, err := aggregates.NewProject("repair")
	require.NoError(t, err)
	for _, pos := range positions {
		pp, err := entities.NewPlotPoint("pp", p.CurrentActID, pos)
		require.NoError(t, err)
		require.NoError(t, p.AddPlotPoint(pp))
	}
	return p
}

func TestRepairOverlaps_PlotPoints(t *testing.T) {
	e := newEngine()
	same := valueobjects.MustPosition(500, 500)
	p := projectWithPlotPoints(t, same, same, same, valueobjects.MustPosition(900, 900))

	report := e.RepairOverlaps(p)

	assert.Equal(t, 2, report.PlotPointsMoved)
	assert.True(t, p.PlotPoints[0].Position.Equals(same), "first member keeps its position")
	assert.True(t, p.PlotPoints[3].Position.Equals(valueobjects.MustPosition(900, 900)))

	keys := map[string]bool{}
	for _, pp := range p.PlotPoints {
		keys[pp.Position.Key()] = true
	}
	assert.Len(t, keys, 4)

	// grid starts at (100,100) with 200px cells
	assert.True(t, p.PlotPoints[1].Position.Equals(valueobjects.MustPosition(100, 100)))
	assert.True(t, p.PlotPoints[2].Position.Equals(valueobjects.MustPosition(300, 100)))

	assert.False(t, e.RepairOverlaps(p).Changed(), "repair is idempotent")
}

func TestRepairOverlaps_GridSkipsOccupiedCells(t *testing.T) {
	e := newEngine()
	p := projectWithPlotPoints(t,
		valueobjects.MustPosition(100, 100),
		valueobjects.MustPosition(700, 700),
		valueobjects.MustPosition(700, 700),
	)

	e.RepairOverlaps(p)

	assert.True(t, p.PlotPoints[2].Position.Equals(valueobjects.MustPosition(300, 100)))
}

func TestRepairOverlaps_GridWrapsAfterColumns(t *testing.T) {
	e := newEngine()
	same := valueobjects.MustPosition(2000, 2000)
	positions := make([]valueobjects.Position, 7)
	for i := range positions {
		positions[i] = same
	}
	p := projectWithPlotPoints(t, positions...)

	e.RepairOverlaps(p)

	assert.True(t, p.PlotPoints[6].Position.Equals(valueobjects.MustPosition(100, 300)))
}

func TestRepairOverlaps_ScenesAtOriginAlwaysMove(t *testing.T) {
	e := newEngine()
	p := projectWithPlotPoints(t, valueobjects.MustPosition(1000, 1000))

	origin := valueobjects.Origin
	dup := valueobjects.MustPosition(50, 50)
	scenes := []*valueobjects.Position{&origin, &dup, ptr(dup), nil}
	for i, pos := range scenes {
		s, err := entities.NewScene("s")
		require.NoError(t, err)
		s.Position = pos
		require.NoError(t, p.AddScene(p.PlotPoints[0].ID, s), "scene %d", i)
	}

	report := e.RepairOverlaps(p)

	assert.Equal(t, 0, report.PlotPointsMoved)
	assert.Equal(t, 2, report.ScenesMoved)

	got := p.PlotPoints[0].Scenes
	assert.False(t, got[0].Position.IsOrigin())
	assert.True(t, got[1].Position.Equals(dup))
	assert.False(t, got[2].Position.Equals(dup))
	assert.Nil(t, got[3].Position, "unpositioned scenes are left to the satellite formula")

	// scene grid anchored one cell off the plot point
	assert.True(t, got[0].Position.Equals(valueobjects.MustPosition(1100, 1100)))
	assert.True(t, got[2].Position.Equals(valueobjects.MustPosition(1200, 1100)))
}

func ptr(p valueobjects.Position) *valueobjects.Position { return &p }
