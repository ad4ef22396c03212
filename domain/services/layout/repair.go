package layout

import (
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/valueobjects"
)

// RepairReport counts the nodes moved by a repair pass
type RepairReport struct {
	PlotPointsMoved int
	ScenesMoved     int
}

// Changed reports whether the pass moved anything
func (r RepairReport) Changed() bool {
	return r.PlotPointsMoved > 0 || r.ScenesMoved > 0
}

// grid hands out row-major cells, skipping cells too close to occupied positions
type grid struct {
	engine    *Engine
	origin    valueobjects.Position
	cell      float64
	columns   int
	rowLimit  int
	clearance float64
	occupied  []valueobjects.Position
	next      int
}

func (g *grid) take() valueobjects.Position {
	for ; g.next < g.columns*g.rowLimit; g.next++ {
		row, col := g.next/g.columns, g.next%g.columns
		candidate := valueobjects.Position{
			X: g.origin.X + float64(col)*g.cell,
			Y: g.origin.Y + float64(row)*g.cell,
		}
		if isClear(candidate, g.occupied, g.clearance) {
			g.next++
			g.occupied = append(g.occupied, candidate)
			return candidate
		}
	}

	// Past the row limit: somewhere below the grid.
	beyond := valueobjects.Position{
		X: g.origin.X + float64(g.columns)*g.cell/2,
		Y: g.origin.Y + float64(g.rowLimit)*g.cell,
	}
	p := g.engine.randomAround(beyond, float64(g.columns)*g.cell/2)
	g.occupied = append(g.occupied, p)
	return p
}

// RepairOverlaps separates plot points sharing exact coordinates, then does the
// same for each plot point's positioned scenes. The first member of a group keeps
// its position. Scenes sitting on the canvas origin are always moved.
func (e *Engine) RepairOverlaps(p *aggregates.Project) RepairReport {
	var report RepairReport

	movers := duplicates(len(p.PlotPoints), func(i int) valueobjects.Position {
		return p.PlotPoints[i].Position
	}, false)
	if len(movers) > 0 {
		g := &grid{
			engine:    e,
			origin:    valueobjects.Position{X: e.cfg.GridOriginX, Y: e.cfg.GridOriginY},
			cell:      e.cfg.GridCellSize,
			columns:   e.cfg.GridColumns,
			rowLimit:  e.cfg.GridRowLimit,
			clearance: e.cfg.GridCellSize / 2,
			occupied:  p.Positions(),
		}
		for _, i := range movers {
			p.PlotPoints[i].Position = g.take()
			report.PlotPointsMoved++
		}
	}

	for pi := range p.PlotPoints {
		report.ScenesMoved += e.repairScenes(p, pi)
	}
	return report
}

func (e *Engine) repairScenes(p *aggregates.Project, pi int) int {
	pp := &p.PlotPoints[pi]

	// Only scenes with a stored position take part; the rest are placed by formula.
	var positioned []int
	for si, s := range pp.Scenes {
		if s.Position != nil {
			positioned = append(positioned, si)
		}
	}
	if len(positioned) == 0 {
		return 0
	}

	movers := duplicates(len(positioned), func(i int) valueobjects.Position {
		return *pp.Scenes[positioned[i]].Position
	}, true)
	if len(movers) == 0 {
		return 0
	}

	occupied := make([]valueobjects.Position, 0, len(positioned))
	for _, si := range positioned {
		if pos := *pp.Scenes[si].Position; !pos.IsOrigin() {
			occupied = append(occupied, pos)
		}
	}
	g := &grid{
		engine:    e,
		origin:    valueobjects.Position{X: pp.Position.X + e.cfg.SceneGridCell, Y: pp.Position.Y + e.cfg.SceneGridCell},
		cell:      e.cfg.SceneGridCell,
		columns:   e.cfg.SceneGridColumns,
		rowLimit:  e.cfg.GridRowLimit,
		clearance: e.cfg.SceneGridCell / 2,
		occupied:  occupied,
	}
	for _, i := range movers {
		pos := g.take()
		pp.Scenes[positioned[i]].Position = &pos
	}
	return len(movers)
}

// duplicates returns the indexes that must move: every member of an exact-coordinate
// group except the first, plus every origin member when originIsBad is set.
func duplicates(n int, at func(int) valueobjects.Position, originIsBad bool) []int {
	seen := make(map[string]bool, n)
	var movers []int
	for i := 0; i < n; i++ {
		pos := at(i)
		key := pos.Key()
		switch {
		case originIsBad && pos.IsOrigin():
			movers = append(movers, i)
		case seen[key]:
			movers = append(movers, i)
		default:
			seen[key] = true
		}
	}
	return movers
}
