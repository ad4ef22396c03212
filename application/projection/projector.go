// Package projection maps the story model onto the positioned node and edge
// list drawn on the canvas.
package projection

import (
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/domain/services/layout"
)

// Input is everything a projection depends on
type Input struct {
	Project    *aggregates.Project
	Zoom       valueobjects.ZoomLevel
	ExpandedID string
	FocusedID  string
	Temp       *entities.PlotPoint
}

// InputFor builds an input from the project's own view fields
func InputFor(p *aggregates.Project, expandedID string, temp *entities.PlotPoint) Input {
	return Input{
		Project:    p,
		Zoom:       p.CurrentZoomLevel,
		ExpandedID: expandedID,
		FocusedID:  p.FocusedElementID,
		Temp:       temp,
	}
}

// Projector is a pure function of its Input. It only uses the layout engine's formulas.
type Projector struct {
	layout *layout.Engine
}

// NewProjector creates a projector
func NewProjector(engine *layout.Engine) *Projector {
	return &Projector{layout: engine}
}

// Project produces the graph for the active act. Plot points come in project order
// with the temp entity last; each parent is followed by its children.
func (pr *Projector) Project(in Input) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	if in.Project == nil {
		return g
	}
	actID := in.Project.CurrentActID

	for _, pp := range in.Project.PlotPoints {
		if pp.ActID == actID {
			pr.emitPlotPoint(&g, in, pp)
		}
	}
	if in.Temp != nil && in.Temp.ActID == actID {
		pr.emitPlotPoint(&g, in, *in.Temp)
	}
	return g
}

func (pr *Projector) emitPlotPoint(g *Graph, in Input, pp entities.PlotPoint) {
	expanded := pp.ID == in.ExpandedID
	g.Nodes = append(g.Nodes, Node{
		ID:        pp.ID,
		Kind:      KindPlotPoint,
		EntityID:  pp.ID,
		Label:     pp.Title,
		Color:     pp.Color,
		Position:  pp.Position,
		Temporary: pp.IsTemporary(),
		Expanded:  expanded,
	})

	if in.Zoom == valueobjects.ZoomStoryOverview && !expanded {
		return
	}

	for i, s := range pp.Scenes {
		pos := pr.layout.SatellitePosition(pp.Position, i, len(pp.Scenes))
		if s.Position != nil {
			pos = *s.Position
		}
		g.Nodes = append(g.Nodes, Node{
			ID:       s.ID,
			Kind:     KindScene,
			EntityID: s.ID,
			ParentID: pp.ID,
			Label:    s.Title,
			Color:    pp.Color,
			Position: pos,
		})
		g.Edges = append(g.Edges, contains(pp.ID, s.ID))

		if in.Zoom.ShowsDetails() && s.ID == in.FocusedID {
			pr.emitDetails(g, in.Project, s, pos)
		}
	}
}

func (pr *Projector) emitDetails(g *Graph, p *aggregates.Project, s entities.Scene, center valueobjects.Position) {
	i := 0
	for _, cid := range s.CharacterIDs {
		ci := p.CharacterIndex(cid)
		if ci < 0 {
			continue
		}
		c := p.Characters[ci]
		id := CharacterNodeID(s.ID, c.ID)
		g.Nodes = append(g.Nodes, Node{
			ID:       id,
			Kind:     KindCharacter,
			EntityID: c.ID,
			ParentID: s.ID,
			Label:    c.Name,
			Color:    c.Color,
			Position: pr.layout.DetailPosition(center, layout.DetailCharacter, i),
		})
		g.Edges = append(g.Edges, contains(s.ID, id))
		i++
	}

	if !s.Setting.IsZero() {
		id := SettingNodeID(s.ID)
		g.Nodes = append(g.Nodes, Node{
			ID:       id,
			Kind:     KindSetting,
			EntityID: s.ID,
			ParentID: s.ID,
			Label:    s.Setting.Name,
			Position: pr.layout.DetailPosition(center, layout.DetailSetting, 0),
		})
		g.Edges = append(g.Edges, contains(s.ID, id))
	}

	for i, item := range s.Items {
		id := ItemNodeID(s.ID, item.ID)
		g.Nodes = append(g.Nodes, Node{
			ID:       id,
			Kind:     KindItem,
			EntityID: item.ID,
			ParentID: s.ID,
			Label:    item.Name,
			Position: pr.layout.DetailPosition(center, layout.DetailItem, i),
		})
		g.Edges = append(g.Edges, contains(s.ID, id))
	}
}
