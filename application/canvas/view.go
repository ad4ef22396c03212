package canvas

import (
	"sync"

	"storycanvas/application/projection"
	"storycanvas/domain/core/valueobjects"
)

// View is the rendering side of the canvas. The Store calls it while holding
// its lock, so implementations must not call back into the Store synchronously.
type View interface {
	ApplyGraph(diff projection.GraphDiff, animate bool)
	CenterOn(position valueobjects.Position, animate bool)
	Highlight(nodeID string)
	OpenProperties(node projection.Node)
	CloseProperties()
	OpenContextMenu(node projection.Node, screenX, screenY float64)
}

// NopView discards every call
type NopView struct{}

func (NopView) ApplyGraph(projection.GraphDiff, bool) {}
func (NopView) CenterOn(valueobjects.Position, bool) {}
func (NopView) Highlight(string) {}
func (NopView) OpenProperties(projection.Node) {}
func (NopView) CloseProperties() {}
func (NopView) OpenContextMenu(projection.Node, float64, float64) {}

// ContextMenu is the last context surface request
type ContextMenu struct {
	Node             projection.Node
	ScreenX, ScreenY float64
}

// GraphView keeps the rendered graph by applying diffs, and remembers the
// surfaces the Store asked for. Headless callers and tests use it.
type GraphView struct {
	mu          sync.Mutex
	graph       projection.Graph
	applied     int
	animated    int
	center      *valueobjects.Position
	highlighted string
	properties  *projection.Node
	menu        *ContextMenu
}

// NewGraphView creates an empty view
func NewGraphView() *GraphView {
	return &GraphView{graph: projection.Graph{Nodes: []projection.Node{}, Edges: []projection.Edge{}}}
}

func (v *GraphView) ApplyGraph(diff projection.GraphDiff, animate bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.graph = projection.Apply(v.graph, diff)
	v.applied++
	if animate {
		v.animated++
	}
}

func (v *GraphView) CenterOn(position valueobjects.Position, animate bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = &position
}

func (v *GraphView) Highlight(nodeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.highlighted = nodeID
}

func (v *GraphView) OpenProperties(node projection.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.properties = &node
}

func (v *GraphView) CloseProperties() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.properties = nil
	v.highlighted = ""
}

func (v *GraphView) OpenContextMenu(node projection.Node, screenX, screenY float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.menu = &ContextMenu{Node: node, ScreenX: screenX, ScreenY: screenY}
}

// Graph returns the currently rendered graph
func (v *GraphView) Graph() projection.Graph {
	v.mu.Lock()
	defer v.mu.Unlock()
	return projection.Graph{
		Nodes: append([]projection.Node(nil), v.graph.Nodes...),
		Edges: append([]projection.Edge(nil), v.graph.Edges...),
	}
}

// Applied returns how many diffs were applied, and how many of them animated
func (v *GraphView) Applied() (total, animated int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.applied, v.animated
}

// Center returns the last centering target
func (v *GraphView) Center() (valueobjects.Position, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.center == nil {
		return valueobjects.Position{}, false
	}
	return *v.center, true
}

// Highlighted returns the highlighted node id
func (v *GraphView) Highlighted() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlighted
}

// Properties returns the node whose property surface is open
func (v *GraphView) Properties() (projection.Node, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.properties == nil {
		return projection.Node{}, false
	}
	return *v.properties, true
}

// Menu returns the last context menu request
func (v *GraphView) Menu() (ContextMenu, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.menu == nil {
		return ContextMenu{}, false
	}
	return *v.menu, true
}
