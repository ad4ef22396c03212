package projection

import (
	"fmt"

	"storycanvas/domain/core/valueobjects"
)

// Kind discriminates the node variants sharing the Node shape
type Kind string

const (
	KindPlotPoint Kind = "plotPoint"
	KindScene     Kind = "scene"
	KindCharacter Kind = "character"
	KindSetting   Kind = "setting"
	KindItem      Kind = "item"
)

// IsDetail reports whether nodes of this kind hang off a scene
func (k Kind) IsDetail() bool {
	switch k {
	case KindCharacter, KindSetting, KindItem:
		return true
	case KindPlotPoint, KindScene:
		return false
	default:
		panic(fmt.Sprintf("projection: unknown node kind %q", string(k)))
	}
}

// EdgeKind is the semantics of an edge. Only containment exists.
type EdgeKind string

const EdgeContains EdgeKind = "contains"

// Node is one rendered canvas element.
// EntityID is the domain id; for detail nodes ID is derived from the owning scene.
type Node struct {
	ID        string                `json:"id"`
	Kind      Kind                  `json:"kind"`
	EntityID  string                `json:"entityId"`
	ParentID  string                `json:"parentId,omitempty"`
	Label     string                `json:"label"`
	Color     string                `json:"color,omitempty"`
	Position  valueobjects.Position `json:"position"`
	Temporary bool                  `json:"temporary,omitempty"`
	Expanded  bool                  `json:"expanded,omitempty"`
}

// Edge always points from parent to child
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Graph is the flat node and edge list handed to the renderer
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node looks a node up by id
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesOfKind returns the nodes of one kind in graph order
func (g Graph) NodesOfKind(kind Kind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Detail node identifiers

func CharacterNodeID(sceneID, characterID string) string {
	return "character-" + sceneID + "-" + characterID
}

func SettingNodeID(sceneID string) string {
	return "setting-" + sceneID
}

func ItemNodeID(sceneID, itemID string) string {
	return "item-" + sceneID + "-" + itemID
}

func edgeID(source, target string) string {
	return source + "->" + target
}

func contains(parent, child string) Edge {
	return Edge{ID: edgeID(parent, child), Source: parent, Target: child, Kind: EdgeContains}
}
