package projection

// GraphDiff is the minimal change set turning one rendered graph into another
type GraphDiff struct {
	AddedNodes   []Node `json:"addedNodes,omitempty"`
	RemovedNodes []Node `json:"removedNodes,omitempty"`
	UpdatedNodes []Node `json:"updatedNodes,omitempty"`
	AddedEdges   []Edge `json:"addedEdges,omitempty"`
	RemovedEdges []Edge `json:"removedEdges,omitempty"`
}

// IsEmpty reports whether applying the diff is a no-op
func (d GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.UpdatedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Diff compares two graphs by node and edge id. Results follow the order of the graph
// each element was taken from.
func Diff(old, next Graph) GraphDiff {
	var d GraphDiff

	oldNodes := make(map[string]Node, len(old.Nodes))
	for _, n := range old.Nodes {
		oldNodes[n.ID] = n
	}
	nextNodes := make(map[string]struct{}, len(next.Nodes))
	for _, n := range next.Nodes {
		nextNodes[n.ID] = struct{}{}
		prev, ok := oldNodes[n.ID]
		switch {
		case !ok:
			d.AddedNodes = append(d.AddedNodes, n)
		case prev != n:
			d.UpdatedNodes = append(d.UpdatedNodes, n)
		}
	}
	for _, n := range old.Nodes {
		if _, ok := nextNodes[n.ID]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, n)
		}
	}

	oldEdges := make(map[string]struct{}, len(old.Edges))
	for _, e := range old.Edges {
		oldEdges[e.ID] = struct{}{}
	}
	nextEdges := make(map[string]struct{}, len(next.Edges))
	for _, e := range next.Edges {
		nextEdges[e.ID] = struct{}{}
		if _, ok := oldEdges[e.ID]; !ok {
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	for _, e := range old.Edges {
		if _, ok := nextEdges[e.ID]; !ok {
			d.RemovedEdges = append(d.RemovedEdges, e)
		}
	}
	return d
}

// Apply returns the graph obtained by applying d to g
func Apply(g Graph, d GraphDiff) Graph {
	removed := make(map[string]bool, len(d.RemovedNodes))
	for _, n := range d.RemovedNodes {
		removed[n.ID] = true
	}
	updated := make(map[string]Node, len(d.UpdatedNodes))
	for _, n := range d.UpdatedNodes {
		updated[n.ID] = n
	}

	out := Graph{Nodes: make([]Node, 0, len(g.Nodes)+len(d.AddedNodes)), Edges: []Edge{}}
	for _, n := range g.Nodes {
		if removed[n.ID] {
			continue
		}
		if u, ok := updated[n.ID]; ok {
			n = u
		}
		out.Nodes = append(out.Nodes, n)
	}
	out.Nodes = append(out.Nodes, d.AddedNodes...)

	removedEdges := make(map[string]bool, len(d.RemovedEdges))
	for _, e := range d.RemovedEdges {
		removedEdges[e.ID] = true
	}
	for _, e := range g.Edges {
		if !removedEdges[e.ID] {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Edges = append(out.Edges, d.AddedEdges...)
	return out
}
