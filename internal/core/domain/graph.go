package domain

// graphNode couples a transition with its anchor, if any.
type graphNode struct {
	transition *Transition
	anchor     *Anchor
}

// Graph is the in-memory arena of a contract's state transitions. Nodes
// are content-addressed and edges are hash references, so shared history
// is represented once regardless of how many consignments touch it.
//
// The graph itself permits competing transitions spending from the same
// predecessor; arbitration between forks happens at validation time
// through the seal-closure index, never here.
type Graph struct {
	contractID ContractID
	genesis    *Genesis
	nodes      map[NodeID]*graphNode
	// creators maps every known output seal to the node that opened it.
	// Genesis allocations map to the zero NodeID.
	creators map[SecretSeal]NodeID
}

// NewGraph creates a graph rooted at the given genesis.
func NewGraph(genesis *Genesis) *Graph {
	g := &Graph{
		contractID: genesis.ContractID(),
		genesis:    genesis,
		nodes:      make(map[NodeID]*graphNode),
		creators:   make(map[SecretSeal]NodeID),
	}
	for _, a := range genesis.Allocations {
		g.creators[a.Seal] = NodeID{}
	}
	return g
}

// ContractID returns the id of the contract the graph belongs to.
func (g *Graph) ContractID() ContractID {
	return g.contractID
}

// Genesis returns the root node of the graph.
func (g *Graph) Genesis() *Genesis {
	return g.genesis
}

// Add inserts a transition and its optional anchor. Content addressing
// makes the operation idempotent; adding a known node with an anchor it
// previously lacked upgrades it from pending to final.
func (g *Graph) Add(t *Transition, a *Anchor) error {
	if t.ContractID != g.contractID {
		return ErrMalformedConsignment
	}
	id := t.ID()
	if existing, ok := g.nodes[id]; ok {
		if existing.anchor == nil {
			existing.anchor = a
		}
		return nil
	}
	g.nodes[id] = &graphNode{transition: t, anchor: a}
	for _, out := range t.Outputs {
		g.creators[out.Seal] = id
	}
	return nil
}

// Nodes returns the ids of every transition in the graph, in no
// particular order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Node returns the transition and anchor stored under the given id.
func (g *Graph) Node(id NodeID) (*Transition, *Anchor, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, nil, false
	}
	return n.transition, n.anchor, true
}

// CreatorOf returns the node that opened the given seal. The zero NodeID
// means the seal was allocated at genesis.
func (g *Graph) CreatorOf(seal SecretSeal) (NodeID, bool) {
	id, ok := g.creators[seal]
	return id, ok
}

// AncestorsOf walks the predecessor references of the given node and
// returns every known ancestor in child-to-root (BFS level) order.
// References to nodes the graph does not hold are skipped; IsComplete
// tells them apart.
func (g *Graph) AncestorsOf(id NodeID) ([]NodeID, error) {
	start, ok := g.nodes[id]
	if !ok {
		return nil, ErrTransitionNotFound
	}

	var ancestors []NodeID
	visited := map[NodeID]struct{}{id: {}}
	queue := append([]NodeID{}, start.transition.Prev...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, ok := visited[next]; ok {
			continue
		}
		visited[next] = struct{}{}
		node, ok := g.nodes[next]
		if !ok {
			continue
		}
		ancestors = append(ancestors, next)
		queue = append(queue, node.transition.Prev...)
	}
	return ancestors, nil
}

// IsComplete reports whether the node and every ancestor up to genesis are
// present and anchored.
func (g *Graph) IsComplete(id NodeID) bool {
	node, ok := g.nodes[id]
	if !ok || node.anchor == nil {
		return false
	}
	ancestors, err := g.AncestorsOf(id)
	if err != nil {
		return false
	}
	seen := map[NodeID]struct{}{id: {}}
	for _, aid := range ancestors {
		seen[aid] = struct{}{}
	}
	for _, aid := range ancestors {
		n := g.nodes[aid]
		if n.anchor == nil {
			return false
		}
		for _, prev := range n.transition.Prev {
			if _, ok := seen[prev]; !ok {
				return false
			}
		}
	}
	for _, prev := range node.transition.Prev {
		if _, ok := seen[prev]; !ok {
			return false
		}
	}
	return true
}

// History returns the target and all its ancestors ordered root-first, so
// that every node appears after its own predecessors. This is the order a
// consignment must deliver nodes in.
func (g *Graph) History(target NodeID) ([]NodeID, error) {
	if _, ok := g.nodes[target]; !ok {
		return nil, ErrTransitionNotFound
	}
	ancestors, err := g.AncestorsOf(target)
	if err != nil {
		return nil, err
	}
	include := map[NodeID]struct{}{target: {}}
	for _, id := range ancestors {
		include[id] = struct{}{}
	}

	// Kahn's algorithm over the ancestor subgraph. Predecessor references
	// outside the subgraph mean the history is incomplete.
	indegree := make(map[NodeID]int, len(include))
	dependents := make(map[NodeID][]NodeID, len(include))
	for id := range include {
		node := g.nodes[id]
		for _, prev := range node.transition.Prev {
			if _, ok := include[prev]; !ok {
				return nil, ErrIncompleteHistory
			}
			indegree[id]++
			dependents[prev] = append(dependents[prev], id)
		}
	}

	ready := make([]NodeID, 0, len(include))
	for id := range include {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	ordered := make([]NodeID, 0, len(include))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(ordered) != len(include) {
		return nil, ErrMalformedConsignment
	}
	return ordered, nil
}
