// Package canvas implements canvas state: a spatial graph of nodes and
// edges that the agent and the user mutate concurrently, with every
// mutation published on a change stream so connected WebSocket clients
// can apply incremental updates instead of re-fetching the whole graph.
package canvas

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Variant names an A2UI component kind a node can render as.
type Variant string

const (
	VariantText     Variant = "text"
	VariantMarkdown Variant = "markdown"
	VariantImage    Variant = "image"
	VariantForm     Variant = "form"
	VariantButton   Variant = "button"
	VariantTable    Variant = "table"
	VariantContainer Variant = "container"
)

// Position is a node's location on the spatial canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one element of the canvas graph.
type Node struct {
	ID       string                 `json:"id"`
	Variant  Variant                `json:"variant"`
	Position Position               `json:"position"`
	Props    map[string]interface{} `json:"props,omitempty"`
	ParentID string                 `json:"parentId,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Edge connects two nodes (e.g. a form's submit routed to a handler node).
type Edge struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Label    string `json:"label,omitempty"`
}

// ChangeOp names a single graph mutation kind.
type ChangeOp string

const (
	OpNodeAdded    ChangeOp = "node_added"
	OpNodeUpdated  ChangeOp = "node_updated"
	OpNodeRemoved  ChangeOp = "node_removed"
	OpEdgeAdded    ChangeOp = "edge_added"
	OpEdgeRemoved  ChangeOp = "edge_removed"
)

// Change is one entry on the change stream.
type Change struct {
	Op     ChangeOp    `json:"op"`
	NodeID string      `json:"nodeId,omitempty"`
	EdgeID string      `json:"edgeId,omitempty"`
	Node   *Node       `json:"node,omitempty"`
	Edge   *Edge       `json:"edge,omitempty"`
	At     time.Time   `json:"at"`
}

// State is one canvas's graph, safe for concurrent mutation. Every
// mutating method publishes to all currently-subscribed change streams.
type State struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string]*Edge

	subMu sync.Mutex
	subs  map[string]chan Change
}

// New creates an empty canvas.
func New() *State {
	return &State{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
		subs:  make(map[string]chan Change),
	}
}

// Subscribe registers a change listener and returns its channel plus an
// unsubscribe function. The channel is buffered; a slow consumer drops
// its oldest pending change rather than blocking the canvas.
func (s *State) Subscribe() (<-chan Change, func()) {
	id := uuid.NewString()
	ch := make(chan Change, 64)
	s.subMu.Lock()
	s.subs[id] = ch
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		close(ch)
	}
}

func (s *State) publish(c Change) {
	c.At = time.Now()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			// drop oldest, then push — never block the mutator
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// AddNode adds a new node, assigning an ID if n.ID is empty.
func (s *State) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.UpdatedAt = time.Now()

	s.mu.Lock()
	if _, exists := s.nodes[n.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("canvas: node %s already exists", n.ID)
	}
	if n.ParentID != "" {
		if _, ok := s.nodes[n.ParentID]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("canvas: parent node %s not found", n.ParentID)
		}
	}
	stored := n
	s.nodes[n.ID] = &stored
	s.mu.Unlock()

	s.publish(Change{Op: OpNodeAdded, NodeID: n.ID, Node: &stored})
	return &stored, nil
}

// UpdateNode merges a partial update into an existing node's Props and
// optionally its Position, then republishes the node.
func (s *State) UpdateNode(id string, position *Position, props map[string]interface{}) (*Node, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("canvas: node %s not found", id)
	}
	if position != nil {
		n.Position = *position
	}
	if props != nil {
		if n.Props == nil {
			n.Props = make(map[string]interface{}, len(props))
		}
		for k, v := range props {
			n.Props[k] = v
		}
	}
	n.UpdatedAt = time.Now()
	snapshot := *n
	s.mu.Unlock()

	s.publish(Change{Op: OpNodeUpdated, NodeID: id, Node: &snapshot})
	return &snapshot, nil
}

// RemoveNode deletes a node and any edges touching it.
func (s *State) RemoveNode(id string) error {
	s.mu.Lock()
	if _, ok := s.nodes[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("canvas: node %s not found", id)
	}
	delete(s.nodes, id)
	var droppedEdges []string
	for eid, e := range s.edges {
		if e.SourceID == id || e.TargetID == id {
			delete(s.edges, eid)
			droppedEdges = append(droppedEdges, eid)
		}
	}
	s.mu.Unlock()

	for _, eid := range droppedEdges {
		s.publish(Change{Op: OpEdgeRemoved, EdgeID: eid})
	}
	s.publish(Change{Op: OpNodeRemoved, NodeID: id})
	return nil
}

// AddEdge connects two existing nodes.
func (s *State) AddEdge(e Edge) (*Edge, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	if _, ok := s.nodes[e.SourceID]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("canvas: source node %s not found", e.SourceID)
	}
	if _, ok := s.nodes[e.TargetID]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("canvas: target node %s not found", e.TargetID)
	}
	stored := e
	s.edges[e.ID] = &stored
	s.mu.Unlock()

	s.publish(Change{Op: OpEdgeAdded, EdgeID: e.ID, Edge: &stored})
	return &stored, nil
}

// RemoveEdge deletes an edge.
func (s *State) RemoveEdge(id string) error {
	s.mu.Lock()
	if _, ok := s.edges[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("canvas: edge %s not found", id)
	}
	delete(s.edges, id)
	s.mu.Unlock()

	s.publish(Change{Op: OpEdgeRemoved, EdgeID: id})
	return nil
}

// Snapshot is the full graph, sent to a client on initial connect
// (s2c:canvas:snapshot) before incremental changes take over.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Snapshot returns a deep copy of the current graph.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		Nodes: make([]Node, 0, len(s.nodes)),
		Edges: make([]Edge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		out.Nodes = append(out.Nodes, *n)
	}
	for _, e := range s.edges {
		out.Edges = append(out.Edges, *e)
	}
	return out
}

// MarshalSnapshot encodes the snapshot as the s2c:canvas:snapshot frame payload.
func (s *State) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
