// Package depgraph builds the dependency graph of a circuit: one node per
// instruction plus source and sink sentinels, and weighted edges recording
// the minimum cycle distance between the start of two instructions.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/eqasmc/internal/ir"
)

// EdgeKind says why an edge exists.
type EdgeKind int

const (
	// EdgeOrder keeps program order on a shared resource, and links the sentinels.
	EdgeOrder EdgeKind = iota
	EdgeRAW
	EdgeWAR
	EdgeWAW
	// EdgeBuffer enforces the buffer time between operation types on one instrument.
	EdgeBuffer
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeOrder:
		return "order"
	case EdgeRAW:
		return "raw"
	case EdgeWAR:
		return "war"
	case EdgeWAW:
		return "waw"
	case EdgeBuffer:
		return "buffer"
	}
	return fmt.Sprintf("edge(%d)", int(k))
}

// Edge requires start(To) >= start(From) + Weight.
type Edge struct {
	From   int
	To     int
	Kind   EdgeKind
	Weight int
	// Cause names the qubit, register or instrument that produced the edge.
	Cause string
}

// Node is one vertex of the graph. Sentinels carry a zero Handle and a nil Instr.
type Node struct {
	ID       int
	Handle   ir.Handle
	Instr    ir.Instruction
	Type     string
	Duration int

	in  []int
	out []int
}

// Order is the program-order index of an instruction node.
func (n *Node) Order() int { return n.ID - 1 }

// Graph is a DAG whose node IDs follow program order: 0 is the source, the
// instructions come next and the sink is last. Edges only point forward.
type Graph struct {
	nodes []*Node
	edges []Edge
	index map[[2]int]int
}

func newGraph(instructions int) *Graph {
	g := &Graph{
		nodes: make([]*Node, 0, instructions+2),
		index: make(map[[2]int]int),
	}
	return g
}

func (g *Graph) addNode(n *Node) *Node {
	n.ID = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return n
}

// AddEdge adds a dependency from -> to. An existing edge between the same
// nodes keeps the larger weight. Self edges, unknown nodes and edges
// pointing backwards in program order are rejected.
func (g *Graph) AddEdge(from, to int, kind EdgeKind, weight int, cause string) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", from, to)
	}
	if from < 0 || from >= len(g.nodes) {
		return fmt.Errorf("source node not found: %d", from)
	}
	if to < 0 || to >= len(g.nodes) {
		return fmt.Errorf("destination node not found: %d", to)
	}
	if from > to {
		return fmt.Errorf("backward edge not allowed: %d -> %d", from, to)
	}

	key := [2]int{from, to}
	if i, ok := g.index[key]; ok {
		if weight > g.edges[i].Weight {
			g.edges[i].Weight = weight
			g.edges[i].Kind = kind
			g.edges[i].Cause = cause
		}
		return nil
	}

	g.index[key] = len(g.edges)
	g.nodes[to].in = append(g.nodes[to].in, len(g.edges))
	g.nodes[from].out = append(g.nodes[from].out, len(g.edges))
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: kind, Weight: weight, Cause: cause})
	return nil
}

// Len is the number of nodes, sentinels included.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Source() int { return 0 }

func (g *Graph) Sink() int { return len(g.nodes) - 1 }

// Node returns the node with the given ID.
func (g *Graph) Node(id int) *Node { return g.nodes[id] }

// Instructions returns the instruction nodes in program order.
func (g *Graph) Instructions() []*Node {
	if len(g.nodes) < 2 {
		return nil
	}
	return g.nodes[1 : len(g.nodes)-1]
}

// Edges returns every edge, in insertion order.
func (g *Graph) Edges() []Edge { return g.edges }

// Dependencies returns the incoming edges of id sorted by source node.
func (g *Graph) Dependencies(id int) ([]Edge, error) {
	if id < 0 || id >= len(g.nodes) {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	deps := make([]Edge, 0, len(g.nodes[id].in))
	for _, i := range g.nodes[id].in {
		deps = append(deps, g.edges[i])
	}
	sort.Slice(deps, func(a, b int) bool { return deps[a].From < deps[b].From })
	return deps, nil
}

// Dependents returns the outgoing edges of id sorted by destination node.
func (g *Graph) Dependents(id int) ([]Edge, error) {
	if id < 0 || id >= len(g.nodes) {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	out := make([]Edge, 0, len(g.nodes[id].out))
	for _, i := range g.nodes[id].out {
		out = append(out, g.edges[i])
	}
	sort.Slice(out, func(a, b int) bool { return out[a].To < out[b].To })
	return out, nil
}

// DetectCycles checks the graph for cycles with a depth-first search and
// reports the first node found on one.
func (g *Graph) DetectCycles() error {
	// permanent: fully visited, not on a cycle. temporary: on the current path.
	permanent := make([]bool, len(g.nodes))
	temporary := make([]bool, len(g.nodes))

	var visit func(id int) error
	visit = func(id int) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node %d", id)
		}
		temporary[id] = true
		for _, i := range g.nodes[id].out {
			if err := visit(g.edges[i].To); err != nil {
				return err
			}
		}
		temporary[id] = false
		permanent[id] = true
		return nil
	}

	for id := range g.nodes {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
