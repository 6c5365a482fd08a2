package scheduler

import (
	"container/heap"

	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// readyQueue pops the lowest node ID first.
type readyQueue []int

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(int)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// topoOrder returns the node IDs in Kahn order, lowest ID first among ready
// nodes, and checks every edge weight.
func topoOrder(g *depgraph.Graph) ([]int, error) {
	indegree := make([]int, g.Len())
	for _, e := range g.Edges() {
		if e.Weight < 0 {
			return nil, qerr.New(qerr.ErrUnschedulable, "edge %d -> %d has negative weight %d", e.From, e.To, e.Weight)
		}
		indegree[e.To]++
	}

	q := &readyQueue{}
	for id, d := range indegree {
		if d == 0 {
			heap.Push(q, id)
		}
	}

	order := make([]int, 0, g.Len())
	for q.Len() > 0 {
		id := heap.Pop(q).(int)
		order = append(order, id)
		out, _ := g.Dependents(id)
		for _, e := range out {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				heap.Push(q, e.To)
			}
		}
	}
	if len(order) != g.Len() {
		return nil, qerr.New(qerr.ErrUnschedulable, "dependency graph has a cycle")
	}
	return order, nil
}

// earliest is the smallest start of id allowed by its incoming edges.
func earliest(g *depgraph.Graph, start []int, id int) int {
	t := 0
	deps, _ := g.Dependencies(id)
	for _, e := range deps {
		t = max(t, start[e.From]+e.Weight)
	}
	return t
}
