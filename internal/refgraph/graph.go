// Package refgraph contains the directed graph of references between records.
package refgraph

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrCycle        = errors.New("reference cycle")
)

type NodeId int64

// Graph is a directed graph, an edge from A to B means that A references B. Several references
// between the same nodes share a single edge. Graph is not thread safe.
type Graph[NodeData any] struct {
	nodes map[NodeId]NodeData

	//source node -> destination nodes -> reference count
	from map[NodeId]map[NodeId]int

	//destination node -> source nodes -> reference count
	to map[NodeId]map[NodeId]int

	selfEdges map[NodeId]int
	currId    NodeId
}

func New[NodeData any]() *Graph[NodeData] {
	return &Graph[NodeData]{
		nodes:     make(map[NodeId]NodeData),
		from:      make(map[NodeId]map[NodeId]int),
		to:        make(map[NodeId]map[NodeId]int),
		selfEdges: make(map[NodeId]int),
		currId:    -1,
	}
}

// AddNode creates a node with the passed data and returns its id, ids start at 0 and are never reused.
func (g *Graph[NodeData]) AddNode(data NodeData) NodeId {
	g.currId++
	g.nodes[g.currId] = data
	return g.currId
}

// NodeIds returns the ids of all the nodes in increasing order.
func (g *Graph[NodeData]) NodeIds() []NodeId {
	ids := maps.Keys(g.nodes)
	slices.Sort(ids)
	return ids
}

func (g *Graph[NodeData]) MustGetNodeData(id NodeId) NodeData {
	data, ok := g.nodes[id]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrNodeNotFound, id))
	}
	return data
}

// AddEdge records a reference from src to dest.
func (g *Graph[NodeData]) AddEdge(src, dest NodeId) {
	g.checkNode(src)
	g.checkNode(dest)

	if src == dest {
		g.selfEdges[src]++
		return
	}

	fromMap, ok := g.from[src]
	if !ok {
		fromMap = map[NodeId]int{}
		g.from[src] = fromMap
	}
	fromMap[dest]++

	toMap, ok := g.to[dest]
	if !ok {
		toMap = map[NodeId]int{}
		g.to[dest] = toMap
	}
	toMap[src]++
}

func (g *Graph[NodeData]) HasEdgeFromTo(src, dest NodeId) bool {
	if src == dest {
		return g.selfEdges[src] > 0
	}
	return g.from[src][dest] > 0
}

// DestinationIds returns the nodes directly referenced by id, in increasing order.
func (g *Graph[NodeData]) DestinationIds(id NodeId) []NodeId {
	ids := maps.Keys(g.from[id])
	if g.selfEdges[id] > 0 {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Connected returns the nodes that are reachable from id or that can reach id, id excluded.
// Edges are followed in both directions from every visited node.
func (g *Graph[NodeData]) Connected(id NodeId) []NodeId {
	g.checkNode(id)

	visited := map[NodeId]bool{id: true}
	queue := []NodeId{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbours := range []map[NodeId]int{g.from[current], g.to[current]} {
			for neighbour := range neighbours {
				if !visited[neighbour] {
					visited[neighbour] = true
					queue = append(queue, neighbour)
				}
			}
		}
	}

	delete(visited, id)
	ids := maps.Keys(visited)
	slices.Sort(ids)
	return ids
}

// Cycles returns the elementary cycles of the graph, self references are cycles of one node.
func (g *Graph[NodeData]) Cycles() [][]NodeId {
	var cycles [][]NodeId

	selfReferencing := maps.Keys(g.selfEdges)
	slices.Sort(selfReferencing)
	for _, id := range selfReferencing {
		cycles = append(cycles, []NodeId{id})
	}

	for _, cycle := range topo.DirectedCyclesIn(&directedAdapter[NodeData]{graph: g}) {
		//the first node of a cycle is repeated at the end.
		ids := make([]NodeId, 0, len(cycle)-1)
		for _, node := range cycle[:len(cycle)-1] {
			ids = append(ids, NodeId(node.ID()))
		}
		cycles = append(cycles, ids)
	}
	return cycles
}

// TopologicalOrder returns the nodes sorted so that every node comes before the nodes it references,
// ErrCycle is returned if the graph has a cycle.
func (g *Graph[NodeData]) TopologicalOrder() ([]NodeId, error) {
	if len(g.selfEdges) > 0 {
		return nil, ErrCycle
	}

	sorted, err := topo.SortStabilized(&directedAdapter[NodeData]{graph: g}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCycle, err)
	}

	ids := make([]NodeId, 0, len(sorted))
	for _, node := range sorted {
		ids = append(ids, NodeId(node.ID()))
	}
	return ids, nil
}

func (g *Graph[NodeData]) checkNode(id NodeId) {
	if _, ok := g.nodes[id]; !ok {
		panic(fmt.Errorf("%w: %d", ErrNodeNotFound, id))
	}
}
