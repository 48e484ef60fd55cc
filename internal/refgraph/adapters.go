package refgraph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

var (
	_ graph.Directed = (*directedAdapter[int])(nil)
	_ graph.Node     = nodeAdapter{}
	_ graph.Edge     = edgeAdapter{}
)

// directedAdapter exposes a Graph to the gonum algorithms, self edges are not visible.
type directedAdapter[NodeData any] struct {
	graph *Graph[NodeData]
}

func (g *directedAdapter[NodeData]) Node(id int64) graph.Node {
	if _, ok := g.graph.nodes[NodeId(id)]; !ok {
		return nil
	}
	return nodeAdapter{id: NodeId(id)}
}

func (g *directedAdapter[NodeData]) Nodes() graph.Nodes {
	return toNodes(g.graph.NodeIds())
}

func (g *directedAdapter[NodeData]) From(id int64) graph.Nodes {
	ids := make([]NodeId, 0, len(g.graph.from[NodeId(id)]))
	for dest := range g.graph.from[NodeId(id)] {
		ids = append(ids, dest)
	}
	return toNodes(ids)
}

func (g *directedAdapter[NodeData]) To(id int64) graph.Nodes {
	ids := make([]NodeId, 0, len(g.graph.to[NodeId(id)]))
	for src := range g.graph.to[NodeId(id)] {
		ids = append(ids, src)
	}
	return toNodes(ids)
}

func (g *directedAdapter[NodeData]) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

func (g *directedAdapter[NodeData]) HasEdgeFromTo(uid, vid int64) bool {
	return uid != vid && g.graph.HasEdgeFromTo(NodeId(uid), NodeId(vid))
}

func (g *directedAdapter[NodeData]) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return edgeAdapter{from: NodeId(uid), to: NodeId(vid)}
}

func toNodes(ids []NodeId) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, nodeAdapter{id: id})
	}
	return iterator.NewOrderedNodes(nodes)
}

type nodeAdapter struct {
	id NodeId
}

func (n nodeAdapter) ID() int64 {
	return int64(n.id)
}

type edgeAdapter struct {
	from, to NodeId
}

func (e edgeAdapter) From() graph.Node {
	return nodeAdapter{id: e.from}
}

func (e edgeAdapter) To() graph.Node {
	return nodeAdapter{id: e.to}
}

func (e edgeAdapter) ReversedEdge() graph.Edge {
	return edgeAdapter{from: e.to, to: e.from}
}
