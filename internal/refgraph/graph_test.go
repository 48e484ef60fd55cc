package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph(t *testing.T) {

	t.Run("AddNode", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")

		assert.Equal(t, NodeId(0), a)
		assert.Equal(t, NodeId(1), b)
		assert.Equal(t, []NodeId{a, b}, g.NodeIds())
		assert.Equal(t, "B", g.MustGetNodeData(b))

		assert.Panics(t, func() {
			g.MustGetNodeData(5)
		})
	})

	t.Run("several references share an edge", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")

		g.AddEdge(a, b)
		g.AddEdge(a, b)
		assert.True(t, g.HasEdgeFromTo(a, b))
		assert.False(t, g.HasEdgeFromTo(b, a))
		assert.Equal(t, []NodeId{b}, g.DestinationIds(a))
		assert.Empty(t, g.DestinationIds(b))
	})

	t.Run("edge to an unknown node", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		assert.Panics(t, func() {
			g.AddEdge(a, 3)
		})
	})

	t.Run("Connected", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")
		c := g.AddNode("C")
		d := g.AddNode("D")
		e := g.AddNode("E")

		//A -> B <- C -> D, E isolated
		g.AddEdge(a, b)
		g.AddEdge(c, b)
		g.AddEdge(c, d)

		assert.Equal(t, []NodeId{b, c, d}, g.Connected(a))
		assert.Equal(t, []NodeId{a, b, c}, g.Connected(d))
		assert.Empty(t, g.Connected(e))
	})
}

func TestGraphCycles(t *testing.T) {

	t.Run("empty graph", func(t *testing.T) {
		g := New[string]()
		assert.Empty(t, g.Cycles())

		order, err := g.TopologicalOrder()
		assert.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("A -> B -> C", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")
		c := g.AddNode("C")
		g.AddEdge(b, c)
		g.AddEdge(a, b)

		assert.Empty(t, g.Cycles())

		order, err := g.TopologicalOrder()
		assert.NoError(t, err)
		assert.Equal(t, []NodeId{a, b, c}, order)
	})

	t.Run("C -> B -> A", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")
		c := g.AddNode("C")
		g.AddEdge(c, b)
		g.AddEdge(b, a)

		order, err := g.TopologicalOrder()
		assert.NoError(t, err)
		assert.Equal(t, []NodeId{c, b, a}, order)
	})

	t.Run("A -> B -> A", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		b := g.AddNode("B")
		g.AddEdge(a, b)
		g.AddEdge(b, a)

		cycles := g.Cycles()
		if !assert.Len(t, cycles, 1) {
			return
		}
		assert.ElementsMatch(t, []NodeId{a, b}, cycles[0])

		_, err := g.TopologicalOrder()
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("self reference", func(t *testing.T) {
		g := New[string]()
		a := g.AddNode("A")
		g.AddEdge(a, a)

		assert.Equal(t, [][]NodeId{{a}}, g.Cycles())
		assert.Equal(t, []NodeId{a}, g.DestinationIds(a))

		_, err := g.TopologicalOrder()
		assert.ErrorIs(t, err, ErrCycle)
	})
}
