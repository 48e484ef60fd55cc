package pool

import (
	"math/rand"
	"testing"

	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pos = srcpos.Position{File: "test.yaml"}

func TestPool(t *testing.T) {

	t.Run("NewRange pops the first id first", func(t *testing.T) {
		p := NewRange("parameters", 0x40, 0x42)
		p.Save()

		assert.Equal(t, 0x40, mustPop(t, p))
		assert.Equal(t, 0x41, mustPop(t, p))
		assert.Equal(t, 0x42, mustPop(t, p))
	})

	t.Run("pop without save panics", func(t *testing.T) {
		p := NewRange("labels", 0x10, 0x20)
		assert.Panics(t, func() {
			p.Pop(pos)
		})
		assert.Panics(t, func() {
			p.PopUnique(pos)
		})
	})

	t.Run("restore without save panics", func(t *testing.T) {
		p := NewRange("labels", 0x10, 0x20)
		assert.Panics(t, func() {
			p.Restore()
		})
	})

	t.Run("exhaustion", func(t *testing.T) {
		p := NewRange("parameters", 0, 1)
		p.Save()
		mustPop(t, p)
		mustPop(t, p)

		_, err := p.Pop(pos)
		assert.ErrorIs(t, err, grferr.ErrResourceExhausted)
		assert.Contains(t, err.Error(), "parameters")

		_, err = p.PopGlobal(pos)
		assert.ErrorIs(t, err, grferr.ErrResourceExhausted)
	})

	t.Run("save, pop, restore returns the pool to its previous state", func(t *testing.T) {
		p := NewRange("parameters", 0x40, 0x7F)
		p.Save()
		mustPop(t, p)
		mustPop(t, p)

		before := p.FreeIds()
		beforeInUse := p.InUse()

		p.Save()
		mustPop(t, p)
		p.Restore()

		assert.Equal(t, before, p.FreeIds())
		assert.Equal(t, beforeInUse, p.InUse())

		//several pops are returned in reverse order: the same ids are handed out again in the same order.
		p.Save()
		a, b, c := mustPop(t, p), mustPop(t, p), mustPop(t, p)
		p.Restore()
		assert.Equal(t, before, p.FreeIds())

		p.Save()
		assert.Equal(t, []int{a, b, c}, []int{mustPop(t, p), mustPop(t, p), mustPop(t, p)})
		p.Restore()
	})

	t.Run("nested frames", func(t *testing.T) {
		p := NewRange("parameters", 0, 9)
		p.Save()
		outer := mustPop(t, p)

		p.Save()
		inner := mustPop(t, p)
		assert.NotEqual(t, outer, inner)
		p.Restore()

		assert.True(t, p.IsFree(inner))
		assert.False(t, p.IsFree(outer))

		p.Restore()
		assert.True(t, p.IsFree(outer))
		assert.Zero(t, p.InUse())
	})

	t.Run("PopUnique never returns an id twice", func(t *testing.T) {
		p := NewRange("loop labels", 0x80, 0x82)
		p.Save()

		first := mustPopUnique(t, p)
		p.Restore()

		p.Save()
		second := mustPopUnique(t, p)
		assert.NotEqual(t, first, second)

		//Pop is allowed to reuse the id returned by the first PopUnique.
		reused := mustPop(t, p)
		assert.Equal(t, first, reused)

		third := mustPopUnique(t, p)
		assert.NotContains(t, []int{first, second}, third)

		p.Restore()
		p.Save()
		_, err := p.PopUnique(pos)
		assert.ErrorIs(t, err, grferr.ErrNoUniqueResourceAvailable)
		p.Restore()
	})

	t.Run("PopGlobal ids survive restore", func(t *testing.T) {
		p := NewRange("action2 ids", 0, 255)
		p.Save()
		id, err := p.PopGlobal(pos)
		require.NoError(t, err)
		p.Restore()

		assert.False(t, p.IsFree(id))
		assert.Equal(t, 1, p.InUse())

		p.Release(id)
		assert.True(t, p.IsFree(id))
		assert.Zero(t, p.InUse())

		assert.Panics(t, func() {
			p.Release(id)
		})
	})

	t.Run("ids of frames cannot be released", func(t *testing.T) {
		p := NewRange("parameters", 0, 3)
		p.Save()
		id := mustPop(t, p)
		assert.Panics(t, func() {
			p.Release(id)
		})
	})

	t.Run("stats", func(t *testing.T) {
		p := NewRange("parameters", 0, 9)
		p.Save()
		mustPop(t, p)
		peakPos := srcpos.Position{File: "peak.yaml", Line: 7}
		_, err := p.Pop(peakPos)
		require.NoError(t, err)
		p.Restore()

		p.Save()
		mustPop(t, p)
		p.Restore()

		stats := p.Stats()
		assert.Equal(t, 2, stats.Peak)
		assert.Equal(t, 10, stats.Total)
		assert.Equal(t, peakPos, stats.PeakPos)
		assert.Equal(t, "parameters", stats.Name)
	})

	t.Run("random usage never hands out an outstanding id", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		for iteration := 0; iteration < 50; iteration++ {
			p := NewRange("parameters", 0x40, 0x7F)
			outstanding := map[int]bool{}
			var frames [][]int

			for step := 0; step < 300; step++ {
				switch op := rng.Intn(4); {
				case op == 0 || len(frames) == 0:
					p.Save()
					frames = append(frames, nil)
				case op == 1:
					p.Restore()
					for _, id := range frames[len(frames)-1] {
						delete(outstanding, id)
					}
					frames = frames[:len(frames)-1]
				default:
					id, err := p.Pop(pos)
					if err != nil {
						assert.ErrorIs(t, err, grferr.ErrResourceExhausted)
						assert.Len(t, outstanding, 64)
						continue
					}
					if !assert.False(t, outstanding[id], "id %d handed out twice", id) {
						return
					}
					outstanding[id] = true
					frames[len(frames)-1] = append(frames[len(frames)-1], id)
				}
				assert.Equal(t, len(outstanding), p.InUse())
			}
		}
	})
}

func mustPop(t *testing.T, p *Pool) int {
	t.Helper()
	id, err := p.Pop(pos)
	require.NoError(t, err)
	return id
}

func mustPopUnique(t *testing.T, p *Pool) int {
	t.Helper()
	id, err := p.PopUnique(pos)
	require.NoError(t, err)
	return id
}
