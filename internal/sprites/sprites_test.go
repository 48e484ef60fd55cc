package sprites

import (
	"testing"

	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	pos := srcpos.Position{File: "a.yaml", Line: 2}

	t.Run("sprites are numbered in order", func(t *testing.T) {
		r := NewRegistry()

		num, err := r.Add("a", "a.png", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_SPRITE_NUMBER, num)

		num, err = r.Add("b", "", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_SPRITE_NUMBER+1, num)

		num, err = r.GetSpriteNumber("b", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_SPRITE_NUMBER+1, num)

		assert.Equal(t, 2, r.Len())
		if assert.Len(t, r.Unused(), 1) {
			assert.Equal(t, "a", r.Unused()[0].Name)
		}
	})

	t.Run("duplicate sprite", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Add("a", "", pos)
		require.NoError(t, err)

		_, err = r.Add("a", "", pos)
		assert.ErrorIs(t, err, grferr.ErrDuplicateIdentifier)
	})

	t.Run("unknown sprite", func(t *testing.T) {
		_, err := NewRegistry().GetSpriteNumber("x", pos)
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)
	})
}
