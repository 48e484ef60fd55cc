package grferr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/stretchr/testify/assert"
)

func TestCompileError(t *testing.T) {

	t.Run("kind is reachable with errors.Is", func(t *testing.T) {
		err := New(ErrRange, srcpos.Position{File: "a.yaml", Line: 3}, "value %d does not fit in a byte", 300)
		wrapped := fmt.Errorf("compilation failed: %w", err)

		assert.ErrorIs(t, wrapped, ErrRange)
		assert.NotErrorIs(t, wrapped, ErrTypeMismatch)
		assert.Equal(t, "a.yaml:3: value out of range: value 300 does not fit in a byte", err.Error())
	})

	t.Run("no position", func(t *testing.T) {
		err := New(ErrUnknownReference, srcpos.Position{}, "'a' is not defined")
		assert.Equal(t, "unknown reference: 'a' is not defined", err.Error())
	})

	t.Run("WithPos", func(t *testing.T) {
		pos := srcpos.Position{File: "b.yaml", Path: "declarations[1]"}

		err := WithPos(New(ErrTypeMismatch, srcpos.Position{}, "x"), pos)
		var compileErr *CompileError
		if !assert.True(t, errors.As(err, &compileErr)) {
			return
		}
		assert.Equal(t, pos, compileErr.Pos)

		//errors that already have a position are left untouched
		other := srcpos.Position{File: "c.yaml"}
		err = WithPos(New(ErrTypeMismatch, other, "x"), pos)
		assert.True(t, errors.As(err, &compileErr))
		assert.Equal(t, other, compileErr.Pos)

		plain := errors.New("plain")
		assert.Same(t, plain, WithPos(plain, pos))
	})
}
