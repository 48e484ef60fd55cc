package utils

import (
	"bytes"
	"errors"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestCombineErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	t.Run("no error", func(t *testing.T) {
		assert.NoError(t, CombineErrors())
		assert.NoError(t, CombineErrors(nil, nil))
		assert.NoError(t, CombineErrorsWithPrefixMessage("prefix", nil))
	})

	t.Run("single error", func(t *testing.T) {
		assert.Same(t, errA, CombineErrors(nil, errA))
	})

	t.Run("several errors", func(t *testing.T) {
		assert.EqualError(t, CombineErrors(errA, nil, errB), "a\nb")
		assert.EqualError(t, CombineErrorsWithPrefixMessage("2 errors", errA, errB), "2 errors: a\nb")
	})
}

func TestConvertPanicValueToError(t *testing.T) {
	errA := errors.New("a")
	assert.Same(t, errA, ConvertPanicValueToError(errA))
	assert.EqualError(t, ConvertPanicValueToError("message"), `"message"`)
}

func TestPrintColored(t *testing.T) {
	t.Run("ascii", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		PrintColored(buf, termenv.Ascii, termenv.ANSIRed, "error")
		assert.Equal(t, "error", buf.String())
	})

	t.Run("ansi", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		PrintColored(buf, termenv.ANSI, termenv.ANSIRed, "error")
		assert.NotEqual(t, "error", buf.String())
		assert.Equal(t, "error", StripANSISequences(buf.String()))
	})
}
