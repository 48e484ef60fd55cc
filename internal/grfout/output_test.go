package grfout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSize(t *testing.T) {
	cases := []struct {
		input    string
		expected []byte
	}{
		{"", []byte{0}},
		{"abc", []byte{'a', 'b', 'c', 0}},
		{`a\\b`, []byte{'a', '\\', 'b', 0}},
		{`say \"hi\"`, []byte{'s', 'a', 'y', ' ', '"', 'h', 'i', '"', 0}},
		{`line\nline`, []byte{'l', 'i', 'n', 'e', NEWLINE_BYTE, 'l', 'i', 'n', 'e', 0}},
		{`\98x`, []byte{0x98, 'x', 0}},
		{`\U00E9`, []byte{0xC3, 0x9E, 0xC3, 0xA9, 0}},
		{`\U20AC`, []byte{0xC3, 0x9E, 0xE2, 0x82, 0xAC, 0}},
		{"é", []byte{0xC3, 0x9E, 0xC3, 0xA9, 0}},
		{"日本", []byte{0xC3, 0x9E, 0xE6, 0x97, 0xA5, 0xE6, 0x9C, 0xAC, 0}},
	}

	for _, testCase := range cases {
		t.Run(testCase.input, func(t *testing.T) {
			size, err := StringSize(testCase.input, true, false)
			require.NoError(t, err)

			encoded, err := EncodeString(testCase.input, true, false)
			require.NoError(t, err)

			assert.Equal(t, testCase.expected, encoded)
			assert.Equal(t, len(testCase.expected), size)

			sizeNoZero, err := StringSize(testCase.input, false, false)
			require.NoError(t, err)
			assert.Equal(t, size-1, sizeNoZero)

			recorder := ValueRecorder()
			recorder.PrintString(testCase.input, true, false)
			assert.Equal(t, testCase.expected, recorder.Bytes())
		})
	}

	t.Run("invalid escapes", func(t *testing.T) {
		for _, input := range []string{`\`, `ab\`, `\q`, `\9`, `\U12`, `\UZZZZ`, `\UD800`} {
			_, err := StringSize(input, true, false)
			assert.ErrorIs(t, err, ErrInvalidEscape, input)

			_, err = EncodeString(input, true, false)
			assert.ErrorIs(t, err, ErrInvalidEscape, input)
		}
	})

	t.Run("invalid UTF-8", func(t *testing.T) {
		_, err := StringSize("a\xffb", true, false)
		assert.ErrorIs(t, err, ErrInvalidUTF8Sequence)
	})

	t.Run("force ASCII", func(t *testing.T) {
		_, err := StringSize("é", true, true)
		assert.ErrorIs(t, err, ErrNonASCIIString)

		size, err := StringSize(`plain\\`, true, true)
		assert.NoError(t, err)
		assert.Equal(t, 7, size)
	})
}

func TestBinaryOutput(t *testing.T) {

	t.Run("pseudo sprite", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		out := NewBinaryOutput(buf)

		out.StartPseudoSprite(10)
		out.PrintByte(0x0D)
		out.PrintWord(0x1234)
		out.PrintDword(0x01020304)
		out.PrintExtByte(0x10)
		out.PrintExtByte(0x1FF)
		// 1 + 2 + 4 + 1 + 3 = 11 > 10
		assert.Panics(t, out.EndSprite)
	})

	t.Run("stream", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		out := NewBinaryOutput(buf)

		out.StartPseudoSprite(7)
		out.PrintByte(0x0D)
		out.PrintVar(-1, 2)
		out.PrintVar(0x12345678, 4)
		out.EndSprite()

		out.PrintSpriteReference(3)
		require.NoError(t, out.Close())

		assert.Equal(t, []byte{
			0x07, 0x00, 0xFF, 0x0D, 0xFF, 0xFF, 0x78, 0x56, 0x34, 0x12,
			0x04, 0x00, 0xFD, 0x03, 0x00, 0x00, 0x00,
			0, 0, 0, 0, 0, 0,
		}, buf.Bytes())
		assert.Equal(t, 2, out.SpriteCount)
	})

	t.Run("bytes outside of a sprite", func(t *testing.T) {
		out := NewBinaryOutput(bytes.NewBuffer(nil))
		assert.Panics(t, func() {
			out.PrintByte(0)
		})
	})

	t.Run("ext byte sizes", func(t *testing.T) {
		for _, v := range []int{0, 0xFE, 0xFF, 0x100, 0xFFFF} {
			r := ValueRecorder()
			r.PrintExtByte(v)
			assert.Len(t, r.Bytes(), ExtByteSize(v))
		}
	})
}

func TestNFOOutput(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	out := NewNFOOutput(buf, "test.yaml")

	out.StartPseudoSprite(6)
	out.PrintByte(0x0A)
	out.PrintString(`ab"`, true, false)
	out.PrintByte(0x01)
	out.EndSprite()
	out.PrintSpriteReference(12)
	require.NoError(t, out.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !assert.Len(t, lines, 5) {
		return
	}
	assert.Equal(t, "// Source: test.yaml", lines[1])
	assert.Equal(t, NFO_AUTO_SIZE_HEADER+` 0A "ab" 22 00 01`, lines[3])
	assert.Equal(t, "-1 sprite 12\t", lines[4]+"\t")
}
