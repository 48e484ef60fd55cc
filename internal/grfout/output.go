package grfout

import (
	"fmt"
)

const (
	PSEUDO_SPRITE_INFO = 0xFF
	SPRITE_REF_INFO    = 0xFD

	//word 0 (end of sprites) followed by a zero checksum.
	END_OF_STREAM_SIZE = 6
)

// Writer is implemented by every output format, all the multi-byte values are little endian.
type Writer interface {
	PrintByte(v int)
	PrintWord(v int)
	PrintDword(v int)

	// PrintExtByte prints v as an extended byte: a single byte if v < 0xFF, else 0xFF followed by a word.
	PrintExtByte(v int)

	// PrintVar prints the low size bytes of v, size is 1, 2 or 4.
	PrintVar(v int64, size int)

	// PrintString prints an escaped string, see StringSize.
	PrintString(s string, finalZero bool, forceASCII bool)

	// Newline ends a line in text formats, a comment may be attached.
	Newline(comment string)
}

// Output is a sequence of sprites.
type Output interface {
	Writer

	// StartPseudoSprite starts a sprite of exactly size bytes, EndSprite panics if a different number
	// of bytes has been printed.
	StartPseudoSprite(size int)

	EndSprite()

	// PrintSpriteReference prints a complete real sprite entry referencing a sprite of the graphics section.
	PrintSpriteReference(spriteNum int)

	// Close writes the end of the stream and flushes the underlying writer.
	Close() error
}

// ExtByteSize returns the number of bytes used to print v as an extended byte.
func ExtByteSize(v int) int {
	if v < 0xFF {
		return 1
	}
	return 3
}

func checkSize(size int) {
	switch size {
	case 1, 2, 4:
	default:
		panic(fmt.Errorf("invalid value size %d", size))
	}
}

// spriteTracker counts the bytes of the current sprite.
type spriteTracker struct {
	inSprite bool
	expected int
	written  int
}

func (t *spriteTracker) start(size int) {
	if t.inSprite {
		panic(fmt.Errorf("a sprite is already started"))
	}
	t.inSprite = true
	t.expected = size
	t.written = 0
}

func (t *spriteTracker) add(n int) {
	if !t.inSprite {
		panic(fmt.Errorf("bytes printed outside of a sprite"))
	}
	t.written += n
}

func (t *spriteTracker) end() {
	if !t.inSprite {
		panic(fmt.Errorf("no sprite to end"))
	}
	if t.written != t.expected {
		panic(fmt.Errorf("sprite size mismatch: announced %d bytes but %d were printed", t.expected, t.written))
	}
	t.inSprite = false
}
