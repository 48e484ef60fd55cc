package grfout

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var _ Output = (*BinaryOutput)(nil)

// BinaryOutput writes sprites as <size word> <info byte> <data>, the stream ends with
// END_OF_STREAM_SIZE zero bytes.
type BinaryOutput struct {
	w       *bufio.Writer
	tracker spriteTracker
	err     error
	closed  bool

	SpriteCount int
}

func NewBinaryOutput(w io.Writer) *BinaryOutput {
	return &BinaryOutput{w: bufio.NewWriter(w)}
}

func (o *BinaryOutput) write(p []byte) {
	if o.err != nil {
		return
	}
	_, o.err = o.w.Write(p)
}

func (o *BinaryOutput) StartPseudoSprite(size int) {
	if size <= 0 || size > 0xFFFF {
		panic(fmt.Errorf("invalid pseudo sprite size %d", size))
	}
	o.tracker.start(size)
	o.write(binary.LittleEndian.AppendUint16(nil, uint16(size)))
	o.write([]byte{PSEUDO_SPRITE_INFO})
}

func (o *BinaryOutput) EndSprite() {
	o.tracker.end()
	o.SpriteCount++
}

func (o *BinaryOutput) PrintSpriteReference(spriteNum int) {
	o.tracker.start(4)
	o.write(binary.LittleEndian.AppendUint16(nil, 4))
	o.write([]byte{SPRITE_REF_INFO})
	o.PrintDword(spriteNum)
	o.EndSprite()
}

func (o *BinaryOutput) PrintByte(v int) {
	o.tracker.add(1)
	o.write([]byte{byte(v)})
}

func (o *BinaryOutput) PrintWord(v int) {
	o.tracker.add(2)
	o.write(binary.LittleEndian.AppendUint16(nil, uint16(v)))
}

func (o *BinaryOutput) PrintDword(v int) {
	o.tracker.add(4)
	o.write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
}

func (o *BinaryOutput) PrintExtByte(v int) {
	if v < 0xFF {
		o.PrintByte(v)
		return
	}
	o.PrintByte(0xFF)
	o.PrintWord(v)
}

func (o *BinaryOutput) PrintVar(v int64, size int) {
	checkSize(size)
	switch size {
	case 1:
		o.PrintByte(int(v))
	case 2:
		o.PrintWord(int(v))
	default:
		o.PrintDword(int(v))
	}
}

func (o *BinaryOutput) PrintString(s string, finalZero bool, forceASCII bool) {
	encoded, err := EncodeString(s, finalZero, forceASCII)
	if err != nil {
		//strings are validated with StringSize before the sprite is started.
		panic(err)
	}
	o.tracker.add(len(encoded))
	o.write(encoded)
}

func (o *BinaryOutput) Newline(comment string) {}

func (o *BinaryOutput) Close() error {
	if o.closed {
		return o.err
	}
	o.closed = true
	if o.tracker.inSprite {
		panic(fmt.Errorf("output closed in the middle of a sprite"))
	}

	o.write(make([]byte, END_OF_STREAM_SIZE))
	if o.err != nil {
		return o.err
	}
	return o.w.Flush()
}
