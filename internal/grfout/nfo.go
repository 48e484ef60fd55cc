package grfout

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var _ Output = (*NFOOutput)(nil)

const (
	NFO_VERSION = 32

	//sprite numbers are not written, the size is computed by the reader.
	NFO_AUTO_SIZE_HEADER = "-1 * 0\t"
)

// NFOOutput writes the text representation of the sprites, one line per sprite.
type NFOOutput struct {
	w       *bufio.Writer
	tracker spriteTracker
	err     error
	closed  bool
	line    strings.Builder
}

func NewNFOOutput(w io.Writer, sourceName string) *NFOOutput {
	o := &NFOOutput{w: bufio.NewWriter(w)}
	o.writeString("// Automatically generated by grfc\n")
	if sourceName != "" {
		o.writeString("// Source: " + sourceName + "\n")
	}
	o.writeString(fmt.Sprintf("// Format: NFO version %d\n", NFO_VERSION))
	return o
}

func (o *NFOOutput) writeString(s string) {
	if o.err != nil {
		return
	}
	_, o.err = o.w.WriteString(s)
}

func (o *NFOOutput) token(s string) {
	o.line.WriteByte(' ')
	o.line.WriteString(s)
}

func (o *NFOOutput) StartPseudoSprite(size int) {
	o.tracker.start(size)
	o.line.Reset()
	o.line.WriteString(NFO_AUTO_SIZE_HEADER)
}

func (o *NFOOutput) EndSprite() {
	o.tracker.end()
	o.writeString(o.line.String())
	o.writeString("\n")
	o.line.Reset()
}

func (o *NFOOutput) PrintSpriteReference(spriteNum int) {
	o.StartPseudoSprite(4)
	o.line.Reset()
	o.line.WriteString(fmt.Sprintf("-1 sprite %d\t", spriteNum))
	o.tracker.add(4)
	o.EndSprite()
}

func (o *NFOOutput) PrintByte(v int) {
	o.tracker.add(1)
	o.token(fmt.Sprintf("%02X", byte(v)))
}

func (o *NFOOutput) PrintWord(v int) {
	o.tracker.add(2)
	o.token(fmt.Sprintf("\\wx%04X", uint16(v)))
}

func (o *NFOOutput) PrintDword(v int) {
	o.tracker.add(4)
	o.token(fmt.Sprintf("\\dx%08X", uint32(v)))
}

func (o *NFOOutput) PrintExtByte(v int) {
	if v < 0xFF {
		o.PrintByte(v)
		return
	}
	o.PrintByte(0xFF)
	o.PrintWord(v)
}

func (o *NFOOutput) PrintVar(v int64, size int) {
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

func (o *NFOOutput) PrintString(s string, finalZero bool, forceASCII bool) {
	encoded, err := EncodeString(s, finalZero, forceASCII)
	if err != nil {
		panic(err)
	}
	o.tracker.add(len(encoded))

	//printable runs are quoted, other bytes are printed in hexadecimal.
	var quoted []byte
	flush := func() {
		if len(quoted) > 0 {
			o.token(`"` + string(quoted) + `"`)
			quoted = quoted[:0]
		}
	}
	for _, b := range encoded {
		if b >= 0x20 && b <= 0x7E && b != '"' && b != '\\' {
			quoted = append(quoted, b)
			continue
		}
		flush()
		o.token(fmt.Sprintf("%02X", b))
	}
	flush()
}

func (o *NFOOutput) Newline(comment string) {
	if comment != "" {
		o.token("// " + comment)
	}
	o.line.WriteString("\n\t")
}

func (o *NFOOutput) Close() error {
	if o.closed {
		return o.err
	}
	o.closed = true
	if o.tracker.inSprite {
		panic(fmt.Errorf("output closed in the middle of a sprite"))
	}
	if o.err != nil {
		return o.err
	}
	return o.w.Flush()
}
