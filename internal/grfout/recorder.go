package grfout

import (
	"encoding/binary"
)

var _ Output = (*Recorder)(nil)

// Recorder is an Output keeping the data of each sprite in memory, sprite headers are not recorded.
type Recorder struct {
	Sprites [][]byte

	// indexes of the sprites written with PrintSpriteReference.
	References map[int]int

	tracker spriteTracker
	current []byte
	Closed  bool
}

func NewRecorder() *Recorder {
	return &Recorder{References: map[int]int{}}
}

func (r *Recorder) StartPseudoSprite(size int) {
	r.tracker.start(size)
	r.current = make([]byte, 0, size)
}

func (r *Recorder) EndSprite() {
	r.tracker.end()
	r.Sprites = append(r.Sprites, r.current)
	r.current = nil
}

func (r *Recorder) PrintSpriteReference(spriteNum int) {
	r.References[len(r.Sprites)] = spriteNum
	r.StartPseudoSprite(5)
	r.PrintByte(SPRITE_REF_INFO)
	r.PrintDword(spriteNum)
	r.EndSprite()
}

func (r *Recorder) PrintByte(v int) {
	r.tracker.add(1)
	r.current = append(r.current, byte(v))
}

func (r *Recorder) PrintWord(v int) {
	r.tracker.add(2)
	r.current = binary.LittleEndian.AppendUint16(r.current, uint16(v))
}

func (r *Recorder) PrintDword(v int) {
	r.tracker.add(4)
	r.current = binary.LittleEndian.AppendUint32(r.current, uint32(v))
}

func (r *Recorder) PrintExtByte(v int) {
	if v < 0xFF {
		r.PrintByte(v)
		return
	}
	r.PrintByte(0xFF)
	r.PrintWord(v)
}

func (r *Recorder) PrintVar(v int64, size int) {
	checkSize(size)
	switch size {
	case 1:
		r.PrintByte(int(v))
	case 2:
		r.PrintWord(int(v))
	default:
		r.PrintDword(int(v))
	}
}

func (r *Recorder) PrintString(s string, finalZero bool, forceASCII bool) {
	encoded, err := EncodeString(s, finalZero, forceASCII)
	if err != nil {
		panic(err)
	}
	r.tracker.add(len(encoded))
	r.current = append(r.current, encoded...)
}

func (r *Recorder) Newline(comment string) {}

func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}

// Bytes returns the data printed since the start of the current sprite.
func (r *Recorder) Bytes() []byte {
	return r.current
}

// ValueRecorder returns a Recorder with an open sprite of unlimited size, used to capture
// the bytes of individual values.
func ValueRecorder() *Recorder {
	r := NewRecorder()
	r.tracker.inSprite = true
	r.tracker.expected = -1
	return r
}
