package actions

import (
	"encoding/hex"

	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	GRF_VERSION = 8
	GRFID_SIZE  = 4
)

// GRFID identifies a GRF file, the bytes are written in order.
type GRFID [GRFID_SIZE]byte

// ParseGRFID parses a GRF id written as four characters (e.g. AB\x01\x02 after unescaping) or as
// eight hexadecimal digits.
func ParseGRFID(s string, pos srcpos.Position) (GRFID, error) {
	var id GRFID
	switch len(s) {
	case GRFID_SIZE:
		copy(id[:], s)
		return id, nil
	case 2 * GRFID_SIZE:
		if _, err := hex.Decode(id[:], []byte(s)); err == nil {
			return id, nil
		}
	}
	return id, grferr.New(grferr.ErrTypeMismatch, pos, "invalid GRF id %q: 4 characters or 8 hexadecimal digits expected", s)
}

func (id GRFID) String() string {
	return hex.EncodeToString(id[:])
}

func (id GRFID) write(w grfout.Writer) {
	for _, b := range id {
		w.PrintByte(int(b))
	}
}

// GRFInfo (action 8) declares the id, the name and the description of the GRF.
type GRFInfo struct {
	recordBase
	ID          GRFID
	Name        string
	Description string

	nameSize, descriptionSize int
}

func NewGRFInfo(id GRFID, name, description string, pos srcpos.Position) (*GRFInfo, error) {
	nameSize, err := grfout.StringSize(name, true, false)
	if err != nil {
		return nil, grferr.New(grferr.ErrTypeMismatch, pos.Sub("name"), "invalid name: %s", err)
	}
	descriptionSize, err := grfout.StringSize(description, true, false)
	if err != nil {
		return nil, grferr.New(grferr.ErrTypeMismatch, pos.Sub("description"), "invalid description: %s", err)
	}

	return &GRFInfo{
		recordBase:      recordBase{pos: pos},
		ID:              id,
		Name:            name,
		Description:     description,
		nameSize:        nameSize,
		descriptionSize: descriptionSize,
	}, nil
}

func (*GRFInfo) Kind() Kind {
	return KindGRFInfo
}

func (i *GRFInfo) Size() int {
	return 2 + GRFID_SIZE + i.nameSize + i.descriptionSize
}

func (i *GRFInfo) Write(out grfout.Output) {
	writePseudoSprite(out, i.Size(), func(w grfout.Writer) {
		w.PrintByte(0x08)
		w.PrintByte(GRF_VERSION)
		i.ID.write(w)
		w.Newline("")
		w.PrintString(i.Name, true, false)
		w.Newline("")
		w.PrintString(i.Description, true, false)
	})
}
