package actions

import (
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// Deactivation (action E) deactivates other GRFs.
type Deactivation struct {
	recordBase
	IDs []GRFID
}

func NewDeactivation(ids []GRFID, pos srcpos.Position) (*Deactivation, error) {
	if len(ids) == 0 || len(ids) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, pos, "a deactivation list must contain between 1 and 255 GRF ids, not %d", len(ids))
	}
	return &Deactivation{recordBase: recordBase{pos: pos}, IDs: ids}, nil
}

func (*Deactivation) Kind() Kind {
	return KindDeactivation
}

func (d *Deactivation) Size() int {
	return 2 + GRFID_SIZE*len(d.IDs)
}

func (d *Deactivation) Write(out grfout.Output) {
	writePseudoSprite(out, d.Size(), func(w grfout.Writer) {
		w.PrintByte(0x0E)
		w.PrintByte(len(d.IDs))
		for _, id := range d.IDs {
			id.write(w)
		}
	})
}
