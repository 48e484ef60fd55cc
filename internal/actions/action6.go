package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// PatchRequest asks to overwrite Size bytes of the next record at Offset (0 is the action byte)
// with the value of the parameter Param.
type PatchRequest struct {
	Param  int
	Size   int
	Offset int
}

// BytePatchTable (action 6) modifies the next sprite with parameter values.
type BytePatchTable struct {
	recordBase
	Patches []PatchRequest
}

func NewBytePatchTable(patches []PatchRequest, pos srcpos.Position) *BytePatchTable {
	return &BytePatchTable{recordBase: recordBase{pos: pos}, Patches: patches}
}

func (*BytePatchTable) Kind() Kind {
	return KindBytePatchTable
}

func (t *BytePatchTable) Size() int {
	size := 2
	for _, patch := range t.Patches {
		size += 2 + grfout.ExtByteSize(patch.Offset)
	}
	return size
}

func (t *BytePatchTable) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x06)
		for _, patch := range t.Patches {
			w.PrintByte(patch.Param)
			w.PrintByte(patch.Size)
			w.PrintExtByte(patch.Offset)
			w.Newline("")
		}
		w.PrintByte(0xFF)
	})
}

// withPatches returns the record preceded by a byte-patch table if patches is not empty.
func withPatches(record Record, patches []PatchRequest) []Record {
	if len(patches) == 0 {
		return []Record{record}
	}
	return []Record{NewBytePatchTable(patches, record.Pos()), record}
}

// patchSource returns the parameter holding the value of e, the records computing the value are
// returned if e is not a parameter with a constant number.
func patchSource(ctx *Context, e expr.Expr, pos srcpos.Position) ([]Record, int, error) {
	if ref, ok := e.(expr.ParamRef); ok {
		if index, ok := ref.ConstantIndex(); ok {
			if err := checkParamNumber(index, pos); err != nil {
				return nil, 0, err
			}
			return nil, index, nil
		}
	}
	return getTmpParameter(ctx, e, pos)
}

// patchesOf returns the patch requests for the ParamRef fields of v, offset is the position of v
// in the patched record.
func patchesOf(v expr.Value, size int, offset int) []PatchRequest {
	var patches []PatchRequest

	addField := func(field expr.Field) {
		ref, ok := field.Value.(expr.ParamRef)
		if !ok {
			return
		}
		index, _ := ref.ConstantIndex()
		patches = append(patches, PatchRequest{Param: index, Size: field.Size, Offset: offset + field.Offset})
	}

	switch v := v.(type) {
	case expr.ParamRef:
		addField(expr.Field{Offset: 0, Size: size, Value: v})
	case expr.MachineVar:
		for _, field := range v.Fields(size) {
			addField(field)
		}
	}
	return patches
}

func checkParamNumber(num int, pos srcpos.Position) error {
	if num < 0 || num > 0xFF {
		return grferr.New(grferr.ErrRange, pos, "parameter number 0x%X is out of range [0x00, 0xFF]", num)
	}
	return nil
}
