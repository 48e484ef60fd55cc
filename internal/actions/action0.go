package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	//00 feature nprops nids FF idword
	PROPERTY_TABLE_HEADER_SIZE = 7
	MAX_PROPERTY_ID            = 0xFFFF
)

// PropertyValue is the value of a property as decided by the front-end.
type PropertyValue interface {
	isPropertyValue()
}

// ConstantProperty is a value known at compile time.
type ConstantProperty struct {
	Value int64
}

// IndirectProperty is a value computed from parameters, it is written as a zero placeholder and patched.
type IndirectProperty struct {
	Expr expr.Expr
}

// StringProperty is the id of a string of the string table.
type StringProperty struct {
	Ref expr.StringRef
}

// ArrayProperty is a list of constants preceded by their count (one byte).
type ArrayProperty struct {
	Items []int64
}

func (ConstantProperty) isPropertyValue() {}
func (IndirectProperty) isPropertyValue() {}
func (StringProperty) isPropertyValue()   {}
func (ArrayProperty) isPropertyValue()    {}

type Property struct {
	Num   int
	Size  int //size of the value or of each item, 1, 2 or 4
	Value PropertyValue
	Pos   srcpos.Position
}

type propertyEntry struct {
	num   int
	size  int
	value expr.Value //nil for arrays
	items []int64
}

func (e propertyEntry) valueSize() int {
	if e.value == nil {
		return 1 + len(e.items)*e.size
	}
	return e.value.Size(e.size)
}

// PropertyTable (action 0) sets properties of an item of a feature.
type PropertyTable struct {
	recordBase
	Feature int
	ID      int
	entries []propertyEntry
}

func (*PropertyTable) Kind() Kind {
	return KindPropertyTable
}

func (t *PropertyTable) Size() int {
	size := PROPERTY_TABLE_HEADER_SIZE
	for _, entry := range t.entries {
		size += 1 + entry.valueSize()
	}
	return size
}

func (t *PropertyTable) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x00)
		w.PrintByte(t.Feature)
		w.PrintByte(len(t.entries))
		w.PrintByte(1)
		w.PrintByte(0xFF)
		w.PrintWord(t.ID)
		w.Newline("")

		for _, entry := range t.entries {
			w.PrintByte(entry.num)
			if entry.value != nil {
				entry.value.Write(w, entry.size)
			} else {
				w.PrintByte(len(entry.items))
				for _, item := range entry.items {
					w.PrintVar(item, entry.size)
				}
			}
			w.Newline("")
		}
	})
}

// LowerProperties returns the records setting props on the item id of feature: string definitions,
// computations of indirect values, the byte-patch table and the property table.
func LowerProperties(ctx *Context, feature int, id int, props []Property, pos srcpos.Position) ([]Record, error) {
	if len(props) == 0 {
		return nil, nil
	}
	if err := checkFeature(feature, pos); err != nil {
		return nil, err
	}
	if id < 0 || id > MAX_PROPERTY_ID {
		return nil, grferr.New(grferr.ErrRange, pos, "id 0x%X is out of range [0, 0x%X]", id, MAX_PROPERTY_ID)
	}
	if len(props) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, pos, "too many properties in a single block: %d", len(props))
	}

	table := &PropertyTable{
		recordBase: recordBase{pos: pos},
		Feature:    feature,
		ID:         id,
	}

	var (
		prepend []Record //string definitions
		pre     []Record //computations of temporary parameters
		patches []PatchRequest
	)

	offset := PROPERTY_TABLE_HEADER_SIZE

	for _, prop := range props {
		propPos := prop.Pos
		if propPos.IsZero() {
			propPos = pos
		}
		if prop.Num < 0 || prop.Num > 0xFF {
			return nil, grferr.New(grferr.ErrRange, propPos, "property number 0x%X is out of range", prop.Num)
		}
		switch prop.Size {
		case 1, 2, 4:
		default:
			return nil, grferr.New(grferr.ErrRange, propPos, "invalid size %d for property 0x%02X", prop.Size, prop.Num)
		}

		entry := propertyEntry{num: prop.Num, size: prop.Size}
		valueOffset := offset + 1

		switch v := prop.Value.(type) {
		case ConstantProperty:
			if err := checkFits(v.Value, prop.Size, propPos); err != nil {
				return nil, err
			}
			entry.value = expr.NewConstant(v.Value)
		case IndirectProperty:
			value := expr.FoldConstants(v.Expr)
			if c, ok := expr.ConstantValue(value); ok {
				if err := checkFits(c, prop.Size, propPos); err != nil {
					return nil, err
				}
				entry.value = expr.NewConstant(c)
				break
			}
			records, param, err := patchSource(ctx, value, propPos)
			if err != nil {
				return nil, err
			}
			pre = append(pre, records...)
			entry.value = expr.NewParamRef(param)
			patches = append(patches, PatchRequest{Param: param, Size: prop.Size, Offset: valueOffset})
		case StringProperty:
			if prop.Size < 2 {
				return nil, grferr.New(grferr.ErrRange, propPos, "string ids do not fit in %d byte", prop.Size)
			}
			ref, definitions, err := resolveString(ctx, feature, v.Ref, propPos)
			if err != nil {
				return nil, err
			}
			prepend = append(prepend, definitions...)
			entry.value = ref
		case ArrayProperty:
			if len(v.Items) > 0xFF {
				return nil, grferr.New(grferr.ErrRange, propPos, "too many items for property 0x%02X", prop.Num)
			}
			for _, item := range v.Items {
				if err := checkFits(item, prop.Size, propPos); err != nil {
					return nil, err
				}
			}
			entry.items = v.Items
		default:
			return nil, grferr.New(grferr.ErrTypeMismatch, propPos, "invalid value for property 0x%02X", prop.Num)
		}

		table.entries = append(table.entries, entry)
		offset = valueOffset + entry.valueSize()
	}

	records := append(prepend, pre...)
	return append(records, withPatches(table, patches)...), nil
}

// checkFits returns an error if v cannot be written in size bytes, both signed and unsigned values
// are accepted.
func checkFits(v int64, size int, pos srcpos.Position) error {
	bits := uint(8 * size)
	lowest := -(int64(1) << (bits - 1))
	highest := int64(1)<<bits - 1
	if v < lowest || v > highest {
		return grferr.New(grferr.ErrRange, pos, "value %d does not fit in %d byte(s)", v, size)
	}
	return nil
}

func checkFeature(feature int, pos srcpos.Position) error {
	if feature < 0 || feature > 0xFF {
		return grferr.New(grferr.ErrRange, pos, "feature 0x%X is out of range", feature)
	}
	return nil
}
