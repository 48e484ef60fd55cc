package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	LANG_WORD_IDS = 0x80 //flag of the language byte: string ids are words
)

// StringDefinition (action 4) defines the text of a string in a language.
type StringDefinition struct {
	recordBase
	Feature int
	Lang    int
	ID      int
	Text    string

	textSize int
}

func NewStringDefinition(feature int, lang int, id int, text string, pos srcpos.Position) (*StringDefinition, error) {
	if lang < 0 || lang > 0x7F {
		return nil, grferr.New(grferr.ErrRange, pos, "language id 0x%X is out of range [0x00, 0x7F]", lang)
	}
	textSize, err := grfout.StringSize(text, true, false)
	if err != nil {
		return nil, grferr.New(grferr.ErrTypeMismatch, pos, "invalid text for language 0x%02X: %s", lang, err)
	}

	return &StringDefinition{
		recordBase: recordBase{pos: pos},
		Feature:    feature,
		Lang:       lang,
		ID:         id,
		Text:       text,
		textSize:   textSize,
	}, nil
}

func (*StringDefinition) Kind() Kind {
	return KindStringDefinition
}

func (d *StringDefinition) Size() int {
	return 6 + d.textSize
}

func (d *StringDefinition) Write(out grfout.Output) {
	writePseudoSprite(out, d.Size(), func(w grfout.Writer) {
		w.PrintByte(0x04)
		w.PrintByte(d.Feature)
		w.PrintByte(d.Lang | LANG_WORD_IDS)
		w.PrintByte(1)
		w.PrintWord(d.ID)
		w.PrintString(d.Text, true, false)
	})
}

// resolveString returns ref with its id and the records defining its translations. Outside of
// conditionals the translations are only defined once per feature.
func resolveString(ctx *Context, feature int, ref expr.StringRef, pos srcpos.Position) (expr.StringRef, []Record, error) {
	if ctx.Strings == nil {
		return ref, nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s cannot be resolved: no string table", ref.Name)
	}

	id, err := ctx.Strings.ResolveString(ref.Name, pos)
	if err != nil {
		return ref, nil, grferr.WithPos(err, pos)
	}
	ref = ref.WithID(id)

	key := definedString{feature: feature, id: id}
	if _, ok := ctx.definedStrings[key]; ok {
		return ref, nil, nil
	}

	translations, err := ctx.Strings.ResolveStringTranslations(ref.Name, pos)
	if err != nil {
		return ref, nil, grferr.WithPos(err, pos)
	}

	var records []Record
	for _, translation := range translations {
		definition, err := NewStringDefinition(feature, translation.Lang, id, translation.Text, pos)
		if err != nil {
			return ref, nil, err
		}
		records = append(records, definition)
	}

	//inside a conditional the definitions may be skipped.
	if !ctx.InConditional() {
		ctx.definedStrings[key] = struct{}{}
	}
	return ref, records, nil
}
