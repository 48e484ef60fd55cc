package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	SEVERITY_NOTICE  = 0
	SEVERITY_WARNING = 1
	SEVERITY_ERROR   = 2
	SEVERITY_FATAL   = 3

	CUSTOM_MESSAGE_ID = 0xFF
	ALL_LANGUAGES     = 0x7F
	MAX_BUILTIN_MSGID = 0x06
	MAX_ERROR_PARAMS  = 2
)

// ErrorMessage (action B) shows a message to the player, a fatal message disables the GRF.
type ErrorMessage struct {
	recordBase
	Severity int
	Lang     int
	MsgID    int
	Custom   string //only written if MsgID is CUSTOM_MESSAGE_ID
	Data     *string
	Params   []int

	customSize, dataSize int
}

func (*ErrorMessage) Kind() Kind {
	return KindErrorMessage
}

func (m *ErrorMessage) Size() int {
	size := 4 + len(m.Params)
	if m.MsgID == CUSTOM_MESSAGE_ID {
		size += m.customSize
	}
	if m.Data != nil {
		size += m.dataSize
	}
	return size
}

func (m *ErrorMessage) Write(out grfout.Output) {
	writePseudoSprite(out, m.Size(), func(w grfout.Writer) {
		w.PrintByte(0x0B)
		w.PrintByte(m.Severity)
		w.PrintByte(m.Lang)
		w.PrintByte(m.MsgID)
		if m.MsgID == CUSTOM_MESSAGE_ID {
			w.PrintString(m.Custom, true, false)
		}
		if m.Data != nil {
			w.PrintString(*m.Data, true, false)
			for _, param := range m.Params {
				w.PrintByte(param)
			}
		}
	})
}

// ErrorMessageDecl describes an error message: either a builtin message (MsgID) or a custom message
// from the string table (Custom). Params are the parameters whose values are inserted in the message,
// they require Data.
type ErrorMessageDecl struct {
	Severity int
	MsgID    int
	Custom   *expr.StringRef
	Data     *string
	Params   []expr.Expr
	Pos      srcpos.Position
}

// LowerErrorMessage returns one error message per translation of a custom message, or a single
// message for all languages if the message is builtin.
func LowerErrorMessage(ctx *Context, decl ErrorMessageDecl) ([]Record, error) {
	pos := decl.Pos
	if decl.Severity < SEVERITY_NOTICE || decl.Severity > SEVERITY_FATAL {
		return nil, grferr.New(grferr.ErrRange, pos, "invalid severity %d", decl.Severity)
	}
	if len(decl.Params) > MAX_ERROR_PARAMS {
		return nil, grferr.New(grferr.ErrRange, pos, "an error message has at most %d parameters", MAX_ERROR_PARAMS)
	}
	if len(decl.Params) > 0 && decl.Data == nil {
		return nil, grferr.New(grferr.ErrTypeMismatch, pos, "the parameters of an error message require a data string")
	}

	dataSize := 0
	if decl.Data != nil {
		size, err := grfout.StringSize(*decl.Data, true, false)
		if err != nil {
			return nil, grferr.New(grferr.ErrTypeMismatch, pos.Sub("data"), "invalid data string: %s", err)
		}
		dataSize = size
	}

	var (
		records []Record
		params  []int
	)

	for i, param := range decl.Params {
		pre, num, err := patchSource(ctx, expr.FoldConstants(param), pos.Sub("params[%d]", i))
		if err != nil {
			return nil, err
		}
		records = append(records, pre...)
		params = append(params, num)
	}

	newMessage := func(lang int, msgID int, custom string, customSize int) *ErrorMessage {
		return &ErrorMessage{
			recordBase: recordBase{pos: pos},
			Severity:   decl.Severity,
			Lang:       lang,
			MsgID:      msgID,
			Custom:     custom,
			Data:       decl.Data,
			Params:     params,
			customSize: customSize,
			dataSize:   dataSize,
		}
	}

	if decl.Custom == nil {
		if decl.MsgID < 0 || decl.MsgID > MAX_BUILTIN_MSGID {
			return nil, grferr.New(grferr.ErrRange, pos, "builtin message id 0x%X is out of range [0, 0x%X]", decl.MsgID, MAX_BUILTIN_MSGID)
		}
		return append(records, newMessage(ALL_LANGUAGES, decl.MsgID, "", 0)), nil
	}

	if ctx.Strings == nil {
		return nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s cannot be resolved: no string table", decl.Custom.Name)
	}
	translations, err := ctx.Strings.ResolveStringTranslations(decl.Custom.Name, pos)
	if err != nil {
		return nil, grferr.WithPos(err, pos)
	}
	if len(translations) == 0 {
		return nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s has no translation", decl.Custom.Name)
	}

	for _, translation := range translations {
		if translation.Lang < 0 || translation.Lang > 0x7F {
			return nil, grferr.New(grferr.ErrRange, pos, "language id 0x%X is out of range [0x00, 0x7F]", translation.Lang)
		}
		customSize, err := grfout.StringSize(translation.Text, true, false)
		if err != nil {
			return nil, grferr.New(grferr.ErrTypeMismatch, pos, "invalid text for language 0x%02X: %s", translation.Lang, err)
		}
		records = append(records, newMessage(translation.Lang, CUSTOM_MESSAGE_ID, translation.Text, customSize))
	}
	return records, nil
}
