package grferr

import (
	"errors"
	"fmt"

	"github.com/inoxlang/grfc/internal/srcpos"
)

// Kinds of compile errors, a *CompileError always wraps one of them.
var (
	ErrUnknownIdentifier         = errors.New("unknown identifier")
	ErrUnknownReference          = errors.New("unknown reference")
	ErrDuplicateIdentifier       = errors.New("duplicate identifier")
	ErrTypeMismatch              = errors.New("type mismatch")
	ErrResourceExhausted         = errors.New("resource exhausted")
	ErrNoUniqueResourceAvailable = errors.New("no unique resource available")
	ErrRange                     = errors.New("value out of range")
	ErrUnsupportedOperator       = errors.New("unsupported operator")
	ErrInvalidRangeResult        = errors.New("invalid range result")
)

// CompileError is a user facing error attached to a source position.
type CompileError struct {
	Kind    error
	Pos     srcpos.Position
	Message string
}

func (e *CompileError) Error() string {
	if e.Pos.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Kind
}

func New(kind error, pos srcpos.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithPos returns err with its position set to pos if err is a *CompileError without position,
// other errors are returned unchanged.
func WithPos(err error, pos srcpos.Position) error {
	var compileErr *CompileError
	if errors.As(err, &compileErr) && compileErr.Pos.IsZero() {
		errWithPos := *compileErr
		errWithPos.Pos = pos
		return &errWithPos
	}
	return err
}
