package srcpos

import (
	"fmt"
	"strings"
)

// Position locates a declaration (or a part of it) in the input of the compiler.
// Line is zero when the front-end does not know it.
type Position struct {
	File string
	Line int
	Path string //e.g. declarations[3].props[1]
}

func (p Position) String() string {
	switch {
	case p.File == "" && p.Line == 0 && p.Path == "":
		return "<unknown position>"
	case p.Line == 0 && p.Path == "":
		return p.File
	case p.Line == 0:
		return fmt.Sprintf("%s:%s", p.File, p.Path)
	case p.Path == "":
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d (%s)", p.File, p.Line, p.Path)
	}
}

// IsZero reports whether p carries no information.
func (p Position) IsZero() bool {
	return p == Position{}
}

// Sub returns a position pointing to a sub element of p.
func (p Position) Sub(format string, args ...any) Position {
	sub := fmt.Sprintf(format, args...)
	switch {
	case p.Path == "":
	case strings.HasPrefix(sub, "["):
		sub = p.Path + sub
	default:
		sub = p.Path + "." + sub
	}
	p.Path = sub
	return p
}
