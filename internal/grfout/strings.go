package grfout

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

var (
	// prefix of strings that are not pure ASCII (U+00DE encoded in UTF-8).
	UTF8_MARKER = []byte{0xC3, 0x9E}

	ErrInvalidEscape       = errors.New("invalid escape sequence")
	ErrNonASCIIString      = errors.New("expected an ASCII string")
	ErrInvalidUTF8Sequence = errors.New("invalid UTF-8 sequence")
)

const (
	NEWLINE_BYTE = 0x0D
)

// StringSize returns the number of bytes printed by PrintString for s. Supported escape sequences
// are \\, \", \n, \XX (a single byte given in hexadecimal) and \UXXXX (a code point).
// Strings containing characters outside the printable ASCII range or code point escapes are
// prefixed by UTF8_MARKER.
func StringSize(s string, finalZero bool, forceASCII bool) (int, error) {
	size := 0
	nonASCII := false

	for i := 0; i < len(s); {
		if s[i] != '\\' {
			r, n := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && n <= 1 {
				return 0, fmt.Errorf("%w at byte %d", ErrInvalidUTF8Sequence, i)
			}
			if r < 0x20 || r > 0x7E {
				nonASCII = true
			}
			size += n
			i += n
			continue
		}

		escape, consumed, err := parseEscape(s, i)
		if err != nil {
			return 0, err
		}
		if escape.isCodePoint {
			nonASCII = true
			size += utf8.RuneLen(escape.codePoint)
		} else {
			size++
		}
		i += consumed
	}

	if nonASCII {
		if forceASCII {
			return 0, ErrNonASCIIString
		}
		size += len(UTF8_MARKER)
	}
	if finalZero {
		size++
	}
	return size, nil
}

// EncodeString returns the bytes printed by PrintString for s.
func EncodeString(s string, finalZero bool, forceASCII bool) ([]byte, error) {
	var (
		encoded  []byte
		nonASCII bool
	)

	for i := 0; i < len(s); {
		if s[i] != '\\' {
			r, n := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && n <= 1 {
				return nil, fmt.Errorf("%w at byte %d", ErrInvalidUTF8Sequence, i)
			}
			if r < 0x20 || r > 0x7E {
				nonASCII = true
			}
			encoded = append(encoded, s[i:i+n]...)
			i += n
			continue
		}

		escape, consumed, err := parseEscape(s, i)
		if err != nil {
			return nil, err
		}
		if escape.isCodePoint {
			nonASCII = true
			encoded = utf8.AppendRune(encoded, escape.codePoint)
		} else {
			encoded = append(encoded, escape.b)
		}
		i += consumed
	}

	if nonASCII {
		if forceASCII {
			return nil, ErrNonASCIIString
		}
		encoded = append(append([]byte{}, UTF8_MARKER...), encoded...)
	}
	if finalZero {
		encoded = append(encoded, 0)
	}
	return encoded, nil
}

type escapeSequence struct {
	b           byte
	isCodePoint bool
	codePoint   rune
}

func parseEscape(s string, start int) (escapeSequence, int, error) {
	if start+1 >= len(s) {
		return escapeSequence{}, 0, fmt.Errorf("%w: trailing backslash", ErrInvalidEscape)
	}

	switch c := s[start+1]; c {
	case '\\', '"':
		return escapeSequence{b: c}, 2, nil
	case 'n':
		return escapeSequence{b: NEWLINE_BYTE}, 2, nil
	case 'U':
		if start+6 > len(s) {
			return escapeSequence{}, 0, fmt.Errorf("%w: \\U requires 4 hexadecimal digits", ErrInvalidEscape)
		}
		v, err := strconv.ParseUint(s[start+2:start+6], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return escapeSequence{}, 0, fmt.Errorf("%w: %q", ErrInvalidEscape, s[start:start+6])
		}
		return escapeSequence{isCodePoint: true, codePoint: rune(v)}, 6, nil
	default:
		if start+3 > len(s) {
			return escapeSequence{}, 0, fmt.Errorf("%w: %q", ErrInvalidEscape, s[start:])
		}
		v, err := strconv.ParseUint(s[start+1:start+3], 16, 8)
		if err != nil {
			return escapeSequence{}, 0, fmt.Errorf("%w: %q", ErrInvalidEscape, s[start:start+3])
		}
		return escapeSequence{b: byte(v)}, 3, nil
	}
}
