package utils

import (
	"fmt"
	"io"
	"regexp"

	"github.com/muesli/termenv"
)

const (
	SMALL_LINE_SEP = "------------------------------"
)

var ANSI_ESCAPE_SEQUENCE_REGEX = regexp.MustCompile("[\u001B\u009B][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[a-zA-Z\\d]*)*)?\u0007)|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PRZcf-ntqry=><~]))")

func StripANSISequences(str string) string {
	return ANSI_ESCAPE_SEQUENCE_REGEX.ReplaceAllString(str, "")
}

// PrintColored prints s with the given foreground color, no escape sequence is printed if the
// profile is termenv.Ascii.
func PrintColored(w io.Writer, profile termenv.Profile, color termenv.Color, s string) {
	fmt.Fprint(w, profile.String(s).Foreground(profile.Convert(color)).String())
}

func PrintSmallLineSeparator(w io.Writer) {
	fmt.Fprintln(w, SMALL_LINE_SEP)
}
