//go:build unix

package config

import (
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	UNIX = true
)

func targetSpecificInit() {
	// FORCE COLOR

	if s, ok := os.LookupEnv("FORCE_COLOR"); ok {
		FORCE_COLOR = len(s) != 0 && s != "false" && s != "0"
	}

	//TERMCOLOR

	TRUECOLOR_COLORTERM = os.Getenv("COLORTERM") == "truecolor"

	//NO_COLOR

	if s, ok := os.LookupEnv("NO_COLOR"); ok {
		NO_COLOR = len(s) != 0 && s != "false" && s != "0"
	}

	//TERM

	if strings.Contains(os.Getenv("TERM"), "256color") {
		TERM_256COLOR_CAPABLE = true
	}

	STDERR_IS_TERMINAL = term.IsTerminal(int(os.Stderr.Fd()))

	//

	SHOULD_COLORIZE = !NO_COLOR && (FORCE_COLOR || (STDERR_IS_TERMINAL && (TRUECOLOR_COLORTERM || TERM_256COLOR_CAPABLE)))
}

// ColorProfile returns the color profile used to print diagnostics.
func ColorProfile() termenv.Profile {
	if !SHOULD_COLORIZE {
		return termenv.Ascii
	}
	if TRUECOLOR_COLORTERM {
		return termenv.TrueColor
	}
	return termenv.ANSI256
}
