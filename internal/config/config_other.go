//go:build !unix

package config

import (
	"os"

	"github.com/muesli/termenv"
)

const (
	UNIX = false
)

func targetSpecificInit() {
	if s, ok := os.LookupEnv("NO_COLOR"); ok {
		NO_COLOR = len(s) != 0 && s != "false" && s != "0"
	}
	if s, ok := os.LookupEnv("FORCE_COLOR"); ok {
		FORCE_COLOR = len(s) != 0 && s != "false" && s != "0"
	}
	SHOULD_COLORIZE = !NO_COLOR && FORCE_COLOR
}

func ColorProfile() termenv.Profile {
	if !SHOULD_COLORIZE {
		return termenv.Ascii
	}
	return termenv.ANSI
}
