// Package logging configures the global zerolog logger used for diagnostics.
// User-facing output never goes through it.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvDebug turns on debug logging when set to a non-empty value other than "0".
const EnvDebug = "KILLPORT_DEBUG"

// Setup points the global logger at w. Debug output is enabled by the
// --debug flag or by KILLPORT_DEBUG.
func Setup(debug bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	if v := os.Getenv(EnvDebug); v != "" && v != "0" {
		debug = true
	}

	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}
