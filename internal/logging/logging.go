// Package logging sets up the process-wide zerolog logger bitchat's
// non-CLI-output paths write to: persistence failures, dropped inbound
// messages, handshake retries, wipe errors. User-facing command output
// still goes through fmt/cobra, matching the teacher's split between
// "what the user asked for" and "what the system observed".
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a console-writer zerolog.Logger at level, defaulting to
// info when level is unrecognized.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
