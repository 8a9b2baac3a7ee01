// Package logging builds the logger shared by every component.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "VULKANTEST_LOG"

// New returns a logger writing to w with timestamps and call sites. The level
// comes from level, which is one of debug, info, warn or error; anything else
// falls back to info and is reported once through the new logger.
func New(w io.Writer, level string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "vulkantest",
	})

	l.SetLevel(log.InfoLevel)
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			l.Warn("unknown log level, using info", "level", level)
		} else {
			l.SetLevel(parsed)
		}
	}
	return l
}

// FromEnv is New on stderr with the level taken from LevelEnv.
func FromEnv() *log.Logger {
	return New(os.Stderr, os.Getenv(LevelEnv))
}
