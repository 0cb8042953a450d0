package logx

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	LevelTrace = zerolog.TraceLevel
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

// ParseLevel maps a level name to a Level. An empty name yields def.
//
// Besides the zerolog names it accepts the npm-style names some configs
// still carry (verbose, silly, http).
func ParseLevel(s string, def Level) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "TRACE", "SILLY":
		return zerolog.TraceLevel, nil
	case "DEBUG", "VERBOSE":
		return zerolog.DebugLevel, nil
	case "INFO", "HTTP":
		return zerolog.InfoLevel, nil
	case "WARN", "WARNING":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	default:
		return def, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

func parseLevel(s string, def Level) Level {
	lvl, err := ParseLevel(s, def)
	if err != nil {
		return def
	}
	return lvl
}

func lowestLevel(levels ...Level) Level {
	if len(levels) == 0 {
		return zerolog.InfoLevel
	}
	lo := levels[0]
	for _, l := range levels[1:] {
		if l < lo {
			lo = l
		}
	}
	return lo
}
