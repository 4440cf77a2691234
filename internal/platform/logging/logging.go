package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Setup builds the process logger and installs it as the slog default, so
// slog callers and zerolog callers share one JSON stream and one level.
func Setup(w io.Writer, level string) zerolog.Logger {
	zl := Zerolog(w, level)
	slog.SetDefault(slog.New(NewSlogHandler(zl)))
	return zl
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Zerolog builds the JSON logger behind both the access log and slog.
func Zerolog(w io.Writer, level string) zerolog.Logger {
	zl := zerolog.InfoLevel
	switch ParseLevel(level) {
	case slog.LevelDebug:
		zl = zerolog.DebugLevel
	case slog.LevelWarn:
		zl = zerolog.WarnLevel
	case slog.LevelError:
		zl = zerolog.ErrorLevel
	}
	return zerolog.New(w).Level(zl).With().Timestamp().Str("service", "talent").Logger()
}
