package logging

import (
	"io"
	"os"
	"strings"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/rs/zerolog"
)

// Formats accepted by New.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// ConsoleTimeFormat is the timestamp layout of the pretty format.
const ConsoleTimeFormat = "15:04:05"

// Options configures a logger.
type Options struct {
	// Level is a zerolog level name. Unknown or empty means info.
	Level string
	// Format is FormatPretty or FormatJSON. Empty means pretty.
	Format string
	// Out defaults to stderr.
	Out io.Writer
}

// New builds a logger. Results for the user go to stdout, so logs default to stderr.
func New(opts Options) (logger zerolog.Logger, err error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, parseErr := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	switch opts.Format {
	case FormatPretty, "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: ConsoleTimeFormat}
	case FormatJSON:
	default:
		err = apperr.Newf(apperr.Usage, "log format must be %s or %s, got %q", FormatPretty, FormatJSON, opts.Format)
		return logger, err
	}

	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, err
}
