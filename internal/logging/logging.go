package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxFileSizeMB = 1
	maxBackups    = 5
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the service logger. Records go to stderr and, when file is not
// empty, to a size-rotated log file as well. The returned closer releases
// the file.
func New(level, file string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
		}
		out = io.MultiWriter(os.Stderr, rotating)
		closer = rotating
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With(slog.String("service", "stats")), closer, nil
}
