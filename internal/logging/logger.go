// Package logging builds the slog logger used by the dirkeep commands.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/dirkeep/internal/utils"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	// Verbose enables debug records, including per-marker traces.
	Verbose bool
	// Quiet discards everything. It wins over Verbose.
	Quiet bool
	// LogFile, when set, receives a plain-text copy of every record.
	LogFile string
	// Console defaults to os.Stdout.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for opts and a closer for the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.Quiet {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		NoColor:    !isTerminal(console),
	})

	if opts.LogFile == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	if err := utils.EnsureParent(opts.LogFile); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	interceptor := NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(interceptor, &slog.HandlerOptions{
		Level: level,
		// the interceptor stamps the time
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	closer := closerFunc(func() error {
		flushErr := interceptor.Close()
		if err := file.Close(); err != nil {
			return err
		}
		return flushErr
	})
	return slog.New(NewMultiHandler(consoleHandler, fileHandler)), closer, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
