// Package log builds the proxy's root structured logger. It fans out to
// stderr (level-filtered, text or JSON) and, optionally, a daily-rotating
// debug file (always JSON, always every level) via FileWriter.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var fileWriter *FileWriter

// Options configures the root logger.
type Options struct {
	// Verbose enables debug-level output to stderr (non-interactive only).
	Verbose bool
	// JSONFormat emits JSON to stderr instead of a human-readable console format.
	JSONFormat bool
	// Interactive suppresses debug output to stderr regardless of Verbose.
	Interactive bool
	// DebugDir, if set, enables a daily-rotating JSON debug log at this directory.
	DebugDir string
	// RetentionDays is how many days of debug log files to keep (0 = no cleanup).
	RetentionDays int
	// Stderr is the writer for stderr output (defaults to os.Stderr).
	Stderr io.Writer
}

// Init builds and returns the root logger for opts. Callers thread the
// returned logger explicitly (e.g. into proxy.New) rather than relying on a
// mutable global, so per-request fields never race across goroutines.
func Init(opts Options) (zerolog.Logger, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	stderrLevel := zerolog.WarnLevel
	if opts.Verbose && !opts.Interactive {
		stderrLevel = zerolog.DebugLevel
	}

	var stderrOut io.Writer = stderr
	if !opts.JSONFormat {
		stderrOut = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}

	writers := []io.Writer{leveledWriter{Writer: stderrOut, level: stderrLevel}}

	if opts.DebugDir != "" {
		if opts.RetentionDays > 0 {
			Cleanup(opts.DebugDir, opts.RetentionDays)
		}
		fw, err := NewFileWriter(opts.DebugDir)
		if err != nil {
			return zerolog.Logger{}, err
		}
		fileWriter = fw
		writers = append(writers, leveledWriter{Writer: fw, level: zerolog.DebugLevel})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(zerolog.DebugLevel)

	return logger, nil
}

// Close closes the debug file writer if Init opened one.
func Close() {
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

// leveledWriter gates a sink by level independently of the logger's own
// level, so stderr can stay at Warn while the debug file still gets Debug.
// zerolog calls WriteLevel when a writer implements it instead of Write.
type leveledWriter struct {
	io.Writer
	level zerolog.Level
}

func (w leveledWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.level {
		return len(p), nil
	}
	return w.Write(p)
}
