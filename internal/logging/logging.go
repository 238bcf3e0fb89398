// Package logging builds the per-invocation logger: human-readable console
// output plus a JSON run log file that captures the full execution trace.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	// Workflow names the invocation (rebuild, teardown, backup, verify,
	// node-prepare) and becomes part of the run log filename.
	Workflow string
	// RunID is stamped on every log line and into the run log filename.
	RunID string
	// Verbose lowers the level to debug.
	Verbose bool
	// Dir overrides the run log directory. Empty means DefaultLogDir.
	Dir string
	// ConsoleOut overrides the console sink. Empty means stderr.
	ConsoleOut io.Writer
}

// RunLog is the JSON log file backing a single invocation.
type RunLog struct {
	Path string
	file *os.File
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// StateDir returns the directory kubelift keeps run state in (run logs,
// the run lock). KUBELIFT_STATE_DIR overrides the default ~/.kubelift.
func StateDir() string {
	if dir := os.Getenv("KUBELIFT_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kubelift"
	}
	return filepath.Join(home, ".kubelift")
}

// DefaultLogDir returns the directory run log files are written to.
func DefaultLogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// New creates the invocation logger and its run log file. Console lines go
// to stderr (colored on a TTY); the same events are mirrored as JSON into
// the run log.
func New(opts Options) (zerolog.Logger, *RunLog, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultLogDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("kubelift-%s-%s.log", opts.Workflow, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create run log %s: %w", path, err)
	}

	consoleOut := opts.ConsoleOut
	if consoleOut == nil {
		consoleOut = os.Stderr
	}
	console := zerolog.ConsoleWriter{
		Out:        consoleOut,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(consoleOut),
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(level).
		With().
		Timestamp().
		Str("run_id", opts.RunID).
		Str("workflow", opts.Workflow).
		Logger()

	return logger, &RunLog{Path: path, file: file}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
