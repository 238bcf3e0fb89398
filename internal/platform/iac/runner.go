package iac

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes the infrastructure binary in a fixed working directory.
type Runner struct {
	binary  string
	workDir string
	varFile string
	log     zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithVarFile passes a variable file to apply and destroy.
func WithVarFile(path string) Option {
	return func(r *Runner) {
		r.varFile = path
	}
}

// WithLogger sets the logger that receives the binary's output.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a Runner for the given binary and working directory.
// The binary must be resolvable in PATH (or be a direct path to an
// executable); a missing binary is reported before any phase runs.
func NewRunner(binary, workDir string, opts ...Option) (*Runner, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("infrastructure binary %q not found: %w (install OpenTofu: https://opentofu.org/docs/intro/install/)", binary, err)
	}

	r := &Runner{
		binary:  path,
		workDir: workDir,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if v := binaryVersion(path); v != "" {
		r.log.Debug().Str("binary", path).Str("version", v).Msg("resolved infrastructure binary")
	}
	return r, nil
}

// Init initializes the working directory (providers, modules, backend).
func (r *Runner) Init(ctx context.Context) error {
	return r.run(ctx, "init", "-input=false")
}

// Apply creates or updates the infrastructure without prompting.
func (r *Runner) Apply(ctx context.Context) error {
	args := []string{"apply", "-auto-approve", "-input=false"}
	if r.varFile != "" {
		args = append(args, "-var-file="+r.varFile)
	}
	return r.run(ctx, args...)
}

// Destroy tears down the infrastructure without prompting.
func (r *Runner) Destroy(ctx context.Context) error {
	args := []string{"destroy", "-auto-approve", "-input=false"}
	if r.varFile != "" {
		args = append(args, "-var-file="+r.varFile)
	}
	return r.run(ctx, args...)
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	r.log.Info().Str("binary", r.binary).Strs("args", args).Str("dir", r.workDir).Msg("running infrastructure command")

	// #nosec G204 - binary and args come from validated config, not user input
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.workDir

	out := &logWriter{log: r.log}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	out.flush()
	if err != nil {
		return fmt.Errorf("%s %s failed in %s: %w", r.binary, args[0], r.workDir, err)
	}
	return nil
}

// binaryVersion attempts to get the version of the binary, best effort.
func binaryVersion(path string) string {
	// #nosec G204 - path was resolved via exec.LookPath
	out, err := exec.Command(path, "version").Output()
	if err != nil {
		return ""
	}
	lines := strings.Split(string(out), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

// logWriter forwards subprocess output to the run log line by line.
type logWriter struct {
	log zerolog.Logger
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		if line != "" {
			w.log.Info().Msg(line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// flush logs any trailing output that did not end with a newline.
func (w *logWriter) flush() {
	if len(w.buf) > 0 {
		w.log.Info().Msg(string(w.buf))
		w.buf = nil
	}
}
