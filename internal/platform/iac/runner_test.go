package iac

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// writeFakeBinary creates a shell script that records its arguments and
// exits with the given code.
func writeFakeBinary(t *testing.T, dir string, exitCode string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary helper requires a POSIX shell")
	}

	path := filepath.Join(dir, "fake-tofu")
	script := "#!/bin/sh\n" +
		"echo \"$@\" > \"$(dirname \"$0\")/args.txt\"\n" +
		"echo \"apply output line\"\n" +
		"exit " + exitCode + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}
	return path
}

func recordedArgs(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func TestNewRunner_MissingBinary(t *testing.T) {
	t.Parallel()
	_, err := NewRunner("kubelift-test-no-such-binary", t.TempDir())
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunner_Apply(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	binary := writeFakeBinary(t, dir, "0")

	r, err := NewRunner(binary, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	args := recordedArgs(t, dir)
	if args != "apply -auto-approve -input=false" {
		t.Errorf("unexpected args: %q", args)
	}
}

func TestRunner_Destroy_WithVarFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	binary := writeFakeBinary(t, dir, "0")

	r, err := NewRunner(binary, dir, WithVarFile("cluster.tfvars"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Destroy(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	args := recordedArgs(t, dir)
	if args != "destroy -auto-approve -input=false -var-file=cluster.tfvars" {
		t.Errorf("unexpected args: %q", args)
	}
}

func TestRunner_Apply_Failure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	binary := writeFakeBinary(t, dir, "1")

	r, err := NewRunner(binary, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = r.Apply(context.Background())
	if err == nil {
		t.Fatal("expected an error for a failing binary")
	}
	if !strings.Contains(err.Error(), "apply failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunner_StreamsOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	binary := writeFakeBinary(t, dir, "0")

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	r, err := NewRunner(binary, dir, WithLogger(log))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "apply output line") {
		t.Errorf("expected binary output in the log, got: %s", buf.String())
	}
}

func TestLogWriter_SplitsLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := &logWriter{log: zerolog.New(&buf)}

	// Output arrives in arbitrary chunks; lines must be reassembled.
	if _, err := w.Write([]byte("first li")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Write([]byte("ne\r\nsecond line\npartial")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.flush()

	out := buf.String()
	for _, want := range []string{"first line", "second line", "partial"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output, got: %s", want, out)
		}
	}
	if strings.Contains(out, "first li\"") {
		t.Errorf("line was split mid-chunk: %s", out)
	}
}
