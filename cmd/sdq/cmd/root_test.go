package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores every package-level flag var to its zero value so
// tests don't see state leaked by an earlier Execute() call (cobra
// doesn't reset bound vars between runs on its own).
func resetFlags() {
	inputFormatFlag = "auto"
	outputFormatFlag = "auto"
	inplace = false
	nullInput = false
	prettyPrint = false
	forceColor = false
	disableColor = true
	indent = 0
	unwrapScalar = false
	fromFile = ""
	noDoc = false
	nulOutput = false
	exitStatus = false
	verbose = false
}

// runCLI executes the root command with args and stdin, capturing
// stdout through an os.Pipe swap.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	rootCmd.SetArgs(args)

	oldStdin := os.Stdin
	if stdin != "" || len(args) == 0 {
		r, w, _ := os.Pipe()
		go func() {
			w.WriteString(stdin)
			w.Close()
		}()
		os.Stdin = r
	}
	defer func() { os.Stdin = oldStdin }()

	oldStdout := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	err := rootCmd.Execute()

	wOut.Close()
	os.Stdout = oldStdout
	out, _ := io.ReadAll(rOut)
	return string(out), err
}

func TestRun_NullInputIdentity(t *testing.T) {
	out, err := runCLI(t, "", ".", "-n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "null\n" {
		t.Fatalf("got %q, want %q", out, "null\n")
	}
}

func TestRun_FieldAccessFromStdinJSON(t *testing.T) {
	out, err := runCLI(t, `{"a":{"b":5}}`, "-p", "json", ".a.b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "5\n" {
		t.Fatalf("got %q, want %q", out, "5\n")
	}
}

func TestRun_UnwrapScalarFlag(t *testing.T) {
	out, err := runCLI(t, `{"name":"ada"}`, "-p", "json", "-r", ".name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ada\n" {
		t.Fatalf("got %q, want %q", out, "ada\n")
	}
}

func TestRun_ExitStatusFlagSetsExitCode1WhenAllFalsy(t *testing.T) {
	_, err := runCLI(t, "", "-n", "-e", "false")
	if err == nil {
		t.Fatalf("expected an exit error")
	}
	ce, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if ce.ExitCode() != 1 {
		t.Fatalf("got exit code %d, want 1", ce.ExitCode())
	}
}

func TestRun_ExitStatusFlagSucceedsWhenAnyOutputTruthy(t *testing.T) {
	_, err := runCLI(t, "", "-n", "-e", "true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_ParseErrorExitsWithCode2(t *testing.T) {
	_, err := runCLI(t, "", "-n", ".[")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	ce, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if ce.ExitCode() != 2 {
		t.Fatalf("got exit code %d, want 2", ce.ExitCode())
	}
}

func TestRun_FromFileReadsExpression(t *testing.T) {
	dir := t.TempDir()
	exprPath := filepath.Join(dir, "query.sdq")
	if err := os.WriteFile(exprPath, []byte(".x"), 0o644); err != nil {
		t.Fatalf("writing expression file: %v", err)
	}
	out, err := runCLI(t, `{"x":42}`, "-p", "json", "--from-file", exprPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "42\n" {
		t.Fatalf("got %q, want %q", out, "42\n")
	}
}

func TestRun_InplaceWritesBackToFile(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(dataPath, []byte(`{"count":1}`), 0o644); err != nil {
		t.Fatalf("writing data file: %v", err)
	}
	out, err := runCLI(t, "", "-i", ".count = 2", dataPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no stdout output for -i, got %q", out)
	}
	updated, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("reading updated file: %v", err)
	}
	if !bytes.Contains(updated, []byte(`"count":2`)) {
		t.Fatalf("got %q, want it to contain %q", updated, `"count":2`)
	}
}

func TestRun_NulOutputDelimitsEachOutput(t *testing.T) {
	out, err := runCLI(t, `[1,2,3]`, "-p", "json", "-0", ".[]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1\x002\x003\n" {
		t.Fatalf("got %q, want NUL-delimited outputs", out)
	}
}

func TestRun_EmptyExpressionPrintsUsage(t *testing.T) {
	_, err := runCLI(t, "")
	if err == nil {
		t.Fatalf("expected a usage error when no expression and no -n are given")
	}
}
