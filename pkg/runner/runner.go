// Package runner executes generated automation code against a live browser
// by handing it to an external test command.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
)

// FilePlaceholder in a command is replaced by the path of the source file.
// A command without it gets the path appended.
const FilePlaceholder = "{file}"

// Defaults for CommandRunner.
const (
	DefaultCommand  = "npx playwright test {file} --reporter=line"
	DefaultFileName = "scenario.spec.ts"
	DefaultTimeout  = 5 * time.Minute
)

var runnerLogger *logging.Logger

func init() {
	runnerLogger, _ = logging.NewLogger("runner")
}

// Result is the outcome of one execution.
type Result struct {
	Success    bool          `json:"success"`
	ExitCode   int           `json:"exitCode"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	StackTrace string        `json:"stackTrace,omitempty"`
	TimedOut   bool          `json:"timedOut,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Output returns stdout and stderr combined.
func (r *Result) Output() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// ErrorMessage summarizes a failed result in one line.
func (r *Result) ErrorMessage() string {
	if r.Success {
		return ""
	}
	if r.TimedOut {
		return fmt.Sprintf("execution timed out after %s", r.Duration.Round(time.Millisecond))
	}
	for _, line := range strings.Split(r.Output(), "\n") {
		if errorLine.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	return fmt.Sprintf("process exited with code %d", r.ExitCode)
}

// Runner executes source code. A non-nil error means the code could not be
// run at all; a failing test is a Result with Success false.
type Runner interface {
	Run(ctx context.Context, source string) (*Result, error)
}

// OutputFunc receives output lines as they are produced.
type OutputFunc func(stream, line string)

// CommandRunner writes the source into a fresh temp directory and runs a
// shell command on it.
type CommandRunner struct {
	Command  string
	FileName string
	WorkDir  string
	Timeout  time.Duration
	Env      []string
	OnOutput OutputFunc
}

// NewCommandRunner returns a runner for command with default file name and
// timeout.
func NewCommandRunner(command string) *CommandRunner {
	if command == "" {
		command = DefaultCommand
	}
	return &CommandRunner{Command: command, FileName: DefaultFileName, Timeout: DefaultTimeout}
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context, source string) (*Result, error) {
	dir, err := os.MkdirTemp(r.WorkDir, "uigraph-run-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	defer os.RemoveAll(dir)

	name := r.FileName
	if name == "" {
		name = DefaultFileName
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write source: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	command := buildCommand(r.Command, path)
	runnerLogger.Infof("Running %s", command)

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = dir
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	cmd.Env = append(os.Environ(), r.Env...)

	start := time.Now()
	stdout, stderr, exitCode, runErr := r.runStreaming(cmd)
	result := &Result{
		Success:  runErr == nil,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("run canceled: %w", ctx.Err())
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			result.TimedOut = true
		case !errors.As(runErr, &exitErr):
			return nil, fmt.Errorf("failed to run %q: %w", command, runErr)
		}
		result.StackTrace = ExtractStackTrace(result.Output())
		runnerLogger.Warnf("Run failed (exit %d): %s", exitCode, result.ErrorMessage())
	} else {
		runnerLogger.Infof("Run passed in %s", result.Duration)
	}
	return result, nil
}

func buildCommand(command, path string) string {
	quoted := shellQuote(path)
	if strings.Contains(command, FilePlaceholder) {
		return strings.ReplaceAll(command, FilePlaceholder, quoted)
	}
	return command + " " + quoted
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runStreaming runs cmd, collecting both streams and forwarding lines to
// OnOutput when set.
func (r *CommandRunner) runStreaming(cmd *exec.Cmd) (stdout, stderr string, exitCode int, err error) {
	var mu sync.Mutex
	outWriter := &lineWriter{stream: "stdout", emit: r.OnOutput, mu: &mu}
	errWriter := &lineWriter{stream: "stderr", emit: r.OnOutput, mu: &mu}
	cmd.Stdout = outWriter
	cmd.Stderr = errWriter
	// A killed shell can leave children holding the output open.
	cmd.WaitDelay = killGrace

	execErr := cmd.Run()
	outWriter.flush()
	errWriter.flush()

	stdout, stderr = outWriter.buf.String(), errWriter.buf.String()
	if execErr != nil {
		var exitErr *exec.ExitError
		if errors.As(execErr, &exitErr) {
			return stdout, stderr, exitErr.ExitCode(), execErr
		}
		return stdout, stderr, -1, execErr
	}
	return stdout, stderr, 0, nil
}

const killGrace = 2 * time.Second

// lineWriter keeps everything written and emits complete lines.
type lineWriter struct {
	stream  string
	emit    OutputFunc
	mu      *sync.Mutex
	buf     strings.Builder
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	if w.emit == nil {
		return len(p), nil
	}
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.stream, strings.TrimRight(string(w.pending[:i]), "\r"))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.emit != nil && len(w.pending) > 0 {
		w.emit(w.stream, string(w.pending))
	}
	w.pending = nil
}

var (
	errorLine = regexp.MustCompile(`^\s*(\w*Error|Error:|error:|FAIL|Timeout|TimeoutError|AssertionError|expect\()`)

	// JavaScript "    at fn (file:1:2)", Python "  File "x", line 3" and
	// Go "\tfile.go:12" frames.
	stackFrame = regexp.MustCompile(`^\s+at .+|^\s+File ".+", line \d+|^\t.+\.go:\d+`)
)

// ExtractStackTrace returns the first error line and the stack frames that
// follow it, or "" when the output holds no frames.
func ExtractStackTrace(output string) string {
	lines := strings.Split(output, "\n")
	var frames []string
	header := ""
	for i, line := range lines {
		if !stackFrame.MatchString(line) {
			continue
		}
		if len(frames) == 0 {
			for j := i - 1; j >= 0; j-- {
				if errorLine.MatchString(lines[j]) || strings.HasPrefix(lines[j], "Traceback") {
					header = strings.TrimSpace(lines[j])
					break
				}
			}
		}
		frames = append(frames, strings.TrimRight(line, " \r"))
	}
	if len(frames) == 0 {
		return ""
	}
	if header != "" {
		return header + "\n" + strings.Join(frames, "\n")
	}
	return strings.Join(frames, "\n")
}
