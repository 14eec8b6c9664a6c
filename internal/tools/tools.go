// Package tools runs the helper executables a cell can hand work to: a heavy
// calculator for "s:" cells and a currency rate lookup for the rate command.
//
// A helper that is missing, fails, times out or prints nothing readable never
// surfaces as a Go error in the grid; the cell gets a fixed message instead.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vogtb/gridcalc/internal/engine"
)

// DefaultTimeout bounds a single helper run
const DefaultTimeout = 30 * time.Second

// Messages written into the cell when a helper cannot produce output
const (
	MsgCalcFailed  = "Failed to execute qalc command."
	MsgRateMissing = "The rate command was not found!"
)

// Error is a failed helper run
type Error struct {
	Tool    engine.ToolKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return e.Tool.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the fixed text shown in the cell
func (e *Error) UserMessage() string {
	return e.Message
}

// Runner locates and runs the helpers
type Runner struct {
	// CalcPath and RatePath override the helper locations
	CalcPath string
	RatePath string
	Timeout  time.Duration
	Logger   *log.Logger
}

// NewRunner finds the helpers the way a bundled install lays them out: qalc
// on the PATH (or in a qalc directory beside the executable on Windows) and
// rate beside the executable
func NewRunner(dir string, logger *log.Logger) *Runner {
	r := &Runner{
		CalcPath: "qalc",
		RatePath: filepath.Join(dir, "rate"),
		Timeout:  DefaultTimeout,
		Logger:   logger,
	}
	if runtime.GOOS == "windows" {
		r.CalcPath = filepath.Join(dir, "qalc", "qalc.exe")
		r.RatePath = filepath.Join(dir, "rate.exe")
	}
	return r
}

// DefaultDir returns the directory of the running executable
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Calc evaluates expr with the heavy calculator in terse mode
func (r *Runner) Calc(ctx context.Context, expr string) (string, error) {
	out, err := r.run(ctx, r.CalcPath, "-t", expr)
	if err != nil {
		return "", &Error{Tool: engine.ToolCalc, Message: MsgCalcFailed, Err: err}
	}
	return out, nil
}

// Rate fetches the current exchange rate line
func (r *Runner) Rate(ctx context.Context) (string, error) {
	out, err := r.run(ctx, r.RatePath)
	if err != nil {
		return "", &Error{Tool: engine.ToolRate, Message: MsgRateMissing, Err: err}
	}
	return out, nil
}

// Run serves a request from a session commit and returns the text for the
// cell, which is the fixed message on failure
func (r *Runner) Run(ctx context.Context, req engine.ToolRequest) string {
	var (
		out string
		err error
	)
	switch req.Tool {
	case engine.ToolCalc:
		out, err = r.Calc(ctx, req.Expr)
	case engine.ToolRate:
		out, err = r.Rate(ctx)
	default:
		err = &Error{Tool: req.Tool, Message: MsgCalcFailed, Err: errors.New("unknown tool")}
	}
	if err != nil {
		r.logf("tools: %v", err)
		var toolErr *Error
		if errors.As(err, &toolErr) {
			return toolErr.Message
		}
		return err.Error()
	}
	return out
}

func (r *Runner) run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	r.logf("tools: %s %q took %v", filepath.Base(name), args, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("run %s: %w", name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("run %s: %w", name, err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", fmt.Errorf("run %s: output is not text", name)
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("run %s: no output", name)
	}
	return out, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
