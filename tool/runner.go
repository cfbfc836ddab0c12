// Package tool invokes the external formatter. Three mutually exclusive
// modes exist: a configured executable path, a JSON-RPC worker running
// under an alternate interpreter, and an in-process function.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Result holds the raw output of one tool run.
type Result struct {
	Stdout string
	Stderr string
}

// Invocation describes one tool run.
type Invocation struct {
	Argv     []string
	Cwd      string
	Env      []string
	UseStdin bool
	// Source is piped to the tool's standard input when UseStdin is set.
	Source string
}

// ModuleFunc runs the formatter inside the host process. Errors returned
// here are contract violations and are re-raised to the caller.
type ModuleFunc func(ctx context.Context, inv Invocation) (Result, error)

// HostInterpreter locates the python interpreter module runs execute
// under. Empty when no interpreter is on PATH.
func HostInterpreter() string {
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// RunModule is the default ModuleFunc: it executes the module named by
// Argv[0] under the host interpreter. This keeps a workspace with no
// configured path or interpreter formattable out of the box.
func RunModule(ctx context.Context, inv Invocation) (Result, error) {
	interp := HostInterpreter()
	if interp == "" {
		return Result{}, fmt.Errorf("no python interpreter found on PATH")
	}
	run := inv
	run.Argv = moduleArgv(interp, inv.Argv)
	return RunPath(ctx, run)
}

func moduleArgv(interpreter string, argv []string) []string {
	return append([]string{interpreter, "-m"}, argv...)
}

// RunPath executes the tool as an external process. Standard input is
// written on its own goroutine while both output streams are drained, so
// a tool that emits output incrementally can never deadlock the pipe on
// large documents.
func RunPath(ctx context.Context, inv Invocation) (Result, error) {
	if len(inv.Argv) == 0 {
		return Result{}, fmt.Errorf("empty argv")
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Dir = inv.Cwd
	cmd.Env = append(os.Environ(), inv.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var stdin io.WriteCloser
	if inv.UseStdin {
		var err error
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return Result{}, err
		}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, err
	}

	if stdin != nil {
		go func() {
			io.WriteString(stdin, inv.Source)
			stdin.Close()
		}()
	}

	// A non-zero exit is the tool reporting a problem on stderr, not a
	// launch failure; the captured output is still the answer.
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return Result{}, err
		}
	}
	return Result{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
