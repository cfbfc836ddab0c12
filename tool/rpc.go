package tool

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// RPCRunner dispatches tool runs to worker processes over JSON-RPC so
// the formatter executes under an interpreter other than the host's.
// Workers are started lazily, one per workspace, and reused.
type RPCRunner struct {
	// Script is the worker entry point passed to the interpreter.
	Script string
	Logger *log.Logger

	mu      sync.Mutex
	workers map[string]*worker
}

type worker struct {
	conn *jsonrpc2.Conn
	cmd  *exec.Cmd
}

type runParams struct {
	Module   string            `json:"module"`
	Argv     []string          `json:"argv"`
	UseStdin bool              `json:"useStdin"`
	Cwd      string            `json:"cwd"`
	Source   string            `json:"source,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
}

type runResult struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Exception string `json:"exception,omitempty"`
}

// Run executes one tool invocation on the workspace's worker. A reported
// worker-side exception is surfaced on Stderr; transport failures are
// returned as errors.
func (r *RPCRunner) Run(ctx context.Context, workspace string, interpreter []string, module string, inv Invocation, env map[string]string) (Result, error) {
	w, err := r.worker(ctx, workspace, interpreter)
	if err != nil {
		return Result{}, err
	}

	var res runResult
	err = w.conn.Call(ctx, "run", runParams{
		Module:   module,
		Argv:     inv.Argv,
		UseStdin: inv.UseStdin,
		Cwd:      inv.Cwd,
		Source:   inv.Source,
		Env:      env,
	}, &res)
	if err != nil {
		return Result{}, fmt.Errorf("rpc run failed: %w", err)
	}

	stderr := res.Stderr
	if res.Exception != "" {
		stderr = res.Exception
	}
	return Result{Stdout: res.Stdout, Stderr: stderr}, nil
}

func (r *RPCRunner) worker(ctx context.Context, workspace string, interpreter []string) (*worker, error) {
	if len(interpreter) == 0 {
		return nil, fmt.Errorf("no interpreter configured for workspace %v", workspace)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[workspace]; ok {
		return w, nil
	}

	argv := append(append([]string{}, interpreter[1:]...), r.Script)
	cmd := exec.Command(interpreter[0], argv...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cannot start worker %v: %w", interpreter, err)
	}

	conn := jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(workerPipe{out: stdout, in: stdin, cmd: cmd}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(r.handleWorkerNotification),
	)

	w := &worker{conn: conn, cmd: cmd}
	if r.workers == nil {
		r.workers = make(map[string]*worker)
	}
	r.workers[workspace] = w

	go func() {
		<-conn.DisconnectNotify()
		r.mu.Lock()
		if r.workers[workspace] == w {
			delete(r.workers, workspace)
		}
		r.mu.Unlock()
		cmd.Wait()
	}()

	return w, nil
}

func (r *RPCRunner) handleWorkerNotification(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if r.Logger != nil {
		r.Logger.Printf("worker: %s", req.Method)
	}
	return nil, nil
}

// Close shuts down all workers.
func (r *RPCRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, w := range r.workers {
		w.conn.Close()
		delete(r.workers, key)
	}
	return nil
}

type workerPipe struct {
	out io.ReadCloser
	in  io.WriteCloser
	cmd *exec.Cmd
}

func (p workerPipe) Read(b []byte) (int, error)  { return p.out.Read(b) }
func (p workerPipe) Write(b []byte) (int, error) { return p.in.Write(b) }

func (p workerPipe) Close() error {
	p.in.Close()
	p.out.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	return nil
}
