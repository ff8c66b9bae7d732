package pipeline

import (
	"context"

	"github.com/rajmhetar/rajos/broker"
	"github.com/rajmhetar/rajos/executor"
)

// Runner invokes one external tool to completion. The default runner goes
// through the executor package; tests substitute a fake that records the
// argument vectors it receives.
type Runner interface {
	Run(ctx context.Context, program string, args []string) (*executor.Result, error)
}

// commandRunner is the production Runner. When an event queue is configured
// it streams stage output lines through the broker while the tool runs.
type commandRunner struct {
	workDir string
	queue   *broker.Queue
}

// Run implements Runner.
func (r *commandRunner) Run(ctx context.Context, program string, args []string) (*executor.Result, error) {
	opts := []executor.Option{}
	if r.workDir != "" {
		opts = append(opts, executor.WithWorkingDir(r.workDir))
	}
	if r.queue != nil {
		stdout := broker.NewLineWriter(r.queue, broker.SourceStageStdout)
		stderr := broker.NewLineWriter(r.queue, broker.SourceStageStderr)
		defer stdout.Flush()
		defer stderr.Flush()
		opts = append(opts,
			executor.WithStdoutWriter(stdout),
			executor.WithStderrWriter(stderr),
		)
	}
	return executor.New(program, args...).Execute(ctx, opts...)
}
