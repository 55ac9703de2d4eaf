// Package runner owns the target process lifecycle: launch, bounded output
// capture, timeout enforcement with grace-period escalation, and collector
// coordination. The runner treats the target as an opaque black box: it
// stores raw output bytes and never interprets them.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

const (
	// DefaultGracePeriod is how long a signalled process tree gets to exit
	// before escalation to a forced kill.
	DefaultGracePeriod = 5 * time.Second

	// DefaultOutputCap bounds each captured output stream.
	DefaultOutputCap = 1 << 20
)

// Runner launches target programs under profiling collectors.
type Runner struct {
	logger    *zap.Logger
	grace     time.Duration
	outputCap int
}

// Option customizes a Runner.
type Option func(*Runner)

// WithGracePeriod overrides the termination grace window.
func WithGracePeriod(grace time.Duration) Option {
	return func(r *Runner) {
		if grace > 0 {
			r.grace = grace
		}
	}
}

// WithOutputCap overrides the per-stream output byte cap.
func WithOutputCap(capacity int) Option {
	return func(r *Runner) {
		if capacity > 0 {
			r.outputCap = capacity
		}
	}
}

// New creates a Runner.
func New(logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		logger:    logger,
		grace:     DefaultGracePeriod,
		outputCap: DefaultOutputCap,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the target under the given collectors and assembles the
// session. Wrapping collectors rewrite the command exactly once, in slice
// order, before launch; attaching collectors start after the PID is known
// and stop only after the process tree is confirmed terminated.
//
// A command that cannot start returns a *LaunchError together with a
// session whose process record carries the launch-failed status and no
// artifacts. Every other failure mode (non-zero exit, timeout kill,
// collector degradation) is recorded in the session rather than raised.
func (r *Runner) Run(ctx context.Context, target domain.TargetProgram, cols []collectors.Collector) (*domain.Session, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	command := make([]string, len(target.Command))
	copy(command, target.Command)
	for _, c := range cols {
		command = c.PrepareCommand(command)
	}

	stdout := newCappedBuffer(r.outputCap)
	stderr := newCappedBuffer(r.outputCap)

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = target.Dir
	cmd.Env = buildEnv(target.Env)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Bound the post-kill wait so orphaned grandchildren holding the output
	// pipes can never hang the runner.
	cmd.WaitDelay = r.grace
	setProcGroup(cmd)

	startedAt := time.Now().UTC()
	if err := cmd.Start(); err != nil {
		session := &domain.Session{
			ID:          uuid.NewString(),
			Target:      target,
			Environment: domain.CaptureEnvironment(),
			StartedAt:   startedAt,
			FinishedAt:  startedAt,
			Process: domain.ProcessRecord{
				ExitCode:   -1,
				ExitStatus: domain.ExitStatusLaunchFailed,
				StartedAt:  startedAt,
				FinishedAt: startedAt,
			},
		}
		return session, &LaunchError{Command: command, Dir: target.Dir, Err: err}
	}
	pid := cmd.Process.Pid

	r.logger.Info("Target launched",
		zap.Int("pid", pid),
		zap.Strings("command", command),
		zap.Duration("timeout", target.Timeout),
	)

	session := &domain.Session{
		ID:          uuid.NewString(),
		Target:      target,
		Environment: domain.CaptureEnvironment(),
		StartedAt:   startedAt,
	}

	for _, c := range cols {
		if err := c.Start(ctx, pid); err != nil {
			// Isolated: the collector degrades, the run continues.
			r.logger.Warn("Collector failed to start",
				zap.String("collector", c.Name()),
				zap.Error(err),
			)
		}
	}

	status, waitErr := r.await(ctx, cmd, target.Timeout)
	finishedAt := time.Now().UTC()

	record := domain.ProcessRecord{
		PID:             pid,
		ExitStatus:      status,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		Stdout:          stdout.Bytes(),
		Stderr:          stderr.Bytes(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
	}
	if cmd.ProcessState != nil {
		record.ExitCode = cmd.ProcessState.ExitCode()
	}
	if status == "" {
		switch {
		case waitErr == nil:
			record.ExitStatus = domain.ExitStatusOK
		default:
			record.ExitStatus = domain.ExitStatusError
		}
	}

	// Termination is confirmed; artifacts emitted from here on are final.
	// Stop runs on its own bounded context: collectors still shell out to
	// read their tool output, and a cancelled run context would kill those
	// reads before they start. Partial data is valid and must be collected.
	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), r.grace)
	defer stopCancel()
	for _, c := range cols {
		if artifact := c.Stop(stopCtx); artifact != nil {
			session.Artifacts = append(session.Artifacts, *artifact)
		}
	}

	session.Process = record
	session.FinishedAt = finishedAt

	r.logger.Info("Target finished",
		zap.Int("pid", pid),
		zap.String("exit_status", string(record.ExitStatus)),
		zap.Int("exit_code", record.ExitCode),
		zap.Int("artifacts", len(session.Artifacts)),
	)
	return session, nil
}

// await blocks until the process exits, the timeout fires or the context is
// cancelled, whichever comes first. The kill path signals the whole
// process group, waits out the grace period and escalates to SIGKILL, so
// this never blocks indefinitely. A non-empty returned status overrides the
// exit-code classification.
func (r *Runner) await(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) (domain.ExitStatus, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-done:
		return "", err
	case <-timeoutCh:
		r.logger.Warn("Target exceeded timeout, terminating process tree",
			zap.Int("pid", cmd.Process.Pid),
			zap.Duration("timeout", timeout),
		)
	case <-ctx.Done():
		r.logger.Warn("Run cancelled, terminating process tree",
			zap.Int("pid", cmd.Process.Pid),
		)
	}

	return domain.ExitStatusTimeout, r.terminate(cmd, done)
}

// terminate signals the process group, waits a bounded grace period, then
// forces a kill and drains the wait.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error) error {
	pid := cmd.Process.Pid

	if err := killTree(pid, false); err != nil {
		r.logger.Debug("Graceful signal failed", zap.Int("pid", pid), zap.Error(err))
	}

	grace := time.NewTimer(r.grace)
	defer grace.Stop()

	select {
	case err := <-done:
		return err
	case <-grace.C:
	}

	r.logger.Warn("Grace period expired, forcing kill", zap.Int("pid", pid))
	if err := killTree(pid, true); err != nil {
		r.logger.Debug("Forced kill failed", zap.Int("pid", pid), zap.Error(err))
		_ = cmd.Process.Kill()
	}

	select {
	case err := <-done:
		return err
	case <-time.After(r.grace):
		return errors.New("process did not reap after forced kill")
	}
}

// buildEnv layers the target's overrides on the host environment, matching
// how the process would see the world if launched from a shell.
func buildEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // inherit as-is
	}
	env := os.Environ()
	for key, value := range overrides {
		env = append(env, key+"="+value)
	}
	return env
}
