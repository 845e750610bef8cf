// Package runner executes experiment jobs directly, without make, using the
// same status-file protocol as the generated Makefile.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/docker"
	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/makefile"
	"github.com/signalnine/fedexps/internal/result"
)

const (
	ReasonCompleted = "completed"
	ReasonFailed    = "failed"
	ReasonTimeout   = "timeout"
)

type DockerOpts struct {
	Image    string
	CPUs     float64
	MemoryMB int64
	Env      map[string]string
}

type JobOpts struct {
	Family         experiment.Family
	Description    experiment.Description
	LogDir         string
	Command        []string
	WorkDir        string
	TestRun        bool
	TrackingConfig string
	Timeout        time.Duration
	// Docker runs the job in a container when set.
	Docker *DockerOpts
}

type JobResult struct {
	Description experiment.Description
	Path        string
	ExitCode    int
	Reason      string
	Duration    time.Duration
}

// ExitReason classifies a finished job.
func ExitReason(code int, timedOut bool) string {
	if timedOut {
		return ReasonTimeout
	}
	if code == 0 {
		return ReasonCompleted
	}
	return ReasonFailed
}

// Argv returns the full command line of the job.
func (o *JobOpts) Argv() []string {
	args := makefile.JobArgs(o.Family, o.Description, o.TestRun, o.TrackingConfig)
	return append(append([]string{}, o.Command...), args...)
}

// RunJob runs one experiment with its output in the .run status file, then
// renames that file to .log on success or .err otherwise.
func RunJob(ctx context.Context, opts *JobOpts) (*JobResult, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("job command is empty")
	}
	logger := ctxlog.FromContext(ctx).With("job", opts.Description.String())

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	runPath := result.LogPath(opts.LogDir, opts.Family, opts.Description, result.Running)
	logPath := result.LogPath(opts.LogDir, opts.Family, opts.Description, result.Completed)
	errPath := result.LogPath(opts.LogDir, opts.Family, opts.Description, result.Failed)
	if err := os.Remove(errPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing previous failure: %w", err)
	}

	out, err := os.Create(runPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", runPath, err)
	}

	logger.Debug("starting job", "argv", opts.Argv())
	start := time.Now()
	var code int
	var timedOut bool
	if opts.Docker != nil {
		code, timedOut, err = runContainer(ctx, opts, out)
	} else {
		code, timedOut, err = runLocal(ctx, opts, out)
	}
	if err != nil {
		fmt.Fprintf(out, "\nfedexps: %v\n", err)
		code = -1
	}
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing %s: %w", runPath, cerr)
	}

	res := &JobResult{
		Description: opts.Description,
		ExitCode:    code,
		Reason:      ExitReason(code, timedOut),
		Duration:    time.Since(start),
	}
	res.Path = errPath
	if res.Reason == ReasonCompleted && err == nil {
		res.Path = logPath
	}
	if rerr := os.Rename(runPath, res.Path); rerr != nil {
		return nil, fmt.Errorf("renaming %s: %w", runPath, rerr)
	}
	if err != nil {
		return res, err
	}

	logger.Info("job finished", "reason", res.Reason, "exit_code", code, "duration", res.Duration.Round(time.Second))
	return res, nil
}

func runLocal(ctx context.Context, opts *JobOpts, out io.Writer) (int, bool, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	argv := opts.Argv()
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = opts.WorkDir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, false, ctx.Err()
	}
	if runCtx.Err() != nil {
		return docker.TimeoutExitCode, true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), false, nil
	}
	if err != nil {
		return -1, false, fmt.Errorf("running %s: %w", argv[0], err)
	}
	return 0, false, nil
}

func runContainer(ctx context.Context, opts *JobOpts, out io.Writer) (int, bool, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return -1, false, fmt.Errorf("resolving work dir: %w", err)
	}
	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:       opts.Docker.Image,
		Command:     opts.Argv(),
		WorkDir:     abs,
		Env:         opts.Docker.Env,
		Timeout:     opts.Timeout,
		CPULimit:    opts.Docker.CPUs,
		MemoryLimit: opts.Docker.MemoryMB << 20,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Output:      out,
	})
	if err != nil {
		return -1, false, fmt.Errorf("running container: %w", err)
	}
	return res.ExitCode, res.TimedOut, nil
}
