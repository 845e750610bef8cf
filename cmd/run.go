package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalnine/fedexps/internal/config"
	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/makefile"
	"github.com/signalnine/fedexps/internal/plan"
	"github.com/signalnine/fedexps/internal/runner"
	"github.com/spf13/cobra"
)

var (
	flagParallel     int
	flagDocker       bool
	flagRunLocal     string
	flagRunTestRun   bool
	flagRunTimeout   time.Duration
	flagDryRun       bool
	flagRunWandbFile string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the missing experiments with a local worker pool",
		Args:  cobra.NoArgs,
		RunE:  runExperiments,
	}
	f := cmd.Flags()
	f.IntVar(&flagParallel, "parallel", 0, "max concurrent jobs (default runner.parallel)")
	f.BoolVar(&flagDocker, "docker", false, "run each job in a container from docker.image")
	f.StringVar(&flagRunLocal, "local-dataset", "", "run the local experiments of this dataset instead of the regular family")
	f.BoolVar(&flagRunTestRun, "test-run", false, "pass --test-run to every job")
	f.DurationVar(&flagRunTimeout, "timeout", 0, "per-job timeout (default runner.timeout, 0 for none)")
	f.BoolVar(&flagDryRun, "dry-run", false, "print the jobs without running them")
	f.StringVar(&flagRunWandbFile, "wandb-config-file", "", "wandb config file forwarded to every job")
	return cmd
}

func jobOptions(cfg *config.Config, jp jobPlan) []*runner.JobOpts {
	timeout := cfg.Runner.Timeout.Duration
	if flagRunTimeout > 0 {
		timeout = flagRunTimeout
	}
	var dockerOpts *runner.DockerOpts
	if flagDocker {
		dockerOpts = &runner.DockerOpts{
			Image:    cfg.Docker.Image,
			CPUs:     cfg.Docker.CPUs,
			MemoryMB: cfg.Docker.MemoryMB,
			Env:      cfg.Docker.Env,
		}
	}
	opts := make([]*runner.JobOpts, 0, len(jp.Descs))
	for _, d := range jp.Descs {
		opts = append(opts, &runner.JobOpts{
			Family:         jp.Family,
			Description:    d,
			LogDir:         cfg.Runner.LogDir,
			Command:        cfg.Runner.Command,
			WorkDir:        ".",
			TestRun:        flagRunTestRun,
			TrackingConfig: flagRunWandbFile,
			Timeout:        timeout,
			Docker:         dockerOpts,
		})
	}
	return opts
}

func runExperiments(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagDocker && cfg.Docker.Image == "" {
		return fmt.Errorf("--docker needs docker.image in %s", cfgFile)
	}
	if flagRunWandbFile != "" {
		if _, err := config.LoadTrackingFile(flagRunWandbFile); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)

	jp, err := planFor(cfg, flagRunLocal)
	if err != nil {
		return err
	}
	missing, sum := plan.Missing(cfg.Runner.LogDir, jp.Family, jp.Descs, cfg.Runner.StaleAfter.Duration, time.Now())
	jp.Descs = missing
	logger.Info("planned jobs", "family", jp.Family, "total", sum.Total, "completed", sum.Completed,
		"running", sum.Running, "stale", sum.Stale, "failed", sum.Failed, "to_run", sum.Missing)

	opts := jobOptions(cfg, jp)
	out := cmd.OutOrStdout()
	if flagDryRun {
		for _, o := range opts {
			fmt.Fprintln(out, makefile.ShellJoin(o.Argv()))
		}
		return nil
	}

	parallel := flagParallel
	if parallel < 1 {
		parallel = cfg.Runner.Parallel
	}

	var (
		mu     sync.Mutex
		counts = map[string]int{}
	)
	jobs := make([]runner.Job, 0, len(opts))
	for i, o := range opts {
		jobs = append(jobs, func(ctx context.Context) error {
			res, err := runner.RunJob(ctx, o)
			if err != nil {
				return fmt.Errorf("%s: %w", o.Description, err)
			}
			mu.Lock()
			defer mu.Unlock()
			counts[res.Reason]++
			fmt.Fprintf(out, "[%d/%d] %s: %s (%s)\n", i+1, len(opts), o.Description, res.Reason, res.Duration.Round(time.Second))
			return nil
		})
	}
	errs := runner.RunPool(ctx, parallel, jobs)
	for _, err := range errs {
		logger.Error("job error", "error", err)
	}
	fmt.Fprintf(out, "\n%d completed, %d failed, %d timed out, %d errors\n",
		counts[runner.ReasonCompleted], counts[runner.ReasonFailed], counts[runner.ReasonTimeout], len(errs))
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d jobs could not be run", len(errs), len(jobs))
	}
	return nil
}
