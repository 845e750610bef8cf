package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalnine/fedexps/internal/config"
	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/gitops"
	"github.com/signalnine/fedexps/internal/makefile"
	"github.com/signalnine/fedexps/internal/plan"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/spf13/cobra"
)

var (
	flagGenExps      *boolPair
	flagGenPlots     *boolPair
	flagGenTestRun   *boolPair
	flagLocalDataset string
	flagWandbFile    string
	flagGenVerbose   bool
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-makefiles [outfile]",
		Short: "Write a Makefile that launches every missing experiment",
		Long: "Write a Makefile with one target per experiment that has neither a\n" +
			"completed log nor a live run file. Use - as outfile for stdout.",
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
	f := cmd.Flags()
	flagGenExps = addBoolPair(f, "exps", true, "emit experiment targets")
	flagGenPlots = addBoolPair(f, "plots", false, "emit plot targets")
	flagGenTestRun = addBoolPair(f, "test-run", false, "pass --test-run to every job")
	f.StringVar(&flagLocalDataset, "dataset-for-local-exps", "", "emit local experiments for this dataset instead of the regular family")
	f.StringVar(&flagWandbFile, "wandb-config-file", "", "wandb config file forwarded to every job")
	f.BoolVar(&flagGenVerbose, "verbose", false, "print how many experiments were skipped")
	return cmd
}

// jobPlan is the family, descriptions and plot groups a command works on.
type jobPlan struct {
	Family experiment.Family
	Descs  []experiment.Description
	Groups [][2]string
}

// planFor returns the regular plan, or the local plan of localDataset when
// set. A local dataset from the command line is checked the way config
// values are.
func planFor(cfg *config.Config, localDataset string) (jobPlan, error) {
	if localDataset == "" {
		space := cfg.Experiments.Space()
		return jobPlan{
			Family: experiment.Regular,
			Descs:  experiment.Enumerate(space),
			Groups: experiment.Groups(space),
		}, nil
	}
	space := cfg.Experiments.LocalSpace()
	space.Datasets = []string{localDataset}
	jp := jobPlan{
		Family: experiment.Local,
		Descs:  experiment.EnumerateLocal(localDataset, space),
		Groups: experiment.Groups(space),
	}
	if err := result.CheckDescriptions(jp.Family, jp.Descs); err != nil {
		return jobPlan{}, fmt.Errorf("local dataset %q: %w", localDataset, err)
	}
	return jp, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(cmd.Context())
	if flagWandbFile != "" {
		if _, err := config.LoadTrackingFile(flagWandbFile); err != nil {
			return err
		}
	}

	jp, err := planFor(cfg, flagLocalDataset)
	if err != nil {
		return err
	}
	missing, sum := plan.Missing(cfg.Runner.LogDir, jp.Family, jp.Descs, cfg.Runner.StaleAfter.Duration, time.Now())

	opts := makefile.Options{
		Family:         jp.Family,
		LogDir:         cfg.Runner.LogDir,
		Command:        cfg.Runner.Command,
		PlotCommand:    cfg.Runner.PlotCommand,
		TestRun:        flagGenTestRun.Value(),
		TrackingConfig: flagWandbFile,
	}
	if flagGenExps.Value() {
		opts.Jobs = missing
	}
	if flagGenPlots.Value() {
		opts.Plots = jp.Groups
	}
	if rev, err := gitops.Describe("."); err == nil {
		opts.Revision = rev
	} else {
		logger.Debug("no source revision", "error", err)
	}

	outfile := "Makefile"
	if len(args) > 0 {
		outfile = args[0]
	}
	var w io.Writer = cmd.OutOrStdout()
	if outfile != "-" {
		f, err := os.Create(outfile)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outfile, err)
		}
		defer f.Close()
		w = f
	}
	if err := makefile.Generate(w, opts); err != nil {
		return fmt.Errorf("writing %s: %w", outfile, err)
	}
	if c, ok := w.(io.Closer); ok && outfile != "-" {
		if err := c.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", outfile, err)
		}
	}

	if flagGenVerbose {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"%s experiments: %d enumerated, %d completed, %d running, %d stale, %d failed, %d emitted\n",
			jp.Family, sum.Total, sum.Completed, sum.Running, sum.Stale, sum.Failed, len(opts.Jobs))
	}
	logger.Info("makefile written", "path", outfile, "jobs", len(opts.Jobs), "plots", len(opts.Plots))
	return nil
}
