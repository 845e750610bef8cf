package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/signalnine/fedexps/internal/config"
	"github.com/signalnine/fedexps/internal/console"
	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/plan"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/spf13/cobra"
)

func newStatsCmd(use string, fam experiment.Family) *cobra.Command {
	var (
		verbose bool
		dataset string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Show progress of the %s experiments from the log directory", fam),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), cfg, fam, dataset, verbose, time.Now())
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "list failed and running experiments")
	if fam == experiment.Local {
		cmd.Flags().StringVar(&dataset, "dataset", "", "dataset of the local experiments (default from config)")
	}
	return cmd
}

func printStats(w io.Writer, cfg *config.Config, fam experiment.Family, dataset string, verbose bool, now time.Time) error {
	stats, err := result.LaunchedStats(cfg.Runner.LogDir, fam)
	if err != nil {
		return err
	}

	if fam == experiment.Local && dataset == "" {
		dataset = cfg.Experiments.LocalDataset
	}
	jp, err := planFor(cfg, dataset)
	if err != nil {
		return err
	}
	_, sum := plan.Missing(cfg.Runner.LogDir, fam, jp.Descs, cfg.Runner.StaleAfter.Duration, now)
	expected := len(jp.Descs)

	stale := 0
	for _, e := range stats.Filter(result.Running) {
		if e.Stale(now, cfg.Runner.StaleAfter.Duration) {
			stale++
		}
	}

	title := fmt.Sprintf("%s experiments in %s", fam, cfg.Runner.LogDir)
	if fam == experiment.Local {
		title += fmt.Sprintf(" (expected for dataset %s)", dataset)
	}
	fmt.Fprintln(w, title)

	frac := 0.0
	if expected > 0 {
		frac = float64(stats.Completed) / float64(expected)
	}
	label := fmt.Sprintf("  completed %5d / %-5d", stats.Completed, expected)
	bar := console.Bar(frac, console.BarWidth(console.Width(w), len(label)+8))
	fmt.Fprintf(w, "%s %s %5.1f%%\n", label, bar, frac*100)
	fmt.Fprintf(w, "  failed    %5d\n", stats.Failed)
	if stale > 0 {
		fmt.Fprintf(w, "  running   %5d (%d stale)\n", stats.Running, stale)
	} else {
		fmt.Fprintf(w, "  running   %5d\n", stats.Running)
	}
	fmt.Fprintf(w, "  to launch %5d\n", sum.Missing)

	if !verbose {
		return nil
	}
	printEntries(w, "Failed", stats.Filter(result.Failed), now, 0)
	printEntries(w, "Running", stats.Filter(result.Running), now, cfg.Runner.StaleAfter.Duration)
	return nil
}

func printEntries(w io.Writer, title string, entries []result.Entry, now time.Time, staleAfter time.Duration) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, e := range entries {
		age := now.Sub(e.ModTime).Round(time.Second)
		marker := ""
		if e.Stale(now, staleAfter) {
			marker = " [stale]"
		}
		fmt.Fprintf(w, "  %s  %s ago%s\n", e.Description, age, marker)
	}
}
