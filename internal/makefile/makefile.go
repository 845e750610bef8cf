// Package makefile renders the experiment plan as a Makefile, one target per
// job, so that `make -j N` can drive the batch.
package makefile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/result"
)

// UmbrellaTarget is the default goal depending on every generated target.
const UmbrellaTarget = "all"

type Options struct {
	Family      experiment.Family
	Jobs        []experiment.Description
	LogDir      string
	Command     []string
	PlotCommand []string
	// Plots lists the (dataset, skewness) groups that get a plot target.
	Plots          [][2]string
	TestRun        bool
	TrackingConfig string
	Revision       string
}

// JobArgs returns the runner arguments for one experiment.
func JobArgs(fam experiment.Family, d experiment.Description, testRun bool, trackingConfig string) []string {
	args := []string{
		"--dataset", d.Dataset,
		"--model", d.Model,
		"--non-iidness", d.Skewness,
		"--seed", strconv.Itoa(d.Seed),
	}
	if fam == experiment.Local {
		args = append(args, "--local")
	}
	if testRun {
		args = append(args, "--test-run")
	}
	if trackingConfig != "" {
		args = append(args, "--wandb-config-file", trackingConfig)
	}
	return args
}

// PlotTarget names the target that plots one (dataset, skewness) group.
func PlotTarget(fam experiment.Family, dataset, skewness string) string {
	return fmt.Sprintf("plot_%sds_%s_noniid_%s", result.Prefix(fam), dataset, skewness)
}

// Generate writes the Makefile for opts to w.
func Generate(w io.Writer, opts Options) error {
	bw := bufio.NewWriter(w)

	var jobTargets []string
	byGroup := map[[2]string][]string{}
	for _, d := range opts.Jobs {
		target := result.LogPath(opts.LogDir, opts.Family, d, result.Completed)
		jobTargets = append(jobTargets, target)
		g := [2]string{d.Dataset, d.Skewness}
		byGroup[g] = append(byGroup[g], target)
	}
	var plotTargets []string
	for _, g := range opts.Plots {
		plotTargets = append(plotTargets, PlotTarget(opts.Family, g[0], g[1]))
	}

	fmt.Fprintf(bw, "# Generated by fedexps: %d %s experiment jobs, %d plot targets.\n",
		len(jobTargets), opts.Family, len(plotTargets))
	if opts.Revision != "" {
		fmt.Fprintf(bw, "# Source revision: %s\n", opts.Revision)
	}
	fmt.Fprintln(bw, "# Do not edit; regenerate with `fedexps generate-makefiles`.")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, ".PHONY: %s\n", escapeMake(strings.Join(append([]string{UmbrellaTarget}, plotTargets...), " ")))
	fmt.Fprintln(bw)

	writeRule(bw, UmbrellaTarget, append(append([]string{}, jobTargets...), plotTargets...))
	fmt.Fprintln(bw)

	for i, d := range opts.Jobs {
		target := jobTargets[i]
		runFile := result.LogPath(opts.LogDir, opts.Family, d, result.Running)
		errFile := result.LogPath(opts.LogDir, opts.Family, d, result.Failed)
		argv := append(append([]string{}, opts.Command...), JobArgs(opts.Family, d, opts.TestRun, opts.TrackingConfig)...)

		writeRule(bw, target, nil)
		fmt.Fprintf(bw, "\t@mkdir -p %s\n", recipeWord(opts.LogDir))
		fmt.Fprintf(bw, "\t@rm -f %s\n", recipeWord(errFile))
		// A failed job leaves an .err file but does not stop make, so the
		// rest of the batch keeps running.
		fmt.Fprintf(bw, "\t%s > %s 2>&1 && mv %s $@ || mv %s %s\n",
			recipeCommand(argv), recipeWord(runFile), recipeWord(runFile), recipeWord(runFile), recipeWord(errFile))
		fmt.Fprintln(bw)
	}

	for i, g := range opts.Plots {
		writeRule(bw, plotTargets[i], byGroup[g])
		argv := append(append([]string{}, opts.PlotCommand...), "--dataset", g[0], "--non-iidness", g[1])
		if opts.Family == experiment.Local {
			argv = append(argv, "--local")
		}
		fmt.Fprintf(bw, "\t%s\n", recipeCommand(argv))
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func writeRule(w io.Writer, target string, prereqs []string) {
	target = escapeMake(target)
	if len(prereqs) == 0 {
		fmt.Fprintf(w, "%s:\n", target)
		return
	}
	fmt.Fprintf(w, "%s: \\\n", target)
	for i, p := range prereqs {
		sep := " \\"
		if i == len(prereqs)-1 {
			sep = ""
		}
		fmt.Fprintf(w, "  %s%s\n", escapeMake(p), sep)
	}
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./=:@%+,-]+$`)

func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func escapeMake(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

func recipeWord(s string) string {
	return escapeMake(shellQuote(s))
}

func recipeCommand(argv []string) string {
	words := make([]string, len(argv))
	for i, a := range argv {
		words[i] = recipeWord(a)
	}
	return strings.Join(words, " ")
}

// ShellJoin quotes argv for display or for pasting into a shell.
func ShellJoin(argv []string) string {
	words := make([]string, len(argv))
	for i, a := range argv {
		words[i] = shellQuote(a)
	}
	return strings.Join(words, " ")
}
