package makefile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/makefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rule struct {
	target  string
	prereqs []string
	recipe  []string
}

// parseRules is a tiny Makefile reader: enough to see targets, their
// prerequisites (with backslash continuations) and recipe lines.
func parseRules(t *testing.T, text string) []rule {
	t.Helper()
	var rules []rule
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, ".PHONY"):
			continue
		case strings.HasPrefix(line, "\t"):
			require.NotEmpty(t, rules, "recipe line before any rule: %q", line)
			rules[len(rules)-1].recipe = append(rules[len(rules)-1].recipe, strings.TrimPrefix(line, "\t"))
			continue
		}
		joined := line
		for strings.HasSuffix(joined, "\\") && i+1 < len(lines) {
			i++
			joined = strings.TrimSuffix(joined, "\\") + " " + lines[i]
		}
		target, deps, ok := strings.Cut(joined, ":")
		require.True(t, ok, "not a rule: %q", joined)
		rules = append(rules, rule{target: strings.TrimSpace(target), prereqs: strings.Fields(deps)})
	}
	return rules
}

func jobs(n int) []experiment.Description {
	space := experiment.Space{
		Datasets: []string{"adult", "letter"},
		Models:   []string{"distboost.F", "preweak.F"},
		Skewness: []string{"uniform", "dirichlet_lbl"},
		Seeds:    []int{0, 1, 2},
	}
	return experiment.Enumerate(space)[:n]
}

func TestGenerateTargetCount(t *testing.T) {
	for _, n := range []int{0, 1, 7, 24} {
		var buf bytes.Buffer
		err := makefile.Generate(&buf, makefile.Options{
			Family:  experiment.Regular,
			Jobs:    jobs(n),
			LogDir:  "logs",
			Command: []string{"python3", "ijcnn_exps.py"},
		})
		require.NoError(t, err)

		rules := parseRules(t, buf.String())
		require.Len(t, rules, n+1, "N job targets plus one umbrella target")
		assert.Equal(t, makefile.UmbrellaTarget, rules[0].target)
		assert.Len(t, rules[0].prereqs, n)

		jobTargets := map[string]bool{}
		for _, r := range rules[1:] {
			assert.True(t, strings.HasSuffix(r.target, ".log"), r.target)
			assert.NotEmpty(t, r.recipe)
			jobTargets[r.target] = true
		}
		assert.Len(t, jobTargets, n, "targets are distinct")
		for _, p := range rules[0].prereqs {
			assert.True(t, jobTargets[p], "umbrella references %s", p)
		}
	}
}

func TestGenerateRecipe(t *testing.T) {
	d := experiment.Description{Dataset: "adult", Seed: 2, Model: "distboost.F", Skewness: "uniform"}
	var buf bytes.Buffer
	err := makefile.Generate(&buf, makefile.Options{
		Family:         experiment.Local,
		Jobs:           []experiment.Description{d},
		LogDir:         "logs",
		Command:        []string{"python3", "ijcnn_exps.py"},
		TestRun:        true,
		TrackingConfig: "wandb config.yaml",
		Revision:       "v1-3-gabc123",
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "# Source revision: v1-3-gabc123")
	rules := parseRules(t, out)
	require.Len(t, rules, 2)
	job := rules[1]
	assert.Equal(t, "logs/ijcnnlocalexps_ds_adult_model_distboost.F_noniid_uniform_seed_2.log", job.target)
	require.Len(t, job.recipe, 3)
	assert.Equal(t, "@mkdir -p logs", job.recipe[0])
	assert.Equal(t,
		"python3 ijcnn_exps.py --dataset adult --model distboost.F --non-iidness uniform --seed 2 --local --test-run --wandb-config-file 'wandb config.yaml'"+
			" > logs/ijcnnlocalexps_ds_adult_model_distboost.F_noniid_uniform_seed_2.run 2>&1"+
			" && mv logs/ijcnnlocalexps_ds_adult_model_distboost.F_noniid_uniform_seed_2.run $@"+
			" || mv logs/ijcnnlocalexps_ds_adult_model_distboost.F_noniid_uniform_seed_2.run logs/ijcnnlocalexps_ds_adult_model_distboost.F_noniid_uniform_seed_2.err",
		job.recipe[2])
}

func TestGeneratePlots(t *testing.T) {
	var buf bytes.Buffer
	err := makefile.Generate(&buf, makefile.Options{
		Family:      experiment.Regular,
		Jobs:        jobs(6),
		LogDir:      "logs",
		Command:     []string{"python3", "ijcnn_exps.py"},
		PlotCommand: []string{"python3", "ijcnn_plots.py"},
		Plots:       [][2]string{{"adult", "uniform"}, {"adult", "dirichlet_lbl"}},
	})
	require.NoError(t, err)
	out := buf.String()
	rules := parseRules(t, out)
	require.Len(t, rules, 1+6+2)

	plotName := makefile.PlotTarget(experiment.Regular, "adult", "uniform")
	assert.Contains(t, rules[0].prereqs, plotName)
	assert.Contains(t, out, ".PHONY: all "+plotName)

	plot := rules[len(rules)-2]
	assert.Equal(t, plotName, plot.target)
	// jobs(6) are all adult/uniform: 2 models x 3 seeds
	assert.Len(t, plot.prereqs, 6)
	assert.Equal(t, []string{"python3 ijcnn_plots.py --dataset adult --non-iidness uniform"}, plot.recipe)

	other := rules[len(rules)-1]
	assert.Empty(t, other.prereqs, "no jobs emitted for adult/dirichlet_lbl")
}

func TestGenerateEscapesDollar(t *testing.T) {
	var buf bytes.Buffer
	err := makefile.Generate(&buf, makefile.Options{
		Jobs:    jobs(1),
		LogDir:  "logs",
		Command: []string{"python3", "ijcnn_exps.py", "--tag=$HOME"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "'--tag=$$HOME'")
}

func TestJobArgs(t *testing.T) {
	d := experiment.Description{Dataset: "vowel", Seed: 0, Model: "preweak.F", Skewness: "lbl_skw"}
	assert.Equal(t,
		[]string{"--dataset", "vowel", "--model", "preweak.F", "--non-iidness", "lbl_skw", "--seed", "0"},
		makefile.JobArgs(experiment.Regular, d, false, ""))
}

func TestShellJoin(t *testing.T) {
	got := makefile.ShellJoin([]string{"python3", "run.py", "--note", "it's $x"})
	assert.Equal(t, `python3 run.py --note 'it'\''s $x'`, got)
}
