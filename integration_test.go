//go:build integration

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/signalnine/fedexps/cmd"
	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeRunner = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --model) model="$2"; shift ;;
  esac
  shift
done
echo "training $model"
[ "$model" != "broken.F" ]
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := cmd.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

// TestMakefileEndToEnd generates a Makefile, lets make run every job with a
// stub runner and checks that stats and a second generation agree.
func TestMakefileEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not available")
	}
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	script := filepath.Join(dir, "runner.sh")
	require.NoError(t, os.WriteFile(script, []byte(fakeRunner), 0o755))

	cfgPath := filepath.Join(dir, "fedexps.yaml")
	cfg := fmt.Sprintf(`experiments:
  datasets: [adult, vowel]
  models: [distboost.F, broken.F]
  skewness: [uniform]
  seeds: [0, 1]
runner:
  command: [sh, %q]
  log_dir: %q
`, script, logDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	makefilePath := filepath.Join(dir, "Makefile")
	execute(t, "--config", cfgPath, "generate-makefiles", makefilePath)

	mk := exec.Command("make", "-j2", "-f", makefilePath)
	mk.Dir = dir
	out, err := mk.CombinedOutput()
	require.NoError(t, err, string(out))

	stats, err := result.LaunchedStats(logDir, experiment.Regular)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Completed)
	assert.Equal(t, 4, stats.Failed)
	assert.Equal(t, 0, stats.Running)

	report := execute(t, "--config", cfgPath, "stats", "--verbose")
	assert.Contains(t, report, "completed     4 / 8")
	assert.Contains(t, report, "adult/uniform/broken.F/seed=0")

	// Only the failed jobs are emitted again.
	second := execute(t, "--config", cfgPath, "generate-makefiles", "-")
	assert.Contains(t, second, "4 regular experiment jobs")
}
