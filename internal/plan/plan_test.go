package plan_test

import (
	"os"
	"testing"
	"time"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/plan"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	descs := experiment.Enumerate(experiment.Space{
		Datasets: []string{"adult"},
		Models:   []string{"distboost.F"},
		Skewness: []string{"uniform"},
		Seeds:    []int{0, 1, 2, 3, 4},
	})
	now := time.Now()
	write := func(d experiment.Description, st result.Status, age time.Duration) {
		path := result.LogPath(dir, experiment.Regular, d, st)
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		mt := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
	write(descs[0], result.Completed, 0)
	write(descs[1], result.Running, time.Minute)
	write(descs[2], result.Running, 10*time.Hour)
	write(descs[3], result.Failed, 0)

	missing, sum := plan.Missing(dir, experiment.Regular, descs, 6*time.Hour, now)
	assert.Equal(t, []experiment.Description{descs[2], descs[3], descs[4]}, missing)
	assert.Equal(t, plan.Summary{Total: 5, Completed: 1, Running: 1, Stale: 1, Failed: 1, Missing: 3}, sum)

	// other family sees everything as missing
	missing, _ = plan.Missing(dir, experiment.Local, descs, 6*time.Hour, now)
	assert.Len(t, missing, 5)
}
