package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/fedexps/internal/config"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("../../testdata/minimal.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"adult"}, cfg.Experiments.Datasets)
	assert.Equal(t, []string{"distboost.F"}, cfg.Experiments.LocalModels, "local models default to models")
	assert.Equal(t, "adult", cfg.Experiments.LocalDataset)
	assert.Equal(t, []string{"python3", "ijcnn_exps.py"}, cfg.Runner.Command)
	assert.Equal(t, "logs", cfg.Runner.LogDir)
	assert.Equal(t, 6*time.Hour, cfg.Runner.StaleAfter.Duration)
	assert.Equal(t, 1, cfg.Runner.Parallel)
	assert.Equal(t, "https://api.wandb.ai", cfg.Tracking.BaseURL)
	assert.Equal(t, "test/f1", cfg.Tracking.F1Key)
	assert.Equal(t, "non_iidness", cfg.Tracking.SkewnessKey)
	assert.Equal(t, "WANDB_API_KEY", cfg.Tracking.APIKeyEnv)
	assert.Equal(t, 1, cfg.Experiments.Space().Size())
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("../../testdata/full.yaml")
	require.NoError(t, err)

	assert.Equal(t, 135, cfg.Experiments.Space().Size())
	assert.Equal(t, []string{"local-adaboost"}, cfg.Experiments.LocalSpace().Models)
	assert.Equal(t, "vowel", cfg.Experiments.LocalDataset)
	assert.Equal(t, 90*time.Minute, cfg.Runner.StaleAfter.Duration)
	assert.Equal(t, 2*time.Hour, cfg.Runner.Timeout.Duration)
	assert.Equal(t, 4, cfg.Runner.Parallel)
	assert.Equal(t, "ghcr.io/example/fedboost:latest", cfg.Docker.Image)
	assert.Equal(t, "2", cfg.Docker.Env["OMP_NUM_THREADS"])
	assert.Equal(t, "fedlab", cfg.Tracking.Entity)
	assert.Equal(t, []string{"ijcnn", "final"}, cfg.Tracking.Tags)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml")
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.LoadOrDefault("../../testdata/invalid.yaml")
	assert.Error(t, err, "a present but broken file is still an error")
}

func TestLoadInvalid(t *testing.T) {
	_, err := config.Load("../../testdata/invalid.yaml")
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no datasets", "experiments: {models: [m], skewness: [s], seeds: [0]}"},
		{"no seeds", "experiments: {datasets: [d], models: [m], skewness: [s]}"},
		{"negative seed", "experiments: {datasets: [d], models: [m], skewness: [s], seeds: [-1]}"},
		{"ambiguous model", "experiments: {datasets: [d], models: [a_noniid_b], skewness: [s], seeds: [0]}"},
		{"path in dataset", "experiments: {datasets: [a/b], models: [m], skewness: [s], seeds: [0]}"},
		{"separator at dataset end", "experiments: {datasets: [adult_model], models: [m], skewness: [noniid_x], seeds: [0]}"},
		{"colon in model", "experiments: {datasets: [d], models: ['m:1'], skewness: [s], seeds: [0]}"},
		{"hash in skewness", "experiments: {datasets: [d], models: [m], skewness: ['s#1'], seeds: [0]}"},
		{"ambiguous local dataset", "experiments: {datasets: [d], models: [m], skewness: [s], seeds: [0], local_dataset: x_model_y}"},
		{"duplicate skew", "experiments: {datasets: [d], models: [m], skewness: [s, s], seeds: [0]}"},
		{"bad duration", "experiments: {datasets: [d], models: [m], skewness: [s], seeds: [0]}\nrunner: {stale_after: soon}"},
		{"negative memory", "experiments: {datasets: [d], models: [m], skewness: [s], seeds: [0]}\ndocker: {memory_mb: -1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 10*6*5*5, cfg.Experiments.Space().Size())
	assert.Contains(t, cfg.Experiments.Datasets, cfg.Experiments.LocalDataset)
}

func TestTrackingFile(t *testing.T) {
	tf, err := config.LoadTrackingFile("../../testdata/wandb.yaml")
	require.NoError(t, err)

	tr := config.Tracking{Entity: "fedlab", Project: "ijcnn-exps", Tags: []string{"ijcnn"}}
	tf.Apply(&tr)
	assert.Equal(t, "other-team", tr.Entity)
	assert.Equal(t, "ijcnn-rerun", tr.Project)
	assert.Equal(t, []string{"rerun"}, tr.Tags)

	empty := &config.TrackingFile{}
	empty.Apply(&tr)
	assert.Equal(t, "other-team", tr.Entity, "empty fields leave the section untouched")
}

func TestAPIKey(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# secrets\nexport FEDEXPS_TEST_KEY='from-file'\nOTHER=x\n"), 0o600))

	tr := config.Tracking{APIKeyEnv: "FEDEXPS_TEST_KEY", EnvFile: envFile}
	t.Setenv("FEDEXPS_TEST_KEY", "")
	key, err := tr.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)

	t.Setenv("FEDEXPS_TEST_KEY", "from-env")
	key, err = tr.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	t.Setenv("FEDEXPS_TEST_KEY", "")
	_, err = config.Tracking{APIKeyEnv: "FEDEXPS_TEST_KEY"}.APIKey()
	assert.Error(t, err)
}

func TestValidateRejectsUndecodableNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "experiments: {datasets: [adult_model], models: [m], skewness: [noniid_x], seeds: [0]}"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := config.Load(path)
	assert.ErrorIs(t, err, result.ErrBadLogName)
}
