package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalnine/fedexps/internal/config"
	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/report"
	"github.com/signalnine/fedexps/internal/tracking"
	"github.com/spf13/pflag"
)

// boolPair is a --name/--no-name flag pair. --no-name wins when both are set.
type boolPair struct {
	def bool
	on  bool
	off bool
}

func addBoolPair(fs *pflag.FlagSet, name string, def bool, usage string) *boolPair {
	p := &boolPair{def: def}
	fs.BoolVar(&p.on, name, false, usage)
	fs.BoolVar(&p.off, "no-"+name, false, "disable --"+name)
	return p
}

func (p *boolPair) Value() bool {
	if p.off {
		return false
	}
	if p.on {
		return true
	}
	return p.def
}

// splitList parses a comma separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(cfgFile)
}

// trackingSettings returns the tracking section with the wandb config file
// applied on top, when one is given.
func trackingSettings(cfg *config.Config, wandbFile string) (config.Tracking, error) {
	t := cfg.Tracking
	if wandbFile == "" {
		return t, nil
	}
	tf, err := config.LoadTrackingFile(wandbFile)
	if err != nil {
		return t, err
	}
	tf.Apply(&t)
	return t, nil
}

func fetchRuns(ctx context.Context, t config.Tracking) ([]tracking.Run, error) {
	key, err := t.APIKey()
	if err != nil {
		return nil, err
	}
	client := tracking.NewClient(t.BaseURL, key)
	if t.PageSize > 0 {
		client.PageSize = t.PageSize
	}
	runs, err := client.Runs(ctx, tracking.Filter{
		Entity:  t.Entity,
		Project: t.Project,
		Tags:    t.Tags,
		State:   "finished",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching runs: %w", err)
	}
	return runs, nil
}

// loadRecords fetches finished runs and converts them to records. Model
// groups that fail to convert are logged and left out.
func loadRecords(ctx context.Context, t config.Tracking, omit []string) ([]report.Record, error) {
	runs, err := fetchRuns(ctx, t)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("fetched runs", "project", t.Project, "runs", len(runs))

	records, groupErrs := report.RecordsFromRuns(runs, report.Keys{
		Dataset:  t.DatasetKey,
		Model:    t.ModelKey,
		Skewness: t.SkewnessKey,
		F1:       t.F1Key,
	})
	for _, ge := range groupErrs {
		logger.Warn("skipping model group", "model", ge.Model, "runs", ge.Runs, "error", ge.Err)
	}
	return report.OmitModels(records, omit), nil
}
