package cmd

import (
	"bytes"
	"io"

	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/report"
	"github.com/signalnine/fedexps/internal/storage"
	"github.com/spf13/cobra"
)

type rankViews struct {
	all, skewness, dataset, algorithm bool
}

// normalize applies --all and falls back to --by-all when nothing is chosen.
func (v rankViews) normalize(everything bool) rankViews {
	if everything {
		return rankViews{all: true, skewness: true, dataset: v.dataset, algorithm: true}
	}
	if !v.all && !v.skewness && !v.dataset && !v.algorithm {
		v.all = true
	}
	return v
}

func rankTables(records []report.Record, v rankViews) []report.Table {
	ranks := report.Ranks(report.Averages(records))
	var tables []report.Table
	if v.all {
		tables = append(tables, report.RankCountTables(report.CountRanks(ranks, report.ByAll), "Rank counts")...)
	}
	if v.skewness {
		tables = append(tables, report.RankCountTables(report.CountRanks(ranks, report.BySkewness), "Rank counts by skewness")...)
	}
	if v.dataset {
		tables = append(tables, report.RankCountTables(report.CountRanks(ranks, report.ByDataset), "Rank counts by dataset")...)
	}
	if v.algorithm {
		tables = append(tables, report.AlgorithmTable(report.ByAlgorithm(ranks)))
	}
	return tables
}

func newRanksCmd() *cobra.Command {
	var (
		views     rankViews
		all       bool
		saveTo    string
		omit      string
		format    string
		wandbFile string
	)
	cmd := &cobra.Command{
		Use:   "ranks",
		Short: "Rank models by mean F1 within each dataset and skewness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			t, err := trackingSettings(cfg, wandbFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			records, err := loadRecords(ctx, t, splitList(omit))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			out := io.Writer(cmd.OutOrStdout())
			if saveTo != "" {
				out = io.MultiWriter(out, &buf)
			}
			if err := report.Write(out, format, rankTables(records, views.normalize(all))); err != nil {
				return err
			}
			if saveTo == "" {
				return nil
			}
			if err := storage.Save(ctx, saveTo, buf.Bytes()); err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Info("ranks saved", "dest", saveTo)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&views.all, "by-all", false, "rank counts over every dataset and skewness")
	f.BoolVar(&views.skewness, "by-skewness", false, "rank counts per skewness")
	f.BoolVar(&views.dataset, "by-dataset", false, "rank counts per dataset")
	f.BoolVar(&views.algorithm, "by-algorithm", false, "rank of every model per dataset and skewness")
	f.BoolVar(&all, "all", false, "shorthand for --by-all --by-skewness --by-algorithm")
	f.StringVar(&saveTo, "save-to", "", "also write the output to a file or gs://bucket/object")
	f.StringVar(&omit, "omit-models", "", "comma separated models to leave out before ranking")
	f.StringVar(&format, "format", "table", "output format (table, markdown, json, csv)")
	f.StringVar(&wandbFile, "wandb-config-file", "", "wandb config file selecting entity, project and tags")
	return cmd
}
