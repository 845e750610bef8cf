package cmd

import (
	"github.com/signalnine/fedexps/internal/report"
	"github.com/spf13/cobra"
)

func newAveragesCmd() *cobra.Command {
	var (
		format    string
		omit      string
		wandbFile string
	)
	cmd := &cobra.Command{
		Use:   "f1-averages",
		Short: "Print mean test F1 per dataset, skewness and model",
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
			records, err := loadRecords(cmd.Context(), t, splitList(omit))
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), format, report.AveragesTables(report.Averages(records)))
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, markdown, json, csv)")
	cmd.Flags().StringVar(&omit, "omit-models", "", "comma separated models to leave out")
	cmd.Flags().StringVar(&wandbFile, "wandb-config-file", "", "wandb config file selecting entity, project and tags")
	return cmd
}
