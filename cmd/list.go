package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured experiment space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			local, err := planFor(cfg, cfg.Experiments.LocalDataset)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			e := cfg.Experiments
			seeds := make([]string, len(e.Seeds))
			for i, s := range e.Seeds {
				seeds[i] = strconv.Itoa(s)
			}
			fmt.Fprintf(w, "Datasets:     %s\n", strings.Join(e.Datasets, ", "))
			fmt.Fprintf(w, "Models:       %s\n", strings.Join(e.Models, ", "))
			fmt.Fprintf(w, "Skewness:     %s\n", strings.Join(e.Skewness, ", "))
			fmt.Fprintf(w, "Seeds:        %s\n", strings.Join(seeds, ", "))
			fmt.Fprintf(w, "Local models: %s (dataset %s)\n", strings.Join(e.LocalModels, ", "), e.LocalDataset)
			fmt.Fprintln(w)
			fmt.Fprintf(w, "regular experiments: %d\n", e.Space().Size())
			fmt.Fprintf(w, "local experiments:   %d per dataset\n", len(local.Descs))
			return nil
		},
	}
}
