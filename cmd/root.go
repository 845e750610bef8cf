package cmd

import (
	"log/slog"

	"github.com/signalnine/fedexps/internal/ctxlog"
	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fedexps",
		Short:        "Orchestrate and report on federated boosting experiments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "fedexps.yaml", "config file path (built-in defaults when missing)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newStatsCmd("stats", experiment.Regular))
	root.AddCommand(newStatsCmd("lstats", experiment.Local))
	root.AddCommand(newAveragesCmd())
	root.AddCommand(newRanksCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	return root
}
