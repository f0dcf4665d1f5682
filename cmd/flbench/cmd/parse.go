package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/metrics"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse collected run logs into rounds.csv, clients.csv and summary.csv.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logDir, err := cmd.Flags().GetString("log-dir")
			if err != nil {
				return err
			}
			outputDir, err := cmd.Flags().GetString("output-dir")
			if err != nil {
				return err
			}
			runId, err := cmd.Flags().GetString("run-id")
			if err != nil {
				return err
			}
			config, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			return metrics.BuildDatasets(logDir, outputDir, config.Metrics.TargetAccuracies, runId)
		},
	}

	cmd.Flags().String("log-dir", "results/logs", "Directory holding collected run artifacts.")
	cmd.Flags().String("output-dir", "results/datasets", "Directory to write the CSV datasets into.")
	cmd.Flags().String("run-id", "", "Restrict parsing to a single run.")
	return cmd
}
