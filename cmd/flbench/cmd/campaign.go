package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/common"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/campaign"
)

// Enumerate and execute a whole experiment matrix sequentially.
// Individual run failures are recorded, not fatal: the campaign always
// exits 0 so an overnight matrix is never cut short by one bad run.
func campaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run the full cross-product of benchmark configurations for a tier.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tierName, err := cmd.Flags().GetString("tier")
			if err != nil {
				return err
			}
			tier, err := campaign.ParseTier(tierName)
			if err != nil {
				return err
			}
			configs, err := campaign.Matrix(tier)
			if err != nil {
				return err
			}

			dryRun, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return err
			}
			if dryRun {
				for i, config := range configs {
					fmt.Printf("%3d: %s\n", i, config)
				}
				fmt.Printf("%d configurations in tier %s\n", len(configs), tier)
				return nil
			}

			config, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			orchestrator, err := newOrchestrator(config)
			if err != nil {
				return err
			}
			resultsDir, err := cmd.Flags().GetString("results-dir")
			if err != nil {
				return err
			}
			resumeFrom, err := cmd.Flags().GetInt("resume-from")
			if err != nil {
				return err
			}

			ctx := common.ShutdownContext()
			tally := campaign.NewDriver(orchestrator, resultsDir).Run(ctx, configs, resumeFrom)

			fmt.Printf("\n======= CAMPAIGN SUMMARY =======\n")
			fmt.Printf("Configurations: %d\n", tally.Total)
			fmt.Printf("Completed:      %d\n", tally.Completed)
			fmt.Printf("Failed:         %d\n", tally.Failed)
			fmt.Printf("Timed out:      %d\n", tally.TimedOut)
			fmt.Printf("Skipped:        %d\n", tally.Skipped)
			return nil
		},
	}

	cmd.Flags().String("tier", string(campaign.TierNarrow), "Matrix tier: narrow, medium or wide.")
	cmd.Flags().String("results-dir", "results/logs", "Directory to collect run artifacts into.")
	cmd.Flags().Bool("dry-run", false, "Print the enumerated configurations without executing.")
	cmd.Flags().Int("resume-from", 0, "Skip configurations before this index (as printed by --dry-run).")
	return cmd
}
