package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/common"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// Execute a single benchmark run and wait for it to finish.
// Exits non-zero unless the run completed.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one benchmark run for a security level and network profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runConfig, err := runConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			config, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			orchestrator, err := newOrchestrator(config)
			if err != nil {
				return err
			}
			keepResources, err := cmd.Flags().GetBool("keep-resources")
			if err != nil {
				return err
			}
			orchestrator.KeepResources(keepResources)
			outputDir, err := cmd.Flags().GetString("output-dir")
			if err != nil {
				return err
			}

			ctx := common.ShutdownContext()
			result := orchestrator.ExecuteRun(ctx, runConfig, outputDir)
			if !result.Succeeded() {
				return errors.Errorf("run %s ended in state %s: %s", result.RunId, result.State, result.Err)
			}
			return nil
		},
	}

	cmd.Flags().String("sec-level", "", "Security level, one of SEC0..SEC3.")
	cmd.Flags().String("net-profile", "", "Network profile, one of NET0..NET5.")
	cmd.Flags().Int("num-clients", 5, "Number of federated-learning clients.")
	cmd.Flags().Int("num-rounds", 10, "Number of training rounds.")
	cmd.Flags().Bool("iid", true, "Use the IID data split; --iid=false selects the Dirichlet split.")
	cmd.Flags().Float64("alpha", 0.5, "Dirichlet concentration for the non-IID split.")
	cmd.Flags().Int("data-seed", 42, "Seed for the data split.")
	cmd.Flags().String("output-dir", "results/logs", "Directory to collect run artifacts into.")
	cmd.Flags().Bool("keep-resources", false, "Skip teardown, leaving the run's resources on the cluster.")
	if err := cmd.MarkFlagRequired("sec-level"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("net-profile"); err != nil {
		panic(err)
	}
	return cmd
}

func runConfigFromFlags(cmd *cobra.Command) (domain.RunConfig, error) {
	secLevel, err := cmd.Flags().GetString("sec-level")
	if err != nil {
		return domain.RunConfig{}, err
	}
	level, err := domain.ParseSecurityLevel(secLevel)
	if err != nil {
		return domain.RunConfig{}, err
	}
	netProfile, err := cmd.Flags().GetString("net-profile")
	if err != nil {
		return domain.RunConfig{}, err
	}
	profile, err := domain.ParseNetworkProfile(netProfile)
	if err != nil {
		return domain.RunConfig{}, err
	}
	numClients, err := cmd.Flags().GetInt("num-clients")
	if err != nil {
		return domain.RunConfig{}, err
	}
	numRounds, err := cmd.Flags().GetInt("num-rounds")
	if err != nil {
		return domain.RunConfig{}, err
	}
	iid, err := cmd.Flags().GetBool("iid")
	if err != nil {
		return domain.RunConfig{}, err
	}
	alpha, err := cmd.Flags().GetFloat64("alpha")
	if err != nil {
		return domain.RunConfig{}, err
	}
	dataSeed, err := cmd.Flags().GetInt("data-seed")
	if err != nil {
		return domain.RunConfig{}, err
	}

	runConfig := domain.RunConfig{
		SecurityLevel:  level,
		NetworkProfile: profile,
		NumClients:     numClients,
		NumRounds:      numRounds,
		IID:            iid,
		DataSeed:       dataSeed,
	}
	if !iid {
		runConfig.Alpha = alpha
	}
	return runConfig, nil
}
