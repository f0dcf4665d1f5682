package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/common"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/cluster"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/configuration"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/orchestrator"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flbench",
		Short: "flbench benchmarks zero-trust network control overhead on a federated-learning workload.",
		Long: `flbench deploys a federated-learning workload on Kubernetes under a chosen
security level (mTLS, NetworkPolicy, both or neither), degrades the network
with tc/netem, waits for training to finish and collects the event logs.
Parsed logs become per-round, per-client and per-run CSV datasets.

Configuration is read from config.yaml in the directory given by --config,
overridable via FLBENCH_* environment variables.`,
	}

	cmd.PersistentFlags().String("config", "config/flbench", "Directory containing config.yaml.")

	cmd.AddCommand(
		runCmd(),
		campaignCmd(),
		parseCmd(),
		versionCmd(),
	)
	return cmd
}

func loadConfiguration(cmd *cobra.Command) (configuration.FlbenchConfiguration, error) {
	configDir, err := cmd.Flags().GetString("config")
	if err != nil {
		return configuration.FlbenchConfiguration{}, err
	}
	config := defaultConfiguration()
	common.LoadConfig(&config, configDir)
	if err := configuration.ValidateFlbenchConfiguration(config); err != nil {
		return configuration.FlbenchConfiguration{}, err
	}
	return config, nil
}

func newOrchestrator(config configuration.FlbenchConfiguration) (*orchestrator.Orchestrator, error) {
	clientProvider, err := cluster.NewKubernetesClientProvider(config.Kubernetes)
	if err != nil {
		return nil, err
	}
	clusterContext := cluster.NewClusterContext(config.Kubernetes.Namespace, clientProvider)
	return orchestrator.New(config, clusterContext), nil
}

// defaultConfiguration mirrors config/flbench/config.yaml so flbench works
// without a config file on a stock cluster.
func defaultConfiguration() configuration.FlbenchConfiguration {
	return configuration.FlbenchConfiguration{
		Kubernetes: configuration.KubernetesConfiguration{
			Namespace: "fl-experiment",
			QPS:       50,
			Burst:     100,
		},
		Orchestration: configuration.OrchestrationConfiguration{
			ManifestDir:            "manifests",
			ServerReadyTimeout:     3 * time.Minute,
			CompletionTimeout:      30 * time.Minute,
			CompletionPollInterval: 10 * time.Second,
			ClientSpawnDelay:       15 * time.Second,
			TeardownTimeout:        2 * time.Minute,
			TeardownPollInterval:   5 * time.Second,
		},
		Netem: configuration.NetemConfiguration{
			Interface:             "eth0",
			ReadinessTimeout:      3 * time.Minute,
			ReadinessPollInterval: 5 * time.Second,
			ApplyAttempts:         5,
			ApplyRetryDelay:       2 * time.Second,
			Profiles: map[string]configuration.NetemProfile{
				"NET1": {DelayMs: 20, JitterMs: 5, LossPercent: 0.1, RateMbit: 100, TimeoutMultiplier: 1.5},
				"NET2": {DelayMs: 50, JitterMs: 10, LossPercent: 0.5, RateMbit: 50, TimeoutMultiplier: 2},
				"NET3": {DelayMs: 100, JitterMs: 20, LossPercent: 1, RateMbit: 20, TimeoutMultiplier: 2.5},
				"NET4": {DelayMs: 150, JitterMs: 30, LossPercent: 2, RateMbit: 10, TimeoutMultiplier: 3},
				"NET5": {DelayMs: 300, JitterMs: 50, LossPercent: 5, RateMbit: 5, TimeoutMultiplier: 4},
			},
		},
		Metrics: configuration.MetricsConfiguration{
			TargetAccuracies: []float64{0.95, 0.97},
		},
	}
}
