package configuration

import (
	"time"
)

type KubernetesConfiguration struct {
	// Namespace shared by all runs. Per-run resources inside it are scoped
	// by run id label.
	Namespace string
	// Path to a kubeconfig file. Empty means in-cluster configuration with
	// fallback to the default loading rules.
	KubeconfigPath string
	QPS            float32
	Burst          int
}

type OrchestrationConfiguration struct {
	// Directory holding one manifest template per security level.
	ManifestDir string
	// How long to wait for the server pod to reach Running.
	ServerReadyTimeout time.Duration
	// Base timeout for run completion; multiplied by the network profile's
	// TimeoutMultiplier.
	CompletionTimeout      time.Duration
	CompletionPollInterval time.Duration
	// Grace period after server readiness before impairing the network,
	// giving client pods time to spawn.
	ClientSpawnDelay time.Duration
	// How long to wait after teardown for run-scoped pods to disappear.
	// The next run's netem selector would otherwise match terminating pods
	// from this run.
	TeardownTimeout      time.Duration
	TeardownPollInterval time.Duration
}

type NetemConfiguration struct {
	// Network interface inside client pods that netem is attached to.
	Interface             string
	ReadinessTimeout      time.Duration
	ReadinessPollInterval time.Duration
	ApplyAttempts         uint
	ApplyRetryDelay       time.Duration
	Profiles              map[string]NetemProfile
}

// NetemProfile holds the tc netem parameters of one impaired network
// profile, plus how much extra completion time the impairment legitimately
// costs.
type NetemProfile struct {
	DelayMs           int
	JitterMs          int
	LossPercent       float64
	RateMbit          int
	TimeoutMultiplier float64
}

type MetricsConfiguration struct {
	// Accuracy thresholds for which time-to-accuracy is computed.
	TargetAccuracies []float64
}

type FlbenchConfiguration struct {
	Kubernetes    KubernetesConfiguration
	Orchestration OrchestrationConfiguration
	Netem         NetemConfiguration
	Metrics       MetricsConfiguration
}
