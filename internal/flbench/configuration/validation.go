package configuration

import (
	"fmt"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

func ValidateFlbenchConfiguration(config FlbenchConfiguration) error {
	if config.Kubernetes.Namespace == "" {
		return fmt.Errorf("kubernetes.namespace must not be empty")
	}
	if !domain.IsValidResourceName(config.Kubernetes.Namespace) {
		return fmt.Errorf("kubernetes.namespace %q is not a valid namespace name", config.Kubernetes.Namespace)
	}
	if config.Orchestration.ServerReadyTimeout <= 0 {
		return fmt.Errorf("orchestration.serverReadyTimeout must be positive")
	}
	if config.Orchestration.CompletionTimeout <= 0 {
		return fmt.Errorf("orchestration.completionTimeout must be positive")
	}
	if config.Netem.ApplyAttempts == 0 {
		return fmt.Errorf("netem.applyAttempts must be positive")
	}
	for name, profile := range config.Netem.Profiles {
		if _, err := domain.ParseNetworkProfile(name); err != nil {
			return fmt.Errorf("netem.profiles contains unknown profile %q", name)
		}
		if name == string(domain.NET0) {
			return fmt.Errorf("netem.profiles must not configure the baseline profile %s", domain.NET0)
		}
		if profile.TimeoutMultiplier < 1 {
			return fmt.Errorf("netem.profiles.%s.timeoutMultiplier must be at least 1", name)
		}
		if profile.LossPercent < 0 || profile.LossPercent > 100 {
			return fmt.Errorf("netem.profiles.%s.lossPercent must be in [0, 100]", name)
		}
	}
	for _, threshold := range config.Metrics.TargetAccuracies {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("metrics.targetAccuracies must be in (0, 1], got %v", threshold)
		}
	}
	return nil
}
