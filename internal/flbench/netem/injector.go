package netem

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/cluster"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/configuration"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// PodLocator and PodExecutor are the two cluster capabilities the injector
// needs. cluster.ClusterContext satisfies both.
type PodLocator interface {
	GetPodsForRunByApp(ctx context.Context, runId string, app string) ([]*v1.Pod, error)
}

type PodExecutor interface {
	ExecOnPod(ctx context.Context, podName string, command []string) error
}

type Injector struct {
	config  configuration.NetemConfiguration
	locator PodLocator
	exec    PodExecutor
}

func NewInjector(config configuration.NetemConfiguration, clusterContext cluster.ClusterContext) *Injector {
	return &Injector{
		config:  config,
		locator: clusterContext,
		exec:    clusterContext,
	}
}

// newInjectorWithCapabilities exists for tests.
func newInjectorWithCapabilities(config configuration.NetemConfiguration, locator PodLocator, exec PodExecutor) *Injector {
	return &Injector{config: config, locator: locator, exec: exec}
}

// Apply impairs the network of every client pod of the run according to the
// profile. The baseline profile is a logged no-op involving no cluster
// calls. Impairment is all-or-nothing: one client exhausting its retry
// budget fails the whole run, and no further clients are attempted.
func (i *Injector) Apply(ctx context.Context, profile domain.NetworkProfile, runId string) error {
	if profile.IsBaseline() {
		log.WithFields(log.Fields{"profile": profile, "runId": runId}).
			Info("baseline network profile, skipping impairment")
		return nil
	}

	profileSpec, ok := i.config.Profiles[string(profile)]
	if !ok {
		return errors.Errorf("network profile %s has no netem parameters configured", profile)
	}

	pods, err := i.awaitClientsReady(ctx, runId)
	if err != nil {
		return err
	}

	command := i.netemCommand(profileSpec)
	for _, pod := range pods {
		log.WithFields(log.Fields{
			"profile": profile,
			"pod":     pod.Name,
			"runId":   runId,
		}).Info("applying network impairment")

		err := retry.Do(
			func() error { return i.exec.ExecOnPod(ctx, pod.Name, command) },
			retry.Attempts(i.config.ApplyAttempts),
			retry.Delay(i.config.ApplyRetryDelay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(attempt uint, err error) {
				log.WithError(err).Warnf("netem apply attempt %d on pod %s failed", attempt+1, pod.Name)
			}),
		)
		if err != nil {
			return errors.Wrapf(err, "impairing pod %s for run %s", pod.Name, runId)
		}
	}
	return nil
}

// awaitClientsReady blocks until every client pod belonging to this run is
// ready, bounded by the readiness timeout. The selector always pairs the
// run id with the client role so residual pods of prior runs cannot match.
func (i *Injector) awaitClientsReady(ctx context.Context, runId string) ([]*v1.Pod, error) {
	deadline := time.Now().Add(i.config.ReadinessTimeout)
	for {
		pods, err := i.locator.GetPodsForRunByApp(ctx, runId, domain.ClientApp)
		if err != nil {
			return nil, err
		}
		if len(pods) > 0 && allReady(pods) {
			return pods, nil
		}

		if time.Now().After(deadline) {
			return nil, errors.Errorf(
				"clients of run %s not ready within %s (%d pods found)",
				runId, i.config.ReadinessTimeout, len(pods))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(i.config.ReadinessPollInterval):
		}
	}
}

func allReady(pods []*v1.Pod) bool {
	for _, pod := range pods {
		if !cluster.IsPodReady(pod) {
			return false
		}
	}
	return true
}

func (i *Injector) netemCommand(profile configuration.NetemProfile) []string {
	networkInterface := i.config.Interface
	if networkInterface == "" {
		networkInterface = "eth0"
	}
	args := []string{
		"tc", "qdisc", "replace", "dev", networkInterface, "root", "netem",
		"delay", fmt.Sprintf("%dms", profile.DelayMs), fmt.Sprintf("%dms", profile.JitterMs),
	}
	if profile.LossPercent > 0 {
		args = append(args, "loss", fmt.Sprintf("%g%%", profile.LossPercent))
	}
	if profile.RateMbit > 0 {
		args = append(args, "rate", fmt.Sprintf("%dmbit", profile.RateMbit))
	}
	return args
}
