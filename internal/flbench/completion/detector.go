package completion

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/cluster"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/configuration"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/eventlog"
)

// Outcome classifies how a run ended. TimedOut is handled like Failed for
// cleanup, but kept distinct for diagnostics.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case TimedOut:
		return "TimedOut"
	}
	return "Unknown"
}

// clusterAPI is the subset of cluster.ClusterContext the detector reads.
// The workload offers no push notification, so everything is polled.
type clusterAPI interface {
	GetPodsForRunByApp(ctx context.Context, runId string, app string) ([]*v1.Pod, error)
	GetPodLogs(ctx context.Context, podName string) ([]byte, error)
}

type Detector struct {
	orchestration configuration.OrchestrationConfiguration
	profiles      map[string]configuration.NetemProfile
	cluster       clusterAPI
}

func NewDetector(
	orchestration configuration.OrchestrationConfiguration,
	netem configuration.NetemConfiguration,
	clusterContext cluster.ClusterContext,
) *Detector {
	return &Detector{
		orchestration: orchestration,
		profiles:      netem.Profiles,
		cluster:       clusterContext,
	}
}

func newDetectorWithCluster(
	orchestration configuration.OrchestrationConfiguration,
	profiles map[string]configuration.NetemProfile,
	clusterAPI clusterAPI,
) *Detector {
	return &Detector{orchestration: orchestration, profiles: profiles, cluster: clusterAPI}
}

// AwaitServerReady blocks until the run's server pod is ready, bounded by
// the configured readiness timeout.
func (d *Detector) AwaitServerReady(ctx context.Context, runId string) error {
	deadline := time.Now().Add(d.orchestration.ServerReadyTimeout)
	for {
		pod, err := d.serverPod(ctx, runId)
		if err != nil {
			return err
		}
		if pod != nil && cluster.IsPodReady(pod) {
			return nil
		}
		if pod != nil && cluster.IsInTerminalState(pod) {
			return errors.Errorf("server pod %s of run %s entered phase %s during startup",
				pod.Name, runId, pod.Status.Phase)
		}

		if time.Now().After(deadline) {
			return errors.Errorf("server of run %s not ready within %s", runId, d.orchestration.ServerReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.orchestration.CompletionPollInterval):
		}
	}
}

// AwaitCompletion polls until the run ends. Success is the terminal marker
// event in the server's log; a Failed server pod phase classifies the run
// failed immediately. The timeout scales with the network profile, because
// induced latency legitimately slows the workload.
func (d *Detector) AwaitCompletion(ctx context.Context, runId string, profile domain.NetworkProfile) (Outcome, error) {
	timeout := d.timeoutForProfile(profile)
	deadline := time.Now().Add(timeout)
	log.WithFields(log.Fields{
		"runId":   runId,
		"timeout": timeout,
	}).Info("waiting for run completion")

	for {
		pod, err := d.serverPod(ctx, runId)
		if err != nil {
			return Failed, err
		}
		if pod != nil {
			logBytes, err := d.cluster.GetPodLogs(ctx, pod.Name)
			if err != nil {
				log.WithError(err).Warnf("could not read server logs for run %s", runId)
			} else if eventlog.ContainsEventKind(bytes.NewReader(logBytes), eventlog.KindExperimentEnd) {
				return Succeeded, nil
			}
			// A server pod that exited without emitting the end marker can
			// never finish the run, whatever phase it exited in.
			if cluster.IsInTerminalState(pod) {
				return Failed, nil
			}
		}

		if time.Now().After(deadline) {
			return TimedOut, nil
		}
		select {
		case <-ctx.Done():
			return Failed, ctx.Err()
		case <-time.After(d.orchestration.CompletionPollInterval):
		}
	}
}

func (d *Detector) timeoutForProfile(profile domain.NetworkProfile) time.Duration {
	timeout := d.orchestration.CompletionTimeout
	if spec, ok := d.profiles[string(profile)]; ok && spec.TimeoutMultiplier > 1 {
		timeout = time.Duration(float64(timeout) * spec.TimeoutMultiplier)
	}
	return timeout
}

func (d *Detector) serverPod(ctx context.Context, runId string) (*v1.Pod, error) {
	pods, err := d.cluster.GetPodsForRunByApp(ctx, runId, domain.ServerApp)
	if err != nil {
		return nil, err
	}
	if len(pods) == 0 {
		return nil, nil
	}
	return pods[0], nil
}
