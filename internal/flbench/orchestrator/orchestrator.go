package orchestrator

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/cluster"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/completion"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/configuration"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/manifest"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/netem"
)

// LifecycleState is owned exclusively by the orchestrator for the duration
// of one run. Completed, Failed and TimedOut are terminal.
type LifecycleState string

const (
	Pending         LifecycleState = "Pending"
	ManifestApplied LifecycleState = "ManifestApplied"
	ServerReady     LifecycleState = "ServerReady"
	NetworkImpaired LifecycleState = "NetworkImpaired"
	Completed       LifecycleState = "Completed"
	Failed          LifecycleState = "Failed"
	TimedOut        LifecycleState = "TimedOut"
)

type impairmentInjector interface {
	Apply(ctx context.Context, profile domain.NetworkProfile, runId string) error
}

type completionDetector interface {
	AwaitServerReady(ctx context.Context, runId string) error
	AwaitCompletion(ctx context.Context, runId string, profile domain.NetworkProfile) (completion.Outcome, error)
}

// RunResult reports how a run ended. Err carries the phase failure when
// State is not Completed.
type RunResult struct {
	RunId string
	State LifecycleState
	Err   error
}

func (r RunResult) Succeeded() bool {
	return r.State == Completed
}

type Orchestrator struct {
	config        configuration.FlbenchConfiguration
	cluster       cluster.ClusterContext
	injector      impairmentInjector
	detector      completionDetector
	keepResources bool
}

func New(config configuration.FlbenchConfiguration, clusterContext cluster.ClusterContext) *Orchestrator {
	return &Orchestrator{
		config:   config,
		cluster:  clusterContext,
		injector: netem.NewInjector(config.Netem, clusterContext),
		detector: completion.NewDetector(config.Orchestration, config.Netem, clusterContext),
	}
}

// KeepResources disables teardown so a run's pods and policies stay on the
// cluster for manual inspection. Meant for debugging single runs, never
// for campaigns.
func (o *Orchestrator) KeepResources(keep bool) {
	o.keepResources = keep
}

// newWithCollaborators exists for tests.
func newWithCollaborators(
	config configuration.FlbenchConfiguration,
	clusterContext cluster.ClusterContext,
	injector impairmentInjector,
	detector completionDetector,
) *Orchestrator {
	return &Orchestrator{config: config, cluster: clusterContext, injector: injector, detector: detector}
}

// ExecuteRun drives one benchmark configuration through its whole
// lifecycle. Whatever the outcome, it captures diagnostics on failure,
// collects artifacts, persists the run metadata and tears down every
// run-scoped resource before returning.
func (o *Orchestrator) ExecuteRun(ctx context.Context, runConfig domain.RunConfig, outputDir string) RunResult {
	runId := domain.NewRunId(runConfig.SecurityLevel, runConfig.NetworkProfile)
	runLog := log.WithField("runId", runId)
	runLog.Infof("starting run: %s", runConfig)

	templatePath := manifest.TemplatePathForSecurityLevel(o.config.Orchestration.ManifestDir, runConfig.SecurityLevel)
	manifestPath, cleanupManifest, err := manifest.Instantiate(templatePath, runId, manifest.OverridesFromRunConfig(runConfig))
	if err != nil {
		// Precondition failure: nothing was created on the cluster, so
		// there is nothing to collect or tear down.
		return RunResult{RunId: runId, State: Failed, Err: err}
	}
	defer cleanupManifest()

	state := Pending
	phaseErr := o.runPhases(ctx, runConfig, runId, manifestPath, &state)
	// Finalization must survive the shutdown signal that may have ended the
	// phases: leftover pods would match the next run's selectors. The
	// teardown wait keeps its own bound.
	o.finalize(context.WithoutCancel(ctx), runConfig, runId, state, outputDir)

	if phaseErr != nil {
		runLog.WithError(phaseErr).Errorf("run ended in state %s", state)
	} else {
		runLog.Infof("run ended in state %s", state)
	}
	return RunResult{RunId: runId, State: state, Err: phaseErr}
}

// runPhases advances the lifecycle state machine, leaving the terminal
// state in state.
func (o *Orchestrator) runPhases(
	ctx context.Context,
	runConfig domain.RunConfig,
	runId string,
	manifestPath string,
	state *LifecycleState,
) error {
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		*state = Failed
		return errors.Wrap(err, "reading rendered manifest")
	}
	objects, err := manifest.DecodeObjects(content)
	if err != nil {
		*state = Failed
		return err
	}

	if err := o.cluster.SubmitObjects(ctx, objects); err != nil {
		*state = Failed
		return errors.Wrapf(err, "applying manifest for run %s", runId)
	}
	*state = ManifestApplied
	log.WithField("runId", runId).Info("manifest applied")

	if err := o.detector.AwaitServerReady(ctx, runId); err != nil {
		*state = Failed
		return errors.Wrapf(err, "server readiness for run %s", runId)
	}
	*state = ServerReady
	log.WithField("runId", runId).Info("server ready")

	// Clients spawn shortly after the server comes up; give them a moment
	// so the impairment selector has pods to match.
	if o.config.Orchestration.ClientSpawnDelay > 0 {
		select {
		case <-ctx.Done():
			*state = Failed
			return ctx.Err()
		case <-time.After(o.config.Orchestration.ClientSpawnDelay):
		}
	}

	if err := o.injector.Apply(ctx, runConfig.NetworkProfile, runId); err != nil {
		*state = Failed
		return errors.Wrapf(err, "network impairment for run %s", runId)
	}
	*state = NetworkImpaired
	log.WithField("runId", runId).Info("network impairment in place")

	outcome, err := o.detector.AwaitCompletion(ctx, runId, runConfig.NetworkProfile)
	if err != nil {
		*state = Failed
		return errors.Wrapf(err, "awaiting completion of run %s", runId)
	}
	switch outcome {
	case completion.Succeeded:
		*state = Completed
		return nil
	case completion.TimedOut:
		*state = TimedOut
		return errors.Errorf("run %s timed out", runId)
	default:
		*state = Failed
		return errors.Errorf("run %s failed", runId)
	}
}

// finalize performs the terminal-state duties in order: diagnostics (only
// when the run did not complete), artifact collection, metadata
// persistence, then teardown with a bounded wait for the resources to
// disappear. All steps are best-effort; a collection failure must not mask
// the run outcome.
func (o *Orchestrator) finalize(ctx context.Context, runConfig domain.RunConfig, runId string, state LifecycleState, outputDir string) {
	if state != Completed {
		o.captureDiagnostics(ctx, runId)
	}
	if err := o.collectArtifacts(ctx, runId, outputDir); err != nil {
		log.WithError(err).Warnf("artifact collection for run %s incomplete", runId)
	}
	if err := o.writeMetadata(runConfig, runId, state, outputDir); err != nil {
		log.WithError(err).Warnf("could not persist metadata for run %s", runId)
	}
	if o.keepResources {
		log.Warnf("leaving resources of run %s on the cluster", runId)
		return
	}
	if err := o.cluster.DeleteRunResources(ctx, runId); err != nil {
		log.WithError(err).Warnf("teardown of run %s incomplete", runId)
	}
	if err := o.awaitResourcesGone(ctx, runId); err != nil {
		log.WithError(err).Warnf("resources of run %s still terminating", runId)
	}
}

func (o *Orchestrator) captureDiagnostics(ctx context.Context, runId string) {
	pods, err := o.cluster.GetPodsForRun(ctx, runId)
	if err != nil {
		log.WithError(err).Warn("diagnostic pod listing failed")
	} else {
		log.WithField("runId", runId).Infof("diagnostic: run pods %v", cluster.ExtractPodNames(pods))
		for _, pod := range pods {
			log.WithFields(log.Fields{
				"runId": runId,
				"pod":   pod.Name,
				"phase": pod.Status.Phase,
			}).Info("diagnostic: pod phase")
		}
	}

	events, err := o.cluster.GetRecentEventsForRun(ctx, runId)
	if err != nil {
		log.WithError(err).Warn("diagnostic event listing failed")
		return
	}
	for _, event := range events {
		log.WithFields(log.Fields{
			"runId":  runId,
			"object": event.InvolvedObject.Name,
			"reason": event.Reason,
		}).Infof("diagnostic: %s", strings.TrimSpace(event.Message))
	}
}

// awaitResourcesGone blocks until no pod carrying the run id label remains.
// Terminating pods left behind would be matched by the next run's netem
// readiness wait, so control only returns once the namespace is clean or
// the bounded wait expires.
func (o *Orchestrator) awaitResourcesGone(ctx context.Context, runId string) error {
	deadline := time.Now().Add(o.config.Orchestration.TeardownTimeout)
	for {
		pods, err := o.cluster.GetPodsForRun(ctx, runId)
		if err != nil {
			return err
		}
		if len(pods) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("%d pods of run %s still present after %s",
				len(pods), runId, o.config.Orchestration.TeardownTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.config.Orchestration.TeardownPollInterval):
		}
	}
}
