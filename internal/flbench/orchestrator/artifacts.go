package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	v1 "k8s.io/api/core/v1"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/build"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// runMetadata is the record written next to the collected logs so a result
// directory is self-describing without the campaign that produced it.
type runMetadata struct {
	RunId          string    `yaml:"runId"`
	SecurityLevel  string    `yaml:"securityLevel"`
	NetworkProfile string    `yaml:"networkProfile"`
	NumClients     int       `yaml:"numClients"`
	NumRounds      int       `yaml:"numRounds"`
	SplitMode      string    `yaml:"splitMode"`
	Alpha          float64   `yaml:"alpha,omitempty"`
	DataSeed       int       `yaml:"dataSeed"`
	FinalState     string    `yaml:"finalState"`
	FinishedAt     time.Time `yaml:"finishedAt"`
	Version        string    `yaml:"version"`
	GitCommit      string    `yaml:"gitCommit,omitempty"`
	GoVersion      string    `yaml:"goVersion"`
}

// collectArtifacts copies the logs of every pod belonging to the run into
// <outputDir>/<runId>/. The server log is written under a stable name so
// downstream parsing can find it without knowing the pod name.
func (o *Orchestrator) collectArtifacts(ctx context.Context, runId string, outputDir string) error {
	runDir := filepath.Join(outputDir, runId)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return errors.WithStack(err)
	}

	pods, err := o.cluster.GetPodsForRun(ctx, runId)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, pod := range pods {
		logs, err := o.cluster.GetPodLogs(ctx, pod.Name)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "fetching logs of pod %s", pod.Name))
			continue
		}
		path := filepath.Join(runDir, artifactFileName(pod, runId))
		if err := os.WriteFile(path, logs, 0o644); err != nil {
			result = multierror.Append(result, errors.WithStack(err))
		}
	}
	return result.ErrorOrNil()
}

func artifactFileName(pod *v1.Pod, runId string) string {
	if pod.Labels[domain.AppLabel] == domain.ServerApp {
		return fmt.Sprintf("server_%s.log", runId)
	}
	return pod.Name + ".log"
}

func (o *Orchestrator) writeMetadata(runConfig domain.RunConfig, runId string, state LifecycleState, outputDir string) error {
	runDir := filepath.Join(outputDir, runId)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return errors.WithStack(err)
	}

	metadata := runMetadata{
		RunId:          runId,
		SecurityLevel:  string(runConfig.SecurityLevel),
		NetworkProfile: string(runConfig.NetworkProfile),
		NumClients:     runConfig.NumClients,
		NumRounds:      runConfig.NumRounds,
		SplitMode:      runConfig.SplitMode(),
		DataSeed:       runConfig.DataSeed,
		FinalState:     string(state),
		FinishedAt:     time.Now().UTC(),
		Version:        build.ReleaseVersion,
		GitCommit:      build.GitCommit,
		GoVersion:      runtime.Version(),
	}
	if !runConfig.IID {
		metadata.Alpha = runConfig.Alpha
	}

	content, err := yaml.Marshal(metadata)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filepath.Join(runDir, "metadata.yaml"), content, 0o644))
}
