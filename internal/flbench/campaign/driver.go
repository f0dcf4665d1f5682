package campaign

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/orchestrator"
)

type runExecutor interface {
	ExecuteRun(ctx context.Context, runConfig domain.RunConfig, outputDir string) orchestrator.RunResult
}

// Tally is the campaign-level outcome summary. Individual run failures
// are data, not campaign failures.
type Tally struct {
	Total     int
	Skipped   int
	Completed int
	Failed    int
	TimedOut  int
	Results   []orchestrator.RunResult
}

type Driver struct {
	executor  runExecutor
	outputDir string
}

func NewDriver(executor runExecutor, outputDir string) *Driver {
	return &Driver{executor: executor, outputDir: outputDir}
}

// Run executes the configurations strictly sequentially, skipping indices
// below resumeFrom. A failed or timed-out run is logged and counted;
// only context cancellation stops the campaign early.
func (d *Driver) Run(ctx context.Context, configs []domain.RunConfig, resumeFrom int) Tally {
	tally := Tally{Total: len(configs)}
	for i, config := range configs {
		if i < resumeFrom {
			tally.Skipped++
			continue
		}
		if ctx.Err() != nil {
			log.Warnf("campaign interrupted after %d of %d configurations", i, len(configs))
			break
		}

		log.Infof("campaign run %d/%d: %s", i+1, len(configs), config)
		result := d.executor.ExecuteRun(ctx, config, d.outputDir)
		tally.Results = append(tally.Results, result)
		switch result.State {
		case orchestrator.Completed:
			tally.Completed++
		case orchestrator.TimedOut:
			tally.TimedOut++
			log.WithError(result.Err).Warnf("run %s timed out, continuing", result.RunId)
		default:
			tally.Failed++
			log.WithError(result.Err).Warnf("run %s failed, continuing", result.RunId)
		}
	}

	log.Infof("campaign finished: %d completed, %d failed, %d timed out, %d skipped of %d total",
		tally.Completed, tally.Failed, tally.TimedOut, tally.Skipped, tally.Total)
	return tally
}
