package metrics

import (
	"math"
	"time"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/eventlog"
)

// RunSummary is the canonical per-run dataset row. Summaries are the unit
// of replication for downstream statistical comparison: rounds are never
// pooled across runs, because pooling across seeds understates variance.
type RunSummary struct {
	RunId          string
	SecurityLevel  domain.SecurityLevel
	NetworkProfile domain.NetworkProfile
	SplitMode      string
	DataSeed       *int

	NumRounds     int
	FinalAccuracy *float64

	P50DurationSec  *float64
	P95DurationSec  *float64
	P99DurationSec  *float64
	MeanDurationSec *float64
	StdDurationSec  *float64

	// TimeToAccuracySec maps each configured threshold to the elapsed time
	// from the first round's start until the end of the first round meeting
	// it; nil means the run never reached the threshold.
	TimeToAccuracySec map[float64]*float64

	FailureRate float64
}

// Aggregate reduces one run's parsed log into its summary. It is a pure
// function of the log contents and the configured thresholds.
func Aggregate(runLog *eventlog.RunLog, targetAccuracies []float64) RunSummary {
	summary := RunSummary{
		RunId:             runLog.RunId,
		SecurityLevel:     runLog.SecurityLevel,
		NetworkProfile:    runLog.NetworkProfile,
		NumRounds:         len(runLog.Rounds),
		TimeToAccuracySec: map[float64]*float64{},
	}

	durations := make([]float64, 0, len(runLog.Rounds))
	totalFailures := 0
	for _, record := range runLog.Rounds {
		if record.DurationSec != nil {
			durations = append(durations, *record.DurationSec)
		}
		totalFailures += record.Failures
		if record.Accuracy != nil {
			summary.FinalAccuracy = record.Accuracy
		}
	}

	summary.P50DurationSec = nanToNil(percentile(durations, 0.50))
	summary.P95DurationSec = nanToNil(percentile(durations, 0.95))
	summary.P99DurationSec = nanToNil(percentile(durations, 0.99))
	summary.MeanDurationSec = nanToNil(mean(durations))
	if len(durations) > 0 {
		std := standardDeviation(durations)
		summary.StdDurationSec = &std
	}

	for _, threshold := range targetAccuracies {
		summary.TimeToAccuracySec[threshold] = timeToAccuracy(runLog.Rounds, threshold)
	}

	// Rounds without a recorded duration still count in the denominator.
	// The denominator is rounds observed, not rounds planned; a run that
	// times out early reports its rate over the truncated count.
	if len(runLog.Rounds) > 0 {
		summary.FailureRate = math.Min(1, float64(totalFailures)/float64(len(runLog.Rounds)))
	}
	return summary
}

// timeToAccuracy returns the elapsed seconds from the first round's start
// to the end of the first round whose accuracy meets the threshold, or nil
// if no round ever does.
func timeToAccuracy(rounds []eventlog.RoundRecord, threshold float64) *float64 {
	var firstStart *time.Time
	for _, record := range rounds {
		if record.Start != nil {
			firstStart = record.Start
			break
		}
	}
	if firstStart == nil {
		return nil
	}
	for _, record := range rounds {
		if record.Accuracy == nil || record.End == nil {
			continue
		}
		if *record.Accuracy >= threshold {
			elapsed := record.End.Sub(*firstStart).Seconds()
			return &elapsed
		}
	}
	return nil
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
