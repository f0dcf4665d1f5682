package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/eventlog"
)

func ts(second float64) *time.Time {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	t := base.Add(time.Duration(second * float64(time.Second)))
	return &t
}

func completeRound(round int, start float64, end float64, accuracy float64, failures int) eventlog.RoundRecord {
	duration := end - start
	return eventlog.RoundRecord{
		Round:       round,
		Start:       ts(start),
		End:         ts(end),
		DurationSec: &duration,
		Accuracy:    &accuracy,
		Failures:    failures,
	}
}

func openRound(round int, start float64) eventlog.RoundRecord {
	return eventlog.RoundRecord{Round: round, Start: ts(start)}
}

func runLogWithRounds(rounds ...eventlog.RoundRecord) *eventlog.RunLog {
	return &eventlog.RunLog{
		RunId:  "sec0-net0-1745472000-9bc61ad4",
		Rounds: rounds,
	}
}

func TestAggregate_SingleRoundScenario(t *testing.T) {
	// round_start(1) then round_end(1, accuracy=0.96) 4.2s later.
	runLog := runLogWithRounds(completeRound(1, 0, 4.2, 0.96, 0))

	summary := Aggregate(runLog, []float64{0.95})

	require.NotNil(t, summary.P50DurationSec)
	assert.InDelta(t, 4.2, *summary.P50DurationSec, 1e-9)
	tta := summary.TimeToAccuracySec[0.95]
	require.NotNil(t, tta)
	assert.InDelta(t, 4.2, *tta, 1e-9)
}

func TestAggregate_Percentiles(t *testing.T) {
	var rounds []eventlog.RoundRecord
	for round := 1; round <= 100; round++ {
		start := float64(round * 10)
		rounds = append(rounds, completeRound(round, start, start+float64(round), 0.5, 0))
	}
	summary := Aggregate(runLogWithRounds(rounds...), nil)

	require.NotNil(t, summary.P50DurationSec)
	assert.InDelta(t, 50, *summary.P50DurationSec, 1e-9)
	assert.InDelta(t, 95, *summary.P95DurationSec, 1e-9)
	assert.InDelta(t, 99, *summary.P99DurationSec, 1e-9)
}

func TestAggregate_NullDurationsExcludedFromPercentilesButCountedInFailureRate(t *testing.T) {
	runLog := runLogWithRounds(
		completeRound(1, 0, 4, 0.9, 1),
		openRound(2, 5),
	)
	summary := Aggregate(runLog, nil)

	require.NotNil(t, summary.P50DurationSec)
	assert.InDelta(t, 4, *summary.P50DurationSec, 1e-9)
	// 1 failure over 2 observed rounds, not over the 1 complete round.
	assert.InDelta(t, 0.5, summary.FailureRate, 1e-9)
}

func TestAggregate_TimeToAccuracyMonotonicInThreshold(t *testing.T) {
	runLog := runLogWithRounds(
		completeRound(1, 0, 4, 0.80, 0),
		completeRound(2, 5, 9, 0.92, 0),
		completeRound(3, 10, 14, 0.97, 0),
	)
	thresholds := []float64{0.75, 0.90, 0.95}
	summary := Aggregate(runLog, thresholds)

	var previous float64
	for _, threshold := range thresholds {
		tta := summary.TimeToAccuracySec[threshold]
		require.NotNil(t, tta, "threshold %v", threshold)
		assert.GreaterOrEqual(t, *tta, previous,
			"reaching a lower bar can never take longer than a higher one")
		previous = *tta
	}
}

func TestAggregate_TimeToAccuracyNilWhenNeverReached(t *testing.T) {
	runLog := runLogWithRounds(completeRound(1, 0, 4, 0.5, 0))
	summary := Aggregate(runLog, []float64{0.95})
	assert.Nil(t, summary.TimeToAccuracySec[0.95])
}

func TestAggregate_FailureRateAlwaysInUnitInterval(t *testing.T) {
	cases := []*eventlog.RunLog{
		runLogWithRounds(),
		runLogWithRounds(completeRound(1, 0, 4, 0.5, 0)),
		runLogWithRounds(completeRound(1, 0, 4, 0.5, 1)),
		runLogWithRounds(openRound(1, 0), openRound(2, 5)),
	}
	for i, runLog := range cases {
		summary := Aggregate(runLog, nil)
		assert.GreaterOrEqual(t, summary.FailureRate, 0.0, "case %d", i)
		assert.LessOrEqual(t, summary.FailureRate, 1.0, "case %d", i)
	}
}

func TestAggregate_EmptyLogHasNullPercentiles(t *testing.T) {
	summary := Aggregate(runLogWithRounds(), []float64{0.95})
	assert.Nil(t, summary.P50DurationSec)
	assert.Nil(t, summary.P95DurationSec)
	assert.Nil(t, summary.P99DurationSec)
	assert.Zero(t, summary.FailureRate)
	assert.Zero(t, summary.NumRounds)
}

func TestAggregate_IsIdempotent(t *testing.T) {
	runLog := runLogWithRounds(
		completeRound(1, 0, 4.2, 0.96, 0),
		completeRound(2, 5, 8, 0.97, 1),
	)
	first := Aggregate(runLog, []float64{0.95})
	second := Aggregate(runLog, []float64{0.95})
	assert.Equal(t, first, second)
}
