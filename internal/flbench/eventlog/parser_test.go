package eventlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

const sampleLog = `{"timestamp": "2026-05-01T10:00:00.000000Z", "event": "experiment_start", "run_id": "sec2-net2-1745472000-9bc61ad4"}
{"timestamp": "2026-05-01T10:00:01.000000Z", "event": "round_start", "round": 1}
INFO flwr some framework noise that is not JSON
{"timestamp": "2026-05-01T10:00:05.200000Z", "event": "round_end", "round": 1, "test_accuracy": 0.96, "test_loss": 0.12, "num_failures": 0}
{"timestamp": "2026-05-01T10:00:05.200000Z", "event": "target_accuracy_reached", "target_accuracy": 0.95}
{"timestamp": "2026-05-01T10:00:06.000000Z", "event": "round_start", "round": 2}
{"timestamp": "2026-05-01T10:00:09.000000Z", "event": "round_end", "round": 2, "test_accuracy": 0.97, "test_loss": 0.10, "num_failures": 1}
{"timestamp": "2026-05-01T10:00:10.000000Z", "event": "experiment_end"}
`

func TestParseServerLog_ReconstructsRounds(t *testing.T) {
	runLog, err := ParseServerLog(strings.NewReader(sampleLog))
	require.NoError(t, err)

	assert.Equal(t, "sec2-net2-1745472000-9bc61ad4", runLog.RunId)
	assert.Equal(t, domain.SEC2, runLog.SecurityLevel)
	assert.Equal(t, domain.NET2, runLog.NetworkProfile)
	assert.True(t, runLog.Ended)
	require.Len(t, runLog.Rounds, 2)

	first := runLog.Rounds[0]
	assert.Equal(t, 1, first.Round)
	require.NotNil(t, first.DurationSec)
	assert.InDelta(t, 4.2, *first.DurationSec, 1e-9)
	require.NotNil(t, first.Accuracy)
	assert.Equal(t, 0.96, *first.Accuracy)
	assert.Equal(t, 0, first.Failures)

	second := runLog.Rounds[1]
	assert.Equal(t, 1, second.Failures)
}

func TestParseServerLog_IsIdempotent(t *testing.T) {
	first, err := ParseServerLog(strings.NewReader(sampleLog))
	require.NoError(t, err)
	second, err := ParseServerLog(strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseServerLog_OrphanedRoundEndIsIgnored(t *testing.T) {
	orphan := `{"timestamp": "2026-05-01T10:00:05.000000Z", "event": "round_end", "round": 7, "test_accuracy": 0.5}
`
	runLog, err := ParseServerLog(strings.NewReader(orphan))
	require.NoError(t, err)
	assert.Empty(t, runLog.Rounds)
}

func TestParseServerLog_OpenRoundStaysIncomplete(t *testing.T) {
	open := `{"timestamp": "2026-05-01T10:00:01.000000Z", "event": "round_start", "round": 3}
`
	runLog, err := ParseServerLog(strings.NewReader(open))
	require.NoError(t, err)
	require.Len(t, runLog.Rounds, 1)
	record := runLog.Rounds[0]
	assert.False(t, record.Complete())
	assert.Nil(t, record.End)
	assert.Nil(t, record.DurationSec)
	assert.Nil(t, record.Accuracy)
}

func TestParseServerLog_DurationNonNullIffBothEndsObserved(t *testing.T) {
	runLog, err := ParseServerLog(strings.NewReader(sampleLog))
	require.NoError(t, err)
	for _, record := range runLog.Rounds {
		bothEnds := record.Start != nil && record.End != nil
		assert.Equal(t, bothEnds, record.DurationSec != nil, "round %d", record.Round)
	}
}

func TestParseServerLog_MalformedTimestampDegradesToNull(t *testing.T) {
	malformed := `{"timestamp": "2026-05-01T10:00:01.000000Z", "event": "round_start", "round": 1}
{"timestamp": "not-a-timestamp", "event": "round_end", "round": 1, "test_accuracy": 0.9}
`
	runLog, err := ParseServerLog(strings.NewReader(malformed))
	require.NoError(t, err)
	require.Len(t, runLog.Rounds, 1)
	record := runLog.Rounds[0]
	assert.Nil(t, record.End)
	assert.Nil(t, record.DurationSec)
	// Accuracy came from the round_end payload, not the timestamp.
	require.NotNil(t, record.Accuracy)
	assert.Equal(t, 0.9, *record.Accuracy)
}

func TestParseServerLog_RecordsReachedTargets(t *testing.T) {
	runLog, err := ParseServerLog(strings.NewReader(sampleLog))
	require.NoError(t, err)
	require.Contains(t, runLog.ReachedTargets, 0.95)
}

func TestParseClientLog_ExtractsFitRecords(t *testing.T) {
	clientLog := `{"timestamp": "2026-05-01T10:00:04.000000Z", "event": "fit_end", "round_id": 1, "duration_sec": 3.5, "train_loss": 0.2, "num_samples": 6000}
not json
{"timestamp": "2026-05-01T10:00:08.000000Z", "event": "fit_end", "round_id": 2, "duration_sec": 3.1, "train_loss": 0.15, "num_samples": 6000}
`
	records, err := ParseClientLog(strings.NewReader(clientLog), 3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].ClientId)
	assert.Equal(t, 1, records[0].Round)
	require.NotNil(t, records[0].DurationSec)
	assert.Equal(t, 3.5, *records[0].DurationSec)
}

func TestContainsEventKind(t *testing.T) {
	assert.True(t, ContainsEventKind(strings.NewReader(sampleLog), KindExperimentEnd))
	assert.False(t, ContainsEventKind(strings.NewReader(sampleLog), "no_such_kind"))
}
