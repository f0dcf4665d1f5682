package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetServerLog = `{"timestamp": "2026-05-01T10:00:00.000000Z", "event": "experiment_start", "run_id": "RUN_ID"}
{"timestamp": "2026-05-01T10:00:01.000000Z", "event": "round_start", "round": 1}
{"timestamp": "2026-05-01T10:00:05.200000Z", "event": "round_end", "round": 1, "test_accuracy": 0.96, "test_loss": 0.12, "num_failures": 0}
{"timestamp": "2026-05-01T10:00:06.000000Z", "event": "experiment_end"}
`

const datasetClientLog = `{"timestamp": "2026-05-01T10:00:04.000000Z", "event": "fit_end", "round_id": 1, "duration_sec": 3.1, "train_loss": 0.4, "num_samples": 1200}
`

func TestBuildDatasets_WritesAllThreeFiles(t *testing.T) {
	logDir, outputDir := t.TempDir(), t.TempDir()
	writeRunArtifacts(t, logDir, "sec0-net0-1745472000-9bc61ad4")
	writeRunArtifacts(t, logDir, "sec2-net2-1745472100-1f2e3d4c")

	err := BuildDatasets(logDir, outputDir, []float64{0.95}, "")
	require.NoError(t, err)

	summary := readCSVFile(t, filepath.Join(outputDir, "summary.csv"))
	require.Len(t, summary, 3)
	assert.Equal(t, "run_id", summary[0][0])
	assert.Equal(t, "sec0-net0-1745472000-9bc61ad4", summary[1][0])
	assert.Equal(t, "sec2-net2-1745472100-1f2e3d4c", summary[2][0])
	assert.Equal(t, "SEC0", summary[1][1])
	assert.Equal(t, "NET2", summary[2][2])

	rounds := readCSVFile(t, filepath.Join(outputDir, "rounds.csv"))
	require.Len(t, rounds, 3)
	assert.Equal(t, "1", rounds[1][1])
	assert.Equal(t, "4.2", rounds[1][2])

	clients := readCSVFile(t, filepath.Join(outputDir, "clients.csv"))
	require.Len(t, clients, 3)
	assert.Equal(t, "1", clients[1][1])
	assert.Equal(t, "3.1", clients[1][3])
}

func TestBuildDatasets_RunIdFilterSelectsOneRun(t *testing.T) {
	logDir, outputDir := t.TempDir(), t.TempDir()
	writeRunArtifacts(t, logDir, "sec0-net0-1745472000-9bc61ad4")
	writeRunArtifacts(t, logDir, "sec2-net2-1745472100-1f2e3d4c")

	err := BuildDatasets(logDir, outputDir, []float64{0.95}, "sec2-net2-1745472100-1f2e3d4c")
	require.NoError(t, err)

	summary := readCSVFile(t, filepath.Join(outputDir, "summary.csv"))
	require.Len(t, summary, 2)
	assert.Equal(t, "sec2-net2-1745472100-1f2e3d4c", summary[1][0])
}

func TestBuildDatasets_FillsSplitModeAndSeedFromMetadata(t *testing.T) {
	logDir, outputDir := t.TempDir(), t.TempDir()
	runId := "sec0-net0-1745472000-9bc61ad4"
	writeRunArtifacts(t, logDir, runId)
	metadata := "runId: " + runId + "\nsplitMode: noniid\ndataSeed: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(logDir, runId, "metadata.yaml"), []byte(metadata), 0o644))

	err := BuildDatasets(logDir, outputDir, []float64{0.95}, "")
	require.NoError(t, err)

	summary := readCSVFile(t, filepath.Join(outputDir, "summary.csv"))
	require.Len(t, summary, 2)
	assert.Equal(t, "noniid", summary[1][3])
	assert.Equal(t, "3", summary[1][4])
}

func TestBuildDatasets_NoServerLogsIsAnError(t *testing.T) {
	err := BuildDatasets(t.TempDir(), t.TempDir(), []float64{0.95}, "")
	assert.Error(t, err)
}

func TestBuildDatasets_SkipsRunsWithoutClientLogs(t *testing.T) {
	logDir, outputDir := t.TempDir(), t.TempDir()
	runId := "sec1-net0-1745472000-9bc61ad4"
	runDir := filepath.Join(logDir, runId)
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	content := []byte(replaceRunId(datasetServerLog, runId))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "server_"+runId+".log"), content, 0o644))

	err := BuildDatasets(logDir, outputDir, []float64{0.95}, "")
	require.NoError(t, err)

	clients := readCSVFile(t, filepath.Join(outputDir, "clients.csv"))
	assert.Len(t, clients, 1) // header only
}

func writeRunArtifacts(t *testing.T, logDir string, runId string) {
	t.Helper()
	runDir := filepath.Join(logDir, runId)
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	server := []byte(replaceRunId(datasetServerLog, runId))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "server_"+runId+".log"), server, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "fl-client-1-"+runId+".log"), []byte(datasetClientLog), 0o644))
}

func replaceRunId(template string, runId string) string {
	return strings.ReplaceAll(template, "RUN_ID", runId)
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}
