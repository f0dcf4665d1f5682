package metrics

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/eventlog"
)

var clientLogPattern = regexp.MustCompile(`^fl-client-(\d+)\b.*\.log$`)

// BuildDatasets walks logDir for collected run artifacts, parses every
// server log (and any client logs collected alongside it) and writes
// rounds.csv, clients.csv and summary.csv into outputDir. A non-empty
// runIdFilter restricts the datasets to that single run. Unreadable or
// empty logs are reported and skipped rather than failing the whole build.
func BuildDatasets(logDir string, outputDir string, targetAccuracies []float64, runIdFilter string) error {
	serverLogs, err := findServerLogs(logDir, runIdFilter)
	if err != nil {
		return err
	}
	if len(serverLogs) == 0 {
		return errors.Errorf("no server logs found under %s", logDir)
	}

	var summaries []RunSummary
	var rounds []RunRounds
	var clients []RunClients
	for _, serverLog := range serverLogs {
		runLog, err := parseServerLogFile(serverLog.path)
		if err != nil {
			log.WithError(err).Warnf("skipping unparseable server log %s", serverLog.path)
			continue
		}
		if runLog.RunId == "" {
			runLog.RunId = serverLog.runId
		}

		summary := Aggregate(runLog, targetAccuracies)
		applyRunMetadata(&summary, filepath.Dir(serverLog.path))
		summaries = append(summaries, summary)
		rounds = append(rounds, RunRounds{RunId: runLog.RunId, Rounds: runLog.Rounds})

		fitRecords := parseClientLogs(filepath.Dir(serverLog.path))
		if len(fitRecords) > 0 {
			clients = append(clients, RunClients{RunId: runLog.RunId, Records: fitRecords})
		}
	}
	if len(summaries) == 0 {
		return errors.Errorf("none of the %d server logs under %s could be parsed", len(serverLogs), logDir)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RunId < summaries[j].RunId })
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RunId < rounds[j].RunId })
	sort.Slice(clients, func(i, j int) bool { return clients[i].RunId < clients[j].RunId })

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := WriteRoundsCSV(filepath.Join(outputDir, "rounds.csv"), rounds); err != nil {
		return err
	}
	if err := WriteClientsCSV(filepath.Join(outputDir, "clients.csv"), clients); err != nil {
		return err
	}
	return WriteSummaryCSV(filepath.Join(outputDir, "summary.csv"), summaries, targetAccuracies)
}

// applyRunMetadata fills in the configuration fields the event stream does
// not carry from the metadata record collected next to the logs. Absent or
// unreadable metadata leaves those columns empty.
func applyRunMetadata(summary *RunSummary, runDir string) {
	content, err := os.ReadFile(filepath.Join(runDir, "metadata.yaml"))
	if err != nil {
		return
	}
	var metadata struct {
		SplitMode string `yaml:"splitMode"`
		DataSeed  *int   `yaml:"dataSeed"`
	}
	if err := yaml.Unmarshal(content, &metadata); err != nil {
		log.WithError(err).Warnf("ignoring malformed metadata in %s", runDir)
		return
	}
	summary.SplitMode = metadata.SplitMode
	summary.DataSeed = metadata.DataSeed
}

type serverLogFile struct {
	path  string
	runId string
}

func findServerLogs(logDir string, runIdFilter string) ([]serverLogFile, error) {
	var found []serverLogFile
	err := filepath.WalkDir(logDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "server_") || !strings.HasSuffix(name, ".log") {
			return nil
		}
		runId := strings.TrimSuffix(strings.TrimPrefix(name, "server_"), ".log")
		if runIdFilter != "" && runId != runIdFilter {
			return nil
		}
		found = append(found, serverLogFile{path: path, runId: runId})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s for server logs", logDir)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })
	return found, nil
}

func parseServerLogFile(path string) (*eventlog.RunLog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()
	return eventlog.ParseServerLog(file)
}

// parseClientLogs collects fit records from every client pod log in a run
// directory. The client id is recovered from the pod name embedded in the
// file name.
func parseClientLogs(runDir string) []eventlog.ClientFitRecord {
	entries, err := os.ReadDir(runDir)
	if err != nil {
		log.WithError(err).Warnf("cannot list %s for client logs", runDir)
		return nil
	}

	var records []eventlog.ClientFitRecord
	for _, entry := range entries {
		match := clientLogPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		clientId, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		path := filepath.Join(runDir, entry.Name())
		file, err := os.Open(path)
		if err != nil {
			log.WithError(err).Warnf("skipping unreadable client log %s", path)
			continue
		}
		fitRecords, err := eventlog.ParseClientLog(file, clientId)
		file.Close()
		if err != nil {
			log.WithError(err).Warnf("skipping unparseable client log %s", path)
			continue
		}
		records = append(records, fitRecords...)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ClientId != records[j].ClientId {
			return records[i].ClientId < records[j].ClientId
		}
		return records[i].Round < records[j].Round
	})
	return records
}
