package eventlog

import (
	"bufio"
	"io"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// RoundRecord is the per-round reduction of the event stream. Duration and
// accuracy are populated only once a matching round_end has been observed;
// a round_start with no end stays permanently open, which is not an error.
type RoundRecord struct {
	Round       int
	Start       *time.Time
	End         *time.Time
	DurationSec *float64
	Accuracy    *float64
	Loss        *float64
	Failures    int
}

// Complete reports whether both ends of the round were observed with
// parseable timestamps.
func (r RoundRecord) Complete() bool {
	return r.DurationSec != nil
}

// RunLog is the parsed form of one run's server event stream.
type RunLog struct {
	RunId          string
	SecurityLevel  domain.SecurityLevel
	NetworkProfile domain.NetworkProfile
	// Rounds ordered by round number.
	Rounds []RoundRecord
	// Timestamps of target_accuracy_reached events, keyed by threshold.
	ReachedTargets map[float64]time.Time
	Ended          bool
}

// ClientFitRecord is one client-side training step, parsed from a client
// pod's log.
type ClientFitRecord struct {
	ClientId    int
	Round       int
	DurationSec *float64
	TrainLoss   *float64
	NumSamples  *int
}

// ParseServerLog folds a server event stream into round records. The fold
// is a pure function of the stream contents: parsing the same log twice
// yields identical results.
func ParseServerLog(reader io.Reader) (*RunLog, error) {
	runLog := &RunLog{ReachedTargets: map[float64]time.Time{}}
	byRound := map[int]*RoundRecord{}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		event, ok := decodeEvent(scanner.Bytes())
		if !ok {
			continue
		}
		switch event.Kind {
		case KindExperimentStart:
			runLog.RunId = event.RunId
			if level, profile, err := domain.ParseRunId(event.RunId); err == nil {
				runLog.SecurityLevel = level
				runLog.NetworkProfile = profile
			} else {
				log.WithError(err).Warn("could not decompose run id from experiment_start")
			}
		case KindRoundStart:
			if event.Round == nil {
				continue
			}
			if _, exists := byRound[*event.Round]; exists {
				continue
			}
			byRound[*event.Round] = &RoundRecord{
				Round: *event.Round,
				Start: parseTimestamp(event.Timestamp),
			}
		case KindRoundEnd:
			if event.Round == nil {
				continue
			}
			record, exists := byRound[*event.Round]
			if !exists || record.End != nil {
				// An end with no open round should not occur under correct
				// operation; ignore rather than fail the parse.
				continue
			}
			record.End = parseTimestamp(event.Timestamp)
			record.Accuracy = event.TestAccuracy
			record.Loss = event.TestLoss
			if event.NumFailures != nil {
				record.Failures = *event.NumFailures
			}
			if record.Start != nil && record.End != nil {
				duration := record.End.Sub(*record.Start).Seconds()
				record.DurationSec = &duration
			}
		case KindTargetAccuracyReached:
			if event.TargetAccuracy == nil {
				continue
			}
			if t := parseTimestamp(event.Timestamp); t != nil {
				runLog.ReachedTargets[*event.TargetAccuracy] = *t
			}
		case KindExperimentEnd:
			runLog.Ended = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	runLog.Rounds = make([]RoundRecord, 0, len(byRound))
	for _, record := range byRound {
		runLog.Rounds = append(runLog.Rounds, *record)
	}
	sort.Slice(runLog.Rounds, func(i, j int) bool {
		return runLog.Rounds[i].Round < runLog.Rounds[j].Round
	})
	return runLog, nil
}

// ParseClientLog extracts fit records from one client pod's event stream.
func ParseClientLog(reader io.Reader, clientId int) ([]ClientFitRecord, error) {
	var records []ClientFitRecord

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		event, ok := decodeEvent(scanner.Bytes())
		if !ok || event.Kind != KindFitEnd {
			continue
		}
		record := ClientFitRecord{
			ClientId:    clientId,
			Round:       -1,
			DurationSec: event.DurationSec,
			TrainLoss:   event.TrainLoss,
			NumSamples:  event.NumSamples,
		}
		if event.RoundId != nil {
			record.Round = *event.RoundId
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ContainsEventKind scans a raw event stream for any event of the given
// kind. The completion detector uses this to spot the terminal marker
// without parsing the whole log into records.
func ContainsEventKind(reader io.Reader, kind string) bool {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if event, ok := decodeEvent(scanner.Bytes()); ok && event.Kind == kind {
			return true
		}
	}
	return false
}
