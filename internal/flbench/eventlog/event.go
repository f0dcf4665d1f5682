package eventlog

import (
	"encoding/json"
	"time"
)

// Event kinds emitted by the workload. The orchestrator only ever reads
// these; the workload is the sole writer.
const (
	KindExperimentStart       = "experiment_start"
	KindRoundStart            = "round_start"
	KindRoundEnd              = "round_end"
	KindTargetAccuracyReached = "target_accuracy_reached"
	KindExperimentEnd         = "experiment_end"
	KindFitEnd                = "fit_end"
)

// Event is one newline-delimited record of the workload's event stream.
// Fields beyond kind and timestamp are optional and depend on the kind.
type Event struct {
	Kind           string   `json:"event"`
	Timestamp      string   `json:"timestamp"`
	RunId          string   `json:"run_id,omitempty"`
	Round          *int     `json:"round,omitempty"`
	TestAccuracy   *float64 `json:"test_accuracy,omitempty"`
	TestLoss       *float64 `json:"test_loss,omitempty"`
	NumFailures    *int     `json:"num_failures,omitempty"`
	TargetAccuracy *float64 `json:"target_accuracy,omitempty"`

	// Client fit fields.
	RoundId     *int     `json:"round_id,omitempty"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
	TrainLoss   *float64 `json:"train_loss,omitempty"`
	NumSamples  *int     `json:"num_samples,omitempty"`
}

// decodeEvent parses one log line. Lines that are not JSON events return
// ok=false and are skipped by callers; the workload interleaves free-text
// framework output with its event stream.
func decodeEvent(line []byte) (Event, bool) {
	var event Event
	if err := json.Unmarshal(line, &event); err != nil {
		return Event{}, false
	}
	if event.Kind == "" {
		return Event{}, false
	}
	return event, true
}

// parseTimestamp returns nil on malformed input: a bad timestamp degrades
// the single derived field, never the whole parse.
func parseTimestamp(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
