package metrics

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/eventlog"
)

// RunRounds pairs a run id with its round records for the per-round dataset.
type RunRounds struct {
	RunId  string
	Rounds []eventlog.RoundRecord
}

// RunClients pairs a run id with its client fit records.
type RunClients struct {
	RunId   string
	Records []eventlog.ClientFitRecord
}

// WriteRoundsCSV writes the per-round tabular dataset. Null fields become
// empty cells so downstream tooling reads them as missing values.
func WriteRoundsCSV(path string, entries []RunRounds) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"run_id", "round", "duration_sec", "accuracy", "loss", "failures"}); err != nil {
			return err
		}
		for _, entry := range entries {
			for _, record := range entry.Rounds {
				row := []string{
					entry.RunId,
					strconv.Itoa(record.Round),
					formatFloatPtr(record.DurationSec),
					formatFloatPtr(record.Accuracy),
					formatFloatPtr(record.Loss),
					strconv.Itoa(record.Failures),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func WriteClientsCSV(path string, entries []RunClients) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"run_id", "client_id", "round", "fit_duration_sec", "train_loss", "num_samples"}); err != nil {
			return err
		}
		for _, entry := range entries {
			for _, record := range entry.Records {
				row := []string{
					entry.RunId,
					strconv.Itoa(record.ClientId),
					strconv.Itoa(record.Round),
					formatFloatPtr(record.DurationSec),
					formatFloatPtr(record.TrainLoss),
					formatIntPtr(record.NumSamples),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteSummaryCSV writes the per-run dataset, with one time-to-accuracy
// column per configured threshold.
func WriteSummaryCSV(path string, summaries []RunSummary, targetAccuracies []float64) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{
			"run_id", "sec_level", "net_profile", "split_mode", "data_seed",
			"num_rounds", "final_accuracy",
		}
		for _, threshold := range targetAccuracies {
			header = append(header, ttaColumn(threshold))
		}
		header = append(header,
			"p50_round_sec", "p95_round_sec", "p99_round_sec",
			"mean_round_sec", "std_round_sec", "failure_rate")
		if err := w.Write(header); err != nil {
			return err
		}

		for _, summary := range summaries {
			row := []string{
				summary.RunId,
				string(summary.SecurityLevel),
				string(summary.NetworkProfile),
				summary.SplitMode,
				formatIntPtr(summary.DataSeed),
				strconv.Itoa(summary.NumRounds),
				formatFloatPtr(summary.FinalAccuracy),
			}
			for _, threshold := range targetAccuracies {
				row = append(row, formatFloatPtr(summary.TimeToAccuracySec[threshold]))
			}
			row = append(row,
				formatFloatPtr(summary.P50DurationSec),
				formatFloatPtr(summary.P95DurationSec),
				formatFloatPtr(summary.P99DurationSec),
				formatFloatPtr(summary.MeanDurationSec),
				formatFloatPtr(summary.StdDurationSec),
				strconv.FormatFloat(summary.FailureRate, 'f', -1, 64))
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func ttaColumn(threshold float64) string {
	return fmt.Sprintf("tta_%d_sec", int(math.Round(threshold*100)))
}

func writeCSV(path string, write func(w *csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := write(writer); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	writer.Flush()
	return errors.Wrapf(writer.Error(), "flushing %s", path)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
