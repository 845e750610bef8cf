// Package report turns tracked runs into F1 averages and rank tables.
package report

import (
	"fmt"
	"sort"

	"github.com/signalnine/fedexps/internal/tracking"
)

// Record is the F1 score of one finished run.
type Record struct {
	Dataset  string  `json:"dataset"`
	Skewness string  `json:"skewness"`
	Model    string  `json:"model"`
	F1       float64 `json:"f1"`
}

// Keys names the run fields records are read from.
type Keys struct {
	Dataset  string
	Model    string
	Skewness string
	F1       string
}

// GroupError reports a model whose runs could not be turned into records.
type GroupError struct {
	Model string
	Runs  int
	Err   error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("model %s (%d runs): %v", e.Model, e.Runs, e.Err)
}

func (e GroupError) Unwrap() error { return e.Err }

// UnknownModel labels runs that carry no model key.
const UnknownModel = "<unknown>"

// RecordsFromRuns groups runs by model and extracts one record per run. A
// run with a missing or mistyped key fails its whole model group; the group
// is reported and skipped while the other groups still produce records.
func RecordsFromRuns(runs []tracking.Run, keys Keys) ([]Record, []GroupError) {
	byModel := map[string][]tracking.Run{}
	var models []string
	for _, r := range runs {
		model, err := r.ConfigString(keys.Model)
		if err != nil {
			model = UnknownModel
		}
		if _, ok := byModel[model]; !ok {
			models = append(models, model)
		}
		byModel[model] = append(byModel[model], r)
	}
	sort.Strings(models)

	var records []Record
	var errs []GroupError
	for _, model := range models {
		group := byModel[model]
		recs, err := groupRecords(model, group, keys)
		if err != nil {
			errs = append(errs, GroupError{Model: model, Runs: len(group), Err: err})
			continue
		}
		records = append(records, recs...)
	}
	return records, errs
}

func groupRecords(model string, runs []tracking.Run, keys Keys) ([]Record, error) {
	if model == UnknownModel {
		_, err := runs[0].ConfigString(keys.Model)
		return nil, err
	}
	recs := make([]Record, 0, len(runs))
	for _, r := range runs {
		ds, err := r.ConfigString(keys.Dataset)
		if err != nil {
			return nil, err
		}
		skew, err := r.ConfigString(keys.Skewness)
		if err != nil {
			return nil, err
		}
		f1, err := r.SummaryFloat(keys.F1)
		if err != nil {
			return nil, err
		}
		recs = append(recs, Record{Dataset: ds, Skewness: skew, Model: model, F1: f1})
	}
	return recs, nil
}

// OmitModels drops the records of the named models.
func OmitModels(records []Record, names []string) []Record {
	if len(names) == 0 {
		return records
	}
	omit := map[string]bool{}
	for _, n := range names {
		omit[n] = true
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !omit[r.Model] {
			out = append(out, r)
		}
	}
	return out
}
