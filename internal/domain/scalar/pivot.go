package scalar

import (
	"bytes"
	"math"
	"sort"
	"strconv"
)

// Row is one step of a per-metric wide table.  Values is keyed by experiment
// id so experiments with duplicate names never collide.
type Row struct {
	Step   int64
	Values map[string]float64
}

// Value returns the cell for experimentID; NaN cells report ok=false.
func (r Row) Value(experimentID string) (float64, bool) {
	v, ok := r.Values[experimentID]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// MarshalJSON renders {"step": n, "<expId>": v, ...} with experiment columns
// in sorted order.  Non-finite cells are omitted.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"step":`)
	buf.WriteString(strconv.FormatInt(r.Step, 10))
	ids := make([]string, 0, len(r.Values))
	for id := range r.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		v := r.Values[id]
		if !isFinite(v) {
			continue
		}
		buf.WriteByte(',')
		jsonKey(&buf, id)
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PivotInput carries everything Pivot needs.  Experiments and Metrics are the
// already-filtered visible sets.
type PivotInput struct {
	Experiments []Experiment
	Metrics     []string
	Data        MetricsPayload
	Smoothing   float64
}

// Pivot produces, for every visible metric, the step-sorted wide table of
// smoothed values.  Each experiment is smoothed over its own sample order
// before merging; steps are never resampled.  A metric without data maps to
// an empty, non-nil slice.
func Pivot(in PivotInput) map[string][]Row {
	out := make(map[string][]Row, len(in.Metrics))
	for _, metric := range in.Metrics {
		out[metric] = PivotMetric(metric, in.Experiments, in.Data, in.Smoothing)
	}
	return out
}

// PivotMetric builds the wide table for a single metric.
func PivotMetric(metric string, experiments []Experiment, data MetricsPayload, smoothing float64) []Row {
	rows := []Row{}
	index := make(map[int64]int)
	for _, exp := range experiments {
		series, ok := data.Lookup(exp.ID, metric)
		if !ok {
			continue
		}
		n := series.Len()
		smoothed := Smooth(series.Y[:n], smoothing)
		for i := 0; i < n; i++ {
			step := series.X[i]
			pos, seen := index[step]
			if !seen {
				rows = append(rows, Row{Step: step, Values: make(map[string]float64)})
				pos = len(rows) - 1
				index[step] = pos
			}
			// duplicate steps within a series: last write wins
			rows[pos].Values[exp.ID] = smoothed[i]
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Step < rows[j].Step })
	return rows
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
