// Package scalar implements the scalar time-series engine behind the
// experiment dashboard: EMA smoothing, the selection codec, the per-metric
// pivot tables, cross-chart domain synchronisation, selection/visibility
// state and the shareable query synchroniser.
//
// Nothing in this package performs I/O.  All entry points are synchronous,
// single-writer and never panic on malformed external input; decode paths
// fall back to safe defaults instead of returning errors.
package scalar

import (
	"bytes"
	"math"

	"github.com/goccy/go-json"
)

// ─────────────────────────────────────────────────────────────────────────────
// Input collaborator types
// ─────────────────────────────────────────────────────────────────────────────

// Experiment is the opaque identity used to attribute series.  The order of
// the experiment list defines default colour assignment and the default
// "all selected" selection.
type Experiment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Series holds the parallel step/value arrays logged for one
// (experiment, metric) pair.  Steps are not guaranteed to be sorted.  Absent
// values are carried as NaN and appear as JSON null on the wire.
type Series struct {
	X []int64   `json:"x"`
	Y []float64 `json:"y"`
}

// Len returns the usable sample count: the shorter of the two arrays.
func (s Series) Len() int {
	if len(s.X) < len(s.Y) {
		return len(s.X)
	}
	return len(s.Y)
}

// Empty reports whether the series carries no usable samples.
func (s Series) Empty() bool {
	return len(s.X) == 0 || len(s.Y) == 0
}

type seriesWire struct {
	X []int64    `json:"x"`
	Y []*float64 `json:"y"`
}

// UnmarshalJSON decodes null entries in "y" as NaN.
func (s *Series) UnmarshalJSON(data []byte) error {
	var w seriesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.X = w.X
	s.Y = make([]float64, len(w.Y))
	for i, v := range w.Y {
		if v == nil {
			s.Y[i] = math.NaN()
			continue
		}
		s.Y[i] = *v
	}
	return nil
}

// MarshalJSON encodes NaN and infinite values as null.
func (s Series) MarshalJSON() ([]byte, error) {
	w := seriesWire{X: s.X, Y: make([]*float64, len(s.Y))}
	if w.X == nil {
		w.X = []int64{}
	}
	for i := range s.Y {
		if isFinite(s.Y[i]) {
			v := s.Y[i]
			w.Y[i] = &v
		}
	}
	return json.Marshal(w)
}

// MetricsPayload maps experiment id → metric name → series.
type MetricsPayload map[string]map[string]Series

// MetricNames returns the sorted union of metric names across all
// experiments in the payload.
func (p MetricsPayload) MetricNames() []string {
	set := make(map[string]struct{})
	for _, metrics := range p {
		for name := range metrics {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Lookup returns the series for the pair and whether it holds usable samples.
func (p MetricsPayload) Lookup(experimentID, metric string) (Series, bool) {
	metrics, ok := p[experimentID]
	if !ok {
		return Series{}, false
	}
	s, ok := metrics[metric]
	if !ok || s.Empty() {
		return Series{}, false
	}
	return s, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Sync mode
// ─────────────────────────────────────────────────────────────────────────────

// SyncMode governs how a zoom/pan change on one chart propagates to the
// other visible charts.
type SyncMode string

const (
	SyncAll         SyncMode = "all"
	SyncXOnly       SyncMode = "x-only"
	SyncYOnly       SyncMode = "y-only"
	SyncIndependent SyncMode = "independent"
)

// DefaultSyncMode is the mode a fresh state starts in.
const DefaultSyncMode = SyncAll

// IsValid reports whether m is one of the four known modes.
func (m SyncMode) IsValid() bool {
	switch m {
	case SyncAll, SyncXOnly, SyncYOnly, SyncIndependent:
		return true
	}
	return false
}

// ParseSyncMode converts s into a SyncMode, returning ok=false for unknown
// values.
func ParseSyncMode(s string) (SyncMode, bool) {
	m := SyncMode(s)
	return m, m.IsValid()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func jsonKey(buf *bytes.Buffer, key string) {
	b, _ := json.Marshal(key)
	buf.Write(b)
	buf.WriteByte(':')
}

//Personal.AI order the ending
