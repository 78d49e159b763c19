package scalar

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

// Query parameter names of the shareable query string.
const (
	ParamExperiments = "exp"
	ParamMetrics     = "met"
	ParamSmoothing   = "s"
)

// AddressBar is the persistent key-value surface the synchroniser writes to.
// Replace must overwrite the current entry without appending history.
type AddressBar interface {
	Query() string
	Replace(query string)
}

// SyncPhase is the synchroniser state.
type SyncPhase int

const (
	PhaseUninitialized SyncPhase = iota
	PhaseSynced
)

func (p SyncPhase) String() string {
	if p == PhaseSynced {
		return "synced"
	}
	return "uninitialized"
}

// ─────────────────────────────────────────────────────────────────────────────
// Encoding
// ─────────────────────────────────────────────────────────────────────────────

// EncodeQuery serialises v.  Defaults are omitted: exp only for a strict
// non-empty subset, met only when something is hidden, s only when the
// smoothing rounds to a non-zero two-decimal value.  Keys appear in the
// order exp, met, s.
func EncodeQuery(v ViewState, experimentCount int, metricNames []string) string {
	q := url.Values{}

	sel := make([]int, 0, len(v.Selected))
	for _, idx := range v.Selected {
		if idx >= 0 && idx < experimentCount {
			sel = append(sel, idx)
		}
	}
	if len(sel) > 0 && len(sel) < experimentCount {
		q.Set(ParamExperiments, EncodeSelection(sel))
	}

	hidden := make(map[string]struct{}, len(v.Hidden))
	for _, name := range v.Hidden {
		hidden[name] = struct{}{}
	}
	var hiddenIdx []int
	for i, name := range metricNames {
		if _, ok := hidden[name]; ok {
			hiddenIdx = append(hiddenIdx, i)
		}
	}
	if len(hiddenIdx) > 0 {
		q.Set(ParamMetrics, EncodeSelection(hiddenIdx))
	}

	if s := fmt.Sprintf("%.2f", ClampSmoothing(v.Smoothing)); s != "0.00" {
		q.Set(ParamSmoothing, s)
	}
	// url.Values.Encode sorts keys, which yields exp, met, s.
	return q.Encode()
}

// DecodeQuery parses a shareable query against the current experiment count
// and sorted metric names.  On any failure it returns DefaultViewState
// together with the reason; callers treat the error as informational only.
func DecodeQuery(query string, experimentCount int, metricNames []string) (ViewState, error) {
	def := DefaultViewState(experimentCount)

	values, err := url.ParseQuery(query)
	if err != nil {
		return def, fmt.Errorf("parse query: %w", err)
	}
	out := ViewState{Selected: def.Selected, Hidden: []string{}}

	if raw, ok := values[ParamExperiments]; ok && len(raw) > 0 {
		decoded := DecodeSelection(raw[0])
		if len(decoded) == 0 {
			return def, fmt.Errorf("malformed %s parameter %q", ParamExperiments, raw[0])
		}
		sel := make([]int, 0, len(decoded))
		for _, idx := range decoded {
			if idx < experimentCount {
				sel = append(sel, idx)
			}
		}
		// a selection that no longer matches any experiment is stale
		if len(sel) > 0 {
			out.Selected = sel
		}
	}

	if raw, ok := values[ParamMetrics]; ok && len(raw) > 0 {
		decoded := DecodeSelection(raw[0])
		if len(decoded) == 0 {
			return def, fmt.Errorf("malformed %s parameter %q", ParamMetrics, raw[0])
		}
		for _, idx := range decoded {
			if idx < len(metricNames) {
				out.Hidden = append(out.Hidden, metricNames[idx])
			}
		}
	}

	if raw, ok := values[ParamSmoothing]; ok && len(raw) > 0 {
		w, err := strconv.ParseFloat(raw[0], 64)
		if err != nil || math.IsNaN(w) || w < 0 || w > 1 {
			return def, fmt.Errorf("malformed %s parameter %q", ParamSmoothing, raw[0])
		}
		out.Smoothing = ClampSmoothing(w)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Synchronizer
// ─────────────────────────────────────────────────────────────────────────────

// Synchronizer keeps a State and an AddressBar in step.
type Synchronizer struct {
	state  *State
	bar    AddressBar
	phase  SyncPhase
	logger logging.Logger
}

// NewSynchronizer wires state to bar.  A nil logger is replaced by a nop.
func NewSynchronizer(state *State, bar AddressBar, logger logging.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Synchronizer{state: state, bar: bar, logger: logger}
}

// Phase returns the current synchroniser state.
func (s *Synchronizer) Phase() SyncPhase { return s.phase }

// Initialize parses the address bar once, after the state has been loaded.
// It returns true on the uninitialized → synced transition.
func (s *Synchronizer) Initialize() bool {
	if s.phase == PhaseSynced || !s.state.Loaded() {
		return false
	}
	s.apply(s.bar.Query())
	s.phase = PhaseSynced
	return true
}

// Sync writes the serialised state to the address bar if it differs from
// what is there.  It returns whether a write happened.  Before
// initialisation it does nothing.
func (s *Synchronizer) Sync() bool {
	if s.phase != PhaseSynced {
		return false
	}
	q := s.Query()
	if q == s.bar.Query() {
		return false
	}
	s.bar.Replace(q)
	return true
}

// Query returns the serialised form of the current state.
func (s *Synchronizer) Query() string {
	return EncodeQuery(s.state.View(), len(s.state.Experiments()), s.state.MetricNames())
}

// RestoreView decodes an externally supplied query into the state and
// rewrites the address bar to match.  It is ignored until the state is
// loaded.
func (s *Synchronizer) RestoreView(query string) bool {
	if !s.state.Loaded() {
		return false
	}
	s.apply(query)
	s.phase = PhaseSynced
	s.Sync()
	return true
}

func (s *Synchronizer) apply(query string) {
	v, err := DecodeQuery(query, len(s.state.Experiments()), s.state.MetricNames())
	if err != nil {
		s.logger.Debug("query decode fell back to defaults",
			logging.String("query", query), logging.Err(err))
	}
	s.state.ApplyView(v)
}

//Personal.AI order the ending
