package scalar

import (
	"sort"
)

// ─────────────────────────────────────────────────────────────────────────────
// ViewState — the shareable subset
// ─────────────────────────────────────────────────────────────────────────────

// ViewState is the part of the visualisation state that is serialised into
// the shareable query and saved views.  Domains and solo mode are excluded.
type ViewState struct {
	Selected  []int    `json:"selected"`
	Hidden    []string `json:"hidden"`
	Smoothing float64  `json:"smoothing"`
}

// DefaultViewState is the safe-default triple: every experiment selected,
// nothing hidden, no smoothing.
func DefaultViewState(experimentCount int) ViewState {
	sel := make([]int, experimentCount)
	for i := range sel {
		sel[i] = i
	}
	return ViewState{Selected: sel, Hidden: []string{}, Smoothing: 0}
}

// ─────────────────────────────────────────────────────────────────────────────
// State
// ─────────────────────────────────────────────────────────────────────────────

// State is the mutable visualisation core of one dashboard instance.  It is
// not safe for concurrent use.
type State struct {
	experiments []Experiment
	metricNames []string
	loaded      bool

	smoothing float64
	selected  map[int]struct{}
	hidden    map[string]struct{}

	soloMode         bool
	soloExperimentID string

	syncMode   SyncMode
	domains    Domains
	fullscreen string
}

// NewState returns an empty, unloaded state.
func NewState() *State {
	return &State{
		selected: make(map[int]struct{}),
		hidden:   make(map[string]struct{}),
		syncMode: DefaultSyncMode,
		domains:  make(Domains),
	}
}

// Load installs the experiment list and the sorted metric-name list.  The
// selection is re-clamped and the solo choice is dropped if its experiment
// disappeared.
func (s *State) Load(experiments []Experiment, metricNames []string) {
	s.experiments = append([]Experiment(nil), experiments...)
	names := append([]string(nil), metricNames...)
	sort.Strings(names)
	s.metricNames = names
	s.loaded = true
	s.reconcile()
}

// SetExperiments replaces the experiment list, keeping the metric names.
func (s *State) SetExperiments(experiments []Experiment) {
	s.experiments = append([]Experiment(nil), experiments...)
	s.reconcile()
}

func (s *State) reconcile() {
	for idx := range s.selected {
		if idx < 0 || idx >= len(s.experiments) {
			delete(s.selected, idx)
		}
	}
	if s.soloExperimentID != "" && s.experimentIndex(s.soloExperimentID) < 0 {
		s.soloExperimentID = ""
	}
}

func (s *State) experimentIndex(id string) int {
	for i, e := range s.experiments {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Loaded reports whether experiments and metric names have been supplied.
func (s *State) Loaded() bool { return s.loaded }

// Experiments returns the full experiment list.
func (s *State) Experiments() []Experiment { return s.experiments }

// MetricNames returns the sorted list of known metric names.
func (s *State) MetricNames() []string { return s.metricNames }

// Smoothing returns the current smoothing weight.
func (s *State) Smoothing() float64 { return s.smoothing }

// SoloMode reports whether solo mode is on.
func (s *State) SoloMode() bool { return s.soloMode }

// SoloExperimentID returns the chosen solo experiment, or "" when none.
func (s *State) SoloExperimentID() string { return s.soloExperimentID }

// SyncMode returns the current domain sync policy.
func (s *State) SyncMode() SyncMode { return s.syncMode }

// Fullscreen returns the metric shown full screen, or "".
func (s *State) Fullscreen() string { return s.fullscreen }

// Domains returns a copy of the per-metric domains.
func (s *State) Domains() Domains { return s.domains.Clone() }

// Selected returns the selected experiment indices in ascending order.
func (s *State) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for idx := range s.selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// IsSelected reports whether the experiment at index is selected.
func (s *State) IsSelected(index int) bool {
	_, ok := s.selected[index]
	return ok
}

// Hidden returns the hidden metric names in ascending order.
func (s *State) Hidden() []string { return sortedKeys(s.hidden) }

// IsHidden reports whether metric is hidden.
func (s *State) IsHidden(metric string) bool {
	_, ok := s.hidden[metric]
	return ok
}

// View returns the shareable subset of the state.
func (s *State) View() ViewState {
	return ViewState{Selected: s.Selected(), Hidden: s.Hidden(), Smoothing: s.smoothing}
}

// ApplyView replaces selection, hidden set and smoothing.  Out-of-range
// indices are dropped.
func (s *State) ApplyView(v ViewState) {
	s.selected = make(map[int]struct{}, len(v.Selected))
	for _, idx := range v.Selected {
		if idx >= 0 && idx < len(s.experiments) {
			s.selected[idx] = struct{}{}
		}
	}
	s.hidden = make(map[string]struct{}, len(v.Hidden))
	for _, name := range v.Hidden {
		s.hidden[name] = struct{}{}
	}
	s.smoothing = ClampSmoothing(v.Smoothing)
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection operations
// ─────────────────────────────────────────────────────────────────────────────

// ToggleExperiment flips the selection of the experiment at index.
// Out-of-range indices are ignored.
func (s *State) ToggleExperiment(index int) {
	if index < 0 || index >= len(s.experiments) {
		return
	}
	if _, ok := s.selected[index]; ok {
		delete(s.selected, index)
		return
	}
	s.selected[index] = struct{}{}
}

// SelectAll selects every experiment.
func (s *State) SelectAll() {
	s.selected = make(map[int]struct{}, len(s.experiments))
	for i := range s.experiments {
		s.selected[i] = struct{}{}
	}
}

// ClearAll deselects every experiment.
func (s *State) ClearAll() {
	s.selected = make(map[int]struct{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Metric visibility operations
// ─────────────────────────────────────────────────────────────────────────────

// ToggleMetricVisibility hides or shows metric.  Unknown names are stored
// anyway; they are harmless.
func (s *State) ToggleMetricVisibility(metric string) {
	if _, ok := s.hidden[metric]; ok {
		delete(s.hidden, metric)
		return
	}
	s.hidden[metric] = struct{}{}
}

// ShowOnly hides every known metric except metric.
func (s *State) ShowOnly(metric string) {
	s.hidden = make(map[string]struct{}, len(s.metricNames))
	for _, name := range s.metricNames {
		if name != metric {
			s.hidden[name] = struct{}{}
		}
	}
}

// ShowAll clears the hidden set.
func (s *State) ShowAll() {
	s.hidden = make(map[string]struct{})
}

// SetSmoothing stores weight after ClampSmoothing.
func (s *State) SetSmoothing(weight float64) {
	s.smoothing = ClampSmoothing(weight)
}

// ─────────────────────────────────────────────────────────────────────────────
// Solo mode
// ─────────────────────────────────────────────────────────────────────────────

// ToggleSolo flips solo mode.  Turning it off always forgets the chosen
// experiment.
func (s *State) ToggleSolo() {
	s.soloMode = !s.soloMode
	if !s.soloMode {
		s.soloExperimentID = ""
	}
}

// ChooseSoloExperiment picks the experiment rendered in solo mode and turns
// solo mode on.  Unknown ids are ignored.
func (s *State) ChooseSoloExperiment(id string) {
	if s.experimentIndex(id) < 0 {
		return
	}
	s.soloMode = true
	s.soloExperimentID = id
}

// ─────────────────────────────────────────────────────────────────────────────
// Chart-level settings
// ─────────────────────────────────────────────────────────────────────────────

// SetSyncMode changes the domain policy.  Existing domains are not resynced;
// the new mode applies from the next domain change.
func (s *State) SetSyncMode(mode SyncMode) {
	if !mode.IsValid() {
		return
	}
	s.syncMode = mode
}

// SetFullscreen shows metric full screen; "" leaves full screen.
func (s *State) SetFullscreen(metric string) {
	s.fullscreen = metric
}

// ChangeDomain applies a zoom/pan on metric through ApplyDomainChange.
func (s *State) ChangeDomain(metric string, d Domain) {
	s.domains = ApplyDomainChange(s.domains, metric, d, s.syncMode, s.VisibleMetrics())
}

// ResetDomain sets metric back to autoscale.
func (s *State) ResetDomain(metric string) {
	s.domains = ResetDomain(s.domains, metric)
}

// ResetAllDomains sets every visible metric back to autoscale.
func (s *State) ResetAllDomains() {
	s.domains = ResetAll(s.domains, s.VisibleMetrics())
}

// ─────────────────────────────────────────────────────────────────────────────
// Derived views
// ─────────────────────────────────────────────────────────────────────────────

// VisibleExperiments returns the experiments to render, in list order.  In
// solo mode with a chosen experiment only that one is returned; solo mode
// without a choice falls back to the ordinary selection.
func (s *State) VisibleExperiments() []Experiment {
	if s.soloMode && s.soloExperimentID != "" {
		if idx := s.experimentIndex(s.soloExperimentID); idx >= 0 {
			return []Experiment{s.experiments[idx]}
		}
	}
	out := make([]Experiment, 0, len(s.selected))
	for i, e := range s.experiments {
		if _, ok := s.selected[i]; ok {
			out = append(out, e)
		}
	}
	return out
}

// VisibleMetrics returns the known metric names that are not hidden, sorted.
func (s *State) VisibleMetrics() []string {
	out := make([]string, 0, len(s.metricNames))
	for _, name := range s.metricNames {
		if _, ok := s.hidden[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

//Personal.AI order the ending
