package scalar

import (
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

// Chart is the render input of one visible metric: the pivoted rows and the
// synchronised domain.  Empty marks the explicit "no data" state.
type Chart struct {
	Metric string `json:"metric"`
	Rows   []Row  `json:"rows"`
	Domain Domain `json:"domain"`
	Empty  bool   `json:"empty"`
}

// Snapshot is a read-only copy of the full visualisation state.
type Snapshot struct {
	Experiments      []Experiment `json:"experiments"`
	MetricNames      []string     `json:"metric_names"`
	Selected         []int        `json:"selected"`
	Hidden           []string     `json:"hidden"`
	Smoothing        float64      `json:"smoothing"`
	SoloMode         bool         `json:"solo_mode"`
	SoloExperimentID string       `json:"solo_experiment_id,omitempty"`
	SyncMode         SyncMode     `json:"sync_mode"`
	Domains          Domains      `json:"domains"`
	Fullscreen       string       `json:"fullscreen,omitempty"`
	Query            string       `json:"query"`
	Phase            string       `json:"phase"`
}

// Dashboard ties State, the domain engine and the Synchronizer together for
// one mounted view.  Every event settles state and domains before the query
// is serialised.  Dashboard is single-writer; callers sharing one across
// goroutines must serialise access.
type Dashboard struct {
	state  *State
	sync   *Synchronizer
	data   MetricsPayload
	logger logging.Logger
}

// NewDashboard creates an unloaded dashboard writing to bar.
func NewDashboard(bar AddressBar, logger logging.Logger) *Dashboard {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	st := NewState()
	return &Dashboard{
		state:  st,
		sync:   NewSynchronizer(st, bar, logger),
		data:   MetricsPayload{},
		logger: logger,
	}
}

// Load supplies (or replaces) the experiment list and metrics payload.  The
// first call initialises the synchroniser from the address bar; later calls
// re-clamp the selection and resync.
func (d *Dashboard) Load(experiments []Experiment, data MetricsPayload) {
	if data == nil {
		data = MetricsPayload{}
	}
	d.data = data
	d.state.Load(experiments, data.MetricNames())
	if d.sync.Initialize() {
		d.logger.Debug("dashboard synchronised from address bar",
			logging.Int("experiments", len(experiments)),
			logging.Int("metrics", len(d.state.MetricNames())))
		return
	}
	d.sync.Sync()
}

// Dispatch applies ev and then serialises the settled state.  It returns
// whether the address bar was rewritten.
func (d *Dashboard) Dispatch(ev Event) bool {
	if ev == nil {
		return false
	}
	ev.apply(d.state)
	return d.sync.Sync()
}

// RestoreView decodes an externally supplied query (a saved view) into the
// state.
func (d *Dashboard) RestoreView(query string) bool {
	return d.sync.RestoreView(query)
}

// State exposes the underlying state for read access.
func (d *Dashboard) State() *State { return d.state }

// Phase reports the synchroniser state.
func (d *Dashboard) Phase() SyncPhase { return d.sync.Phase() }

// Query returns the serialised shareable query of the current state.
func (d *Dashboard) Query() string { return d.sync.Query() }

// MetricNames returns the sorted union of metric names in the payload.
func (d *Dashboard) MetricNames() []string { return d.state.MetricNames() }

// Data returns the loaded metrics payload.
func (d *Dashboard) Data() MetricsPayload { return d.data }

// Charts returns one Chart per visible metric, in metric-name order.
func (d *Dashboard) Charts() []Chart {
	metrics := d.state.VisibleMetrics()
	tables := Pivot(PivotInput{
		Experiments: d.state.VisibleExperiments(),
		Metrics:     metrics,
		Data:        d.data,
		Smoothing:   d.state.Smoothing(),
	})
	domains := d.state.domains
	out := make([]Chart, 0, len(metrics))
	for _, m := range metrics {
		rows := tables[m]
		out = append(out, Chart{Metric: m, Rows: rows, Domain: domains.Get(m).clone(), Empty: len(rows) == 0})
	}
	return out
}

// Chart returns the chart of a single metric whether or not it is visible.
func (d *Dashboard) Chart(metric string) (Chart, bool) {
	known := false
	for _, m := range d.state.MetricNames() {
		if m == metric {
			known = true
			break
		}
	}
	if !known {
		return Chart{}, false
	}
	rows := PivotMetric(metric, d.state.VisibleExperiments(), d.data, d.state.Smoothing())
	return Chart{Metric: metric, Rows: rows, Domain: d.state.domains.Get(metric).clone(), Empty: len(rows) == 0}, true
}

// Snapshot returns a copy of the full state.
func (d *Dashboard) Snapshot() Snapshot {
	st := d.state
	return Snapshot{
		Experiments:      append([]Experiment(nil), st.Experiments()...),
		MetricNames:      append([]string(nil), st.MetricNames()...),
		Selected:         st.Selected(),
		Hidden:           st.Hidden(),
		Smoothing:        st.Smoothing(),
		SoloMode:         st.SoloMode(),
		SoloExperimentID: st.SoloExperimentID(),
		SyncMode:         st.SyncMode(),
		Domains:          st.Domains(),
		Fullscreen:       st.Fullscreen(),
		Query:            d.Query(),
		Phase:            d.sync.Phase().String(),
	}
}

//Personal.AI order the ending
