package client

import (
	"context"
	"net/url"
	"time"
)

// Experiment is one run shown on the dashboard.
type Experiment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Domain is the pinned zoom of one chart.  A nil axis autoscales; a set axis
// is [min, max].
type Domain struct {
	X *[2]float64 `json:"x"`
	Y *[2]float64 `json:"y"`
}

// SessionState mirrors the dashboard state held by the server.
type SessionState struct {
	Experiments      []Experiment      `json:"experiments"`
	MetricNames      []string          `json:"metric_names"`
	Selected         []int             `json:"selected"`
	Hidden           []string          `json:"hidden"`
	Smoothing        float64           `json:"smoothing"`
	SoloMode         bool              `json:"solo_mode"`
	SoloExperimentID string            `json:"solo_experiment_id,omitempty"`
	SyncMode         string            `json:"sync_mode"`
	Domains          map[string]Domain `json:"domains"`
	Fullscreen       string            `json:"fullscreen,omitempty"`
	Query            string            `json:"query"`
	Phase            string            `json:"phase"`
}

// Session is an open dashboard session.
type Session struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"project_id"`
	State      SessionState `json:"state"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
}

// Chart is the pivoted data of one visible metric.  Each row holds "step"
// plus one column per experiment id that logged a finite value there.
type Chart struct {
	Metric string               `json:"metric"`
	Rows   []map[string]float64 `json:"rows"`
	Domain Domain               `json:"domain"`
	Empty  bool                 `json:"empty"`
}

// Charts is the chart list of a session together with its current query.
type Charts struct {
	Query  string  `json:"query"`
	Charts []Chart `json:"charts"`
}

// Export is an uploaded chart snapshot.
type Export struct {
	Metric    string    `json:"metric"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is one dashboard interaction, sent as {"type": ..., ...}.
type Event map[string]interface{}

func ToggleExperiment(index int) Event  { return Event{"type": "toggle_experiment", "index": index} }
func SelectAll() Event                  { return Event{"type": "select_all"} }
func ClearAll() Event                   { return Event{"type": "clear_all"} }
func ToggleMetric(metric string) Event  { return Event{"type": "toggle_metric", "metric": metric} }
func ShowOnly(metric string) Event      { return Event{"type": "show_only", "metric": metric} }
func ShowAll() Event                    { return Event{"type": "show_all"} }
func SetSmoothing(weight float64) Event { return Event{"type": "set_smoothing", "weight": weight} }
func ToggleSolo() Event                 { return Event{"type": "toggle_solo"} }
func ChooseSolo(experimentID string) Event {
	return Event{"type": "choose_solo", "experiment_id": experimentID}
}
func SetSyncMode(mode string) Event     { return Event{"type": "set_sync_mode", "mode": mode} }
func SetFullscreen(metric string) Event { return Event{"type": "set_fullscreen", "metric": metric} }
func ResetDomain(metric string) Event   { return Event{"type": "reset_domain", "metric": metric} }
func ResetAllDomains() Event            { return Event{"type": "reset_all_domains"} }

// ChangeDomain pins the zoom of metric.  Pass nil for an autoscaled axis.
func ChangeDomain(metric string, x, y *[2]float64) Event {
	return Event{"type": "change_domain", "metric": metric, "domain": Domain{X: x, Y: y}}
}

type openSessionRequest struct {
	Query string `json:"query"`
}

type saveViewRequest struct {
	Name string `json:"name,omitempty"`
}

// SessionsClient drives dashboard sessions.
type SessionsClient struct {
	client *Client
}

func sessionPath(sessionID string) string {
	return "/api/v1/sessions/" + url.PathEscape(sessionID)
}

// Open starts a session for projectID from a shareable query (may be empty).
func (s *SessionsClient) Open(ctx context.Context, projectID, query string) (*Session, error) {
	if projectID == "" {
		return nil, ErrInvalidConfig.WithDetail("projectID is required")
	}
	var sess Session
	path := "/api/v1/projects/" + url.PathEscape(projectID) + "/sessions"
	if err := s.client.post(ctx, path, openSessionRequest{Query: query}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionsClient) Get(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	if err := s.client.get(ctx, sessionPath(sessionID), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionsClient) Charts(ctx context.Context, sessionID string) (*Charts, error) {
	var charts Charts
	if err := s.client.get(ctx, sessionPath(sessionID)+"/charts", &charts); err != nil {
		return nil, err
	}
	return &charts, nil
}

// Apply dispatches one event and returns the settled session.
func (s *SessionsClient) Apply(ctx context.Context, sessionID string, ev Event) (*Session, error) {
	var sess Session
	if err := s.client.post(ctx, sessionPath(sessionID)+"/events", ev, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Reload refetches experiments and metrics, keeping the session's query.
func (s *SessionsClient) Reload(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	if err := s.client.post(ctx, sessionPath(sessionID)+"/reload", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SaveView stores the session's current query as a named view.
func (s *SessionsClient) SaveView(ctx context.Context, sessionID, name string) (*View, error) {
	var view View
	if err := s.client.post(ctx, sessionPath(sessionID)+"/views", saveViewRequest{Name: name}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Restore applies a saved view's query to the session.
func (s *SessionsClient) Restore(ctx context.Context, sessionID, viewID string) (*Session, error) {
	var sess Session
	if err := s.client.post(ctx, sessionPath(sessionID)+"/restore/"+url.PathEscape(viewID), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Export renders metric as an image and returns its download link.
func (s *SessionsClient) Export(ctx context.Context, sessionID, metric string) (*Export, error) {
	var exp Export
	if err := s.client.post(ctx, sessionPath(sessionID)+"/export/"+url.PathEscape(metric), nil, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (s *SessionsClient) Close(ctx context.Context, sessionID string) error {
	return s.client.delete(ctx, sessionPath(sessionID))
}

//Personal.AI order the ending
