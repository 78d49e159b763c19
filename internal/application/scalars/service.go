package scalars

import (
	"context"
	"sync"
	"time"

	viewsapp "github.com/turtacn/ExpTrack/internal/application/savedview"
	domain "github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────────────────────

// sessionBar is the per-session address bar.  It holds the query the client
// should display; Replace never appends history.
type sessionBar struct {
	query string
}

func (b *sessionBar) Query() string        { return b.query }
func (b *sessionBar) Replace(query string) { b.query = query }

type session struct {
	mu         sync.Mutex
	id         string
	projectID  common.ProjectID
	bar        *sessionBar
	dash       *scalar.Dashboard
	createdAt  time.Time
	lastActive time.Time
}

// SessionView is the externally visible state of a session.
type SessionView struct {
	ID         string           `json:"id"`
	ProjectID  common.ProjectID `json:"project_id"`
	State      scalar.Snapshot  `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	LastActive time.Time        `json:"last_active"`
}

// view must be called with s.mu held.
func (s *session) view() *SessionView {
	return &SessionView{
		ID:         s.id,
		ProjectID:  s.projectID,
		State:      s.dash.Snapshot(),
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service hosts dashboard sessions.
type Service interface {
	Open(ctx context.Context, projectID common.ProjectID, query string) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	Charts(ctx context.Context, sessionID string) ([]scalar.Chart, error)
	Apply(ctx context.Context, sessionID string, ev scalar.Event) (*SessionView, error)
	Reload(ctx context.Context, sessionID string) (*SessionView, error)
	SaveView(ctx context.Context, sessionID, name string) (*domain.SavedView, error)
	RestoreView(ctx context.Context, sessionID, viewID string) (*SessionView, error)
	Export(ctx context.Context, sessionID, metric string) (*ExportResult, error)
	Close(ctx context.Context, sessionID string) error
	ExpireIdle(now time.Time) int
	Run(ctx context.Context, interval time.Duration)
	Count() int
}

// Options tunes the session service.
type Options struct {
	IdleTTL     time.Duration
	MaxSessions int // 0 means unbounded
}

type serviceImpl struct {
	source   MetricsSource
	views    viewsapp.Service
	exporter *Exporter
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
	opts     Options
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService creates the session service.  views and exporter may be nil,
// which disables the saved-view and export operations respectively.
func NewService(source MetricsSource, views viewsapp.Service, exporter *Exporter, metrics *prometheus.AppMetrics, logger logging.Logger, opts Options) Service {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	return &serviceImpl{
		source:   source,
		views:    views,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger.Named("scalars"),
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *serviceImpl) load(ctx context.Context, projectID string) ([]scalar.Experiment, scalar.MetricsPayload, error) {
	exps, err := s.source.Experiments(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.source.Metrics(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return exps, data, nil
}

// Open loads the project's data and initialises a dashboard from query, the
// way a page mount reads its address bar.
func (s *serviceImpl) Open(ctx context.Context, projectID common.ProjectID, query string) (*SessionView, error) {
	if err := projectID.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if s.opts.MaxSessions > 0 && s.Count() >= s.opts.MaxSessions {
		return nil, errors.New(errors.ErrCodeTooManyRequests, "session limit reached")
	}

	exps, data, err := s.load(ctx, string(projectID))
	if err != nil {
		s.logger.Warn("failed to load project data",
			logging.String("project_id", string(projectID)),
			logging.Err(err))
		return nil, err
	}

	now := s.now()
	bar := &sessionBar{query: query}
	sess := &session{
		id:         string(common.NewID()),
		projectID:  projectID,
		bar:        bar,
		dash:       scalar.NewDashboard(bar, s.logger),
		createdAt:  now,
		lastActive: now,
	}
	sess.dash.Load(exps, data)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionsOpenedTotal.WithLabelValues(string(projectID)).Inc()
	s.metrics.SessionsActive.WithLabelValues().Set(float64(n))
	s.logger.Info("session opened",
		logging.String("session_id", sess.id),
		logging.String("project_id", string(projectID)),
		logging.Int("experiments", len(exps)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// acquire returns the locked session and marks it active.
func (s *serviceImpl) acquire(sessionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(sessionID)
	}
	sess.mu.Lock()
	sess.lastActive = s.now()
	return sess, nil
}

func (s *serviceImpl) Get(_ context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.view(), nil
}

func (s *serviceImpl) Charts(_ context.Context, sessionID string) ([]scalar.Chart, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.dash.Charts(), nil
}

func (s *serviceImpl) Apply(_ context.Context, sessionID string, ev scalar.Event) (*SessionView, error) {
	if ev == nil {
		return nil, errors.New(errors.ErrCodeEventInvalid, "event is required")
	}
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	start := time.Now()
	sess.dash.Dispatch(ev)
	prometheus.RecordSessionEvent(s.metrics, ev.Type(), time.Since(start), nil)
	return sess.view(), nil
}

// Reload refetches the project's data, keeping selection and domains.
func (s *serviceImpl) Reload(ctx context.Context, sessionID string) (*SessionView, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(sessionID)
	}

	exps, data, err := s.load(ctx, string(sess.projectID))
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = s.now()
	sess.dash.Load(exps, data)
	return sess.view(), nil
}

// SaveView stores the session's current query as a named view.
func (s *serviceImpl) SaveView(ctx context.Context, sessionID, name string) (*domain.SavedView, error) {
	if s.views == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "saved views are disabled")
	}
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	query := sess.dash.Query()
	projectID := sess.projectID
	sess.mu.Unlock()

	view, err := s.views.Save(ctx, &viewsapp.SaveInput{ProjectID: projectID, Query: query, Name: name})
	prometheus.RecordViewOperation(s.metrics, "save", err)
	return view, err
}

// RestoreView feeds a saved view's query into the session's dashboard.
func (s *serviceImpl) RestoreView(ctx context.Context, sessionID, viewID string) (*SessionView, error) {
	if s.views == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "saved views are disabled")
	}
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if _, err := s.views.Restore(ctx, sess.projectID, viewID, sess.dash); err != nil {
		s.metrics.ViewRestoresTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	s.metrics.ViewRestoresTotal.WithLabelValues("success").Inc()
	return sess.view(), nil
}

// Export renders one metric's chart and uploads it.
func (s *serviceImpl) Export(ctx context.Context, sessionID, metric string) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "chart export is disabled")
	}
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	chart, ok := sess.dash.Chart(metric)
	experiments := sess.dash.State().VisibleExperiments()
	projectID := sess.projectID
	sess.mu.Unlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeMetricUnknown, "metric not found").WithDetail(metric)
	}
	return s.exporter.Export(ctx, string(projectID), chart, experiments)
}

func (s *serviceImpl) Close(_ context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(sessionID)
	}
	s.metrics.SessionsActive.WithLabelValues().Set(float64(n))
	return nil
}

// ExpireIdle drops sessions idle for longer than IdleTTL and returns how
// many were removed.
func (s *serviceImpl) ExpireIdle(now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTTL)

	s.mu.Lock()
	expired := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if expired > 0 {
		s.metrics.SessionsExpiredTotal.WithLabelValues().Add(float64(expired))
		s.metrics.SessionsActive.WithLabelValues().Set(float64(n))
		s.logger.Info("idle sessions expired", logging.Int("expired", expired), logging.Int("remaining", n))
	}
	return expired
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *serviceImpl) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle(s.now())
		}
	}
}

func (s *serviceImpl) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

//Personal.AI order the ending
