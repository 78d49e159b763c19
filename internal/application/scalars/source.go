// Package scalars provides the dashboard session service: it loads
// experiment metrics from a MetricsSource, hosts one scalar.Dashboard per
// open session and exports chart snapshots.
package scalars

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/redis"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// MetricsSource supplies the experiment list and the scalar logs of a
// project.  The HTTP upstream client satisfies it.
type MetricsSource interface {
	Experiments(ctx context.Context, projectID string) ([]scalar.Experiment, error)
	Metrics(ctx context.Context, projectID string) (scalar.MetricsPayload, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Static source
// ─────────────────────────────────────────────────────────────────────────────

// Dataset is the on-disk form of one project's data.
type Dataset struct {
	Experiments []scalar.Experiment   `json:"experiments"`
	Metrics     scalar.MetricsPayload `json:"metrics"`
}

// ReadDataset decodes a Dataset document.
func ReadDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return Dataset{}, errors.Wrap(err, errors.ErrCodeSerialization, "decode dataset")
	}
	if ds.Metrics == nil {
		ds.Metrics = scalar.MetricsPayload{}
	}
	return ds, nil
}

// ReadDatasetFile decodes the Dataset stored at path.
func ReadDatasetFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, errors.Wrap(err, errors.ErrCodeNotFound, "open dataset file").WithDetail(path)
	}
	defer f.Close()
	return ReadDataset(f)
}

// StaticSource serves datasets held in memory.
type StaticSource struct {
	mu       sync.RWMutex
	projects map[string]Dataset
}

// NewStaticSource returns an empty source.
func NewStaticSource() *StaticSource {
	return &StaticSource{projects: make(map[string]Dataset)}
}

// Put registers (or replaces) a project's dataset.
func (s *StaticSource) Put(projectID string, ds Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = ds
}

func (s *StaticSource) lookup(projectID string) (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.projects[projectID]
	if !ok {
		return Dataset{}, errors.New(errors.ErrCodeProjectNotFound, "project not found").WithDetail(projectID)
	}
	return ds, nil
}

func (s *StaticSource) Experiments(_ context.Context, projectID string) ([]scalar.Experiment, error) {
	ds, err := s.lookup(projectID)
	if err != nil {
		return nil, err
	}
	return append([]scalar.Experiment(nil), ds.Experiments...), nil
}

func (s *StaticSource) Metrics(_ context.Context, projectID string) (scalar.MetricsPayload, error) {
	ds, err := s.lookup(projectID)
	if err != nil {
		return nil, err
	}
	return ds.Metrics, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Caching source
// ─────────────────────────────────────────────────────────────────────────────

const cacheName = "scalars"

// CachingSource reads through a redis Cache.  Concurrent misses for one
// project collapse into a single upstream call.
type CachingSource struct {
	next    MetricsSource
	cache   redis.Cache
	ttl     atomic.Int64
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewCachingSource wraps next.  A nil metrics records nothing.
func NewCachingSource(next MetricsSource, cache redis.Cache, ttl time.Duration, metrics *prometheus.AppMetrics, logger logging.Logger) *CachingSource {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &CachingSource{
		next:    next,
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("scalars_cache"),
	}
	c.ttl.Store(int64(ttl))
	return c
}

// SetTTL changes the lifetime of entries written from now on.
func (c *CachingSource) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

// TTL returns the current entry lifetime.
func (c *CachingSource) TTL() time.Duration {
	return time.Duration(c.ttl.Load())
}

func projectKeyPrefix(projectID string) string {
	return "scalars:" + projectID + ":"
}

func (c *CachingSource) Experiments(ctx context.Context, projectID string) ([]scalar.Experiment, error) {
	var out []scalar.Experiment
	err := c.readThrough(ctx, projectID, "experiments", &out, func(ctx context.Context) (interface{}, error) {
		return c.next.Experiments(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CachingSource) Metrics(ctx context.Context, projectID string) (scalar.MetricsPayload, error) {
	out := scalar.MetricsPayload{}
	err := c.readThrough(ctx, projectID, "metrics", &out, func(ctx context.Context) (interface{}, error) {
		return c.next.Metrics(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CachingSource) readThrough(ctx context.Context, projectID, resource string, dest interface{}, load func(context.Context) (interface{}, error)) error {
	loaded := false
	err := c.cache.GetOrSet(ctx, projectKeyPrefix(projectID)+resource, dest, c.TTL(), func(ctx context.Context) (interface{}, error) {
		loaded = true
		start := time.Now()
		v, err := load(ctx)
		prometheus.RecordUpstreamFetch(c.metrics, resource, time.Since(start), err)
		return v, err
	})
	prometheus.RecordCacheAccess(c.metrics, cacheName, !loaded)
	if err != nil {
		if errors.IsNotFound(err) && !loaded {
			return errors.New(errors.ErrCodeProjectNotFound, "project not found").WithDetail(projectID)
		}
		return err
	}
	return nil
}

// Invalidate drops every cached payload of a project.  It satisfies the
// kafka metrics-updated handler's Invalidator.
func (c *CachingSource) Invalidate(ctx context.Context, projectID string) error {
	n, err := c.cache.DeleteByPrefix(ctx, projectKeyPrefix(projectID))
	if err != nil {
		prometheus.RecordError(c.metrics, cacheName, "invalidate")
		return err
	}
	c.logger.Debug("scalars cache invalidated",
		logging.String("project_id", projectID),
		logging.Int64("keys", n))
	return nil
}

//Personal.AI order the ending
