package scalars

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// ChartRenderer draws one chart.  The engine treats it as a black box that
// receives rows and the synchronised domain.
type ChartRenderer interface {
	Render(w io.Writer, c scalar.Chart, experiments []scalar.Experiment) error
	ContentType() string
	Extension() string
}

// ExportStore persists rendered charts and signs download links.  The MinIO
// client satisfies it.
type ExportStore interface {
	PutExport(ctx context.Context, key string, data []byte, contentType string) (minio.UploadInfo, error)
	GeneratePresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	RemoveExport(ctx context.Context, key string) error
}

// ExportResult describes an uploaded chart snapshot.
type ExportResult struct {
	Metric    string    `json:"metric"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Axis extents
// ─────────────────────────────────────────────────────────────────────────────

// Extent returns the [min, max] of the finite values, widening a degenerate
// range by one unit either side.  ok is false when there is no finite value.
func Extent(values []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	lo, hi = floats.Min(finite), floats.Max(finite)
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi, true
}

// resolveAxes picks the synced domain where set and the data extent where
// the axis autoscales.
func resolveAxes(c scalar.Chart, experiments []scalar.Experiment) (x, y *chart.ContinuousRange) {
	if c.Domain.X != nil {
		x = &chart.ContinuousRange{Min: c.Domain.X[0], Max: c.Domain.X[1]}
	} else {
		steps := make([]float64, len(c.Rows))
		for i, r := range c.Rows {
			steps[i] = float64(r.Step)
		}
		if lo, hi, ok := Extent(steps); ok {
			x = &chart.ContinuousRange{Min: lo, Max: hi}
		}
	}

	if c.Domain.Y != nil {
		y = &chart.ContinuousRange{Min: c.Domain.Y[0], Max: c.Domain.Y[1]}
	} else {
		var vals []float64
		for _, r := range c.Rows {
			for _, e := range experiments {
				if v, ok := r.Value(e.ID); ok {
					vals = append(vals, v)
				}
			}
		}
		if lo, hi, ok := Extent(vals); ok {
			y = &chart.ContinuousRange{Min: lo, Max: hi}
		}
	}
	return x, y
}

// ─────────────────────────────────────────────────────────────────────────────
// go-chart renderer
// ─────────────────────────────────────────────────────────────────────────────

// PNGRenderer renders line charts with go-chart.
type PNGRenderer struct {
	Width  int
	Height int
}

// NewPNGRenderer returns a renderer for width×height images.
func NewPNGRenderer(width, height int) *PNGRenderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 450
	}
	return &PNGRenderer{Width: width, Height: height}
}

func (r *PNGRenderer) ContentType() string { return "image/png" }
func (r *PNGRenderer) Extension() string   { return "png" }

func (r *PNGRenderer) Render(w io.Writer, c scalar.Chart, experiments []scalar.Experiment) error {
	series := make([]chart.Series, 0, len(experiments))
	for _, e := range experiments {
		var xs, ys []float64
		for _, row := range c.Rows {
			if v, ok := row.Value(e.ID); ok {
				xs = append(xs, float64(row.Step))
				ys = append(ys, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		// go-chart needs two points to draw a line.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		style := chart.Style{StrokeWidth: 2}
		if col, ok := parseColor(e.Color); ok {
			style.StrokeColor = col
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		series = append(series, chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style})
	}
	if len(series) == 0 {
		return errors.New(errors.ErrCodeRenderFailed, "chart has no data").WithDetail(c.Metric)
	}

	xr, yr := resolveAxes(c, experiments)
	ch := chart.Chart{
		Title:      c.Metric,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "step"},
		YAxis:      chart.YAxis{Name: c.Metric},
		Series:     series,
	}
	if xr != nil {
		ch.XAxis.Range = xr
	}
	if yr != nil {
		ch.YAxis.Range = yr
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "render chart").WithDetail(c.Metric)
	}
	return nil
}

func parseColor(hex string) (drawing.Color, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.Color{}, false
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return drawing.Color{}, false
		}
	}
	return drawing.ColorFromHex(hex), true
}

// ─────────────────────────────────────────────────────────────────────────────
// Exporter
// ─────────────────────────────────────────────────────────────────────────────

// Exporter renders a chart and uploads it to the exports bucket.
type Exporter struct {
	renderer ChartRenderer
	store    ExportStore
	expiry   time.Duration
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
	now      func() time.Time
}

// NewExporter wires a renderer to a store.  A zero expiry uses the store's
// default.
func NewExporter(renderer ChartRenderer, store ExportStore, expiry time.Duration, metrics *prometheus.AppMetrics, logger logging.Logger) *Exporter {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Exporter{
		renderer: renderer,
		store:    store,
		expiry:   expiry,
		metrics:  metrics,
		logger:   logger.Named("export"),
		now:      time.Now,
	}
}

// objectKey builds "<project>/<metric>/<yyyymmdd>/<id>.<ext>".
func objectKey(projectID, metric string, at time.Time, id, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, metric)
	return fmt.Sprintf("%s/%s/%s/%s.%s", projectID, safe, at.UTC().Format("20060102"), id, ext)
}

// Export renders c and returns a presigned link to the uploaded image.
func (e *Exporter) Export(ctx context.Context, projectID string, c scalar.Chart, experiments []scalar.Experiment) (*ExportResult, error) {
	renderStart := time.Now()
	var buf bytes.Buffer
	if err := e.renderer.Render(&buf, c, experiments); err != nil {
		prometheus.RecordExport(e.metrics, time.Since(renderStart), 0, err)
		return nil, err
	}
	renderTime := time.Since(renderStart)

	at := e.now()
	key := objectKey(projectID, c.Metric, at, string(common.NewID()), e.renderer.Extension())

	uploadStart := time.Now()
	info, err := e.store.PutExport(ctx, key, buf.Bytes(), e.renderer.ContentType())
	if err != nil {
		prometheus.RecordExport(e.metrics, renderTime, time.Since(uploadStart), err)
		prometheus.RecordError(e.metrics, "export", "upload")
		e.logger.Error("chart upload failed", logging.String("key", key), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "upload chart")
	}
	url, err := e.store.GeneratePresignedGetURL(ctx, key, e.expiry)
	prometheus.RecordExport(e.metrics, renderTime, time.Since(uploadStart), err)
	if err != nil {
		if rmErr := e.store.RemoveExport(ctx, key); rmErr != nil {
			e.logger.Warn("orphaned chart not removed", logging.String("key", key), logging.Err(rmErr))
		}
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "sign chart url")
	}

	size := info.Size
	if size == 0 {
		size = int64(buf.Len())
	}
	e.logger.Info("chart exported",
		logging.String("project_id", projectID),
		logging.String("metric", c.Metric),
		logging.String("key", key),
		logging.Int64("bytes", size))
	return &ExportResult{Metric: c.Metric, Key: key, URL: url, Size: size, CreatedAt: at}, nil
}

//Personal.AI order the ending
