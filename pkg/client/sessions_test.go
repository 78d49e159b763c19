package client

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsClient_Open(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/projects/p1/sessions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"query":"s=0.60"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s-1","project_id":"p1","state":{"smoothing":0.6,"sync_mode":"all","query":"s=0.60","phase":"ready","selected":[0,1]}}`))
	})

	sess, err := c.Sessions().Open(context.Background(), "p1", "s=0.60")
	require.NoError(t, err)
	assert.Equal(t, "s-1", sess.ID)
	assert.Equal(t, 0.6, sess.State.Smoothing)
	assert.Equal(t, []int{0, 1}, sess.State.Selected)
	assert.Equal(t, "ready", sess.State.Phase)
}

func TestSessionsClient_Charts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/s-1/charts", r.URL.Path)
		_, _ = w.Write([]byte(`{"query":"","charts":[{"metric":"loss","rows":[{"step":0,"e1":1.0},{"step":1,"e1":0.8,"e2":0.9}],"domain":{"x":null,"y":[0,2]},"empty":false}]}`))
	})

	charts, err := c.Sessions().Charts(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, charts.Charts, 1)
	ch := charts.Charts[0]
	assert.Equal(t, "loss", ch.Metric)
	require.Len(t, ch.Rows, 2)
	assert.Equal(t, 0.9, ch.Rows[1]["e2"])
	assert.Nil(t, ch.Domain.X)
	require.NotNil(t, ch.Domain.Y)
	assert.Equal(t, [2]float64{0, 2}, *ch.Domain.Y)
}

func TestSessionsClient_ApplyEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"toggle experiment", ToggleExperiment(2), `{"type":"toggle_experiment","index":2}`},
		{"smoothing", SetSmoothing(0.25), `{"type":"set_smoothing","weight":0.25}`},
		{"choose solo", ChooseSolo("e2"), `{"type":"choose_solo","experiment_id":"e2"}`},
		{"sync mode", SetSyncMode("x-only"), `{"type":"set_sync_mode","mode":"x-only"}`},
		{"change domain", ChangeDomain("loss", nil, &[2]float64{0, 1}), `{"type":"change_domain","metric":"loss","domain":{"x":null,"y":[0,1]}}`},
		{"reset all", ResetAllDomains(), `{"type":"reset_all_domains"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/sessions/s-1/events", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				assert.JSONEq(t, tt.want, string(body))
				_, _ = w.Write([]byte(`{"id":"s-1"}`))
			})
			_, err := c.Sessions().Apply(context.Background(), "s-1", tt.ev)
			require.NoError(t, err)
		})
	}
}

func TestSessionsClient_SaveRestoreExportClose(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/v1/sessions/s-1/views":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"v1","name":"View 1","query":"s=0.60"}`))
		case "/api/v1/sessions/s-1/export/loss":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Export{Metric: "loss", Key: "p1/loss/x.png", URL: "https://minio/x"})
		case "/api/v1/sessions/s-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"id":"s-1","state":{"query":"s=0.60"}}`))
		}
	})
	ctx := context.Background()

	view, err := c.Sessions().SaveView(ctx, "s-1", "")
	require.NoError(t, err)
	assert.Equal(t, "View 1", view.Name)

	sess, err := c.Sessions().Restore(ctx, "s-1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "s=0.60", sess.State.Query)

	exp, err := c.Sessions().Export(ctx, "s-1", "loss")
	require.NoError(t, err)
	assert.Equal(t, "https://minio/x", exp.URL)

	_, err = c.Sessions().Reload(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, c.Sessions().Close(ctx, "s-1"))

	assert.Equal(t, []string{
		"POST /api/v1/sessions/s-1/views",
		"POST /api/v1/sessions/s-1/restore/v1",
		"POST /api/v1/sessions/s-1/export/loss",
		"POST /api/v1/sessions/s-1/reload",
		"DELETE /api/v1/sessions/s-1",
	}, seen)
}

//Personal.AI order the ending
