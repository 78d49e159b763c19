package cli

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/pkg/client"
)

func TestExport_OpensExportsAndCloses(t *testing.T) {
	rs, addr := newRecordingServer(t, map[string]cannedResponse{
		"POST /api/v1/projects/p1/sessions":     {http.StatusCreated, `{"id":"s-9","project_id":"p1"}`},
		"POST /api/v1/sessions/s-9/restore/v1":  {http.StatusOK, `{"id":"s-9"}`},
		"POST /api/v1/sessions/s-9/export/loss": {http.StatusCreated, `{"metric":"loss","key":"p1/loss/1.png","url":"https://store/p1/loss/1.png","size":2048}`},
		"DELETE /api/v1/sessions/s-9":           {http.StatusNoContent, ``},
	})

	out, err := executeCLI(t, "export", "loss", "-p", "p1", "--query", "s=0.60", "--view", "v1", "--server", addr, "-o", "json")
	require.NoError(t, err)

	var exp client.Export
	require.NoError(t, json.Unmarshal([]byte(out), &exp))
	assert.Equal(t, "p1/loss/1.png", exp.Key)
	assert.Equal(t, int64(2048), exp.Size)

	assert.JSONEq(t, `{"query":"s=0.60"}`, rs.body("POST /api/v1/projects/p1/sessions"))
	assert.Equal(t, []string{
		"POST /api/v1/projects/p1/sessions",
		"POST /api/v1/sessions/s-9/restore/v1",
		"POST /api/v1/sessions/s-9/export/loss",
		"DELETE /api/v1/sessions/s-9",
	}, rs.requests())
}

func TestExport_ClosesSessionOnFailure(t *testing.T) {
	rs, addr := newRecordingServer(t, map[string]cannedResponse{
		"POST /api/v1/projects/p1/sessions": {http.StatusCreated, `{"id":"s-9"}`},
		"DELETE /api/v1/sessions/s-9":       {http.StatusNoContent, ``},
	})

	_, err := executeCLI(t, "export", "bleu", "-p", "p1", "--server", addr)
	require.Error(t, err)
	assert.Contains(t, rs.requests(), "DELETE /api/v1/sessions/s-9")
}

func TestExport_RequiresProject(t *testing.T) {
	_, err := executeCLI(t, "export", "loss", "--server", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project")
}

func TestExportResult_Table(t *testing.T) {
	res := exportResult{client.Export{Metric: "loss", Key: "k", Size: 10, URL: "u"}}
	assert.Equal(t, [][]string{{"loss", "k", "10", "u"}}, res.TableRows())
	assert.Len(t, res.TableHeaders(), 4)
}

//Personal.AI order the ending
