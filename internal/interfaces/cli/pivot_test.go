package cli

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

const testDataset = `{
  "experiments": [
    {"id": "e1", "name": "base", "color": "#1f77b4"},
    {"id": "e2", "name": "lr", "color": "#ff7f0e"}
  ],
  "metrics": {
    "e1": {"loss": {"x": [0, 1], "y": [1.0, 0.5]}, "acc": {"x": [0], "y": [0.1]}},
    "e2": {"loss": {"x": [1], "y": [0.8]}}
  }
}`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o600))
	return path
}

type pivotOutput struct {
	Query  string `json:"query"`
	Charts []struct {
		Metric string               `json:"metric"`
		Rows   []map[string]float64 `json:"rows"`
		Empty  bool                 `json:"empty"`
	} `json:"charts"`
}

func TestPivot_JSON(t *testing.T) {
	out, err := executeCLI(t, "pivot", "--data", writeDataset(t), "-o", "json")
	require.NoError(t, err)

	var res pivotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "", res.Query)
	require.Len(t, res.Charts, 2)
	assert.Equal(t, "acc", res.Charts[0].Metric)
	assert.Equal(t, "loss", res.Charts[1].Metric)
	assert.Equal(t, []map[string]float64{
		{"step": 0, "e1": 1.0},
		{"step": 1, "e1": 0.5, "e2": 0.8},
	}, res.Charts[1].Rows)
}

func TestPivot_TableHonoursQuery(t *testing.T) {
	query := url.Values{scalar.ParamMetrics: {scalar.EncodeSelection([]int{0})}}.Encode()
	out, err := executeCLI(t, "pivot", "--data", writeDataset(t), "--query", query)
	require.NoError(t, err)

	assert.Contains(t, out, "# loss")
	assert.NotContains(t, out, "# acc")
	assert.Contains(t, out, "step  base  lr")
	assert.Contains(t, out, "1     0.5   0.8")
}

func TestPivot_Solo(t *testing.T) {
	out, err := executeCLI(t, "pivot", "--data", writeDataset(t), "--solo", "e2", "--metric", "loss", "-o", "json")
	require.NoError(t, err)

	var res pivotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Charts, 1)
	assert.Equal(t, []map[string]float64{{"step": 1, "e2": 0.8}}, res.Charts[0].Rows)
}

func TestPivot_SmoothingUpdatesQuery(t *testing.T) {
	out, err := executeCLI(t, "pivot", "--data", writeDataset(t), "--smoothing", "0.6", "-o", "json")
	require.NoError(t, err)

	var res pivotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "s=0.60", res.Query)
}

func TestPivot_Errors(t *testing.T) {
	t.Run("missing data flag", func(t *testing.T) {
		_, err := executeCLI(t, "pivot")
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := executeCLI(t, "pivot", "--data", filepath.Join(t.TempDir(), "nope.json"))
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
	t.Run("unknown metric", func(t *testing.T) {
		_, err := executeCLI(t, "pivot", "--data", writeDataset(t), "--metric", "bleu")
		assert.True(t, errors.IsCode(err, errors.ErrCodeMetricUnknown))
	})
}

func TestChartTable_EmptyColumnsDropped(t *testing.T) {
	ch := scalar.Chart{
		Metric: "loss",
		Rows: []scalar.Row{
			{Step: 3, Values: map[string]float64{"e1": 0.25, "ghost": 1}},
		},
	}
	headers, rows := chartTable(ch, []scalar.Experiment{{ID: "e1"}, {ID: "e2", Name: "lr"}})
	assert.Equal(t, []string{"step", "e1", "ghost"}, headers)
	assert.Equal(t, [][]string{{"3", "0.25", "1"}}, rows)
}

//Personal.AI order the ending
