package cli

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/domain/scalar"
)

type decodeOutput struct {
	Selected  []int    `json:"selected"`
	Hidden    []string `json:"hidden"`
	Smoothing float64  `json:"smoothing"`
	Fallback  bool     `json:"fallback"`
	Reason    string   `json:"reason"`
}

func TestQueryEncode(t *testing.T) {
	out, err := executeCLI(t, "query", "encode",
		"--experiments", "3", "--metrics", "loss,acc",
		"--select", "0,2", "--hide", "acc", "--smoothing", "0.6")
	require.NoError(t, err)

	want := scalar.EncodeQuery(scalar.ViewState{Selected: []int{0, 2}, Hidden: []string{"acc"}, Smoothing: 0.6}, 3, []string{"acc", "loss"})
	assert.Equal(t, want, strings.TrimSpace(out))
	assert.True(t, strings.HasPrefix(want, "exp="))
}

func TestQueryEncode_DefaultsAreEmpty(t *testing.T) {
	out, err := executeCLI(t, "query", "encode", "--data", writeDataset(t))
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(out))
}

func TestQueryDecode_RoundTrip(t *testing.T) {
	query := scalar.EncodeQuery(scalar.ViewState{Selected: []int{1}, Hidden: []string{"loss"}, Smoothing: 0.25}, 2, []string{"acc", "loss"})

	out, err := executeCLI(t, "query", "decode", "?"+query, "--data", writeDataset(t), "-o", "json")
	require.NoError(t, err)

	var res decodeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Fallback)
	assert.Equal(t, []int{1}, res.Selected)
	assert.Equal(t, []string{"loss"}, res.Hidden)
	assert.Equal(t, 0.25, res.Smoothing)
}

func TestQueryDecode_MalformedFallsBack(t *testing.T) {
	out, err := executeCLI(t, "query", "decode", "exp=!!!&s=0.5", "--experiments", "3", "-o", "json")
	require.NoError(t, err)

	var res decodeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, []int{0, 1, 2}, res.Selected)
	assert.Empty(t, res.Hidden)
	assert.Equal(t, 0.0, res.Smoothing)
}

func TestQueryDecode_Table(t *testing.T) {
	out, err := executeCLI(t, "query", "decode", "s=0.5", "--experiments", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "selected")
	assert.Contains(t, out, "0,1")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "false")
}

func TestQueryDecode_RequiresArgument(t *testing.T) {
	_, err := executeCLI(t, "query", "decode")
	assert.Error(t, err)
}

func TestQueryShape_NegativeExperiments(t *testing.T) {
	_, err := executeCLI(t, "query", "encode", "--experiments", "-1")
	assert.Error(t, err)
}

//Personal.AI order the ending
