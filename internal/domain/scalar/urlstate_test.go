package scalar

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/turtacn/ExpTrack/internal/testutil"
)

var metricFixture = []string{"acc", "loss", "lr"}

func TestEncodeQuery_OmitsDefaults(t *testing.T) {
	assert.Equal(t, "", EncodeQuery(DefaultViewState(5), 5, metricFixture))

	// empty selection is not a strict non-empty subset
	assert.Equal(t, "", EncodeQuery(ViewState{Selected: []int{}}, 5, metricFixture))
}

func TestEncodeQuery_KeyOrderAndFormat(t *testing.T) {
	q := EncodeQuery(ViewState{
		Selected:  []int{0, 2},
		Hidden:    []string{"loss"},
		Smoothing: 0.6,
	}, 5, metricFixture)
	assert.Equal(t, "exp=MCwy&met=MQ%3D%3D&s=0.60", q)
}

func TestEncodeQuery_UnknownHiddenNamesDropped(t *testing.T) {
	q := EncodeQuery(ViewState{Selected: []int{0, 1}, Hidden: []string{"ghost"}}, 2, metricFixture)
	assert.Equal(t, "", q)
}

func TestDecodeQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    ViewState
		wantErr bool
	}{
		{"empty", "", DefaultViewState(5), false},
		{"selection", "exp=MCwy", ViewState{Selected: []int{0, 2}, Hidden: []string{}}, false},
		{"hidden", "met=MQ%3D%3D", ViewState{Selected: []int{0, 1, 2, 3, 4}, Hidden: []string{"loss"}}, false},
		{"smoothing", "s=0.25", ViewState{Selected: []int{0, 1, 2, 3, 4}, Hidden: []string{}, Smoothing: 0.25}, false},
		{"smoothing one clamps", "s=1", ViewState{Selected: []int{0, 1, 2, 3, 4}, Hidden: []string{}, Smoothing: MaxSmoothing}, false},
		{"out of range indices dropped", "exp=" + url.QueryEscape(EncodeSelection([]int{1, 9})), ViewState{Selected: []int{1}, Hidden: []string{}}, false},
		{"stale selection falls back to all", "exp=" + url.QueryEscape(EncodeSelection([]int{9})), DefaultViewState(5), false},
		{"malformed exp", "exp=!!!&s=0.5", DefaultViewState(5), true},
		{"malformed met", "met=%%%", DefaultViewState(5), true},
		{"smoothing out of range", "exp=MCwy&s=1.5", DefaultViewState(5), true},
		{"smoothing not a number", "s=abc", DefaultViewState(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeQuery(tt.query, 5, metricFixture)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynchronizer_InitializeOnceAfterLoad(t *testing.T) {
	bar := testutil.NewMemoryAddressBar("exp=MCwy&s=0.50")
	st := NewState()
	sync := NewSynchronizer(st, bar, nil)

	assert.False(t, sync.Initialize(), "not loaded yet")
	assert.Equal(t, PhaseUninitialized, sync.Phase())
	assert.False(t, sync.Sync())

	st.Load(makeExperiments(5), metricFixture)
	require.True(t, sync.Initialize())
	assert.Equal(t, PhaseSynced, sync.Phase())
	assert.Equal(t, []int{0, 2}, st.Selected())
	assert.Equal(t, 0.5, st.Smoothing())

	bar.Replace("s=0.10")
	assert.False(t, sync.Initialize(), "second call is a no-op")
	assert.Equal(t, 0.5, st.Smoothing())
}

func TestSynchronizer_MalformedFallsBackToFullDefaults(t *testing.T) {
	logger := testutil.NewMockLogger()
	bar := testutil.NewMemoryAddressBar("exp=MCwy&met=MQ%3D%3D&s=7")
	st := NewState()
	st.Load(makeExperiments(5), metricFixture)
	sync := NewSynchronizer(st, bar, logger)

	sync.Initialize()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, st.Selected())
	assert.Empty(t, st.Hidden())
	assert.Equal(t, 0.0, st.Smoothing())
	assert.True(t, logger.HasMessage("debug", "query decode fell back to defaults"))
}

func TestSynchronizer_SyncOnlyWritesWhenDifferent(t *testing.T) {
	bar := testutil.NewMemoryAddressBar("")
	st := NewState()
	st.Load(makeExperiments(3), metricFixture)
	sync := NewSynchronizer(st, bar, nil)
	sync.Initialize()

	assert.False(t, sync.Sync(), "defaults serialise to the empty query already present")

	st.SetSmoothing(0.3)
	assert.True(t, sync.Sync())
	assert.False(t, sync.Sync())
	assert.Equal(t, []string{"s=0.30"}, bar.Writes())
}

func TestSynchronizer_RestoreView(t *testing.T) {
	bar := testutil.NewMemoryAddressBar("")
	st := NewState()
	sync := NewSynchronizer(st, bar, nil)

	assert.False(t, sync.RestoreView("s=0.40"), "ignored before load")

	st.Load(makeExperiments(5), metricFixture)
	sync.Initialize()
	st.SetFullscreen("acc")

	require.True(t, sync.RestoreView("exp=MCwy&met=MQ%3D%3D"))
	assert.Equal(t, []int{0, 2}, st.Selected())
	assert.Equal(t, []string{"loss"}, st.Hidden())
	assert.Equal(t, "exp=MCwy&met=MQ%3D%3D", bar.Query())
	assert.Equal(t, "acc", st.Fullscreen(), "restore leaves non-shareable state alone")

	// restoring the current view is not rewritten again
	sync.RestoreView(bar.Query())
	assert.Len(t, bar.Writes(), 1)
}

func TestScenario_HideLossAcrossFiveExperiments(t *testing.T) {
	bar := testutil.NewMemoryAddressBar("")
	st := NewState()
	st.Load(makeExperiments(5), []string{"acc", "loss"})
	sync := NewSynchronizer(st, bar, nil)
	sync.Initialize()

	st.ToggleMetricVisibility("loss")
	sync.Sync()

	q := bar.Query()
	assert.Contains(t, q, "met=")
	assert.NotContains(t, q, "exp=")

	fresh := NewState()
	fresh.Load(makeExperiments(5), []string{"acc", "loss"})
	freshBar := testutil.NewMemoryAddressBar(q)
	NewSynchronizer(fresh, freshBar, nil).Initialize()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, fresh.Selected())
	assert.Equal(t, []string{"loss"}, fresh.Hidden())
}

func TestQueryRoundTrip_ReachableStates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "experiments")
		metrics := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}`), 1, 6, rapid.ID[string]).Draw(t, "metrics")

		st := NewState()
		st.Load(makeExperiments(n), metrics)
		st.SelectAll()

		ops := rapid.IntRange(0, 30).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 6).Draw(t, "op") {
			case 0:
				st.ToggleExperiment(rapid.IntRange(0, n-1).Draw(t, "idx"))
			case 1:
				st.SelectAll()
			case 2:
				st.ToggleMetricVisibility(rapid.SampledFrom(metrics).Draw(t, "metric"))
			case 3:
				st.ShowOnly(rapid.SampledFrom(metrics).Draw(t, "metric"))
			case 4:
				st.ShowAll()
			case 5:
				st.SetSmoothing(rapid.Float64Range(0, 1).Draw(t, "w"))
			case 6:
				st.ToggleSolo()
			}
		}

		want := st.View()
		if len(want.Selected) == 0 {
			// an empty selection is not shareable and restores as all
			want.Selected = DefaultViewState(n).Selected
		}

		got, err := DecodeQuery(EncodeQuery(st.View(), n, st.MetricNames()), n, st.MetricNames())
		require.NoError(t, err)
		assert.Equal(t, want.Selected, got.Selected)
		assert.ElementsMatch(t, want.Hidden, got.Hidden)
		assert.Equal(t, want.Smoothing, got.Smoothing)
		assert.False(t, strings.Contains(EncodeQuery(st.View(), n, st.MetricNames()), "+"))
	})
}
