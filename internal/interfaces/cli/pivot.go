package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// localBar is the address bar of an offline dashboard.
type localBar struct {
	query string
}

func (b *localBar) Query() string        { return b.query }
func (b *localBar) Replace(query string) { b.query = query }

type pivotOptions struct {
	dataFile  string
	query     string
	metric    string
	smoothing float64
	solo      string
}

// pivotResult is what the pivot command prints.
type pivotResult struct {
	Query       string              `json:"query"`
	Experiments []scalar.Experiment `json:"experiments"`
	Charts      []scalar.Chart      `json:"charts"`
}

// NewPivotCmd creates the offline pivot command.
func NewPivotCmd() *cobra.Command {
	opts := &pivotOptions{}
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Pivot a dataset file into per-metric step tables",
		Long: `Load a dataset file ({"experiments": [...], "metrics": {...}}), apply a
shareable query and print one smoothed step table per visible metric.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPivot(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.dataFile, "data", "", "dataset file (required)")
	f.StringVar(&opts.query, "query", "", "shareable query, e.g. exp=AQ&s=0.60")
	f.StringVar(&opts.metric, "metric", "", "print a single metric even if hidden")
	f.Float64Var(&opts.smoothing, "smoothing", 0, "override the smoothing weight [0, 0.99]")
	f.StringVar(&opts.solo, "solo", "", "show only this experiment id")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runPivot(cmd *cobra.Command, opts *pivotOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	logger := cliCtx.Logger

	ds, err := scalars.ReadDatasetFile(opts.dataFile)
	if err != nil {
		return err
	}

	dash := scalar.NewDashboard(&localBar{query: opts.query}, logger)
	dash.Load(ds.Experiments, ds.Metrics)
	if cmd.Flags().Changed("smoothing") {
		dash.Dispatch(scalar.SetSmoothing{Weight: opts.smoothing})
	}
	if opts.solo != "" {
		dash.Dispatch(scalar.ChooseSolo{ExperimentID: opts.solo})
	}

	var charts []scalar.Chart
	if opts.metric != "" {
		ch, ok := dash.Chart(opts.metric)
		if !ok {
			return errors.New(errors.ErrCodeMetricUnknown, "unknown metric").WithDetail(opts.metric)
		}
		charts = []scalar.Chart{ch}
	} else {
		charts = dash.Charts()
	}

	logger.Debug("pivoted dataset",
		logging.String("file", opts.dataFile),
		logging.Int("charts", len(charts)),
		logging.String("query", dash.Query()))

	res := pivotResult{Query: dash.Query(), Experiments: ds.Experiments, Charts: charts}
	if cliCtx.OutputFormat != "table" {
		return PrintResult(cmd, res)
	}

	out := cmd.OutOrStdout()
	for i, ch := range charts {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "# %s\n", ch.Metric)
		if ch.Empty {
			fmt.Fprintln(out, "(no data)")
			continue
		}
		headers, rows := chartTable(ch, ds.Experiments)
		fmt.Fprint(out, FormatTable(headers, rows))
	}
	return nil
}

// chartTable lays a chart out as step + one column per experiment that has
// at least one value, in experiment-list order.
func chartTable(ch scalar.Chart, experiments []scalar.Experiment) ([]string, [][]string) {
	present := make(map[string]struct{})
	for _, row := range ch.Rows {
		for id := range row.Values {
			if _, ok := row.Value(id); ok {
				present[id] = struct{}{}
			}
		}
	}

	var ids, headers []string
	headers = append(headers, "step")
	known := make(map[string]struct{}, len(experiments))
	for _, e := range experiments {
		known[e.ID] = struct{}{}
		if _, ok := present[e.ID]; ok {
			ids = append(ids, e.ID)
			headers = append(headers, experimentLabel(e))
		}
	}
	var orphans []string
	for id := range present {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	ids = append(ids, orphans...)
	headers = append(headers, orphans...)

	rows := make([][]string, 0, len(ch.Rows))
	for _, row := range ch.Rows {
		cells := make([]string, 0, len(ids)+1)
		cells = append(cells, strconv.FormatInt(row.Step, 10))
		for _, id := range ids {
			if v, ok := row.Value(id); ok {
				cells = append(cells, strconv.FormatFloat(v, 'g', 6, 64))
			} else {
				cells = append(cells, "")
			}
		}
		rows = append(rows, cells)
	}
	return headers, rows
}

func experimentLabel(e scalar.Experiment) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

//Personal.AI order the ending
