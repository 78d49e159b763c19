package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// queryShape is the context a shareable query is read against: how many
// experiments there are and the sorted metric names.
type queryShape struct {
	dataFile    string
	experiments int
	metrics     []string
}

func (q *queryShape) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.dataFile, "data", "", "dataset file to take experiments and metrics from")
	f.IntVar(&q.experiments, "experiments", 0, "experiment count (when --data is not given)")
	f.StringSliceVar(&q.metrics, "metrics", nil, "metric names (when --data is not given)")
}

func (q *queryShape) resolve() (int, []string, error) {
	if q.dataFile != "" {
		ds, err := scalars.ReadDatasetFile(q.dataFile)
		if err != nil {
			return 0, nil, err
		}
		return len(ds.Experiments), ds.Metrics.MetricNames(), nil
	}
	if q.experiments < 0 {
		return 0, nil, errors.NewValidationError("experiments must not be negative")
	}
	names := append([]string(nil), q.metrics...)
	sort.Strings(names)
	return q.experiments, names, nil
}

// decodedQuery is what `query decode` prints.
type decodedQuery struct {
	scalar.ViewState
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

func (d decodedQuery) TableHeaders() []string {
	return []string{"selected", "hidden", "smoothing", "fallback"}
}

func (d decodedQuery) TableRows() [][]string {
	sel := make([]string, len(d.Selected))
	for i, idx := range d.Selected {
		sel[i] = strconv.Itoa(idx)
	}
	return [][]string{{
		strings.Join(sel, ","),
		strings.Join(d.Hidden, ","),
		strconv.FormatFloat(d.Smoothing, 'f', 2, 64),
		strconv.FormatBool(d.Fallback),
	}}
}

// NewQueryCmd creates the query command with encode and decode subcommands.
func NewQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Encode or decode shareable dashboard queries",
	}

	var (
		encShape  queryShape
		selected  []int
		hidden    []string
		smoothing float64
	)
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Serialise a selection, hidden metrics and smoothing into a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, names, err := encShape.resolve()
			if err != nil {
				return err
			}
			v := scalar.ViewState{Selected: selected, Hidden: hidden, Smoothing: smoothing}
			if !cmd.Flags().Changed("select") {
				v.Selected = scalar.DefaultViewState(count).Selected
			}
			fmt.Fprintln(cmd.OutOrStdout(), scalar.EncodeQuery(v, count, names))
			return nil
		},
	}
	encShape.register(encodeCmd)
	encodeCmd.Flags().IntSliceVar(&selected, "select", nil, "selected experiment indices (default all)")
	encodeCmd.Flags().StringSliceVar(&hidden, "hide", nil, "hidden metric names")
	encodeCmd.Flags().Float64Var(&smoothing, "smoothing", 0, "smoothing weight [0, 0.99]")

	var decShape queryShape
	decodeCmd := &cobra.Command{
		Use:   "decode QUERY",
		Short: "Parse a query; malformed input falls back to the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			count, names, err := decShape.resolve()
			if err != nil {
				return err
			}
			v, derr := scalar.DecodeQuery(strings.TrimPrefix(args[0], "?"), count, names)
			out := decodedQuery{ViewState: v}
			if derr != nil {
				cliCtx.Logger.Debug("query fell back to defaults", logging.Err(derr))
				out.Fallback = true
				out.Reason = derr.Error()
			}
			return PrintResult(cmd, out)
		},
	}
	decShape.register(decodeCmd)

	queryCmd.AddCommand(encodeCmd, decodeCmd)
	return queryCmd
}

//Personal.AI order the ending
