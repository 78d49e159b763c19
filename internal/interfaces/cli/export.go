package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/client"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

type exportResult struct {
	client.Export
}

func (e exportResult) TableHeaders() []string {
	return []string{"METRIC", "KEY", "SIZE", "URL"}
}

func (e exportResult) TableRows() [][]string {
	return [][]string{{e.Metric, e.Key, strconv.FormatInt(e.Size, 10), e.URL}}
}

// NewExportCmd creates the chart export command.  It opens a short-lived
// session on the server, exports the chart and closes the session again.
func NewExportCmd() *cobra.Command {
	var projectID, query, viewID string

	cmd := &cobra.Command{
		Use:   "export METRIC",
		Short: "Render one metric chart on the server and print its download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return errors.NewValidationError("--project is required")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			sess, err := c.Sessions().Open(ctx, projectID, query)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer closeCancel()
				if cerr := c.Sessions().Close(closeCtx, sess.ID); cerr != nil {
					cliCtx.Logger.Warn("failed to close session", logging.String("session_id", sess.ID), logging.Err(cerr))
				}
			}()

			if viewID != "" {
				if _, err := c.Sessions().Restore(ctx, sess.ID, viewID); err != nil {
					return err
				}
			}
			exp, err := c.Sessions().Export(ctx, sess.ID, args[0])
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("chart exported", logging.String("metric", exp.Metric), logging.String("key", exp.Key))
			return PrintResult(cmd, exportResult{*exp})
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id (required)")
	cmd.Flags().StringVar(&query, "query", "", "shareable query to apply before exporting")
	cmd.Flags().StringVar(&viewID, "view", "", "saved view to restore before exporting")
	return cmd
}

//Personal.AI order the ending
