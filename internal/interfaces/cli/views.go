package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/client"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// viewList renders saved views as a table.
type viewList []client.View

func (v viewList) TableHeaders() []string {
	return []string{"ID", "NAME", "QUERY", "UPDATED"}
}

func (v viewList) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, view := range v {
		query := view.Query
		if query == "" {
			query = "(defaults)"
		}
		rows = append(rows, []string{view.ID, view.Name, query, view.UpdatedAt.Format(time.RFC3339)})
	}
	return rows
}

// sessionResult renders a session after a restore.
type sessionResult struct {
	client.Session
}

func (s sessionResult) TableHeaders() []string {
	return []string{"SESSION", "PROJECT", "QUERY"}
}

func (s sessionResult) TableRows() [][]string {
	query := s.State.Query
	if query == "" {
		query = "(defaults)"
	}
	return [][]string{{s.ID, s.ProjectID, query}}
}

// NewViewsCmd creates the saved-view management command.
func NewViewsCmd() *cobra.Command {
	var projectID string

	viewsCmd := &cobra.Command{
		Use:   "views",
		Short: "Manage the saved dashboard views of a project",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return errors.NewValidationError("--project is required")
			}
			return cmd.Root().PersistentPreRunE(cmd, args)
		},
	}
	viewsCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "project id (required)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			views, err := c.Views().List(ctx, projectID)
			if err != nil {
				return err
			}
			return PrintResult(cmd, viewList(views))
		},
	}

	var saveName string
	saveCmd := &cobra.Command{
		Use:   "save QUERY",
		Short: "Save a shareable query as a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			view, err := c.Views().Create(ctx, projectID, &client.CreateViewRequest{Name: saveName, Query: args[0]})
			if err != nil {
				return err
			}
			logViewAction(cmd, "saved view", view.ID)
			return PrintResult(cmd, viewList{*view})
		},
	}
	saveCmd.Flags().StringVarP(&saveName, "name", "n", "", "view name (default View N)")

	getCmd := &cobra.Command{
		Use:   "get VIEW_ID",
		Short: "Show one saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			view, err := c.Views().Get(ctx, projectID, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, viewList{*view})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename VIEW_ID NAME",
		Short: "Rename a saved view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			view, err := c.Views().Rename(ctx, projectID, args[0], args[1])
			if err != nil {
				return err
			}
			logViewAction(cmd, "renamed view", view.ID)
			return PrintResult(cmd, viewList{*view})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete VIEW_ID",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if err := c.Views().Delete(ctx, projectID, args[0]); err != nil {
				return err
			}
			logViewAction(cmd, "deleted view", args[0])
			PrintSuccess(cmd, fmt.Sprintf("view %s deleted", args[0]))
			return nil
		},
	}

	var sessionID string
	restoreCmd := &cobra.Command{
		Use:   "restore VIEW_ID",
		Short: "Restore a saved view into a dashboard session",
		Long: `Restore a saved view into a server-side dashboard session.

Without --session a new session is opened and left open, so its id can be
handed to other commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			target := sessionID
			if target == "" {
				sess, err := c.Sessions().Open(ctx, projectID, "")
				if err != nil {
					return err
				}
				target = sess.ID
			}
			sess, err := c.Sessions().Restore(ctx, target, args[0])
			if err != nil {
				return err
			}
			logViewAction(cmd, "restored view", args[0])
			return PrintResult(cmd, sessionResult{*sess})
		},
	}
	restoreCmd.Flags().StringVar(&sessionID, "session", "", "existing session to restore into")

	viewsCmd.AddCommand(listCmd, saveCmd, getCmd, renameCmd, deleteCmd, restoreCmd)
	return viewsCmd
}

func logViewAction(cmd *cobra.Command, msg, viewID string) {
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		cliCtx.Logger.Info(msg, logging.String("view_id", viewID))
	}
}

//Personal.AI order the ending
