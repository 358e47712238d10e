package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/model"
)

func newConnectCmd(app *App) *cobra.Command {
	var projectName string

	cmd := &cobra.Command{
		Use:   "connect <username> --project NAME",
		Short: "Send a connection request to another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.requireLogin()
			if err != nil {
				return err
			}
			if args[0] == me {
				return errors.New("you cannot connect with yourself")
			}

			req, err := app.client().CreateRequest(cmd.Context(), me, args[0], projectName)
			if err != nil {
				return err
			}
			successf(app.Out, "Request sent to %s for %q (id %s)", req.ToUsername, req.ProjectName, req.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectName, "project", "p", "", "what the collaboration is about")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newRequestsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "requests",
		Aliases: []string{"connections"},
		Short:   "List your incoming and outgoing connection requests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.requireLogin()
			if err != nil {
				return err
			}

			reqs, err := app.client().ListRequests(cmd.Context(), me)
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				fmt.Fprintln(app.Out, "No connection requests yet. Use `flashgig connect` to send one.")
				return nil
			}

			rows := make([][]string, 0, len(reqs))
			for _, r := range reqs {
				direction, other := "→", r.ToUsername
				if r.ToUsername == me {
					direction, other = "←", r.FromUsername
				}
				rows = append(rows, []string{r.ID, direction + " " + other, r.ProjectName, string(r.Status), formatTime(r.CreatedAt)})
			}
			fmt.Fprintln(app.Out, grid([]string{"ID", "WITH", "PROJECT", "STATUS", "SENT"}, rows))
			return nil
		},
	}
}

func newAcceptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <request-id>",
		Short: "Accept a connection request sent to you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.requireLogin()
			if err != nil {
				return err
			}
			c := app.client()

			reqs, err := c.ListRequests(cmd.Context(), me)
			if err != nil {
				return err
			}
			var found *model.ConnectionRequest
			for i := range reqs {
				if reqs[i].ID == args[0] {
					found = &reqs[i]
					break
				}
			}
			switch {
			case found == nil:
				return fmt.Errorf("no request %s involving you", args[0])
			case found.ToUsername != me:
				return fmt.Errorf("only %s can accept this request", found.ToUsername)
			case found.Status == model.RequestStatusAccepted:
				warnf(app.Out, "Already accepted")
				return nil
			}

			req, err := c.UpdateRequestStatus(cmd.Context(), found.ID, model.RequestStatusAccepted)
			if err != nil {
				return err
			}
			successf(app.Out, "Connected with %s on %q. Start a project with `flashgig project create %s`.",
				req.FromUsername, req.ProjectName, req.ID)
			return nil
		},
	}
}
