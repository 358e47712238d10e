package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/api"
	"github.com/sakif/flashgig/internal/model"
)

func newWatchCmd(app *App) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "watch [--project ID]",
		Short: "Print live events until interrupted",
		Long: `watch follows your own connection and project events. With --project
it also follows the comments and updates of that project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := api.Topics{User: app.Session.Username, ProjectID: projectID}
			if topics.User == "" && topics.ProjectID == "" {
				return errNotLoggedIn
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			feed, err := app.client().Subscribe(ctx, topics)
			if err != nil {
				return err
			}
			defer feed.Close()

			fmt.Fprintln(app.Out, faintColor.Sprint("Watching for events, Ctrl+C to stop"))
			for {
				ev, err := feed.Next(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				printEvent(app.Out, ev)
			}
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "also follow this project")
	return cmd
}

func printEvent(w io.Writer, ev model.Event) {
	line, err := eventLine(ev)
	if err != nil {
		warnf(w, "%s (unreadable payload: %v)", ev.Type, err)
		return
	}
	fmt.Fprintln(w, line)
}

func eventLine(ev model.Event) (string, error) {
	switch ev.Type {
	case model.EventRequestCreated, model.EventRequestUpdated:
		var r model.ConnectionRequest
		if err := ev.DecodeData(&r); err != nil {
			return "", err
		}
		verb := "sent"
		if ev.Type == model.EventRequestUpdated {
			verb = "is now " + string(r.Status)
		}
		return fmt.Sprintf("%s request %s → %s on %q %s", successColor.Sprint("●"), r.FromUsername, r.ToUsername, r.ProjectName, verb), nil

	case model.EventProjectCreated, model.EventProjectUpdated:
		var p model.Project
		if err := ev.DecodeData(&p); err != nil {
			return "", err
		}
		verb := "started"
		if ev.Type == model.EventProjectUpdated {
			verb = "updated"
		}
		return fmt.Sprintf("%s project %q %s [%s]", warnColor.Sprint("●"), p.Title, verb, p.Status), nil

	case model.EventCommentCreated:
		var c model.Comment
		if err := ev.DecodeData(&c); err != nil {
			return "", err
		}
		return formatComment(c), nil
	}
	return "", errors.New("unknown event type")
}
