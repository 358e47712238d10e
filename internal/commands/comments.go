package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/model"
)

func newCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <project-id>",
		Short: "List the comments on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comments, err := app.client().ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printComments(app, comments)
			return nil
		},
	}
}

func newCommentCmd(app *App) *cobra.Command {
	var at float64

	cmd := &cobra.Command{
		Use:   "comment <project-id> <text>...",
		Short: "Comment on a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.requireLogin()
			if err != nil {
				return err
			}

			var timestamp *float64
			if cmd.Flags().Changed("at") {
				timestamp = &at
			}

			c, err := app.client().CreateComment(cmd.Context(), args[0], me, strings.Join(args[1:], " "), timestamp)
			if err != nil {
				return err
			}
			successf(app.Out, "Comment posted (id %s)", c.ID)
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "media offset in seconds the comment refers to")
	return cmd
}

func printComments(app *App, comments []model.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(app.Out, "No comments yet.")
		return
	}
	for _, c := range comments {
		fmt.Fprintln(app.Out, formatComment(c))
	}
}

func formatComment(c model.Comment) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Username))
	b.WriteString(" ")
	b.WriteString(faintColor.Sprint(formatTime(c.CreatedAt)))
	if at := formatOffset(c.Timestamp); at != "" {
		b.WriteString(" @" + at)
	}
	b.WriteString("\n  ")
	b.WriteString(c.Text)
	return b.String()
}
