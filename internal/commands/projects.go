package commands

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/model"
)

var projectStatuses = []string{
	model.ProjectStatusInProgress,
	model.ProjectStatusReview,
	model.ProjectStatusApproved,
	model.ProjectStatusCompleted,
}

func newProjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.requireLogin()
			if err != nil {
				return err
			}

			projects := app.client().UserProjects(cmd.Context(), me)
			if len(projects) == 0 {
				fmt.Fprintln(app.Out, "No projects yet. Accept a connection, then run `flashgig project create`.")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Title, p.Status, formatTime(p.CreatedAt)})
			}
			fmt.Fprintln(app.Out, grid([]string{"ID", "TITLE", "STATUS", "CREATED"}, rows))
			return nil
		},
	}
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, show and update projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
	)
	return cmd
}

func newProjectCreateCmd(app *App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create <request-id> --title TITLE",
		Short: "Start a project on an accepted connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			p, err := app.client().CreateProject(cmd.Context(), args[0], title, description)
			if err != nil {
				return err
			}
			successf(app.Out, "Project %q created (id %s)", p.Title, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "project title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.client()
			p, err := c.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(app.Out, projectCard(p))
			printComments(app, c.ProjectComments(cmd.Context(), p.ID))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var status, title, description string

	cmd := &cobra.Command{
		Use:   "update <project-id> [--status S] [--title T] [--description D]",
		Short: "Change a project's status, title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			var patch model.ProjectPatch
			if cmd.Flags().Changed("status") {
				patch.Status = &status
				if !slices.Contains(projectStatuses, status) {
					warnf(app.Out, "%q is not one of the usual statuses %v", status, projectStatuses)
				}
			}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if patch.Empty() {
				return errors.New("nothing to update; pass --status, --title or --description")
			}

			p, err := app.client().UpdateProject(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			successf(app.Out, "Project updated")
			fmt.Fprintln(app.Out, projectCard(p))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status")
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	_ = cmd.RegisterFlagCompletionFunc("status", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return projectStatuses, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func projectCard(p *model.Project) string {
	description := p.Description
	if description == "" {
		description = "-"
	}
	return card(p.Title, [][2]string{
		{"ID", p.ID},
		{"Status", p.Status},
		{"Description", description},
		{"Request", p.RequestID},
		{"Created", formatTime(p.CreatedAt)},
	})
}
