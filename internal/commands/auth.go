package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/api"
	"github.com/sakif/flashgig/internal/model"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().Health(cmd.Context()); err != nil {
				return err
			}
			successf(app.Out, "Server at %s is up", app.Session.ServerURL)
			return nil
		},
	}
}

// credentialsFor takes the username from args or a prompt, then the
// password from the prompt.
func credentialsFor(app *App, args []string) (string, string, error) {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		line, err := app.readLine("Username: ")
		if err != nil {
			return "", "", err
		}
		username = line
	}
	password, err := app.password("Password: ")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

func newRegisterCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account and log in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := credentialsFor(app, args)
			if err != nil {
				return err
			}

			user, err := app.client().Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := app.Session.Login(user.Username, user.Token); err != nil {
				return err
			}

			successf(app.Out, "Welcome to Flash Gig, %s! You are now logged in.", user.Username)
			return nil
		},
	}
}

func newLoginCmd(app *App) *cobra.Command {
	var (
		token  string
		github bool
	)

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in to the server",
		Long: `Log in with a username and password, or with a session token.

Accounts created through GitHub have no password: run "flashgig login --github"
for the sign-in link, then pass the token it shows to "flashgig login --token".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case github:
				fmt.Fprintf(app.Out, "Open this link in a browser and approve access:\n\n  %s/auth/github/login\n\n", app.Session.ServerURL)
				fmt.Fprintln(app.Out, "Then run: flashgig login --token <token>")
				return nil
			case token != "":
				return loginWithToken(cmd, app, token)
			}

			username, password, err := credentialsFor(app, args)
			if err != nil {
				return err
			}

			user, err := app.client().Login(cmd.Context(), username, password)
			switch {
			case api.IsNotFound(err):
				return fmt.Errorf("no account named %q; run `flashgig register` to create one", username)
			case err != nil:
				return err
			}
			if err := app.Session.Login(user.Username, user.Token); err != nil {
				return err
			}

			successf(app.Out, "Logged in as %s", user.Username)
			if user.Token == "" {
				warnf(app.Out, "The server does not issue session tokens; requests are sent unauthenticated")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "log in with a session token")
	cmd.Flags().BoolVar(&github, "github", false, "show the GitHub sign-in link")
	cmd.MarkFlagsMutuallyExclusive("token", "github")
	return cmd
}

// loginWithToken asks the server who the token belongs to before saving it.
func loginWithToken(cmd *cobra.Command, app *App, token string) error {
	opts := append([]api.Option{api.WithToken(token)}, app.ClientOptions...)
	user, err := api.NewClient(app.Session.ServerURL, opts...).Me(cmd.Context())
	if api.IsUnauthorized(err) {
		return fmt.Errorf("the token was rejected; it may have expired")
	}
	if err != nil {
		return err
	}
	if err := app.Session.Login(user.Username, token); err != nil {
		return err
	}
	successf(app.Out, "Logged in as %s", user.Username)
	return nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.LoggedIn() {
				fmt.Fprintln(app.Out, "You are not logged in")
				return nil
			}
			name := app.Session.Username
			if err := app.Session.Clear(); err != nil {
				return err
			}
			successf(app.Out, "Logged out %s", name)
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.LoggedIn() {
				fmt.Fprintln(app.Out, "You are not logged in")
				return nil
			}

			c := app.client()
			var (
				user *model.User
				err  error
			)
			if c.Token != "" {
				user, err = c.Me(cmd.Context())
				if api.IsUnauthorized(err) {
					warnf(app.Out, "Your session has expired; run `flashgig login` again")
					return nil
				}
			} else {
				user, err = c.GetUser(cmd.Context(), app.Session.Username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(app.Out, userCard(user, app.Session.ServerURL))
			return nil
		},
	}
}

func newUserCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "user <username>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.client().GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, userCard(user, ""))
			return nil
		},
	}
}

func userCard(u *model.User, server string) string {
	rows := [][2]string{
		{"ID", u.ID},
		{"Member since", formatTime(u.CreatedAt)},
	}
	if server != "" {
		rows = append(rows, [2]string{"Server", server})
	}
	return card(u.Username, rows)
}
