// Package commands implements the flashgig command-line client.
//
// Every command works on an explicit *App: the loaded session, the streams
// to read from and write to, and the password prompt. Nothing is kept in
// package globals, so tests can run the full command tree in-process.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/api"
	"github.com/sakif/flashgig/internal/session"
)

const version = "0.1.0"

var errNotLoggedIn = errors.New("not logged in; run `flashgig login` first")

// App carries everything a command needs.
type App struct {
	Session *session.Session

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// ReadPassword prompts for a secret. Defaults to a no-echo terminal read
	// when stdin is a terminal, or a plain line read otherwise.
	ReadPassword func(prompt string) (string, error)

	// ClientOptions are appended when building the API client.
	ClientOptions []api.Option

	lines *bufio.Reader
}

// NewApp wires the real process streams around sess.
func NewApp(sess *session.Session) *App {
	return &App{
		Session: sess,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
}

// client builds an API client for the current session.
func (a *App) client() *api.Client {
	return a.Session.Client(a.ClientOptions...)
}

func (a *App) requireLogin() (string, error) {
	if !a.Session.LoggedIn() {
		return "", errNotLoggedIn
	}
	return a.Session.Username, nil
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Out, prompt)
	if a.lines == nil {
		a.lines = bufio.NewReader(a.In)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) password(prompt string) (string, error) {
	if a.ReadPassword != nil {
		return a.ReadPassword(prompt)
	}
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprint(a.Out, prompt)
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(a.Out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return a.readLine(prompt)
}

// NewRootCmd builds the command tree bound to app.
func NewRootCmd(app *App) *cobra.Command {
	var serverURL string

	root := &cobra.Command{
		Use:   "flashgig",
		Short: "Flash Gig - connect with freelancers and clients, run projects together",
		Long: `flashgig is the command-line client for a Flash Gig server.
Send connection requests, start projects on accepted connections, and
exchange comments, all from the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if serverURL != "" {
				app.Session.ServerURL = strings.TrimRight(serverURL, "/")
			}
		},
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default from session, $FLASHGIG_SERVER or "+session.DefaultServerURL+")")

	root.AddCommand(
		newHealthCmd(app),
		newRegisterCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newUserCmd(app),
		newConnectCmd(app),
		newRequestsCmd(app),
		newAcceptCmd(app),
		newProjectsCmd(app),
		newProjectCmd(app),
		newCommentsCmd(app),
		newCommentCmd(app),
		newWatchCmd(app),
		newAdminCmd(app),
	)
	return root
}

// Execute loads the session and runs the command line, printing any error.
// It returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	sess, err := session.Load()
	if err != nil {
		failf(os.Stderr, "%v", err)
		return 1
	}

	app := NewApp(sess)
	root := NewRootCmd(app)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		failf(app.Err, "%s", describe(err, app.Session.ServerURL))
		return 1
	}
	return 0
}
