package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/flashgig/internal/config"
	"github.com/sakif/flashgig/internal/repository/sqlstore"
	"github.com/sakif/flashgig/internal/service"
)

// newAdminCmd groups commands that work on the server's database directly,
// using the same environment configuration as the server. They do not go
// through the HTTP API.
func newAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Offline data maintenance against the server database",
	}
	cmd.AddCommand(newAdminImportCmd(app), newAdminExportCmd(app))
	return cmd
}

func openTransfer(app *App) (*service.TransferService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlstore.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(app.Err)
	return service.NewTransferService(db, logger), func() { db.Close() }, nil
}

func newAdminImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import users.json, requests.json, projects.json and comments.json from dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transfer, closeDB, err := openTransfer(app)
			if err != nil {
				return err
			}
			defer closeDB()

			counts, err := transfer.ImportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			successf(app.Out, "Imported %d users, %d requests, %d projects, %d comments",
				counts.Users, counts.Requests, counts.Projects, counts.Comments)
			return nil
		},
	}
}

func newAdminExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every record to dir as JSON collection files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transfer, closeDB, err := openTransfer(app)
			if err != nil {
				return err
			}
			defer closeDB()

			snap, err := transfer.ExportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			successf(app.Out, "Exported %d users, %d requests, %d projects, %d comments to %s",
				len(snap.Users), len(snap.Requests), len(snap.Projects), len(snap.Comments), args[0])
			fmt.Fprintln(app.Out, faintColor.Sprint("Password hashes are included; keep the directory private."))
			return nil
		},
	}
}
