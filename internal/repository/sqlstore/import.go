package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

var _ repository.Importer = (*DB)(nil)
var _ repository.Store = (*DB)(nil)

// importRows inserts each row produced by args with ON CONFLICT DO NOTHING,
// all in one transaction, and counts the rows that went in.
func (db *DB) importRows(ctx context.Context, table, columns string, n int, args func(i int) []any) (int, error) {
	placeholders := "?, ?, ?, ?"
	switch table {
	case "requests", "projects", "comments":
		placeholders = "?, ?, ?, ?, ?, ?"
	}
	query := db.rebind(`INSERT INTO ` + table + ` (` + columns + `)
		VALUES (` + placeholders + `)
		ON CONFLICT DO NOTHING`)

	inserted := 0
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing %s import: %w", table, err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			result, err := stmt.ExecContext(ctx, args(i)...)
			if err != nil {
				return fmt.Errorf("importing %s row %d: %w", table, i, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("checking rows affected: %w", err)
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sqlstore: %w", err)
	}
	return inserted, nil
}

func (db *DB) ImportUsers(ctx context.Context, users []model.User) (int, error) {
	return db.importRows(ctx, "users", userColumns, len(users), func(i int) []any {
		u := users[i]
		return []any{u.ID, u.Username, u.PasswordHash, orNow(u.CreatedAt)}
	})
}

func (db *DB) ImportRequests(ctx context.Context, reqs []model.ConnectionRequest) (int, error) {
	return db.importRows(ctx, "requests", requestColumns, len(reqs), func(i int) []any {
		r := reqs[i]
		status := r.Status
		if status == "" {
			status = model.RequestStatusRequested
		}
		return []any{r.ID, r.FromUsername, r.ToUsername, r.ProjectName, string(status), orNow(r.CreatedAt)}
	})
}

func (db *DB) ImportProjects(ctx context.Context, projects []model.Project) (int, error) {
	return db.importRows(ctx, "projects", projectColumns, len(projects), func(i int) []any {
		p := projects[i]
		status := p.Status
		if status == "" {
			status = model.ProjectStatusInProgress
		}
		return []any{p.ID, p.RequestID, p.Title, p.Description, status, orNow(p.CreatedAt)}
	})
}

func (db *DB) ImportComments(ctx context.Context, comments []model.Comment) (int, error) {
	return db.importRows(ctx, "comments", commentColumns, len(comments), func(i int) []any {
		c := comments[i]
		return []any{c.ID, c.ProjectID, c.Username, c.Text, nullFloat(c.Timestamp), orNow(c.CreatedAt)}
	})
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t.UTC()
}
