package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

var _ repository.ProjectRepository = (*DB)(nil)

const projectColumns = `id, request_id, title, description, status, created_at`

// CreateProject inserts a project for an accepted request. The request is
// read (share-locked on Postgres) in the same transaction as the insert,
// so it cannot be flipped back to "requested" in between.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = uuid.NewString()
	project.CreatedAt = now()
	if project.Status == "" {
		project.Status = model.ProjectStatusInProgress
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			db.rebind(`SELECT status FROM requests WHERE id = ?`+db.lockShare()),
			project.RequestID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("Connection request not found")
			}
			return fmt.Errorf("reading request %s: %w", project.RequestID, err)
		}
		if model.RequestStatus(status) != model.RequestStatusAccepted {
			return apperror.ValidationFailed("request_id", "Connection must be accepted first")
		}

		_, err = tx.ExecContext(ctx,
			db.rebind(`INSERT INTO projects (`+projectColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?)`),
			project.ID,
			project.RequestID,
			project.Title,
			project.Description,
			project.Status,
			project.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("sqlstore: creating project: %w", err)
	}

	return nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(db.queryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Project not found")
		}
		return nil, fmt.Errorf("sqlstore: getting project %s: %w", id, err)
	}
	return p, nil
}

func (db *DB) ListProjectsForUser(ctx context.Context, username string) ([]model.Project, error) {
	return db.listProjects(ctx,
		`SELECT p.id, p.request_id, p.title, p.description, p.status, p.created_at
		 FROM projects p
		 JOIN requests r ON r.id = p.request_id
		 WHERE r.status = 'accepted'
		   AND (r.from_username = ? OR r.to_username = ?)
		 ORDER BY p.created_at DESC`,
		username, username,
	)
}

func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	return db.listProjects(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`,
	)
}

// UpdateProject applies a partial update and returns the result. An empty
// patch is a plain read.
func (db *DB) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	var updated *model.Project

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanProject(tx.QueryRowContext(ctx,
			db.rebind(`SELECT `+projectColumns+` FROM projects WHERE id = ?`+db.lockUpdate()),
			id,
		))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("Project not found")
			}
			return fmt.Errorf("reading project %s: %w", id, err)
		}

		if !patch.Empty() {
			patch.Apply(p)
			_, err = tx.ExecContext(ctx,
				db.rebind(`UPDATE projects SET title = ?, description = ?, status = ? WHERE id = ?`),
				p.Title, p.Description, p.Status, p.ID,
			)
			if err != nil {
				return fmt.Errorf("updating project %s: %w", id, err)
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlstore: %w", err)
	}

	return updated, nil
}

func (db *DB) listProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating projects: %w", err)
	}
	return projects, nil
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	if err := row.Scan(&p.ID, &p.RequestID, &p.Title, &p.Description, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
