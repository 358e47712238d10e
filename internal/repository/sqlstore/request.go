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

var _ repository.RequestRepository = (*DB)(nil)

const requestColumns = `id, from_username, to_username, project_name, status, created_at`

// CreateRequest inserts a new connection request. ID and CreatedAt are
// assigned here; Status defaults to "requested" when unset.
func (db *DB) CreateRequest(ctx context.Context, req *model.ConnectionRequest) error {
	req.ID = uuid.NewString()
	req.CreatedAt = now()
	if req.Status == "" {
		req.Status = model.RequestStatusRequested
	}

	_, err := db.exec(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.FromUsername,
		req.ToUsername,
		req.ProjectName,
		string(req.Status),
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating request: %w", err)
	}
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id string) (*model.ConnectionRequest, error) {
	req, err := scanRequest(db.queryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Request not found")
		}
		return nil, fmt.Errorf("sqlstore: getting request %s: %w", id, err)
	}
	return req, nil
}

func (db *DB) ListRequestsForUser(ctx context.Context, username string) ([]model.ConnectionRequest, error) {
	return db.listRequests(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE from_username = ? OR to_username = ?
		 ORDER BY created_at DESC`,
		username, username,
	)
}

func (db *DB) ListRequests(ctx context.Context) ([]model.ConnectionRequest, error) {
	return db.listRequests(ctx,
		`SELECT `+requestColumns+` FROM requests ORDER BY created_at DESC`,
	)
}

// UpdateRequestStatus sets the status and returns the updated row. The
// update and the read-back share a transaction.
func (db *DB) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) (*model.ConnectionRequest, error) {
	var updated *model.ConnectionRequest

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			db.rebind(`UPDATE requests SET status = ? WHERE id = ?`),
			string(status), id,
		)
		if err != nil {
			return fmt.Errorf("updating request %s: %w", id, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("Request not found")
		}

		updated, err = scanRequest(tx.QueryRowContext(ctx,
			db.rebind(`SELECT `+requestColumns+` FROM requests WHERE id = ?`),
			id,
		))
		if err != nil {
			return fmt.Errorf("reading back request %s: %w", id, err)
		}
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

func (db *DB) listRequests(ctx context.Context, query string, args ...any) ([]model.ConnectionRequest, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing requests: %w", err)
	}
	defer rows.Close()

	reqs := []model.ConnectionRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning request row: %w", err)
		}
		reqs = append(reqs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating requests: %w", err)
	}
	return reqs, nil
}

func scanRequest(row rowScanner) (*model.ConnectionRequest, error) {
	var (
		r      model.ConnectionRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.FromUsername, &r.ToUsername, &r.ProjectName, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RequestStatus(status)
	return &r, nil
}
