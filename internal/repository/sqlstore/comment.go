package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

const commentColumns = `id, project_id, username, text, offset_seconds, created_at`

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = uuid.NewString()
	comment.CreatedAt = now()

	_, err := db.exec(ctx,
		`INSERT INTO comments (`+commentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.ProjectID,
		comment.Username,
		comment.Text,
		nullFloat(comment.Timestamp),
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating comment: %w", err)
	}
	return nil
}

func (db *DB) ListCommentsForProject(ctx context.Context, projectID string) ([]model.Comment, error) {
	return db.listComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE project_id = ?
		 ORDER BY created_at DESC`,
		projectID,
	)
}

func (db *DB) ListComments(ctx context.Context) ([]model.Comment, error) {
	return db.listComments(ctx,
		`SELECT `+commentColumns+` FROM comments ORDER BY created_at DESC`,
	)
}

func (db *DB) listComments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments: %w", err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (*model.Comment, error) {
	var (
		c      model.Comment
		offset sql.NullFloat64
	)
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Username, &c.Text, &offset, &c.CreatedAt); err != nil {
		return nil, err
	}
	if offset.Valid {
		v := offset.Float64
		c.Timestamp = &v
	}
	return &c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
