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

var _ repository.UserRepository = (*DB)(nil)

// userColumns are the columns shared with the legacy import format.
const userColumns = `id, username, hashed_password, created_at`

const userSelect = userColumns + `, github_id`

// CreateUser inserts a new user. The ON CONFLICT clause makes the
// uniqueness check and the insert a single statement, so two concurrent
// registrations of one name cannot both succeed.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = now()

	result, err := db.exec(ctx,
		`INSERT INTO users (id, username, hashed_password, created_at, github_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		nullGitHubID(user.GitHubID),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		if user.GitHubID != 0 {
			if _, err := db.GetUserByGitHubID(ctx, user.GitHubID); err == nil {
				return apperror.ValidationFailed("github_id", "GitHub account already linked")
			}
		}
		return apperror.ValidationFailed("username", "Username already registered")
	}

	return nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.queryRow(ctx,
		`SELECT `+userSelect+` FROM users WHERE username = ?`,
		username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlstore: getting user %q: %w", username, err)
	}
	return u, nil
}

func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	u, err := scanUser(db.queryRow(ctx,
		`SELECT `+userSelect+` FROM users WHERE github_id = ?`,
		githubID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlstore: getting user by github id %d: %w", githubID, err)
	}
	return u, nil
}

// UpdatePasswordHash replaces a user's stored hash. Used when a legacy
// hash is upgraded at login.
func (db *DB) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	result, err := db.exec(ctx,
		`UPDATE users SET hashed_password = ? WHERE username = ?`,
		hash, username,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating password for %q: %w", username, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.query(ctx,
		`SELECT `+userSelect+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &githubID); err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// nullGitHubID stores "no GitHub account" as NULL so the unique index
// ignores it.
func nullGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
