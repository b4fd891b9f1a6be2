package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, password_hash, github_id, created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps.
// A taken username yields apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, "id", id)
}

func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row, "username", username)
}

// UpsertGitHub links a GitHub account to a local user. The first login
// creates the user with the GitHub login as username; later logins keep the
// local ID and username and only bump updated_at.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting GitHub user %s: missing github id", user.Username)
	}

	var existing model.User
	var githubID sql.NullInt64
	err := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID,
	).Scan(&existing.ID, &existing.Username, &existing.PasswordHash, &githubID,
		&existing.CreatedAt, &existing.UpdatedAt)

	switch {
	case err == sql.ErrNoRows:
		return u.Create(ctx, user)
	case err != nil:
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	existing.GitHubID = user.GitHubID
	existing.UpdatedAt = time.Now().UTC()
	if _, err := u.conn.ExecContext(ctx,
		`UPDATE users SET updated_at = ? WHERE id = ?`, existing.UpdatedAt, existing.ID,
	); err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}

	*user = existing
	return nil
}

func scanUser(row *sql.Row, key, value string) (*model.User, error) {
	var user model.User
	var githubID sql.NullInt64

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &githubID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %s: %w", key, value, err)
	}

	if githubID.Valid {
		user.GitHubID = &githubID.Int64
	}
	return &user, nil
}
