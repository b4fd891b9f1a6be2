package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"
	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, password_hash, github_id, created_at, updated_at`

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.PasswordHash, user.GitHubID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Username, err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "id", id)
}

func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row, "username", username)
}

func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("postgres: upserting GitHub user %s: missing github id", user.Username)
	}

	existing, err := scanUser(
		u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE github_id = $1`, *user.GitHubID),
		"github_id", fmt.Sprint(*user.GitHubID),
	)
	if errors.Is(err, apperror.ErrNotFound) {
		return u.Create(ctx, user)
	}
	if err != nil {
		return err
	}

	existing.UpdatedAt = time.Now().UTC()
	if _, err := u.pool.Exec(ctx,
		`UPDATE users SET updated_at = $1 WHERE id = $2`, existing.UpdatedAt, existing.ID,
	); err != nil {
		return fmt.Errorf("postgres: updating user %s: %w", existing.ID, err)
	}

	*user = *existing
	return nil
}

func scanUser(row pgx.Row, key, value string) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.GitHubID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("postgres: getting user by %s %s: %w", key, value, err)
	}
	return &user, nil
}
