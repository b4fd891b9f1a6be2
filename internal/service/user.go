package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

const MinPasswordLength = 8

// usernamePattern allows letters, digits and @.+-_ up to 150 characters.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// UserService manages accounts. Signup is done by an administrator through
// the CLI, so Register is not exposed over HTTP.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a password account. A taken username is ErrConflict.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	var errs apperror.ValidationErrors
	if !usernamePattern.MatchString(username) {
		errs = append(errs, apperror.ValidationFailed("username",
			"username must be 1-150 letters, digits or @.+-_"))
	}
	switch {
	case len(password) < MinPasswordLength:
		errs = append(errs, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength)))
	case len(password) > auth.MaxPasswordBytes:
		errs = append(errs, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes)))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", username, err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}
