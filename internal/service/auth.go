package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

// invalidUsernameChars matches what a GitHub login may contain but a
// username may not.
var invalidUsernameChars = regexp.MustCompile(`[^\w.@+-]`)

// AuthService signs users in and issues their session tokens. It knows
// nothing about cookies; handlers store AuthResult.Token.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult is a signed-in user and the JWT to hand to the browser.
type AuthResult struct {
	User  *model.User
	Token string
}

// TokenTTL is how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Login checks a username and password. Unknown users, GitHub-only accounts
// and wrong passwords all give the same ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := apperror.Unauthenticated("invalid username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", username, err)
	}

	if !user.HasPassword() {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login failed", slog.String("username", username))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return s.issue(user, "password")
}

// LoginOrRegisterGitHub signs in the account linked to ghUser, creating it
// on first login. The username is the GitHub login; if a password account
// already holds that name, the GitHub id is appended.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	githubID := ghUser.ID
	username := githubUsername(ghUser)

	user := &model.User{Username: username, GitHubID: &githubID}
	err := s.users.UpsertGitHub(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user = &model.User{
			Username: username + "-" + strconv.FormatInt(githubID, 10),
			GitHubID: &githubID,
		}
		err = s.users.UpsertGitHub(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", githubID, err)
	}

	return s.issue(user, "github")
}

// ValidateToken returns the user ID carried by tokenStr.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("method", method),
	)

	return &AuthResult{User: user, Token: token}, nil
}

func githubUsername(ghUser *auth.GitHubUser) string {
	name := invalidUsernameChars.ReplaceAllString(ghUser.Login, "")
	if name == "" {
		name = "github"
	}
	if len(name) > 130 {
		name = name[:130]
	}
	return name
}
