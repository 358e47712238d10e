package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// AuthService handles registration and login.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → JWTs; nil disables tokens
//   - passwords  *auth.PasswordService     → bcrypt plus legacy verification
//   - logger     *slog.Logger
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user with the issued token. Token is empty when
// tokens are disabled.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account. The username is trimmed; the password is
// taken as given. Minimum lengths count characters, the bcrypt maximum
// counts bytes.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username = trim(username)

	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "Username and password are required")
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be at least %d characters", MinUsernameLength))
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to register user", slog.String("username", username), errAttr(err))
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("username", username))

	return s.result(user)
}

// Login verifies credentials. An unknown username is a not-found error and
// a wrong password an unauthorized one, so clients can tell them apart.
//
// Accounts still carrying a legacy SHA-256 hash get it replaced by bcrypt
// on their first successful login. A failed upgrade is logged but does not
// fail the login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = trim(username)

	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "Username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("This account signs in with GitHub")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.String("username", username))
			return nil, apperror.Unauthorized("Incorrect username or password")
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", username, err)
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	s.logger.Info("user logged in", slog.String("username", username))

	return s.result(user)
}

// maxGitHubUsernameAttempts bounds the suffixes tried when a GitHub login
// collides with an existing username.
const maxGitHubUsernameAttempts = 5

// LoginGitHub signs in the account linked to a GitHub profile, creating it
// on first use. The new account's username is the GitHub login, suffixed
// when that name is taken or too short; it has no password.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user logged in via GitHub", slog.String("username", user.Username))
		return s.result(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", gh.ID, err)
	}

	base := trim(gh.Login)
	if utf8.RuneCountInString(base) < MinUsernameLength {
		base += "-gh"
	}

	for attempt := 0; attempt < maxGitHubUsernameAttempts; attempt++ {
		name := base
		switch {
		case attempt == 1:
			name = base + "-gh"
		case attempt > 1:
			name = fmt.Sprintf("%s-gh%d", base, attempt)
		}

		user = &model.User{Username: name, GitHubID: gh.ID}
		err = s.users.CreateUser(ctx, user)
		if err == nil {
			s.logger.Info("user registered via GitHub",
				slog.String("username", name),
				slog.Int64("github_id", gh.ID),
			)
			return s.result(user)
		}

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
			return nil, fmt.Errorf("service/auth: creating GitHub user %q: %w", name, err)
		}
		if appErr.Field == "github_id" {
			// Linked concurrently by another callback.
			existing, getErr := s.users.GetUserByGitHubID(ctx, gh.ID)
			if getErr != nil {
				return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", gh.ID, getErr)
			}
			return s.result(existing)
		}
	}

	return nil, apperror.ValidationFailed("username",
		fmt.Sprintf("No free username found for GitHub login %q", gh.Login))
}

func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.Username, hash)
	}
	if err != nil {
		s.logger.Warn("legacy password hash not upgraded",
			slog.String("username", user.Username),
			errAttr(err),
		)
		return
	}
	user.PasswordHash = hash
	s.logger.Info("legacy password hash upgraded", slog.String("username", user.Username))
}

func (s *AuthService) GetUser(ctx context.Context, username string) (*model.User, error) {
	username = trim(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.users.GetUserByUsername(ctx, username)
}

// TokensEnabled reports whether Register and Login issue tokens.
func (s *AuthService) TokensEnabled() bool {
	return s.tokens != nil
}

func (s *AuthService) result(user *model.User) (*AuthResult, error) {
	res := &AuthResult{User: user}
	if s.tokens == nil {
		return res, nil
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %q: %w", user.Username, err)
	}
	res.Token = token
	return res, nil
}
