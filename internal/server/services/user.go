// Package services contains the server-side business logic. This file
// implements UserService: registration, the login flow, and resolution of
// bearer tokens to an active principal.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/repositories/users"
)

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

type RegisterInput struct {
	UserName string
	Email    string
	FullName string
	Password string
}

type UserService struct {
	users  users.Repository
	hasher *auth.Hasher
	tokens *auth.TokenService
	logger logging.Logger
	now    func() time.Time
}

func NewUserService(repo users.Repository, hasher *auth.Hasher, tokens *auth.TokenService, logger logging.Logger) *UserService {
	return &UserService{
		users:  repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("module", "user_service"),
		now:    time.Now,
	}
}

// Register validates the input, hashes the password and inserts an active
// user. A taken username yields common.ErrDuplicateUsername.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validateUserName(in.UserName); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := s.users.Create(ctx, &models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		s.logger.Error(ctx, "creating user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "username", user.UserName)
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown users,
// wrong passwords and inactive accounts all yield common.ErrorUnauthorized;
// an unreadable stored hash is a data fault and yields common.ErrorInternal.
func (s *UserService) Login(ctx context.Context, userName, password string) (*AccessToken, error) {
	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			s.logger.Warn(ctx, "login rejected", "username", userName)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "credential lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.hasher.VerifyDummy(password)
		s.logger.Error(ctx, "stored password hash is unreadable", "username", userName, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok || !user.Active {
		s.logger.Warn(ctx, "login rejected", "username", userName)
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := s.tokens.Issue(user.UserName)
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.users.TouchLastSeen(ctx, user.UserName, s.now().UTC()); err != nil {
		s.logger.Warn(ctx, "updating last_seen failed", "username", user.UserName, "error", err)
	}

	return &AccessToken{Token: token, ExpiresAt: exp, ExpiresIn: s.tokens.TTL()}, nil
}

// Authenticate resolves a bearer token to the principal of an existing,
// active account.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err.Error())
		return auth.Principal{}, common.ErrorUnauthorized
	}

	user, err := s.users.GetUserByLogin(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "token subject no longer exists", "username", subject)
			return auth.Principal{}, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "credential lookup failed", "error", err)
		return auth.Principal{}, common.ErrorInternal
	}
	if !user.Active {
		s.logger.Warn(ctx, "token subject is inactive", "username", subject)
		return auth.Principal{}, common.ErrorUnauthorized
	}

	return auth.Principal{UserName: user.UserName}, nil
}

// Profile returns the stored record of userName.
func (s *UserService) Profile(ctx context.Context, userName string) (*models.User, error) {
	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "credential lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

// SetActive enables or disables an account. Tokens already issued to a
// disabled account stop working at the next request.
func (s *UserService) SetActive(ctx context.Context, userName string, active bool) error {
	if err := s.users.SetActive(ctx, userName, active); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "updating account state failed", "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "account state changed", "username", userName, "active", active)
	return nil
}
