package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/auth"
	"github.com/geocoder89/finledger/internal/domain/user"
)

const invalidCredentials = "email or password is incorrect"

// AuthService exchanges credentials or a refresh token for a token pair.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    loggerOrDefault(log),
	}
}

// Login checks email and password. An unknown email and a wrong password fail
// the same way so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (user.User, auth.TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, auth.TokenPair{}, apperr.Unauthorized(invalidCredentials)
		}
		return user.User{}, auth.TokenPair{}, internalError(ctx, s.log, "auth.login.get_by_email", err)
	}

	ok, err := s.hasher.Compare(password, u.PasswordHash)
	if err != nil {
		return user.User{}, auth.TokenPair{}, internalError(ctx, s.log, "auth.login.compare", err, "user_id", u.ID)
	}
	if !ok {
		return user.User{}, auth.TokenPair{}, apperr.Unauthorized(invalidCredentials)
	}

	tokens, err := s.IssueFor(ctx, u.ID)
	if err != nil {
		return user.User{}, auth.TokenPair{}, err
	}

	return u, tokens, nil
}

// IssueFor signs a token pair for an already authenticated user, e.g. right after signup.
func (s *AuthService) IssueFor(ctx context.Context, userID string) (auth.TokenPair, error) {
	tokens, err := s.tokens.Issue(userID)
	if err != nil {
		return auth.TokenPair{}, internalError(ctx, s.log, "auth.issue", err, "user_id", userID)
	}
	return tokens, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	tokens, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return auth.TokenPair{}, internalError(ctx, s.log, "auth.refresh", err)
		}
		return auth.TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	return tokens, nil
}
