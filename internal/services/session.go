package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/apiserver/internal/store"
	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// TokenPair groups the credentials issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionService orchestrates the login/refresh/logout lifecycle.
// Each user has a single active session slot: the refresh token
// persisted on the record is the only one accepted, so every login
// or refresh invalidates whatever was issued before.
type SessionService struct {
	repo   UserRepository
	tokens *TokenIssuer
}

func NewSessionService(repo UserRepository, tokens *TokenIssuer) *SessionService {
	return &SessionService{repo: repo, tokens: tokens}
}

// Login verifies the identifier (user name or email) and password,
// issues a fresh token pair, and persists the refresh token. The
// returned user is sanitized. An unknown identifier and a wrong
// password are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (types.User, TokenPair, error) {
	if identifier == "" || password == "" {
		return types.User{}, TokenPair{}, fmt.Errorf("%w: identifier and password are required", ErrInvalidInput)
	}

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return types.User{}, TokenPair{}, err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return types.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueAndPersist(ctx, user)
	if err != nil {
		return types.User{}, TokenPair{}, err
	}
	return user.Sanitized(), pair, nil
}

// Refresh validates a presented refresh token and rotates it: a new
// pair is issued and the new refresh token replaces the stored one,
// making the presented token permanently unusable. A token that is
// cryptographically valid but no longer matches the stored value is
// reported as expired; this is what makes logout and re-login
// effective.
func (s *SessionService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, ErrUnauthorized
	}

	claims, err := s.tokens.Verify(presented, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}

	if user.RefreshToken != presented {
		return TokenPair{}, ErrExpiredToken
	}

	return s.issueAndPersist(ctx, user)
}

// Logout clears the user's session slot. Logging out twice is not an
// error.
func (s *SessionService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.UpdateRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// ChangePassword verifies the old password, persists a hash of the
// new one, and clears the session slot so the previously issued
// refresh token stops working.
func (s *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !CheckPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.repo.UpdateRefreshToken(ctx, userID, "")
}

func (s *SessionService) issueAndPersist(ctx context.Context, user types.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.repo.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
