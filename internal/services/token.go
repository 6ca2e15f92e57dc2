package services

import (
	"errors"
	"time"

	"github.com/clipstream/apiserver/config"
	"github.com/clipstream/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects which token class to issue or verify.
type TokenKind string

const (
	// AccessToken is the short-lived per-request credential. It is
	// never persisted server-side.
	AccessToken TokenKind = "access"

	// RefreshToken is the longer-lived credential mirrored on the
	// user record so it can be revoked by overwrite.
	RefreshToken TokenKind = "refresh"
)

// TokenClaims is the signed payload of both token kinds. Access
// tokens carry the full identity; refresh tokens carry only the
// subject id.
type TokenClaims struct {
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim parsed as a user id.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// TokenIssuer creates and verifies the two token kinds. Each kind is
// signed with its own HS256 secret, so an access token can never
// verify as a refresh token or vice versa.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
}

func NewTokenIssuer(cfg config.AuthConfig) (*TokenIssuer, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// IssueAccess signs a short-lived token carrying the user's identity.
func (i *TokenIssuer) IssueAccess(user types.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email:    user.Email,
		UserName: user.UserName,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.accessSecret)
}

// IssueRefresh signs a longer-lived token carrying only the user id.
func (i *TokenIssuer) IssueRefresh(user types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.refreshSecret)
}

// Verify parses and validates a token of the given kind. Expired
// tokens fail with ErrExpiredToken; any other signature or structure
// failure fails with ErrInvalidToken. Callers rely on the
// distinction for user messaging.
func (i *TokenIssuer) Verify(tokenString string, kind TokenKind) (*TokenClaims, error) {
	secret := i.accessSecret
	if kind == RefreshToken {
		secret = i.refreshSecret
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
