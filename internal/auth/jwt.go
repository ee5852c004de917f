package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	typeAccess  = "access"
	typeRefresh = "refresh"
)

type Claims struct {
	UserID    string `json:"userId"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues and verifies access/refresh token pairs. It keeps no state
// besides its two secrets, so a refresh token stays valid until it expires.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of m that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

func (m *Manager) AccessSecret() []byte  { return m.accessSecret }
func (m *Manager) RefreshSecret() []byte { return m.refreshSecret }

// Issue signs a fresh access/refresh pair for userID.
func (m *Manager) Issue(userID string) (TokenPair, error) {
	access, err := m.sign(userID, typeAccess, m.accessSecret, m.accessTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal("sign access token", err)
	}

	refresh, err := m.sign(userID, typeRefresh, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal("sign refresh token", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) sign(userID, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks the signature of tokenStr against secret and its expiry.
// Every failure is reported as an InvalidToken error.
func (m *Manager) Verify(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, apperr.InvalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, apperr.InvalidToken(errors.New("invalid token"))
	}

	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.verifyType(tokenStr, m.accessSecret, typeAccess)
}

func (m *Manager) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return m.verifyType(tokenStr, m.refreshSecret, typeRefresh)
}

func (m *Manager) verifyType(tokenStr string, secret []byte, tokenType string) (*Claims, error) {
	claims, err := m.Verify(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, apperr.InvalidToken(errors.New("invalid token type"))
	}
	return claims, nil
}

// Refresh verifies a refresh token and issues a new pair for the same user.
// The presented token is not invalidated.
func (m *Manager) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := m.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	return m.Issue(claims.UserID)
}
