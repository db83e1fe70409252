package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vidtube/backend/config"
	"github.com/vidtube/backend/models"
)

var (
	// ErrExpiredToken means the token was well formed but its expiry has passed.
	ErrExpiredToken = errors.New("token is expired")
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims identify the user for a single request window.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims carry the user id only.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the access/refresh token pair. Secrets
// and TTLs come from the startup config; nothing here touches the
// environment.
type TokenManager struct {
	cfg   config.AuthConfig
	clock func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{cfg: cfg, clock: time.Now}
}

func (m *TokenManager) AccessTokenTTL() time.Duration  { return m.cfg.AccessTokenTTL }
func (m *TokenManager) RefreshTokenTTL() time.Duration { return m.cfg.RefreshTokenTTL }

// GenerateAccessToken encodes {id, email, username, fullName} signed with
// the access secret.
func (m *TokenManager) GenerateAccessToken(user models.User) (string, error) {
	now := m.clock()
	claims := AccessClaims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.AccessTokenSecret))
}

// GenerateRefreshToken encodes the user id only, signed with the refresh
// secret and the longer refresh TTL.
func (m *TokenManager) GenerateRefreshToken(user models.User) (string, error) {
	now := m.clock()
	claims := RefreshClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.RefreshTokenSecret))
}

// VerifyAccessToken checks signature and expiry against the access secret.
func (m *TokenManager) VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.cfg.AccessTokenSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken checks signature and expiry against the refresh secret.
func (m *TokenManager) VerifyRefreshToken(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.cfg.RefreshTokenSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenStr string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
