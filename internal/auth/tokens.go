package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/pkg/config"
)

// ErrTokenRevoked is returned when a refresh token was invalidated by logout
var ErrTokenRevoked = errors.New("token revoked")

const revokedKeyPrefix = "auth:revoked:"

// TokenManager signs and verifies access and refresh tokens. Refresh tokens
// carry a jti; logout writes the jti to Redis so the token is rejected for
// the remainder of its lifetime. Revocation is skipped when Redis is not
// configured.
type TokenManager struct {
	secret            []byte
	accessTTL         time.Duration
	refreshTTL        time.Duration
	refreshCookieName string
	redis             *redis.Client
}

// NewTokenManager creates a new TokenManager; redisClient may be nil
func NewTokenManager(cfg *config.AuthConfig, redisClient *redis.Client) *TokenManager {
	return &TokenManager{
		secret:            []byte(cfg.JWTSecret),
		accessTTL:         cfg.AccessTokenTTL,
		refreshTTL:        cfg.RefreshTokenTTL,
		refreshCookieName: cfg.RefreshCookieName,
		redis:             redisClient,
	}
}

// RefreshCookieName returns the name of the HTTP-only refresh cookie
func (m *TokenManager) RefreshCookieName() string {
	return m.refreshCookieName
}

// RefreshTTL returns the refresh token lifetime
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// GenerateAccessToken signs a short-lived access token for the user
func (m *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateRefreshToken signs a long-lived refresh token for the user
func (m *TokenManager) GenerateRefreshToken(userID uint) (string, error) {
	now := time.Now()
	claims := &models.RefreshClaims{
		UserID:  userID,
		TokenID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseAccessToken verifies an access token and returns its claims
func (m *TokenManager) ParseAccessToken(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token, including the revocation check
func (m *TokenManager) ParseRefreshToken(ctx context.Context, tokenString string) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if m.redis != nil && claims.TokenID != "" {
		revoked, err := m.redis.Exists(ctx, revokedKeyPrefix+claims.TokenID).Result()
		if err != nil {
			return nil, err
		}
		if revoked > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// RevokeRefreshToken denylists the token's jti until it would have expired
func (m *TokenManager) RevokeRefreshToken(ctx context.Context, claims *models.RefreshClaims) error {
	if m.redis == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, revokedKeyPrefix+claims.TokenID, "1", ttl).Err()
}

func (m *TokenManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// ParseBearer extracts the token from an Authorization header value, or ""
func ParseBearer(headerValue string) string {
	parts := strings.SplitN(headerValue, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
