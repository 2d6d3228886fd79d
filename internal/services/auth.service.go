package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/redis"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminTokenIssuer  = "hero-points"
	revokedKeyPrefix  = "admin:revoked:"
	DefaultSessionTTL = 24 * time.Hour
)

type AuthConfig struct {
	Username     string
	PasswordHash string
	Secret       string
	SessionTTL   time.Duration
}

type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AdminClaims struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// AdminAuthService checks the single admin credential and issues signed
// session tokens. Logged out tokens are remembered in redis until they
// expire.
type AdminAuthService struct {
	username string
	hash     []byte
	secret   []byte
	ttl      time.Duration
	revoked  redis.RedisAdapter
	now      func() time.Time
}

func NewAdminAuthService(cfg AuthConfig, revoked redis.RedisAdapter) *AdminAuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AdminAuthService{
		username: cfg.Username,
		hash:     []byte(cfg.PasswordHash),
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		revoked:  revoked,
		now:      time.Now,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AdminAuthService) enabled() bool {
	return len(s.hash) > 0 && len(s.secret) > 0
}

func (s *AdminAuthService) Login(ctx context.Context, username, password string) (*AdminSession, error) {
	if !s.enabled() {
		return nil, model.ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.hash, []byte(password))
	if !userOK || passErr != nil {
		logger.Warn("admin login rejected", "username", username)
		return nil, model.ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    adminTokenIssuer,
		Subject:   s.username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, classify("sign admin session", err)
	}

	logger.Info("admin logged in", "username", s.username)
	return &AdminSession{Token: signed, ExpiresAt: expires}, nil
}

func (s *AdminAuthService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthorized
	}
	return claims, nil
}

// Verify accepts a token issued by Login that has neither expired nor been
// logged out.
func (s *AdminAuthService) Verify(ctx context.Context, token string) (*AdminClaims, error) {
	if !s.enabled() || token == "" {
		return nil, model.ErrUnauthorized
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject != s.username {
		return nil, model.ErrUnauthorized
	}

	if s.revoked != nil {
		n, err := s.revoked.Exist(ctx, revokedKeyPrefix+claims.ID)
		if err != nil {
			logger.Error("admin session revocation check failed", "error", err)
			return nil, model.ErrUnauthorized
		}
		if n > 0 {
			return nil, model.ErrUnauthorized
		}
	}

	return &AdminClaims{
		Username:  claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token for the rest of its lifetime. Invalid tokens are
// ignored.
func (s *AdminAuthService) Logout(ctx context.Context, token string) error {
	if s.revoked == nil || token == "" {
		return nil
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, []byte("1"), ttl); err != nil {
		return classify("revoke admin session", err)
	}
	logger.Info("admin logged out", "username", claims.Subject)
	return nil
}
