// Package auth implements token issuance and verification for Hireloop.
//
// Access and refresh tokens are HS256 JWTs carrying the user id and role in
// the subject claim. Passwords are stored bcrypt-hashed; plaintext never
// crosses this package's boundary outward.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hireloop-ai/hireloop/internal/models"
)

var (
	// ErrInvalidToken indicates a token that failed signature, expiry or
	// type checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials indicates an email/password pair that does not
	// match a stored account.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Token type discriminator inside the JWT, so a refresh token can never pass
// as an access token.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UID  int64       `json:"uid"`
	Role models.Role `json:"role"`
}

type tokenClaims struct {
	Subject   Identity `json:"sub"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// Opts holds configuration for the auth service.
type Opts struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Option configures the auth service.
type Option func(*Opts)

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(o *Opts) { o.Secret = secret }
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(o *Opts) { o.AccessTTL = d }
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(d time.Duration) Option {
	return func(o *Opts) { o.RefreshTTL = d }
}

// Service issues and verifies tokens and password hashes.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates an auth service. The signing secret is required.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("auth secret not set")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// IssueAccessToken signs a short-lived token identifying the user.
func (s *Service) IssueAccessToken(uid int64, role models.Role) (string, error) {
	return s.issue(uid, role, tokenTypeAccess, s.accessTTL)
}

// IssueRefreshToken signs a long-lived token used only to mint new access
// tokens.
func (s *Service) IssueRefreshToken(uid int64, role models.Role) (string, error) {
	return s.issue(uid, role, tokenTypeRefresh, s.refreshTTL)
}

func (s *Service) issue(uid int64, role models.Role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Subject:   Identity{UID: uid, Role: role},
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return token, nil
}

// VerifyAccessToken validates an access token and returns its identity.
func (s *Service) VerifyAccessToken(token string) (*Identity, error) {
	return s.verify(token, tokenTypeAccess)
}

// VerifyRefreshToken validates a refresh token and returns its identity.
func (s *Service) VerifyRefreshToken(token string) (*Identity, error) {
	return s.verify(token, tokenTypeRefresh)
}

func (s *Service) verify(token, wantType string) (*Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: token type %q", ErrInvalidToken, claims.TokenType)
	}
	if claims.Subject.UID <= 0 || !models.IsValidRole(claims.Subject.Role) {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	return &claims.Subject, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a login attempt.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
