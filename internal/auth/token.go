// Package auth is the local identity provider: bcrypt credentials in PostgreSQL
// and HS256 session tokens that can be revoked before they expire.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"sipeta/internal/config"
	"sipeta/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrNIKNotFound        = errors.New("NIK not found")
)

// Claims is the session token payload.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies session tokens.
type Tokens struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

// NewTokens builds a token service from the auth config.
func NewTokens(cfg config.AuthConfig) *Tokens {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		secret:  []byte(cfg.JWTSecret),
		issuer:  cfg.Issuer,
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
	}
}

// Issue signs a session for the user.
func (t *Tokens) Issue(userID, email, name, role string) (*model.Session, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()

	claims := Claims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &model.Session{
		Token:     signed,
		TokenID:   jti,
		UserID:    userID,
		Email:     email,
		FullName:  name,
		Role:      role,
		ExpiresAt: exp,
	}, nil
}

// Parse verifies signature, issuer, expiry and revocation.
func (t *Tokens) Parse(token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, revoked := t.revoked.Get(claims.ID); revoked {
		return nil, ErrInvalidToken
	}

	s := &model.Session{
		Token:    token,
		TokenID:  claims.ID,
		UserID:   claims.Subject,
		Email:    claims.Email,
		FullName: claims.Name,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Revoke rejects the token id until the token would have expired anyway.
func (t *Tokens) Revoke(s *model.Session) {
	if s == nil || s.TokenID == "" {
		return
	}
	ttl := s.ExpiresAt.Sub(t.now())
	if ttl <= 0 {
		return
	}
	t.revoked.Set(s.TokenID, struct{}{}, ttl)
}
