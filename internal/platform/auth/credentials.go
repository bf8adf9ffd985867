package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the fixed lifetime of issued bearer tokens.
const TokenTTL = 24 * time.Hour

var (
	ErrMissingSigningKey = errors.New("token signing key is not configured")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// Claims carries the identity and role of the token holder.
type Claims struct {
	jwt.RegisteredClaims
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Identity is the verified subject of a bearer token.
type Identity struct {
	ID   string
	Role string
}

// Credentials hashes and verifies passwords and issues and verifies bearer
// tokens.
type Credentials struct {
	signingKey []byte
	cost       int
	now        func() time.Time
}

// NewCredentials fails when signingKey is empty. bcrypt costs outside the
// library bounds fall back to bcrypt.DefaultCost.
func NewCredentials(signingKey []byte, cost int) (*Credentials, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{signingKey: signingKey, cost: cost, now: time.Now}, nil
}

// HashPassword hashes a password using bcrypt
func (c *Credentials) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func (c *Credentials) VerifyPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// IssueToken signs an HS256 token for the given identity and role that
// expires after TokenTTL.
func (c *Credentials) IssueToken(id, role string) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		ID:   id,
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, algorithm and expiry and returns the
// embedded identity. Every failure is reported as ErrInvalidToken.
func (c *Credentials) VerifyToken(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return c.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.ID, Role: claims.Role}, nil
}
