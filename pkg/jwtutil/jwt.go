package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/pkg/config"
)

var (
	signingKey []byte
	expiration time.Duration
)

// ErrInvalidToken is returned when a token fails validation for any reason.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims for storefront authentication. ScopeID
// pins the token to one tenant scope; the auth middleware rejects tokens
// presented against a different tenant.
type Claims struct {
	SubjectID uint   `json:"subject_id"`
	Email     string `json:"email"`
	ScopeID   string `json:"scope_id"`
	Role      string `json:"role,omitempty"` // "customer", "owner" or "staff"
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime.
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	expiration = time.Duration(cfg.ExpirationHours) * time.Hour
}

// GenerateToken signs a token for a subject within one tenant scope.
func GenerateToken(subjectID uint, email, scopeID, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SubjectID: subjectID,
		Email:     email,
		ScopeID:   scopeID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
