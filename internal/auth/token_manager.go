package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of every access token the service issues
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	Scope  string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// UserIDUint parses the userId claim
func (c *Claims) UserIDUint() (uint, error) {
	id, err := strconv.ParseUint(c.UserID, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid userId claim %q", c.UserID)
	}
	return uint(id), nil
}

// TokenManager signs and verifies HS256 access tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a token for the user that expires after the configured TTL
func (m *TokenManager) Issue(userID uint, role string) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: strconv.FormatUint(uint64(userID), 10),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return m.Sign(claims)
}

// Sign signs arbitrary claims with the service key
func (m *TokenManager) Sign(claims *Claims) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("cannot sign token without userId")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Errors wrap the jwt sentinel errors so callers can tell expiry from tampering.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC keys are valid here
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
