package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager handles generation and validation of JWT tokens.
// Access, refresh and reset tokens are signed with independent secrets;
// a token signed for one purpose never verifies under another.
type TokenManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	ResetSecret   []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

var defaultManager *TokenManager

func NewTokenManager(accessSecret, refreshSecret, resetSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	m := &TokenManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		ResetSecret:   []byte(resetSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		ResetTTL:      resetTTL,
	}
	defaultManager = m
	return m
}

// DefaultTokenManager returns the last constructed TokenManager (used for auto-wiring routes)
func DefaultTokenManager() *TokenManager { return defaultManager }

// SessionClaims are carried by access and refresh tokens. The role claim is
// informational only; authorization re-reads the role from the account record.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ResetClaims carry nothing beyond the account id in the subject.
type ResetClaims struct {
	jwt.RegisteredClaims
}

func (m *TokenManager) GenerateAccessToken(accountID, email, role string) (string, time.Time, error) {
	return m.signSession(accountID, email, role, m.AccessSecret, m.AccessTTL)
}

func (m *TokenManager) GenerateRefreshToken(accountID, email, role string) (string, time.Time, error) {
	return m.signSession(accountID, email, role, m.RefreshSecret, m.RefreshTTL)
}

func (m *TokenManager) signSession(accountID, email, role string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := &SessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// jti makes every issued token unique even for identical
			// subjects within the same second
			ID: uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func (m *TokenManager) GenerateResetToken(accountID string) (string, time.Time, error) {
	exp := time.Now().Add(m.ResetTTL)
	claims := &ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.ResetSecret)
	return s, exp, err
}

func (m *TokenManager) ParseAccessToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseToken(tokenStr, claims, m.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) ParseRefreshToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseToken(tokenStr, claims, m.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) ParseResetToken(tokenStr string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := parseToken(tokenStr, claims, m.ResetSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// parseToken collapses signature mismatch, malformed structure and elapsed
// expiry into a single error; callers surface it as "invalid or expired".
func parseToken(tokenStr string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
