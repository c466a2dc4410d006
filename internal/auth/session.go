package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/domain"
)

// Session is the verified identity of a caller.
type Session struct {
	UserID    string      `json:"userId"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"-"`
}

// Claims is the JWT payload of a session token.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens.
type SessionManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(cfg config.AuthConfig) *SessionManager {
	return &SessionManager{
		secret:   []byte(cfg.JwtSecret),
		issuer:   cfg.JwtIssuer,
		audience: cfg.JwtAudience,
		ttl:      cfg.JwtExpiration,
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests to move past expiry.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	cp := *m
	cp.now = now
	return &cp
}

// IssueSession signs a token asserting userID and role.
func (m *SessionManager) IssueSession(userID string, role domain.Role) (string, error) {
	issuedAt := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session")
	}
	return signed, nil
}

// VerifySession checks signature, algorithm, issuer, audience and expiry.
// Every failure is an UNAUTHORIZED domain error.
func (m *SessionManager) VerifySession(token string) (*Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.NewUnauthorized("The session has expired", nil)
	case err != nil:
		return nil, apperr.NewUnauthorized("Invalid authentication token", nil)
	}

	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, apperr.NewUnauthorized("Invalid authentication token", nil)
	}
	return &Session{
		UserID:    claims.UserID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
