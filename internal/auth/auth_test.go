package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/domain"
)

func testAuthConfig() config.AuthConfig {
	return config.DefaultConfig(config.EnvTest).Auth
}

func TestPasswordRoundTrip(t *testing.T) {
	h := NewPasswordHasher(testAuthConfig().Argon)

	for _, plain := range []string{"12345678", "correct horse battery staple", "ünïcødé-pässwörd"} {
		encoded, err := h.HashPassword(plain)
		if err != nil {
			t.Fatalf("hash %q: %v", plain, err)
		}
		if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
			t.Fatalf("unexpected encoding %q", encoded)
		}
		ok, err := h.VerifyPassword(plain, encoded)
		if err != nil || !ok {
			t.Fatalf("verify %q: ok=%v err=%v", plain, ok, err)
		}
		ok, err = h.VerifyPassword(plain+"x", encoded)
		if err != nil || ok {
			t.Fatalf("verify wrong password: ok=%v err=%v", ok, err)
		}
	}
}

func TestPasswordSaltsDiffer(t *testing.T) {
	h := NewPasswordHasher(testAuthConfig().Argon)
	a, _ := h.HashPassword("12345678")
	b, _ := h.HashPassword("12345678")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewPasswordHasher(testAuthConfig().Argon)
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$aGFzaA",
	} {
		if _, err := h.VerifyPassword("x", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("VerifyPassword(%q) err = %v, want ErrMalformedHash", encoded, err)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager(testAuthConfig())

	token, err := m.IssueSession("7f28c5f9-d711-4cd6-ac15-d13d71abff80", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	session, err := m.VerifySession(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if session.UserID != "7f28c5f9-d711-4cd6-ac15-d13d71abff80" || session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestSessionExpired(t *testing.T) {
	cfg := testAuthConfig()
	m := NewSessionManager(cfg)
	token, err := m.IssueSession("u1", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := m.WithClock(func() time.Time { return time.Now().Add(cfg.JwtExpiration + time.Minute) })
	_, err = later.VerifySession(token)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.Unauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if appErr.Message != "The session has expired" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestSessionRejected(t *testing.T) {
	cfg := testAuthConfig()
	m := NewSessionManager(cfg)
	token, _ := m.IssueSession("u1", domain.RoleUser)

	otherSecret := cfg
	otherSecret.JwtSecret = "another-secret"
	otherIssuer := cfg
	otherIssuer.JwtIssuer = "someone-else"
	otherAudience := cfg
	otherAudience.JwtAudience = "other.api"

	foreign, _ := NewSessionManager(otherSecret).IssueSession("u1", domain.RoleAdmin)
	wrongIssuer, _ := NewSessionManager(otherIssuer).IssueSession("u1", domain.RoleUser)
	wrongAudience, _ := NewSessionManager(otherAudience).IssueSession("u1", domain.RoleUser)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u1",
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JwtIssuer,
			Audience:  jwt.ClaimStrings{cfg.JwtAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		Role:   domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cfg.JwtIssuer,
			Audience: jwt.ClaimStrings{cfg.JwtAudience},
		},
	}).SignedString([]byte(cfg.JwtSecret))

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		Role:   domain.Role("root"),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JwtIssuer,
			Audience:  jwt.ClaimStrings{cfg.JwtAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.JwtSecret))

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	cases := map[string]string{
		"garbage":        "not-a-token",
		"tampered":       tampered,
		"foreign secret": foreign,
		"wrong issuer":   wrongIssuer,
		"wrong audience": wrongAudience,
		"alg none":       none,
		"no expiry":      noExpiry,
		"unknown role":   badRole,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.VerifySession(tok)
			if apperr.KindOf(err) != apperr.Unauthorized {
				t.Fatalf("expected UNAUTHORIZED, got %v", err)
			}
		})
	}
}
