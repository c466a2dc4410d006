package webserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/auth"
	"github.com/talkincode/toughledger/internal/domain"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, env string) (*Server, *auth.SessionManager) {
	t.Helper()
	cfg := config.DefaultConfig(env)
	cfg.Auth.JwtSecret = "test-secret"
	s, err := NewServer(cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s, auth.NewSessionManager(cfg.Auth)
}

func do(t *testing.T, s *Server, method, target, token string) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body ErrorBody
	if rec.Code >= 400 && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestErrorMappingByKind(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"not-found":    {apperr.NewNotFound("gone", nil), http.StatusNotFound, "NOT_FOUND"},
		"validation":   {apperr.NewValidationFailed("bad", []apperr.Violation{{Field: "name", Reason: "is required"}}), http.StatusBadRequest, "VALIDATION_FAILED"},
		"unauthorized": {apperr.NewUnauthorized("who", nil), http.StatusUnauthorized, "UNAUTHORIZED"},
		"forbidden":    {apperr.NewForbidden("no", nil), http.StatusForbidden, "FORBIDDEN"},
		"internal":     {errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for name, tc := range cases {
		err := tc.err
		s.ApiGET("/fail/"+name, func(c echo.Context) error { return err })
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodGet, "/api/fail/"+name, "")
			if rec.Code != tc.status || body.Code != tc.code {
				t.Fatalf("got %d %s, want %d %s", rec.Code, body.Code, tc.status, tc.code)
			}
			if body.Details == nil {
				t.Fatal("details must default to an object")
			}
			if body.Stack == "" {
				t.Fatal("stack expected outside production")
			}
		})
	}
}

func TestErrorMappingHidesInternalsInProduction(t *testing.T) {
	s, _ := newTestServer(t, config.EnvProduction)
	s.ApiGET("/boom", func(c echo.Context) error { return errors.New("pq: relation does not exist") })
	s.ApiGET("/gone", func(c echo.Context) error { return apperr.NewNotFound("gone", nil) })

	rec, body := do(t, s, http.MethodGet, "/api/boom", "")
	if rec.Code != http.StatusInternalServerError || body.Message != "Internal server error" || body.Stack != "" {
		t.Fatalf("leaked internals: %d %+v", rec.Code, body)
	}
	if strings.Contains(rec.Body.String(), "relation") {
		t.Fatalf("store error text leaked: %s", rec.Body.String())
	}

	_, body = do(t, s, http.MethodGet, "/api/gone", "")
	if body.Stack != "" || body.Message != "gone" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	rec, body := do(t, s, http.MethodGet, "/api/nowhere?x=1", "")
	if rec.Code != http.StatusNotFound || body.Code != "NOT_FOUND" {
		t.Fatalf("got %d %+v", rec.Code, body)
	}
	if body.Message != "Unknown resource: /api/nowhere?x=1" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestRequireAuthentication(t *testing.T) {
	s, sessions := newTestServer(t, config.EnvDevelopment)
	reached := false
	s.ApiGET("/me", func(c echo.Context) error {
		reached = true
		session, ok := SessionFrom(c)
		if !ok {
			return errors.New("no session on echo context")
		}
		if ctxSession, ok := SessionFromContext(c.Request().Context()); !ok || ctxSession.UserID != session.UserID {
			return errors.New("no session on request context")
		}
		return c.JSON(http.StatusOK, session)
	}, RequireAuthentication(sessions))

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodGet, "/api/me", header)
			if rec.Code != http.StatusUnauthorized || body.Code != "UNAUTHORIZED" {
				t.Fatalf("got %d %+v", rec.Code, body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("basic auth accepted: %d", rec.Code)
	}
	if reached {
		t.Fatal("handler ran without a session")
	}

	token, _ := sessions.IssueSession("u1", domain.RoleUser)
	rec, _ = do(t, s, http.MethodGet, "/api/me", token)
	if rec.Code != http.StatusOK || !reached {
		t.Fatalf("valid token rejected: %d %s", rec.Code, rec.Body.String())
	}
	var got auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode session %q: %v", rec.Body.String(), err)
	}
	if got.UserID != "u1" || got.Role != domain.RoleUser {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestRequireRole(t *testing.T) {
	s, sessions := newTestServer(t, config.EnvDevelopment)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	s.ApiGET("/admin", ok, RequireAuthentication(sessions), RequireRole(domain.RoleAdmin))
	s.ApiGET("/unguarded", ok, RequireRole(domain.RoleUser))

	user, _ := sessions.IssueSession("u1", domain.RoleUser)
	admin, _ := sessions.IssueSession("a1", domain.RoleAdmin)

	cases := []struct {
		target, token string
		status        int
	}{
		{"/api/admin", user, http.StatusForbidden},
		{"/api/admin", admin, http.StatusNoContent},
		{"/api/unguarded", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec, body := do(t, s, http.MethodGet, tc.target, tc.token)
		if rec.Code != tc.status {
			t.Errorf("%s: got %d %+v, want %d", tc.target, rec.Code, body, tc.status)
		}
	}
}

func TestStatusForIsExhaustive(t *testing.T) {
	for kind, status := range map[apperr.Kind]int{
		apperr.NotFound:         404,
		apperr.ValidationFailed: 400,
		apperr.Unauthorized:     401,
		apperr.Forbidden:        403,
		apperr.Kind(99):         500,
	} {
		if got := StatusFor(kind); got != status {
			t.Errorf("StatusFor(%d) = %d, want %d", kind, got, status)
		}
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	s.ApiGET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlMaxAge); got != "10800" {
		t.Fatalf("max age = %q", got)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderAccessControlAllowHeaders), echo.HeaderAuthorization) {
		t.Fatalf("allow headers = %q", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("missing request id")
	}
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	s.ApiPOST("/upload", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	send := func(size int) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(strings.Repeat("x", size)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	if rec := send(1024); rec.Code != http.StatusNoContent {
		t.Fatalf("small body: %d", rec.Code)
	}
	rec := send(2 << 20)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if body.Code != "REQUEST_ENTITY_TOO_LARGE" {
		t.Fatalf("code = %s", body.Code)
	}
}

func TestTrailingSlashIsIgnored(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	s.ApiGET("/items", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for _, target := range []string{"/api/items", "/api/items/"} {
		if rec, body := do(t, s, http.MethodGet, target, ""); rec.Code != http.StatusNoContent {
			t.Errorf("%s: got %d %+v", target, rec.Code, body)
		}
	}
}
