package webserver

import (
	"context"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/auth"
	"github.com/talkincode/toughledger/internal/domain"
)

// SessionVerifier checks a bearer token.
type SessionVerifier interface {
	VerifySession(token string) (*auth.Session, error)
}

const sessionKey = "session"

type sessionCtxKey struct{}

// WithSession attaches session to ctx.
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session stored by RequireAuthentication.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*auth.Session)
	return session, ok && session != nil
}

// SessionFrom returns the session of the current request.
func SessionFrom(c echo.Context) (*auth.Session, bool) {
	if session, ok := c.Get(sessionKey).(*auth.Session); ok && session != nil {
		return session, true
	}
	return SessionFromContext(c.Request().Context())
}

// RequireAuthentication rejects requests without a valid bearer token.
func RequireAuthentication(verifier SessionVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  sessionKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			session, err := verifier.VerifySession(token)
			if err != nil {
				return nil, err
			}
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))
			return session, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if appErr, ok := apperr.As(err); ok {
				return appErr
			}
			return apperr.NewUnauthorized("You need to be signed in", nil)
		},
	})
}

// RequireRole lets the request through when the session role satisfies role.
// It must be installed after RequireAuthentication.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := SessionFrom(c)
			if !ok {
				return apperr.NewUnauthorized("You need to be signed in", nil)
			}
			if !session.Role.Satisfies(role) {
				return forbidden()
			}
			return next(c)
		}
	}
}

func forbidden() error {
	return apperr.NewForbidden("You are not allowed to view this part of the application", nil)
}
