// Package ledgerapi registers the HTTP routes of the ledger.
package ledgerapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/validation"
	"github.com/talkincode/toughledger/internal/webserver"
)

type ProductService interface {
	GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.Product], error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateByID(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)
	DeleteByID(ctx context.Context, id string) error
}

type TransactionService interface {
	GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.Transaction], error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)
	UpdateByID(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error)
	DeleteByID(ctx context.Context, id string) error
}

type UserService interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, in domain.NewUser) (*domain.AuthResult, error)
	GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.User], error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateByID(ctx context.Context, id string, name string) (*domain.User, error)
	DeleteByID(ctx context.Context, id string) error
}

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Gate         *validation.Gate
	Sessions     webserver.SessionVerifier
	Products     ProductService
	Transactions TransactionService
	Users        UserService
}

type handlers struct {
	Deps
}

// Register installs every ledger route on s.
func Register(s *webserver.Server, deps Deps) {
	h := &handlers{Deps: deps}
	h.registerHealthRoutes(s)
	h.registerUserRoutes(s)
	h.registerProductRoutes(s)
	h.registerTransactionRoutes(s)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func noContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
