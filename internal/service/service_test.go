package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/auth"
	"github.com/talkincode/toughledger/internal/dbtest"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/repository"
	"go.uber.org/zap"
)

type services struct {
	products     *ProductService
	transactions *TransactionService
	users        *UserService
	sessions     *auth.SessionManager
}

func newServices(t *testing.T) *services {
	t.Helper()
	cfg := config.DefaultConfig(config.EnvTest)
	db := dbtest.Open(t)
	logger := zap.NewNop()

	productRepo := repository.NewGormProductRepository(db, logger)
	paginator := NewPaginator(cfg.Pagination)
	sessions := auth.NewSessionManager(cfg.Auth)

	return &services{
		products: NewProductService(productRepo, paginator, logger),
		transactions: NewTransactionService(
			repository.NewGormTransactionRepository(db, logger), productRepo, paginator, logger),
		users: NewUserService(
			repository.NewGormUserRepository(db, logger), auth.NewPasswordHasher(cfg.Auth.Argon), sessions, paginator, logger),
		sessions: sessions,
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != kind {
		t.Fatalf("expected %s, got %v", kind.Code(), err)
	}
	return appErr
}

func TestProductServiceDefaultsAndWindow(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	for _, p := range []domain.ProductInput{{Name: "Tomaat", Price: 2}, {Name: "Appel", Price: 4}, {Name: "Asperge", Price: 3}} {
		if _, err := s.products.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := s.products.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if page.Limit != 100 || page.Offset != 0 || page.Count != 3 || len(page.Data) != 3 {
		t.Fatalf("unexpected default page %+v", page)
	}

	page, err = s.products.GetAll(ctx, &domain.Pagination{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if page.Limit != 2 || page.Offset != 1 || page.Count != 3 {
		t.Fatalf("unexpected envelope %+v", page)
	}
	if len(page.Data) != 2 || page.Data[0].Name != "Asperge" || page.Data[1].Name != "Tomaat" {
		t.Fatalf("unexpected data %+v", page.Data)
	}
}

func TestProductServiceErrors(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	if _, err := s.products.Create(ctx, domain.ProductInput{Name: "Appel", Price: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := s.products.Create(ctx, domain.ProductInput{Name: "Appel", Price: 1})
	appErr := requireKind(t, err, apperr.ValidationFailed)
	violations, ok := appErr.Details.([]apperr.Violation)
	if !ok || len(violations) != 1 || violations[0].Field != "name" {
		t.Fatalf("unexpected details %#v", appErr.Details)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = s.products.GetByID(ctx, missing)
	requireKind(t, err, apperr.NotFound)
	_, err = s.products.UpdateByID(ctx, missing, domain.ProductInput{Name: "X", Price: 1})
	requireKind(t, err, apperr.NotFound)
	requireKind(t, s.products.DeleteByID(ctx, missing), apperr.NotFound)
}

func TestTransactionServiceClassifiesReferences(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	reg, err := s.users.Register(ctx, domain.NewUser{Name: "A", Email: "a@x.com", Password: "12345678"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	product, err := s.products.Create(ctx, domain.ProductInput{Name: "Appel", Price: 4})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	missing := "00000000-0000-0000-0000-000000000000"
	date := time.Now().Add(-time.Hour)

	_, err = s.transactions.Create(ctx, domain.TransactionInput{Amount: 5, Date: date, UserID: reg.User.ID, ProductID: missing})
	appErr := requireKind(t, err, apperr.ValidationFailed)
	if violations, _ := appErr.Details.([]apperr.Violation); len(violations) != 1 || violations[0].Field != "productId" {
		t.Fatalf("unexpected details %#v", appErr.Details)
	}

	_, err = s.transactions.Create(ctx, domain.TransactionInput{Amount: 5, Date: date, UserID: missing, ProductID: product.ID})
	appErr = requireKind(t, err, apperr.NotFound)
	if appErr.Message != "There is no user with id "+missing {
		t.Fatalf("unexpected message %q", appErr.Message)
	}

	created, err := s.transactions.Create(ctx, domain.TransactionInput{Amount: 102, Date: date, UserID: reg.User.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.User.Name != "A" || created.Product.Name != "Appel" || created.Amount != 102 {
		t.Fatalf("unexpected transaction %+v", created)
	}

	_, err = s.transactions.UpdateByID(ctx, created.ID, domain.TransactionInput{Amount: 7, Date: date, UserID: reg.User.ID, ProductID: missing})
	requireKind(t, err, apperr.ValidationFailed)

	_, err = s.transactions.GetByID(ctx, missing)
	requireKind(t, err, apperr.NotFound)
	_, err = s.transactions.UpdateByID(ctx, missing, domain.TransactionInput{Amount: 7, Date: date, UserID: reg.User.ID, ProductID: product.ID})
	requireKind(t, err, apperr.NotFound)
	requireKind(t, s.transactions.DeleteByID(ctx, missing), apperr.NotFound)

	if err := s.transactions.DeleteByID(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

// vanishingRepo simulates a row deleted between the insert and the read back.
type vanishingRepo struct {
	repository.TransactionRepository
}

func (vanishingRepo) Create(context.Context, domain.TransactionInput) (*domain.Transaction, error) {
	return nil, nil
}

// namelessRepo reports foreign key failures without a constraint name.
type namelessRepo struct {
	repository.TransactionRepository
}

func (namelessRepo) Create(context.Context, domain.TransactionInput) (*domain.Transaction, error) {
	return nil, &repository.ConstraintError{Err: repository.ErrDanglingReference}
}

func TestTransactionServiceReadBackRace(t *testing.T) {
	svc := NewTransactionService(vanishingRepo{}, nil, NewPaginator(config.PaginationConfig{Limit: 10}), zap.NewNop())
	_, err := svc.Create(context.Background(), domain.TransactionInput{Amount: 1})
	requireKind(t, err, apperr.NotFound)
}

func TestTransactionServiceProbesProductWhenUnnamed(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	product, err := s.products.Create(ctx, domain.ProductInput{Name: "Appel", Price: 4})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	svc := NewTransactionService(namelessRepo{}, s.products.repo, s.products.paginator, zap.NewNop())

	_, err = svc.Create(ctx, domain.TransactionInput{Amount: 1, UserID: "u", ProductID: product.ID})
	requireKind(t, err, apperr.NotFound)

	_, err = svc.Create(ctx, domain.TransactionInput{Amount: 1, UserID: "u", ProductID: "nope"})
	requireKind(t, err, apperr.ValidationFailed)
}

func TestUserServiceLoginAndRegister(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	reg, err := s.users.Register(ctx, domain.NewUser{Name: "A", Email: "a@x.com", Password: "12345678"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Token == "" || reg.User.Role != domain.RoleUser {
		t.Fatalf("unexpected result %+v", reg)
	}
	session, err := s.sessions.VerifySession(reg.Token)
	if err != nil || session.UserID != reg.User.ID {
		t.Fatalf("token does not verify: %+v, %v", session, err)
	}

	_, err = s.users.Register(ctx, domain.NewUser{Name: "B", Email: "a@x.com", Password: "12345678"})
	requireKind(t, err, apperr.ValidationFailed)

	login, err := s.users.Login(ctx, "a@x.com", "12345678")
	if err != nil || login.User.ID != reg.User.ID {
		t.Fatalf("login: %+v, %v", login, err)
	}

	_, err = s.users.Login(ctx, "a@x.com", "wrong-password")
	requireKind(t, err, apperr.Unauthorized)
	_, err = s.users.Login(ctx, "nobody@x.com", "12345678")
	requireKind(t, err, apperr.Unauthorized)
}

type countingHasher struct {
	PasswordHasher
	verified []string
}

func (h *countingHasher) VerifyPassword(plain, encoded string) (bool, error) {
	h.verified = append(h.verified, encoded)
	return h.PasswordHasher.VerifyPassword(plain, encoded)
}

func TestUserServiceLoginHashesForUnknownEmail(t *testing.T) {
	cfg := config.DefaultConfig(config.EnvTest)
	logger := zap.NewNop()
	hasher := &countingHasher{PasswordHasher: auth.NewPasswordHasher(cfg.Auth.Argon)}
	users := NewUserService(
		repository.NewGormUserRepository(dbtest.Open(t), logger),
		hasher, auth.NewSessionManager(cfg.Auth), NewPaginator(cfg.Pagination), logger)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := users.Login(ctx, "nobody@x.com", "12345678")
		requireKind(t, err, apperr.Unauthorized)
	}
	if len(hasher.verified) != 2 {
		t.Fatalf("unknown email verified %d times, want 2", len(hasher.verified))
	}
	if hasher.verified[0] == "" || hasher.verified[0] != hasher.verified[1] {
		t.Fatalf("decoy hash not reused: %q", hasher.verified)
	}
}

func TestUserServiceCrud(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	reg, err := s.users.Register(ctx, domain.NewUser{Name: "A", Email: "a@x.com", Password: "12345678"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := s.users.UpdateByID(ctx, reg.User.ID, "Renamed")
	if err != nil || updated.Name != "Renamed" {
		t.Fatalf("update: %+v, %v", updated, err)
	}

	page, err := s.users.GetAll(ctx, &domain.Pagination{Limit: 10, Offset: 0})
	if err != nil || page.Count != 1 || len(page.Data) != 1 {
		t.Fatalf("get all: %+v, %v", page, err)
	}

	if err := s.users.DeleteByID(ctx, reg.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = s.users.GetByID(ctx, reg.User.ID)
	requireKind(t, err, apperr.NotFound)
	requireKind(t, s.users.DeleteByID(ctx, reg.User.ID), apperr.NotFound)
}

func TestListPagePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := listPage(context.Background(), domain.Pagination{Limit: 1},
		func(context.Context, int, int) ([]int, error) { return []int{1}, nil },
		func(context.Context) (int64, error) { return 0, boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
