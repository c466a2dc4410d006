package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/repository"
	"go.uber.org/zap"
)

type TransactionService struct {
	repo      repository.TransactionRepository
	products  repository.ProductRepository
	paginator Paginator
	logger    *zap.Logger
}

func NewTransactionService(
	repo repository.TransactionRepository,
	products repository.ProductRepository,
	paginator Paginator,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		repo:      repo,
		products:  products,
		paginator: paginator,
		logger:    logger.Named("transaction-service"),
	}
}

func (s *TransactionService) GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.Transaction], error) {
	window := s.paginator.Resolve(p)
	s.logger.Debug("Fetching all transactions", zap.Int("limit", window.Limit), zap.Int("offset", window.Offset))
	return listPage(ctx, window, s.repo.FindAll, s.repo.FindCount)
}

func (s *TransactionService) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.logger.Debug("Fetching transaction", zap.String("id", id))
	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, transactionNotFound(id)
	}
	return transaction, nil
}

func (s *TransactionService) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	s.logger.Debug("Creating transaction",
		zap.Int64("amount", in.Amount),
		zap.Time("date", in.Date),
		zap.String("productId", in.ProductID),
		zap.String("userId", in.UserID))

	transaction, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, s.classify(ctx, err, in)
	}
	if transaction == nil {
		return nil, apperr.NewNotFound("The created transaction no longer exists", nil)
	}
	return transaction, nil
}

func (s *TransactionService) UpdateByID(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error) {
	s.logger.Debug("Updating transaction",
		zap.String("id", id),
		zap.Int64("amount", in.Amount),
		zap.Time("date", in.Date),
		zap.String("productId", in.ProductID),
		zap.String("userId", in.UserID))

	transaction, err := s.repo.UpdateByID(ctx, id, in)
	if err != nil {
		return nil, s.classify(ctx, err, in)
	}
	if transaction == nil {
		return nil, transactionNotFound(id)
	}
	return transaction, nil
}

func (s *TransactionService) DeleteByID(ctx context.Context, id string) error {
	s.logger.Debug("Deleting transaction", zap.String("id", id))
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return transactionNotFound(id)
	}
	return nil
}

// classify turns a dangling foreign key into the matching domain error.
// A bad product is a client input problem, a bad user is a missing entity.
func (s *TransactionService) classify(ctx context.Context, err error, in domain.TransactionInput) error {
	if !errors.Is(err, repository.ErrDanglingReference) {
		return err
	}
	ce, _ := repository.AsConstraintError(err)

	productMissing := false
	switch {
	case ce != nil && ce.Mentions("product"):
		productMissing = true
	case ce != nil && ce.Mentions("user"):
	default:
		product, probeErr := s.products.FindByID(ctx, in.ProductID)
		if probeErr != nil {
			return probeErr
		}
		productMissing = product == nil
	}

	if productMissing {
		return apperr.NewValidationFailed(
			fmt.Sprintf("There is no product with id %s", in.ProductID),
			[]apperr.Violation{{Field: "productId", Reason: "must reference an existing product"}},
		)
	}
	return apperr.NewNotFound(fmt.Sprintf("There is no user with id %s", in.UserID), map[string]string{"id": in.UserID})
}

func transactionNotFound(id string) error {
	return apperr.NewNotFound(fmt.Sprintf("There is no transaction with id %s", id), map[string]string{"id": id})
}
