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

type ProductService struct {
	repo      repository.ProductRepository
	paginator Paginator
	logger    *zap.Logger
}

func NewProductService(repo repository.ProductRepository, paginator Paginator, logger *zap.Logger) *ProductService {
	return &ProductService{repo: repo, paginator: paginator, logger: logger.Named("product-service")}
}

func (s *ProductService) GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.Product], error) {
	window := s.paginator.Resolve(p)
	s.logger.Debug("Fetching all products", zap.Int("limit", window.Limit), zap.Int("offset", window.Offset))
	return listPage(ctx, window, s.repo.FindAll, s.repo.FindCount)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	s.logger.Debug("Fetching product", zap.String("id", id))
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, productNotFound(id)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	s.logger.Debug("Creating product", zap.String("name", in.Name), zap.Int64("price", in.Price))
	product, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, classifyProductError(err, in.Name)
	}
	if product == nil {
		return nil, apperr.NewNotFound("The created product no longer exists", nil)
	}
	return product, nil
}

func (s *ProductService) UpdateByID(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	s.logger.Debug("Updating product", zap.String("id", id), zap.String("name", in.Name), zap.Int64("price", in.Price))
	product, err := s.repo.UpdateByID(ctx, id, in)
	if err != nil {
		return nil, classifyProductError(err, in.Name)
	}
	if product == nil {
		return nil, productNotFound(id)
	}
	return product, nil
}

func (s *ProductService) DeleteByID(ctx context.Context, id string) error {
	s.logger.Debug("Deleting product", zap.String("id", id))
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return productNotFound(id)
	}
	return nil
}

func productNotFound(id string) error {
	return apperr.NewNotFound(fmt.Sprintf("There is no product with id %s", id), map[string]string{"id": id})
}

func classifyProductError(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.NewValidationFailed(
			fmt.Sprintf("A product with name %s already exists", name),
			[]apperr.Violation{{Field: "name", Reason: "must be unique"}},
		)
	}
	return err
}
