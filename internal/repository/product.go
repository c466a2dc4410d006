package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talkincode/toughledger/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRepository handles database operations for products
type ProductRepository interface {
	// FindAll returns a window of products ordered by name
	FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error)

	// FindByID returns nil when no product has the id
	FindByID(ctx context.Context, id string) (*domain.Product, error)

	// FindByName returns nil when no product has the name
	FindByName(ctx context.Context, name string) (*domain.Product, error)

	// FindCount counts all products
	FindCount(ctx context.Context) (int64, error)

	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)

	// UpdateByID returns nil when the product vanished before the read back
	UpdateByID(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)

	// DeleteByID reports whether a row was removed
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormProductRepository(db *gorm.DB, logger *zap.Logger) *GormProductRepository {
	return &GormProductRepository{db: db, logger: logger.Named("products-repo")}
}

func (r *GormProductRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, translateError(err, "find products")
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *GormProductRepository) first(ctx context.Context, query string, arg interface{}) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where(query, arg).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "find product")
	}
	return &product, nil
}

func (r *GormProductRepository) FindCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "count products")
	}
	return count, nil
}

func (r *GormProductRepository) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	product := domain.Product{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Price: in.Price,
	}
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		r.logger.Error("Error in create", zap.Error(err))
		return nil, translateError(err, "create product")
	}
	return r.FindByID(ctx, product.ID)
}

func (r *GormProductRepository) UpdateByID(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":  in.Name,
			"price": in.Price,
		}).Error
	if err != nil {
		r.logger.Error("Error in updateById", zap.String("id", id), zap.Error(err))
		return nil, translateError(err, "update product")
	}
	return r.FindByID(ctx, id)
}

func (r *GormProductRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if result.Error != nil {
		r.logger.Error("Error in deleteById", zap.String("id", id), zap.Error(result.Error))
		return false, translateError(result.Error, "delete product")
	}
	return result.RowsAffected > 0, nil
}
