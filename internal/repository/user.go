package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/talkincode/toughledger/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRepository handles database operations for user accounts
type UserRepository interface {
	FindAll(ctx context.Context, limit, offset int) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindCount(ctx context.Context) (int64, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateByID(ctx context.Context, id string, name string) (*domain.User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormUserRepository(db *gorm.DB, logger *zap.Logger) *GormUserRepository {
	return &GormUserRepository{db: db, logger: logger.Named("users-repo")}
}

func (r *GormUserRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, translateError(err, "find users")
	}
	return users, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail matches case-insensitively; emails are stored lower case.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "find user")
	}
	return &user, nil
}

func (r *GormUserRepository) FindCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "count users")
	}
	return count, nil
}

// Create stores user with a fresh id; Role defaults to user.
func (r *GormUserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		r.logger.Error("Error in create", zap.Error(err))
		return nil, translateError(err, "create user")
	}
	return r.FindByID(ctx, user.ID)
}

func (r *GormUserRepository) UpdateByID(ctx context.Context, id string, name string) (*domain.User, error) {
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("name", name).Error
	if err != nil {
		r.logger.Error("Error in updateById", zap.String("id", id), zap.Error(err))
		return nil, translateError(err, "update user")
	}
	return r.FindByID(ctx, id)
}

func (r *GormUserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if result.Error != nil {
		r.logger.Error("Error in deleteById", zap.String("id", id), zap.Error(result.Error))
		return false, translateError(result.Error, "delete user")
	}
	return result.RowsAffected > 0, nil
}
