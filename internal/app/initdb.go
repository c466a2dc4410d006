package app

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talkincode/toughledger/internal/domain"
	"go.uber.org/zap"
)

// checkAdmin creates the configured administrator account once. An empty
// admin email or password disables it.
func (a *Application) checkAdmin() {
	cfg := a.appConfig.Auth
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return
	}

	var count int64
	if err := a.gormDB.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		a.logger.Error("failed to query admin account", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	hash, err := a.hasher.HashPassword(cfg.AdminPassword)
	if err != nil {
		a.logger.Error("failed to hash admin password", zap.Error(err))
		return
	}
	name := cfg.AdminName
	if name == "" {
		name = "Admin"
	}
	if err := a.gormDB.Create(&domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}).Error; err != nil {
		a.logger.Error("failed to create admin account", zap.Error(err))
		return
	}
	a.logger.Info("initialized admin account", zap.String("email", email))
}

var seedProducts = []domain.ProductInput{
	{Name: "Appel", Price: 4},
	{Name: "Asperge", Price: 3},
	{Name: "Tomaat", Price: 2},
}

// checkProducts fills an empty catalogue with the demo products.
func (a *Application) checkProducts() {
	var count int64
	if err := a.gormDB.Model(&domain.Product{}).Count(&count).Error; err != nil {
		a.logger.Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	now := time.Now()
	products := make([]domain.Product, 0, len(seedProducts))
	for _, p := range seedProducts {
		products = append(products, domain.Product{
			ID:        uuid.NewString(),
			Name:      p.Name,
			Price:     p.Price,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := a.gormDB.Create(&products).Error; err != nil {
		a.logger.Error("failed to seed products", zap.Error(err))
		return
	}
	a.logger.Info("seeded product catalogue", zap.Int("count", len(products)))
}
