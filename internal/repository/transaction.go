package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/talkincode/toughledger/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository handles database operations for transactions.
// Every read joins users and products and returns the embedded view.
type TransactionRepository interface {
	// FindAll returns a window ordered by date, then id
	FindAll(ctx context.Context, limit, offset int) ([]domain.Transaction, error)

	// FindByID returns nil, nil when no row matches
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)

	// FindCount counts all transactions regardless of any window
	FindCount(ctx context.Context) (int64, error)

	// Create persists the foreign keys and re-reads the joined view
	Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)

	// UpdateByID persists the foreign keys and re-reads the joined view
	UpdateByID(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error)

	// DeleteByID reports whether a row was removed
	DeleteByID(ctx context.Context, id string) (bool, error)
}

const transactionColumns = "transactions.id AS id, transactions.amount AS amount, transactions.date AS date, " +
	"products.id AS product_id, products.name AS product_name, " +
	"users.id AS user_id, users.name AS user_name"

// transactionRow is one flat row of the joined select.
type transactionRow struct {
	ID          string
	Amount      int64
	Date        time.Time
	ProductID   string
	ProductName string
	UserID      string
	UserName    string
}

func formatTransaction(row transactionRow) domain.Transaction {
	return domain.Transaction{
		ID:     row.ID,
		Amount: row.Amount,
		Date:   row.Date.UTC(),
		Product: domain.EmbeddedRef{
			ID:   row.ProductID,
			Name: row.ProductName,
		},
		User: domain.EmbeddedRef{
			ID:   row.UserID,
			Name: row.UserName,
		},
	}
}

type GormTransactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormTransactionRepository(db *gorm.DB, logger *zap.Logger) *GormTransactionRepository {
	return &GormTransactionRepository{db: db, logger: logger.Named("transactions-repo")}
}

func (r *GormTransactionRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("transactions").
		Select(transactionColumns).
		Joins("INNER JOIN products ON transactions.product_id = products.id").
		Joins("INNER JOIN users ON transactions.user_id = users.id")
}

func (r *GormTransactionRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.joined(ctx).
		Order("transactions.date ASC").
		Order("transactions.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "find transactions")
	}

	transactions := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, formatTransaction(row))
	}
	return transactions, nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var rows []transactionRow
	err := r.joined(ctx).
		Where("transactions.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "find transaction")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	transaction := formatTransaction(rows[0])
	return &transaction, nil
}

func (r *GormTransactionRepository) FindCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.TransactionRecord{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "count transactions")
	}
	return count, nil
}

func (r *GormTransactionRepository) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	record := domain.TransactionRecord{
		ID:        uuid.NewString(),
		Amount:    in.Amount,
		Date:      in.Date.UTC(),
		UserID:    in.UserID,
		ProductID: in.ProductID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		r.logger.Error("Error in create", zap.Error(err))
		return nil, translateError(err, "create transaction")
	}
	return r.FindByID(ctx, record.ID)
}

func (r *GormTransactionRepository) UpdateByID(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error) {
	err := r.db.WithContext(ctx).
		Model(&domain.TransactionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount":     in.Amount,
			"date":       in.Date.UTC(),
			"user_id":    in.UserID,
			"product_id": in.ProductID,
		}).Error
	if err != nil {
		r.logger.Error("Error in updateById", zap.String("id", id), zap.Error(err))
		return nil, translateError(err, "update transaction")
	}
	return r.FindByID(ctx, id)
}

func (r *GormTransactionRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TransactionRecord{})
	if result.Error != nil {
		r.logger.Error("Error in deleteById", zap.String("id", id), zap.Error(result.Error))
		return false, translateError(result.Error, "delete transaction")
	}
	return result.RowsAffected > 0, nil
}
