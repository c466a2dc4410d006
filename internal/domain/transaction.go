package domain

import "time"

// TransactionRecord is the stored row of the transactions table. Deleting the
// referenced user or product removes the row.
type TransactionRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Amount    int64     `gorm:"not null"`
	Date      time.Time `gorm:"not null;index"`
	UserID    string    `gorm:"size:36;not null;index"`
	ProductID string    `gorm:"size:36;not null;index"`
	User      *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Product   *Product  `gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TransactionRecord) TableName() string {
	return "transactions"
}

// EmbeddedRef is the {id, name} view of a related row.
type EmbeddedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transaction is a signed monetary movement as returned to clients.
// Positive amounts are deposits, negative amounts withdrawals.
type Transaction struct {
	ID      string      `json:"id"`
	Amount  int64       `json:"amount"`
	Date    time.Time   `json:"date"`
	User    EmbeddedRef `json:"user"`
	Product EmbeddedRef `json:"product"`
}

// TransactionInput carries the writable fields of a transaction.
type TransactionInput struct {
	Amount    int64
	Date      time.Time
	UserID    string
	ProductID string
}
