package domain

import "time"

// Product is a catalog item referenced by transactions.
type Product struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_products_name_unique" json:"name"`
	Price     int64     `gorm:"not null" json:"price"` // minor currency units
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name  string
	Price int64
}
