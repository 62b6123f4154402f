package domain

import "time"

// Product catalog item. Read-only for the checkout flow; stock is only checked, never decremented here.
type Product struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"index" json:"name"`
	Slug       string    `gorm:"size:200;index" json:"slug"`
	Price      float64   `json:"price"` // price in main currency units
	Stock      int       `gorm:"default:0" json:"stock"`
	CategoryID *int64    `gorm:"index" json:"categoryId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "productos"
}

// Category groups products for the storefront
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"index" json:"name"`
	Slug      string    `gorm:"size:200;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categorias"
}
