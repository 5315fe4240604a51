package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item in the storefront catalog. Products are
// created and edited only through the admin console; shoppers see them
// read-only.
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	CategoryID    uuid.UUID `json:"category_id" db:"category_id"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	IsFeatured    bool      `json:"is_featured" db:"is_featured"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
