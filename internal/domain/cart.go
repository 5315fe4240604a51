package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a per-user, per-product quantity record. The cart_items
// table carries a unique index on (user_id, product_id), so there is
// never more than one row per pair.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Product is populated on snapshot reads (joined from products).
	// Nil when the referenced product no longer exists.
	Product *Product `json:"product,omitempty" db:"-"`
}

// WishlistItem marks a product a user wants to keep an eye on. Unique
// per (user, product), no quantity.
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Product *Product `json:"product,omitempty" db:"-"`
}
