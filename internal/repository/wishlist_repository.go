package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daykart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrWishlistItemExists = errors.New("product already on wishlist")
)

// WishlistRepository defines the interface for wishlist data access
type WishlistRepository interface {
	Create(ctx context.Context, item *domain.WishlistItem) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteByProduct(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new instance of WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Create adds a product to a user's wishlist. The unique index on
// (user_id, product_id) makes a repeat add surface as
// ErrWishlistItemExists, which callers treat as success.
func (r *wishlistRepository) Create(ctx context.Context, item *domain.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, item.ID, item.UserID, item.ProductID, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrWishlistItemExists
		}
		return fmt.Errorf("failed to create wishlist item: %w", err)
	}

	return nil
}

// Delete removes a wishlist row scoped to the owning user; idempotent.
func (r *wishlistRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	query := `DELETE FROM wishlist_items WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, itemID, userID); err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}

	return nil
}

// DeleteByProduct removes a wishlist row by product rather than row id
func (r *wishlistRepository) DeleteByProduct(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}

	return nil
}

// ListByUser returns the user's wishlist joined against the catalog
func (r *wishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	query := `
		SELECT wi.id, wi.user_id, wi.product_id, wi.created_at,
		       p.id, p.title, p.description, p.price, p.category_id, p.image_url,
		       p.is_featured, p.stock_quantity, p.created_at, p.updated_at
		FROM wishlist_items wi
		LEFT JOIN products p ON p.id = wi.product_id
		WHERE wi.user_id = $1
		ORDER BY wi.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []*domain.WishlistItem{}
	for rows.Next() {
		item := &domain.WishlistItem{}
		var (
			pID       sql.Null[uuid.UUID]
			pTitle    sql.NullString
			pDesc     sql.NullString
			pPrice    sql.NullFloat64
			pCategory sql.Null[uuid.UUID]
			pImage    sql.NullString
			pFeatured sql.NullBool
			pStock    sql.NullInt64
			pCreated  sql.NullTime
			pUpdated  sql.NullTime
		)

		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.CreatedAt,
			&pID,
			&pTitle,
			&pDesc,
			&pPrice,
			&pCategory,
			&pImage,
			&pFeatured,
			&pStock,
			&pCreated,
			&pUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}

		if pID.Valid {
			item.Product = &domain.Product{
				ID:            pID.V,
				Title:         pTitle.String,
				Description:   pDesc.String,
				Price:         pPrice.Float64,
				CategoryID:    pCategory.V,
				ImageURL:      pImage.String,
				IsFeatured:    pFeatured.Bool,
				StockQuantity: int(pStock.Int64),
				CreatedAt:     pCreated.Time,
				UpdatedAt:     pUpdated.Time,
			}
		}

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist items: %w", err)
	}

	return items, nil
}
