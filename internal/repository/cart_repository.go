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
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access. The
// cart_items table has a unique index on (user_id, product_id); every
// write here preserves the one-row-per-pair invariant.
type CartRepository interface {
	Upsert(ctx context.Context, item *domain.CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert inserts a cart row, or increments the quantity of the existing
// row for the same (user, product) pair. A single statement, so two
// concurrent adds both land instead of one overwriting the other.
func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// UpdateQuantity sets the quantity of a cart row, scoped to the owning
// user. Quantity validation happens in the service layer.
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, itemID, userID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// Delete removes a cart row scoped to the owning user. Deleting a row
// that does not exist, or belongs to someone else, is a no-op.
func (r *cartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, itemID, userID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return nil
}

// DeleteAllForUser empties a user's cart
func (r *cartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// ListByUser returns the user's cart snapshot joined against the product
// catalog. A left join, so a row whose product has vanished still comes
// back (with a nil Product) instead of silently dropping from the cart.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.title, p.description, p.price, p.category_id, p.image_url,
		       p.is_featured, p.stock_quantity, p.created_at, p.updated_at
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{}
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
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
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
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
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
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// CountByUser returns the number of distinct cart rows for a user
func (r *cartRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	return count, nil
}
