package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daykart/internal/domain"
	"daykart/internal/notify"
	"daykart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// CartNotifier receives a change-feed event after every successful cart
// mutation. notify.CartFeed is the production implementation.
type CartNotifier interface {
	Publish(ctx context.Context, event notify.CartEvent)
}

// CartService maintains the authoritative (user, product) -> quantity
// mapping and the cart total derived from it.
//
// Merge policy: re-adding a product increments the stored quantity by
// the added amount. This is applied uniformly at every call site; a
// repeat add never silently overwrites an earlier one.
type CartService interface {
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	GetCartTotal(ctx context.Context, userID uuid.UUID) (float64, error)
	GetCartCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	feed        CartNotifier
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	feed CartNotifier,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		feed:        feed,
		logger:      logger,
	}
}

// AddToCart inserts a cart row for (user, product), or increments the
// existing row's quantity. The write is a single upsert against the
// unique (user_id, product_id) index, so the one-row-per-pair invariant
// holds even under concurrent adds.
func (s *cartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	// Reject adds for products that do not exist
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if err == repository.ErrProductNotFound {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to verify product: %w", err)
	}

	now := time.Now()
	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cartRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	s.publish(ctx, userID, notify.CartItemAdded, productID)
	return nil
}

// RemoveFromCart deletes the row scoped to the owning user. Removing a
// row that is absent, or that belongs to someone else, is a no-op, not
// an error.
func (s *cartService) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userID, itemID); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}

	s.publish(ctx, userID, notify.CartItemRemoved, uuid.Nil)
	return nil
}

// UpdateQuantity sets an item's quantity. Zero and negative quantities
// are rejected; callers must use RemoveFromCart to drop an item.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
		if err == repository.ErrCartItemNotFound {
			return repository.ErrCartItemNotFound
		}
		return fmt.Errorf("failed to update quantity: %w", err)
	}

	s.publish(ctx, userID, notify.CartItemUpdated, uuid.Nil)
	return nil
}

// ClearCart empties the user's cart
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.publish(ctx, userID, notify.CartCleared, uuid.Nil)
	return nil
}

// GetCart returns the user's current cart snapshot with joined products
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return items, nil
}

// GetCartTotal computes the total over the current snapshot. An empty
// cart totals 0. A row whose product is gone contributes 0 rather than
// failing the whole read; the inconsistency is logged.
func (s *cartService) GetCartTotal(ctx context.Context, userID uuid.UUID) (float64, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get cart total: %w", err)
	}

	return s.totalOf(userID, items), nil
}

// GetCartCount returns the number of distinct items in the cart
func (s *cartService) GetCartCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.cartRepo.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart: %w", err)
	}
	return count, nil
}

func (s *cartService) totalOf(userID uuid.UUID, items []*domain.CartItem) float64 {
	var total float64
	for _, item := range items {
		if item.Product == nil {
			s.logger.Warn("Cart row references missing product, counting price as 0",
				zap.String("user_id", userID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			continue
		}
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

func (s *cartService) publish(ctx context.Context, userID uuid.UUID, action notify.CartAction, productID uuid.UUID) {
	if s.feed == nil {
		return
	}

	count, err := s.cartRepo.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to count cart for change event", zap.Error(err))
	}

	s.feed.Publish(ctx, notify.CartEvent{
		UserID:    userID,
		Action:    action,
		ProductID: productID,
		ItemCount: count,
	})
}
