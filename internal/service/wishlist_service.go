package service

import (
	"context"
	"fmt"
	"time"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/google/uuid"
)

// WishlistService manages the per-user wishlist. Adds are idempotent: a
// repeat add of the same product is reported as success.
type WishlistService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	RemoveByProduct(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// Add puts a product on the user's wishlist. The duplicate-row error
// from the unique (user_id, product_id) index is recovered here as a
// no-op success.
func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}

	item := &domain.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	if err := s.wishlistRepo.Create(ctx, item); err != nil {
		if err == repository.ErrWishlistItemExists {
			return nil
		}
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}

	return nil
}

// Remove deletes a wishlist row scoped to the owning user; idempotent
func (s *wishlistService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.wishlistRepo.Delete(ctx, userID, itemID)
}

// RemoveByProduct deletes by product id rather than row id
func (s *wishlistService) RemoveByProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return s.wishlistRepo.DeleteByProduct(ctx, userID, productID)
}

// List returns the user's wishlist with joined products
func (s *wishlistService) List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(ctx, userID)
}
