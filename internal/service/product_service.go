package service

import (
	"context"
	"fmt"
	"time"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/google/uuid"
)

// ProductInput is the admin-facing product payload.
type ProductInput struct {
	Title         string
	Description   string
	Price         float64
	CategoryID    uuid.UUID
	ImageURL      string
	IsFeatured    bool
	StockQuantity int
}

// ProductService exposes the catalog: public browsing plus admin CRUD.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, categorySlug string, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	Categories(ctx context.Context) ([]*domain.Category, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// Create adds a product to the catalog (admin only, enforced upstream)
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:            uuid.New(),
		Title:         input.Title,
		Description:   input.Description,
		Price:         input.Price,
		CategoryID:    input.CategoryID,
		ImageURL:      input.ImageURL,
		IsFeatured:    input.IsFeatured,
		StockQuantity: input.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update replaces the mutable fields of an existing product
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Title = input.Title
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.IsFeatured = input.IsFeatured
	product.StockQuantity = input.StockQuantity
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// Get retrieves a single product
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves products, optionally filtered by category slug
func (s *productService) List(ctx context.Context, categorySlug string, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	var categoryID *uuid.UUID
	if categorySlug != "" {
		category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
		if err != nil {
			return nil, 0, err
		}
		categoryID = &category.ID
	}

	return s.productRepo.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
}

// ListFeatured retrieves front-page products
func (s *productService) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.productRepo.ListFeatured(ctx, limit)
}

// Search finds products by title or description
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// Categories lists all categories
func (s *productService) Categories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}
