package service

import (
	"context"
	"testing"
	"time"

	"daykart/internal/domain"
	"daykart/internal/notify"
	"daykart/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// Mock repositories for testing

type pairKey struct {
	userID    uuid.UUID
	productID uuid.UUID
}

type mockCartRepository struct {
	items map[pairKey]*domain.CartItem
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		items: make(map[pairKey]*domain.CartItem),
	}
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	key := pairKey{item.UserID, item.ProductID}
	if existing, ok := m.items[key]; ok {
		existing.Quantity += item.Quantity
		existing.UpdatedAt = item.UpdatedAt
		return nil
	}
	copied := *item
	m.items[key] = &copied
	return nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	for _, item := range m.items {
		if item.ID == itemID && item.UserID == userID {
			item.Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	for key, item := range m.items {
		if item.ID == itemID && item.UserID == userID {
			delete(m.items, key)
			return nil
		}
	}
	// Absent rows delete as a no-op
	return nil
}

func (m *mockCartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	for key := range m.items {
		if key.userID == userID {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	var items []*domain.CartItem
	for _, item := range m.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *mockCartRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, item := range m.items {
		if item.UserID == userID {
			count++
		}
	}
	return count, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) add(price float64) *domain.Product {
	p := &domain.Product{
		ID:        uuid.New(),
		Title:     "product",
		Price:     price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	var products []*domain.Product
	for _, p := range m.products {
		products = append(products, p)
	}
	return products, len(products), nil
}

func (m *mockProductRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	for _, p := range m.products {
		if p.IsFeatured {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return nil, 0, nil
}

type recordingNotifier struct {
	events []notify.CartEvent
}

func (n *recordingNotifier) Publish(ctx context.Context, event notify.CartEvent) {
	n.events = append(n.events, event)
}

func newCartServiceForTest() (CartService, *mockCartRepository, *mockProductRepository, *recordingNotifier) {
	cartRepo := newMockCartRepository()
	productRepo := newMockProductRepository()
	notifier := &recordingNotifier{}
	svc := NewCartService(cartRepo, productRepo, notifier, zap.NewNop())
	return svc, cartRepo, productRepo, notifier
}

func TestProperty_RepeatedAddsKeepOneRowPerProduct(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding the same product n times leaves one row whose quantity is the sum", prop.ForAll(
		func(quantities []int) bool {
			svc, cartRepo, productRepo, _ := newCartServiceForTest()
			ctx := context.Background()
			userID := uuid.New()
			product := productRepo.add(49.0)

			expected := 0
			for _, q := range quantities {
				if err := svc.AddToCart(ctx, userID, product.ID, q); err != nil {
					t.Logf("FAIL: AddToCart returned error for quantity %d: %v", q, err)
					return false
				}
				expected += q
			}

			items, _ := cartRepo.ListByUser(ctx, userID)
			if len(items) != 1 {
				t.Logf("FAIL: Expected one cart row, got %d", len(items))
				return false
			}

			if items[0].Quantity != expected {
				t.Logf("FAIL: Expected merged quantity %d, got %d", expected, items[0].Quantity)
				return false
			}

			return true
		},
		gen.SliceOfN(5, gen.IntRange(1, 10)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_CartTotalMatchesSumOfLineAmounts(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals the sum of price times quantity over all rows", prop.ForAll(
		func(prices []float64, quantities []int) bool {
			svc, cartRepo, productRepo, _ := newCartServiceForTest()
			ctx := context.Background()
			userID := uuid.New()

			n := len(prices)
			if len(quantities) < n {
				n = len(quantities)
			}

			var expected float64
			for i := 0; i < n; i++ {
				product := productRepo.add(prices[i])
				if err := svc.AddToCart(ctx, userID, product.ID, quantities[i]); err != nil {
					t.Logf("FAIL: AddToCart returned error: %v", err)
					return false
				}
				expected += prices[i] * float64(quantities[i])
			}

			// Attach joined products the way ListByUser does in production
			for _, item := range cartRepo.items {
				item.Product = productRepo.products[item.ProductID]
			}

			total, err := svc.GetCartTotal(ctx, userID)
			if err != nil {
				t.Logf("FAIL: GetCartTotal returned error: %v", err)
				return false
			}

			diff := total - expected
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-6 {
				t.Logf("FAIL: Expected total %f, got %f", expected, total)
				return false
			}

			return true
		},
		gen.SliceOfN(4, gen.Float64Range(0.5, 5000)),
		gen.SliceOfN(4, gen.IntRange(1, 10)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	svc, cartRepo, productRepo, _ := newCartServiceForTest()
	ctx := context.Background()
	userID := uuid.New()
	product := productRepo.add(10)

	for _, q := range []int{0, -1, -100} {
		if err := svc.AddToCart(ctx, userID, product.ID, q); err != ErrInvalidQuantity {
			t.Errorf("AddToCart(%d) = %v, want ErrInvalidQuantity", q, err)
		}
	}

	if len(cartRepo.items) != 0 {
		t.Errorf("Rejected adds must not write rows, found %d", len(cartRepo.items))
	}
}

func TestAddToCartRejectsUnknownProduct(t *testing.T) {
	svc, _, _, _ := newCartServiceForTest()

	err := svc.AddToCart(context.Background(), uuid.New(), uuid.New(), 1)
	if err != repository.ErrProductNotFound {
		t.Errorf("AddToCart for unknown product = %v, want ErrProductNotFound", err)
	}
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	svc, cartRepo, productRepo, _ := newCartServiceForTest()
	ctx := context.Background()
	userID := uuid.New()
	product := productRepo.add(25)

	if err := svc.AddToCart(ctx, userID, product.ID, 2); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	items, _ := cartRepo.ListByUser(ctx, userID)
	if len(items) != 1 {
		t.Fatalf("Expected one cart row, got %d", len(items))
	}
	itemID := items[0].ID

	// First removal drops the row
	if err := svc.RemoveFromCart(ctx, userID, itemID); err != nil {
		t.Fatalf("First RemoveFromCart failed: %v", err)
	}

	// Second removal of the same id is a successful no-op
	if err := svc.RemoveFromCart(ctx, userID, itemID); err != nil {
		t.Errorf("Second RemoveFromCart = %v, want nil", err)
	}

	items, _ = cartRepo.ListByUser(ctx, userID)
	if len(items) != 0 {
		t.Errorf("Expected empty cart after removal, got %d rows", len(items))
	}
}

func TestRemoveFromCartIgnoresOtherUsersRows(t *testing.T) {
	svc, cartRepo, productRepo, _ := newCartServiceForTest()
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	product := productRepo.add(25)

	if err := svc.AddToCart(ctx, owner, product.ID, 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	items, _ := cartRepo.ListByUser(ctx, owner)
	itemID := items[0].ID

	// A different user removing the owner's item succeeds but changes nothing
	if err := svc.RemoveFromCart(ctx, intruder, itemID); err != nil {
		t.Fatalf("RemoveFromCart as non-owner failed: %v", err)
	}

	items, _ = cartRepo.ListByUser(ctx, owner)
	if len(items) != 1 {
		t.Errorf("Owner's cart must be untouched, got %d rows", len(items))
	}
}

func TestUpdateQuantityRejectsNonPositiveAndUnknown(t *testing.T) {
	svc, _, _, _ := newCartServiceForTest()
	ctx := context.Background()

	if err := svc.UpdateQuantity(ctx, uuid.New(), uuid.New(), 0); err != ErrInvalidQuantity {
		t.Errorf("UpdateQuantity(0) = %v, want ErrInvalidQuantity", err)
	}

	if err := svc.UpdateQuantity(ctx, uuid.New(), uuid.New(), 3); err != repository.ErrCartItemNotFound {
		t.Errorf("UpdateQuantity for unknown item = %v, want ErrCartItemNotFound", err)
	}
}

func TestCartTotalCountsMissingProductAsZero(t *testing.T) {
	svc, cartRepo, productRepo, _ := newCartServiceForTest()
	ctx := context.Background()
	userID := uuid.New()

	kept := productRepo.add(100)
	gone := productRepo.add(40)

	if err := svc.AddToCart(ctx, userID, kept.ID, 2); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if err := svc.AddToCart(ctx, userID, gone.ID, 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	// Join snapshot: the second product has disappeared from the catalog
	for _, item := range cartRepo.items {
		if item.ProductID == kept.ID {
			item.Product = kept
		}
	}

	total, err := svc.GetCartTotal(ctx, userID)
	if err != nil {
		t.Fatalf("GetCartTotal failed: %v", err)
	}

	if total != 200 {
		t.Errorf("Total = %f, want 200 (missing product contributes 0)", total)
	}
}

func TestEmptyCartTotalsZero(t *testing.T) {
	svc, _, _, _ := newCartServiceForTest()

	total, err := svc.GetCartTotal(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetCartTotal failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Empty cart total = %f, want 0", total)
	}
}

func TestCartMutationsPublishChangeEvents(t *testing.T) {
	svc, cartRepo, productRepo, notifier := newCartServiceForTest()
	ctx := context.Background()
	userID := uuid.New()
	product := productRepo.add(10)

	if err := svc.AddToCart(ctx, userID, product.ID, 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	items, _ := cartRepo.ListByUser(ctx, userID)
	if err := svc.UpdateQuantity(ctx, userID, items[0].ID, 5); err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if err := svc.RemoveFromCart(ctx, userID, items[0].ID); err != nil {
		t.Fatalf("RemoveFromCart failed: %v", err)
	}
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("ClearCart failed: %v", err)
	}

	want := []notify.CartAction{
		notify.CartItemAdded,
		notify.CartItemUpdated,
		notify.CartItemRemoved,
		notify.CartCleared,
	}
	if len(notifier.events) != len(want) {
		t.Fatalf("Published %d events, want %d", len(notifier.events), len(want))
	}
	for i, action := range want {
		if notifier.events[i].Action != action {
			t.Errorf("Event %d action = %s, want %s", i, notifier.events[i].Action, action)
		}
		if notifier.events[i].UserID != userID {
			t.Errorf("Event %d user = %s, want %s", i, notifier.events[i].UserID, userID)
		}
	}
}
