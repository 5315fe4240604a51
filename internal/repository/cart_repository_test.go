package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"daykart/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func seedTestProfile(t *testing.T) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now()
	_, err := testDB.Exec(`
		INSERT INTO profiles (id, email, password_hash, full_name, phone, address, is_admin,
			referral_code, referred_by, referral_activated,
			total_referral_rewards, pending_referral_rewards, created_at, updated_at)
		VALUES ($1, $2, 'x', 'Test User', '', '', FALSE, $3, NULL, FALSE, 0, 0, $4, $4)
	`, id, fmt.Sprintf("%s@test.local", id), domain.ReferralCodeFor(id), now)
	if err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM profiles WHERE id = $1", id)
	})

	return id
}

func seedTestProduct(t *testing.T, price float64) uuid.UUID {
	t.Helper()

	categoryID := uuid.New()
	now := time.Now()
	_, err := testDB.Exec(`
		INSERT INTO categories (id, name, slug, description, created_at)
		VALUES ($1, $2, $2, '', $3)
	`, categoryID, "cat-"+categoryID.String(), now)
	if err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	productID := uuid.New()
	_, err = testDB.Exec(`
		INSERT INTO products (id, title, description, price, category_id, image_url,
			is_featured, stock_quantity, created_at, updated_at)
		VALUES ($1, 'Spiral Notebook', '', $2, $3, '', FALSE, 100, $4, $4)
	`, productID, price, categoryID, now)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM products WHERE id = $1", productID)
		_, _ = testDB.Exec("DELETE FROM categories WHERE id = $1", categoryID)
	})

	return productID
}

func cartRow(userID, productID uuid.UUID, quantity int) *domain.CartItem {
	now := time.Now()
	return &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestProperty_UpsertKeepsOneRowPerPair(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := seedTestProfile(t)
	productID := seedTestProduct(t, 199.00)

	properties := gopter.NewProperties(nil)

	properties.Property("repeated adds collapse into one row with summed quantity", prop.ForAll(
		func(quantities []int) bool {
			defer func() {
				_, _ = testDB.Exec("DELETE FROM cart_items WHERE user_id = $1", userID)
			}()

			want := 0
			for _, q := range quantities {
				if err := repo.Upsert(ctx, cartRow(userID, productID, q)); err != nil {
					t.Logf("FAIL: upsert returned error: %v", err)
					return false
				}
				want += q
			}

			items, err := repo.ListByUser(ctx, userID)
			if err != nil {
				t.Logf("FAIL: list returned error: %v", err)
				return false
			}
			if len(items) != 1 {
				t.Logf("FAIL: expected 1 row, got %d", len(items))
				return false
			}
			if items[0].Quantity != want {
				t.Logf("FAIL: expected quantity %d, got %d", want, items[0].Quantity)
				return false
			}
			return true
		},
		gen.SliceOfN(5, gen.IntRange(1, 10)),
	))

	properties.TestingRun(t)
}

func TestCartUpsertIsScopedPerUser(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	alice := seedTestProfile(t)
	bob := seedTestProfile(t)
	productID := seedTestProduct(t, 49.00)

	if err := repo.Upsert(ctx, cartRow(alice, productID, 2)); err != nil {
		t.Fatalf("upsert for first user failed: %v", err)
	}
	if err := repo.Upsert(ctx, cartRow(bob, productID, 5)); err != nil {
		t.Fatalf("upsert for second user failed: %v", err)
	}

	aliceItems, err := repo.ListByUser(ctx, alice)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(aliceItems) != 1 || aliceItems[0].Quantity != 2 {
		t.Fatalf("expected one row with quantity 2, got %+v", aliceItems)
	}

	bobItems, err := repo.ListByUser(ctx, bob)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bobItems) != 1 || bobItems[0].Quantity != 5 {
		t.Fatalf("expected one row with quantity 5, got %+v", bobItems)
	}
}

func TestCartDeleteIsOwnerScopedAndIdempotent(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	owner := seedTestProfile(t)
	stranger := seedTestProfile(t)
	productID := seedTestProduct(t, 79.00)

	item := cartRow(owner, productID, 3)
	if err := repo.Upsert(ctx, item); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Someone else's delete must not touch the row
	if err := repo.Delete(ctx, stranger, item.ID); err != nil {
		t.Fatalf("foreign delete should be a no-op, got: %v", err)
	}
	count, err := repo.CountByUser(ctx, owner)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected row to survive foreign delete, count = %d", count)
	}

	if err := repo.Delete(ctx, owner, item.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// Second delete of the same row succeeds quietly
	if err := repo.Delete(ctx, owner, item.ID); err != nil {
		t.Fatalf("repeated delete should be a no-op, got: %v", err)
	}

	count, err = repo.CountByUser(ctx, owner)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart, count = %d", count)
	}
}

func TestCartUpdateQuantityUnknownRow(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := seedTestProfile(t)

	err := repo.UpdateQuantity(ctx, userID, uuid.New(), 4)
	if err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCartListJoinsProductSnapshot(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := seedTestProfile(t)
	productID := seedTestProduct(t, 299.50)

	if err := repo.Upsert(ctx, cartRow(userID, productID, 2)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	items, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Product == nil {
		t.Fatal("expected joined product on cart row")
	}
	if item.Product.ID != productID {
		t.Fatalf("joined product id mismatch: got %s, want %s", item.Product.ID, productID)
	}
	if item.Product.Price != 299.50 {
		t.Fatalf("joined product price mismatch: got %v", item.Product.Price)
	}
	if item.Product.Title != "Spiral Notebook" {
		t.Fatalf("joined product title mismatch: got %q", item.Product.Title)
	}
}

func TestCartDeleteAllForUser(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := seedTestProfile(t)
	first := seedTestProduct(t, 10.00)
	second := seedTestProduct(t, 20.00)

	if err := repo.Upsert(ctx, cartRow(userID, first, 1)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, cartRow(userID, second, 1)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := repo.DeleteAllForUser(ctx, userID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	count, err := repo.CountByUser(ctx, userID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart after clear, count = %d", count)
	}
}
