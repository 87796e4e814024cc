package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	databaseURL := os.Getenv("POS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set POS_TEST_DATABASE_URL to run postgres integration tests")
	}

	s, err := New(context.Background(), databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestReserveStockConditionalDecrement(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	orgID := fmt.Sprintf("org-it-%d", stamp)
	branchID := fmt.Sprintf("br-it-%d", stamp)
	productID := fmt.Sprintf("prod-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_entries WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, branchID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (id, org_id, name, is_main, created_at)
		VALUES ($1, $2, 'Integration Branch', true, now())
	`, branchID, orgID); err != nil {
		t.Fatalf("insert branch: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, org_id, sku, name, category_id, price_cents, cost_cents, active, created_at)
		VALUES ($1, $2, $3, 'Produk Integrasi', null, 12000, 8000, true, now())
	`, productID, orgID, fmt.Sprintf("SKU-IT-%d", stamp)); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if err := s.ReleaseStock(ctx, productID, branchID, 10); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	if err := s.ReserveStock(ctx, productID, branchID, 7); err != nil {
		t.Fatalf("reserve 7 of 10: %v", err)
	}

	err := s.ReserveStock(ctx, productID, branchID, 4)
	var shortfall *store.StockShortfall
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected StockShortfall reserving 4 of 3, got %v", err)
	}
	if shortfall.ProductID != productID {
		t.Fatalf("expected shortfall on %s, got %s", productID, shortfall.ProductID)
	}

	entry, err := s.GetStock(ctx, productID, branchID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if entry.Quantity != 3 {
		t.Fatalf("expected stock 3 after failed over-reserve, got %d", entry.Quantity)
	}
}

func TestSettleLoyaltyGuardedUpdate(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	orgID := fmt.Sprintf("org-it-%d", stamp)
	customerID := fmt.Sprintf("cust-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, org_id, name, phone, points, total_spent_cents, visit_count, created_at)
		VALUES ($1, $2, 'Pelanggan Integrasi', $3, 500, 0, 0, now())
	`, customerID, orgID, fmt.Sprintf("08%d", stamp)); err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	if err := s.SettleLoyalty(ctx, orgID, customerID, 600, 0, 0); !errors.Is(err, store.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints redeeming 600 of 500, got %v", err)
	}

	if err := s.SettleLoyalty(ctx, orgID, customerID, 200, 2, 28000); err != nil {
		t.Fatalf("settle: %v", err)
	}

	customer, err := s.GetCustomerByID(ctx, orgID, customerID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.Points != 302 {
		t.Fatalf("expected points 302 after settle, got %d", customer.Points)
	}
	if customer.TotalSpentCents != 28000 || customer.VisitCount != 1 {
		t.Fatalf("unexpected customer after settle: %+v", customer)
	}
}
