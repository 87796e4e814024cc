package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/cache"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NoopSettingsCache{}, 5*time.Second)
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{
		UserID:   "user-cashier",
		Username: "cashier",
		Role:     domain.RoleCashier,
		OrgID:    "org-demo",
		BranchID: "br-main",
	})
}

func managerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{
		UserID:   "user-manager",
		Username: "manager",
		Role:     domain.RoleManager,
		OrgID:    "org-demo",
	})
}

func openShift(t *testing.T, svc *Service, ctx context.Context, startingCash int64) domain.Shift {
	t.Helper()
	resp, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{StartingCashCents: startingCash})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	return resp.Shift
}

func TestCheckoutRequiresActiveShift(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNoActiveShift) {
		t.Fatalf("expected ErrNoActiveShift, got %v", err)
	}
}

func TestCheckoutRejectsEmptyCartBeforeShiftCheck(t *testing.T) {
	svc := newTestService()

	// No shift is open either; the empty cart must be reported first.
	_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{})
	if !errors.Is(err, store.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder for empty cart, got %v", err)
	}
}

func TestCheckoutHappyPathUpdatesStockAndShift(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 250000)

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.SubtotalCents != 7000 || receipt.TotalCents != 7000 {
		t.Fatalf("expected subtotal and total 7000, got %d / %d", receipt.SubtotalCents, receipt.TotalCents)
	}
	if receipt.PaymentMethod != "cash" {
		t.Fatalf("expected default payment method cash, got %s", receipt.PaymentMethod)
	}

	entry, err := svc.GetStock(ctx, "prod-mie", "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 118 {
		t.Fatalf("expected stock 118 after sale, got %d", entry.Quantity)
	}

	shiftResp, err := svc.GetActiveShift(ctx)
	if err != nil {
		t.Fatalf("get active shift failed: %v", err)
	}
	if shiftResp.Shift.TotalSalesCents != 7000 {
		t.Fatalf("expected shift sales 7000, got %d", shiftResp.Shift.TotalSalesCents)
	}
	if shiftResp.Shift.TotalOrders != 1 {
		t.Fatalf("expected shift orders 1, got %d", shiftResp.Shift.TotalOrders)
	}

	report, err := svc.CommissionReport(managerCtx(), domain.CommissionReportQuery{}, 0)
	if err != nil {
		t.Fatalf("commission report failed: %v", err)
	}
	if len(report.Records) != 0 {
		t.Fatalf("expected no commission records without rules, got %d", len(report.Records))
	}
}

func TestCheckoutAggregatesDuplicateLines(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{
			{ProductID: "prod-mie", Quantity: 1},
			{ProductID: "prod-mie", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(receipt.Lines) != 1 {
		t.Fatalf("expected duplicate lines merged into one, got %d", len(receipt.Lines))
	}
	if receipt.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", receipt.Lines[0].Quantity)
	}

	entry, err := svc.GetStock(ctx, "prod-mie", "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 117 {
		t.Fatalf("expected stock 117, got %d", entry.Quantity)
	}
}

func TestCheckoutInsufficientStockNamesProduct(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1000}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	var shortfall *store.StockShortfall
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected StockShortfall detail, got %v", err)
	}
	if shortfall.ProductID != "prod-mie" {
		t.Fatalf("expected shortfall on prod-mie, got %s", shortfall.ProductID)
	}

	entry, err := svc.GetStock(ctx, "prod-mie", "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 120 {
		t.Fatalf("expected stock untouched at 120, got %d", entry.Quantity)
	}

	orders, err := svc.ListOrders(ctx, "", 10)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no order persisted, got %d", len(orders))
	}
}

func TestCheckoutReleasesEarlierReservationsOnFailure(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{
			{ProductID: "prod-mie", Quantity: 2},
			{ProductID: "prod-telur", Quantity: 1000},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	entry, err := svc.GetStock(ctx, "prod-mie", "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 120 {
		t.Fatalf("expected first line reservation released, stock 120, got %d", entry.Quantity)
	}
}

func TestCheckoutLoyaltyRedeemAndEarn(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	// Seeded settings: 10 points redeem to 1 currency unit, 1 point earned
	// per 100 currency units spent. Customer cust-budi starts at 500 points.
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID:     "cust-budi",
		PointsToRedeem: 200,
		Lines: []domain.CartLine{
			{ProductID: "prod-telur", Quantity: 1},
			{ProductID: "prod-mie", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.SubtotalCents != 30000 {
		t.Fatalf("expected subtotal 30000, got %d", receipt.SubtotalCents)
	}
	if receipt.DiscountCents != 2000 {
		t.Fatalf("expected redemption discount 2000, got %d", receipt.DiscountCents)
	}
	if receipt.TotalCents != 28000 {
		t.Fatalf("expected total 28000, got %d", receipt.TotalCents)
	}
	if receipt.PointsEarned != 2 {
		t.Fatalf("expected 2 points earned on discounted total, got %d", receipt.PointsEarned)
	}

	customer, err := svc.GetCustomerByPhone(ctx, "0811000111")
	if err != nil {
		t.Fatalf("get customer failed: %v", err)
	}
	if customer.Points != 302 {
		t.Fatalf("expected balance 500-200+2=302, got %d", customer.Points)
	}
	if customer.TotalSpentCents != 28000 {
		t.Fatalf("expected total spent 28000, got %d", customer.TotalSpentCents)
	}
	if customer.VisitCount != 1 {
		t.Fatalf("expected visit count 1, got %d", customer.VisitCount)
	}
}

func TestCheckoutRejectsRedeemBeyondBalance(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID:     "cust-budi",
		PointsToRedeem: 600,
		Lines:          []domain.CartLine{{ProductID: "prod-telur", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	entry, err := svc.GetStock(ctx, "prod-telur", "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 120 {
		t.Fatalf("expected no reservation made, stock 120, got %d", entry.Quantity)
	}
}

func TestCheckoutEarnsNothingWhenLoyaltyDisabled(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	disabled := false
	if _, err := svc.UpdateLoyaltySettings(manager, domain.LoyaltySettingsUpdateRequest{Enabled: &disabled}); err != nil {
		t.Fatalf("disable loyalty failed: %v", err)
	}

	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID:     "cust-budi",
		PointsToRedeem: 100,
		Lines:          []domain.CartLine{{ProductID: "prod-telur", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// Redemption still works with loyalty disabled; only earning is gated.
	if receipt.DiscountCents != 1000 {
		t.Fatalf("expected redemption discount 1000, got %d", receipt.DiscountCents)
	}
	if receipt.PointsEarned != 0 {
		t.Fatalf("expected no points earned while disabled, got %d", receipt.PointsEarned)
	}
}

func TestCheckoutReceiptKeepsPriceSnapshot(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	newPrice := int64(9999)
	if _, err := svc.UpdateProduct(managerCtx(), "prod-mie", domain.ProductUpdateRequest{PriceCents: &newPrice}); err != nil {
		t.Fatalf("update product failed: %v", err)
	}

	replay, err := svc.GetReceipt(ctx, receipt.OrderID)
	if err != nil {
		t.Fatalf("get receipt failed: %v", err)
	}
	if replay.Lines[0].UnitPriceCents != 3500 {
		t.Fatalf("expected price at sale 3500 after price change, got %d", replay.Lines[0].UnitPriceCents)
	}
}

func TestCommissionPrecedenceProductOverCategoryOverAll(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	for _, req := range []domain.CommissionRuleCreateRequest{
		{Name: "base", Scope: domain.CommissionScopeAll, Type: domain.CommissionTypePercentage, Rate: 1},
		{Name: "grocery", Scope: domain.CommissionScopeCategory, CategoryID: "cat-grocery", Type: domain.CommissionTypePercentage, Rate: 5},
		{Name: "mie push", Scope: domain.CommissionScopeProduct, ProductID: "prod-mie", Type: domain.CommissionTypePercentage, Rate: 10},
	} {
		if _, err := svc.CreateCommissionRule(manager, req); err != nil {
			t.Fatalf("create rule %q failed: %v", req.Name, err)
		}
	}

	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 2}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.CommissionReport(manager, domain.CommissionReportQuery{SellerID: "user-cashier"}, 0)
	if err != nil {
		t.Fatalf("commission report failed: %v", err)
	}
	if len(report.Records) != 1 {
		t.Fatalf("expected 1 commission record, got %d", len(report.Records))
	}

	record := report.Records[0]
	// Product rule wins: 10% of 2 x 3500 = 700.
	if record.AmountCents != 700 {
		t.Fatalf("expected amount 700 from product rule, got %d", record.AmountCents)
	}
	if record.Status != domain.CommissionStatusPending {
		t.Fatalf("expected status PENDING, got %s", record.Status)
	}
	if record.Period != time.Now().UTC().Format("2006-01") {
		t.Fatalf("unexpected period %s", record.Period)
	}
}

func TestCommissionFixedRatePerUnit(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	if _, err := svc.CreateCommissionRule(manager, domain.CommissionRuleCreateRequest{
		Name:  "flat",
		Scope: domain.CommissionScopeAll,
		Type:  domain.CommissionTypeFixed,
		Rate:  2,
	}); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-kopi", Quantity: 3}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.CommissionReport(manager, domain.CommissionReportQuery{}, 0)
	if err != nil {
		t.Fatalf("commission report failed: %v", err)
	}
	if len(report.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(report.Records))
	}
	// 2 currency units per unit sold, 3 units.
	if report.Records[0].AmountCents != 600 {
		t.Fatalf("expected fixed amount 600, got %d", report.Records[0].AmountCents)
	}
	if report.Records[0].SaleAmountCents != 7800 {
		t.Fatalf("expected sale amount 7800, got %d", report.Records[0].SaleAmountCents)
	}
}

func TestCommissionZeroAmountNotPersisted(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	if _, err := svc.CreateCommissionRule(manager, domain.CommissionRuleCreateRequest{
		Name:  "zero",
		Scope: domain.CommissionScopeAll,
		Type:  domain.CommissionTypePercentage,
		Rate:  0,
	}); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.CommissionReport(manager, domain.CommissionReportQuery{}, 0)
	if err != nil {
		t.Fatalf("commission report failed: %v", err)
	}
	if len(report.Records) != 0 {
		t.Fatalf("expected zero-amount commission to be skipped, got %d records", len(report.Records))
	}
}

func TestCommissionInactiveRuleIgnored(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	rule, err := svc.CreateCommissionRule(manager, domain.CommissionRuleCreateRequest{
		Name:  "paused",
		Scope: domain.CommissionScopeAll,
		Type:  domain.CommissionTypePercentage,
		Rate:  10,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if _, err := svc.SetCommissionRuleActive(manager, rule.ID, false); err != nil {
		t.Fatalf("deactivate rule failed: %v", err)
	}

	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.CommissionReport(manager, domain.CommissionReportQuery{}, 0)
	if err != nil {
		t.Fatalf("commission report failed: %v", err)
	}
	if len(report.Records) != 0 {
		t.Fatalf("expected inactive rule to produce no records, got %d", len(report.Records))
	}
}

func TestShiftCloseComputesCashDifference(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 250000)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 2}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	closed, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{EndingCashCents: 256500, Notes: "end of day"})
	if err != nil {
		t.Fatalf("close shift failed: %v", err)
	}
	if closed.Shift.ExpectedCashCents != 257000 {
		t.Fatalf("expected cash 257000, got %d", closed.Shift.ExpectedCashCents)
	}
	if closed.Shift.CashDifferenceCents != -500 {
		t.Fatalf("expected difference -500, got %d", closed.Shift.CashDifferenceCents)
	}
	if closed.Shift.Status != domain.ShiftStatusClosed {
		t.Fatalf("expected status closed, got %s", closed.Shift.Status)
	}

	if _, err := svc.GetActiveShift(ctx); !errors.Is(err, store.ErrNoActiveShift) {
		t.Fatalf("expected no active shift after close, got %v", err)
	}
}

func TestOpenShiftRejectsSecondActive(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	openShift(t, svc, ctx, 0)

	_, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{})
	if !errors.Is(err, store.ErrInvalidOrder) {
		t.Fatalf("expected second open shift to fail, got %v", err)
	}
}

func TestCheckoutBooksAgainstShiftBranch(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{BranchID: "br-east"})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if resp.Shift.BranchID != "br-east" {
		t.Fatalf("expected shift branch br-east, got %s", resp.Shift.BranchID)
	}

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "prod-mie", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.BranchID != "br-east" {
		t.Fatalf("expected sale booked on br-east, got %s", receipt.BranchID)
	}

	entry, err := svc.GetStock(ctx, "prod-mie", "br-east")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 39 {
		t.Fatalf("expected east stock 39, got %d", entry.Quantity)
	}
}

func TestCreateProductRequiresManager(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{
		SKU:        "SKU-BARU-01",
		Name:       "Biskuit Coklat",
		PriceCents: 8500,
	})
	if err == nil {
		t.Fatalf("expected cashier create product to fail")
	}
}

func TestCreateProductSeedsInitialStock(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	product, err := svc.CreateProduct(manager, domain.ProductCreateRequest{
		SKU:          "SKU-BARU-01",
		Name:         "Biskuit Coklat",
		CategoryID:   "cat-snack",
		PriceCents:   8500,
		CostCents:    6000,
		BranchID:     "br-main",
		InitialStock: 40,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	entry, err := svc.GetStock(manager, product.ID, "br-main")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if entry.Quantity != 40 {
		t.Fatalf("expected initial stock 40, got %d", entry.Quantity)
	}
}

func TestRestockAddsQuantity(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	entry, err := svc.Restock(manager, domain.RestockRequest{
		ProductID: "prod-mie",
		BranchID:  "br-main",
		Quantity:  30,
	})
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if entry.Quantity != 150 {
		t.Fatalf("expected stock 150 after restock, got %d", entry.Quantity)
	}
}

func TestCreateCustomerAndLookupByPhone(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	created, err := svc.CreateCustomer(ctx, domain.CustomerCreateRequest{
		Name:  "Siti Rahma",
		Phone: "0811000222",
	})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	found, err := svc.GetCustomerByPhone(ctx, "0811000222")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected customer %s, got %s", created.ID, found.ID)
	}
}

func TestUpdateLoyaltySettingsValidation(t *testing.T) {
	svc := newTestService()
	manager := managerCtx()

	bad := int64(-1)
	if _, err := svc.UpdateLoyaltySettings(manager, domain.LoyaltySettingsUpdateRequest{PointsPerCurrency: &bad}); !errors.Is(err, store.ErrInvalidOrder) {
		t.Fatalf("expected negative rate rejected, got %v", err)
	}

	rate := int64(50)
	settings, err := svc.UpdateLoyaltySettings(manager, domain.LoyaltySettingsUpdateRequest{PointsPerCurrency: &rate})
	if err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	if settings.PointsPerCurrency != 50 {
		t.Fatalf("expected points per currency 50, got %d", settings.PointsPerCurrency)
	}
}

func TestCommissionReportRequiresManager(t *testing.T) {
	svc := newTestService()

	_, err := svc.CommissionReport(cashierCtx(), domain.CommissionReportQuery{}, 0)
	if err == nil {
		t.Fatalf("expected cashier commission report to fail")
	}
}
