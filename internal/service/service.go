package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/cache"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/commission"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/loyalty"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo          store.Repository
	settingsCache cache.SettingsCache
	settingsTTL   time.Duration
}

func New(repo store.Repository, settingsCache cache.SettingsCache, settingsTTL time.Duration) *Service {
	if settingsCache == nil {
		settingsCache = cache.NoopSettingsCache{}
	}
	if settingsTTL <= 0 {
		settingsTTL = 60 * time.Second
	}

	return &Service{
		repo:          repo,
		settingsCache: settingsCache,
		settingsTTL:   settingsTTL,
	}
}

// Checkout is the single entry point of the sale pipeline. Everything
// before CreateOrder is recovered by releasing reservations; everything
// after it is best-effort and may only log, because the sale is final
// once the order row exists.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Receipt, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Receipt{}, fmt.Errorf("authenticated seller required")
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	if req.PointsToRedeem < 0 {
		return domain.Receipt{}, store.ErrInvalidOrder
	}
	if req.PointsToRedeem > 0 && req.CustomerID == "" {
		return domain.Receipt{}, store.ErrInvalidOrder
	}

	lines := normalizeLines(req.Lines)
	if len(lines) == 0 {
		return domain.Receipt{}, store.ErrInvalidOrder
	}

	shift, err := s.repo.GetActiveShift(ctx, actor.OrgID, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNoActiveShift) || errors.Is(err, store.ErrNotFound) {
			return domain.Receipt{}, store.ErrNoActiveShift
		}
		return domain.Receipt{}, err
	}

	branchID, err := s.resolveBranch(ctx, actor, shift)
	if err != nil {
		return domain.Receipt{}, err
	}

	productIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, actor.OrgID, productIDs)
	if err != nil {
		return domain.Receipt{}, err
	}

	subtotal := int64(0)
	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, exists := products[line.ProductID]
		if !exists || !product.Active {
			return domain.Receipt{}, store.ErrInvalidOrder
		}
		subtotal += product.PriceCents * int64(line.Quantity)
		orderLines = append(orderLines, domain.OrderLine{
			ProductID:        product.ID,
			ProductName:      product.Name,
			Quantity:         line.Quantity,
			PriceAtSaleCents: product.PriceCents,
			CostAtSaleCents:  product.CostCents,
		})
	}

	var customer *domain.Customer
	var settings domain.LoyaltySettings
	discount := int64(0)
	if req.CustomerID != "" {
		customer, err = s.repo.GetCustomerByID(ctx, actor.OrgID, req.CustomerID)
		if err != nil {
			return domain.Receipt{}, err
		}
		if req.PointsToRedeem > customer.Points {
			return domain.Receipt{}, store.ErrInsufficientPoints
		}
		settings, err = s.loyaltySettings(ctx, actor.OrgID)
		if err != nil {
			return domain.Receipt{}, err
		}
		discount = loyalty.QuoteRedemption(req.PointsToRedeem, settings)
		if discount > subtotal {
			discount = subtotal
		}
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	reserved := make([]domain.OrderLine, 0, len(orderLines))
	for _, line := range orderLines {
		if err := s.repo.ReserveStock(ctx, line.ProductID, branchID, line.Quantity); err != nil {
			s.releaseReserved(ctx, branchID, reserved)
			return domain.Receipt{}, err
		}
		reserved = append(reserved, line)
	}

	now := time.Now().UTC()
	pointsEarned := int64(0)
	if customer != nil {
		pointsEarned = loyalty.QuoteEarning(total, settings)
	}

	order := domain.Order{
		ID:             xid.New("ord"),
		OrgID:          actor.OrgID,
		BranchID:       branchID,
		SellerID:       actor.UserID,
		ShiftID:        shift.ID,
		CustomerID:     req.CustomerID,
		SubtotalCents:  subtotal,
		PointsRedeemed: req.PointsToRedeem,
		DiscountCents:  discount,
		TotalCents:     total,
		PointsEarned:   pointsEarned,
		PaymentMethod:  req.PaymentMethod,
		Status:         domain.OrderStatusCompleted,
		CreatedAt:      now,
		Lines:          orderLines,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.releaseReserved(ctx, branchID, reserved)
		return domain.Receipt{}, fmt.Errorf("persist order: %w", err)
	}

	// Sale is durable from here on.
	s.settleCommissions(ctx, *created, products)

	if customer != nil {
		if err := s.repo.SettleLoyalty(ctx, actor.OrgID, customer.ID, req.PointsToRedeem, pointsEarned, total); err != nil {
			log.Printf("[service] WARN: loyalty settlement failed order=%s customer=%s: %v", created.ID, customer.ID, err)
		}
	}

	if err := s.repo.AccumulateShift(ctx, shift.ID, total); err != nil {
		log.Printf("[service] WARN: shift accumulation failed order=%s shift=%s: %v", created.ID, shift.ID, err)
	}

	return toReceipt(*created), nil
}

// resolveBranch picks the branch a sale books against: the shift's
// branch, then the seller's assigned branch, then the org main branch.
func (s *Service) resolveBranch(ctx context.Context, actor domain.Actor, shift *domain.Shift) (string, error) {
	if shift != nil && shift.BranchID != "" {
		return shift.BranchID, nil
	}
	if actor.BranchID != "" {
		return actor.BranchID, nil
	}

	main, err := s.repo.GetMainBranch(ctx, actor.OrgID)
	if err != nil {
		return "", fmt.Errorf("resolve branch: %w", err)
	}
	return main.ID, nil
}

func (s *Service) settleCommissions(ctx context.Context, order domain.Order, products map[string]domain.Product) {
	rules, err := s.repo.ListCommissionRules(ctx, order.OrgID)
	if err != nil {
		log.Printf("[service] WARN: commission rules unavailable order=%s: %v", order.ID, err)
		return
	}
	if len(rules) == 0 {
		return
	}

	period := commission.Period(order.CreatedAt)
	for _, line := range order.Lines {
		product := products[line.ProductID]
		match := commission.Resolve(rules, commission.Line{
			ProductID:      line.ProductID,
			CategoryID:     product.CategoryID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.PriceAtSaleCents,
		})
		if match == nil {
			continue
		}

		record := domain.CommissionRecord{
			ID:              xid.New("comm"),
			OrgID:           order.OrgID,
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			RuleID:          match.Rule.ID,
			SellerID:        order.SellerID,
			SaleAmountCents: line.PriceAtSaleCents * int64(line.Quantity),
			AmountCents:     match.AmountCents,
			Status:          domain.CommissionStatusPending,
			Period:          period,
			CreatedAt:       order.CreatedAt,
		}
		if _, err := s.repo.CreateCommissionRecord(ctx, record); err != nil {
			log.Printf("[service] WARN: commission record failed order=%s product=%s rule=%s: %v", order.ID, line.ProductID, match.Rule.ID, err)
		}
	}
}

func (s *Service) releaseReserved(ctx context.Context, branchID string, reserved []domain.OrderLine) {
	for _, line := range reserved {
		if err := s.repo.ReleaseStock(ctx, line.ProductID, branchID, line.Quantity); err != nil {
			log.Printf("[service] WARN: stock release failed product=%s branch=%s qty=%d: %v", line.ProductID, branchID, line.Quantity, err)
		}
	}
}

func (s *Service) loyaltySettings(ctx context.Context, orgID string) (domain.LoyaltySettings, error) {
	if cached, ok, err := s.settingsCache.Get(ctx, orgID); err == nil && ok {
		return *cached, nil
	}

	settings, err := s.repo.GetLoyaltySettings(ctx, orgID)
	if errors.Is(err, store.ErrNotFound) {
		// Org never configured loyalty: treat as disabled.
		return domain.LoyaltySettings{OrgID: orgID}, nil
	}
	if err != nil {
		return domain.LoyaltySettings{}, err
	}

	_ = s.settingsCache.Set(ctx, orgID, settings, s.settingsTTL)
	return *settings, nil
}

func (s *Service) GetReceipt(ctx context.Context, orderID string) (domain.Receipt, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Receipt{}, fmt.Errorf("authenticated seller required")
	}

	order, err := s.repo.GetOrderByID(ctx, actor.OrgID, orderID)
	if err != nil {
		return domain.Receipt{}, err
	}
	return toReceipt(*order), nil
}

func (s *Service) ListOrders(ctx context.Context, branchID string, limit int) ([]domain.Order, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authenticated seller required")
	}
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListOrders(ctx, actor.OrgID, branchID, limit)
}

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.ShiftResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("authenticated cashier required")
	}
	if req.StartingCashCents < 0 {
		return domain.ShiftResponse{}, store.ErrInvalidOrder
	}

	branchID := req.BranchID
	if branchID == "" {
		var err error
		branchID, err = s.resolveBranch(ctx, actor, nil)
		if err != nil {
			return domain.ShiftResponse{}, err
		}
	} else if _, err := s.repo.GetBranchByID(ctx, actor.OrgID, branchID); err != nil {
		return domain.ShiftResponse{}, err
	}

	shift := domain.Shift{
		ID:                xid.New("shift"),
		OrgID:             actor.OrgID,
		BranchID:          branchID,
		CashierID:         actor.UserID,
		Status:            domain.ShiftStatusActive,
		StartingCashCents: req.StartingCashCents,
		OpenedAt:          time.Now().UTC(),
	}

	created, err := s.repo.OpenShift(ctx, shift)
	if err != nil {
		return domain.ShiftResponse{}, err
	}
	return domain.ShiftResponse{Shift: *created}, nil
}

func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.ShiftResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("authenticated cashier required")
	}
	if req.EndingCashCents < 0 {
		return domain.ShiftResponse{}, store.ErrInvalidOrder
	}

	closed, err := s.repo.CloseActiveShift(ctx, actor.OrgID, actor.UserID, req.EndingCashCents, strings.TrimSpace(req.Notes), time.Now().UTC())
	if err != nil {
		return domain.ShiftResponse{}, err
	}
	return domain.ShiftResponse{Shift: *closed}, nil
}

func (s *Service) GetActiveShift(ctx context.Context) (domain.ShiftResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("authenticated cashier required")
	}

	shift, err := s.repo.GetActiveShift(ctx, actor.OrgID, actor.UserID)
	if err != nil {
		return domain.ShiftResponse{}, err
	}
	return domain.ShiftResponse{Shift: *shift}, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authenticated user required")
	}
	return s.repo.ListProducts(ctx, actor.OrgID)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 1 || req.CostCents < 0 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidOrder
	}

	product := domain.Product{
		ID:         xid.New("prod"),
		OrgID:      actor.OrgID,
		SKU:        req.SKU,
		Name:       req.Name,
		CategoryID: strings.TrimSpace(req.CategoryID),
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	if req.InitialStock > 0 {
		branchID := req.BranchID
		if branchID == "" {
			branchID, err = s.resolveBranch(ctx, actor, nil)
			if err != nil {
				return domain.Product{}, err
			}
		}
		if err := s.repo.ReleaseStock(ctx, created.ID, branchID, req.InitialStock); err != nil {
			return domain.Product{}, err
		}
	}

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, actor.OrgID, productID)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidOrder
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		updated.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalidOrder
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return domain.Product{}, store.ErrInvalidOrder
		}
		updated.CostCents = *req.CostCents
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) GetStock(ctx context.Context, productID string, branchID string) (domain.StockEntry, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.StockEntry{}, fmt.Errorf("authenticated user required")
	}
	if _, err := s.repo.GetProductByID(ctx, actor.OrgID, productID); err != nil {
		return domain.StockEntry{}, err
	}

	entry, err := s.repo.GetStock(ctx, productID, branchID)
	if err != nil {
		return domain.StockEntry{}, err
	}
	return *entry, nil
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) (domain.StockEntry, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.StockEntry{}, err
	}
	if req.Quantity < 1 {
		return domain.StockEntry{}, store.ErrInvalidOrder
	}
	if _, err := s.repo.GetProductByID(ctx, actor.OrgID, req.ProductID); err != nil {
		return domain.StockEntry{}, err
	}
	if _, err := s.repo.GetBranchByID(ctx, actor.OrgID, req.BranchID); err != nil {
		return domain.StockEntry{}, err
	}

	if err := s.repo.ReleaseStock(ctx, req.ProductID, req.BranchID, req.Quantity); err != nil {
		return domain.StockEntry{}, err
	}

	entry, err := s.repo.GetStock(ctx, req.ProductID, req.BranchID)
	if err != nil {
		return domain.StockEntry{}, err
	}
	return *entry, nil
}

func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authenticated user required")
	}
	return s.repo.ListBranches(ctx, actor.OrgID)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Customer{}, fmt.Errorf("authenticated user required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return domain.Customer{}, store.ErrInvalidOrder
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		OrgID:     actor.OrgID,
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) GetCustomerByPhone(ctx context.Context, phone string) (domain.Customer, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Customer{}, fmt.Errorf("authenticated user required")
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Customer{}, store.ErrInvalidOrder
	}

	customer, err := s.repo.GetCustomerByPhone(ctx, actor.OrgID, phone)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, limit int) ([]domain.Customer, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authenticated user required")
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListCustomers(ctx, actor.OrgID, limit)
}

func (s *Service) CreateCommissionRule(ctx context.Context, req domain.CommissionRuleCreateRequest) (domain.CommissionRule, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.CommissionRule{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Rate < 0 {
		return domain.CommissionRule{}, store.ErrInvalidOrder
	}

	switch req.Scope {
	case domain.CommissionScopeAll:
		req.ProductID, req.CategoryID = "", ""
	case domain.CommissionScopeCategory:
		if req.CategoryID == "" {
			return domain.CommissionRule{}, store.ErrInvalidOrder
		}
		req.ProductID = ""
	case domain.CommissionScopeProduct:
		if req.ProductID == "" {
			return domain.CommissionRule{}, store.ErrInvalidOrder
		}
		if _, err := s.repo.GetProductByID(ctx, actor.OrgID, req.ProductID); err != nil {
			return domain.CommissionRule{}, err
		}
		req.CategoryID = ""
	default:
		return domain.CommissionRule{}, store.ErrInvalidOrder
	}

	switch req.Type {
	case domain.CommissionTypePercentage:
		if req.Rate > 100 {
			return domain.CommissionRule{}, store.ErrInvalidOrder
		}
	case domain.CommissionTypeFixed:
	default:
		return domain.CommissionRule{}, store.ErrInvalidOrder
	}

	rule := domain.CommissionRule{
		ID:         xid.New("rule"),
		OrgID:      actor.OrgID,
		Name:       req.Name,
		Scope:      req.Scope,
		CategoryID: req.CategoryID,
		ProductID:  req.ProductID,
		Type:       req.Type,
		Rate:       req.Rate,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.CreateCommissionRule(ctx, rule)
	if err != nil {
		return domain.CommissionRule{}, err
	}
	return *created, nil
}

func (s *Service) ListCommissionRules(ctx context.Context) ([]domain.CommissionRule, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCommissionRules(ctx, actor.OrgID)
}

func (s *Service) SetCommissionRuleActive(ctx context.Context, ruleID string, active bool) (domain.CommissionRule, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.CommissionRule{}, err
	}

	updated, err := s.repo.UpdateCommissionRuleActive(ctx, actor.OrgID, ruleID, active)
	if err != nil {
		return domain.CommissionRule{}, err
	}
	return *updated, nil
}

func (s *Service) CommissionReport(ctx context.Context, query domain.CommissionReportQuery, limit int) (domain.CommissionReportResponse, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.CommissionReportResponse{}, err
	}
	if limit < 1 {
		limit = 200
	}

	records, err := s.repo.ListCommissionRecords(ctx, actor.OrgID, query, limit)
	if err != nil {
		return domain.CommissionReportResponse{}, err
	}

	total := int64(0)
	for _, r := range records {
		total += r.AmountCents
	}
	return domain.CommissionReportResponse{Records: records, TotalCents: total}, nil
}

func (s *Service) GetLoyaltySettings(ctx context.Context) (domain.LoyaltySettings, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.LoyaltySettings{}, fmt.Errorf("authenticated user required")
	}
	return s.loyaltySettings(ctx, actor.OrgID)
}

func (s *Service) UpdateLoyaltySettings(ctx context.Context, req domain.LoyaltySettingsUpdateRequest) (domain.LoyaltySettings, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return domain.LoyaltySettings{}, err
	}

	current, err := s.loyaltySettings(ctx, actor.OrgID)
	if err != nil {
		return domain.LoyaltySettings{}, err
	}

	if req.Enabled != nil {
		current.Enabled = *req.Enabled
	}
	if req.PointsPerCurrency != nil {
		if *req.PointsPerCurrency < 0 {
			return domain.LoyaltySettings{}, store.ErrInvalidOrder
		}
		current.PointsPerCurrency = *req.PointsPerCurrency
	}
	if req.PointsToCurrency != nil {
		if *req.PointsToCurrency < 0 {
			return domain.LoyaltySettings{}, store.ErrInvalidOrder
		}
		current.PointsToCurrency = *req.PointsToCurrency
	}
	current.OrgID = actor.OrgID
	current.UpdatedAt = time.Now().UTC()

	saved, err := s.repo.UpdateLoyaltySettings(ctx, current)
	if err != nil {
		return domain.LoyaltySettings{}, err
	}

	if err := s.settingsCache.Invalidate(ctx, actor.OrgID); err != nil {
		log.Printf("[service] WARN: settings cache invalidation failed org=%s: %v", actor.OrgID, err)
	}
	return *saved, nil
}

func requireManager(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleManager {
		return domain.Actor{}, fmt.Errorf("manager role required")
	}
	return actor, nil
}

func normalizeLines(lines []domain.CartLine) []domain.CartLine {
	aggregated := make(map[string]int, len(lines))
	ordered := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity < 1 {
			continue
		}
		if _, seen := aggregated[line.ProductID]; !seen {
			ordered = append(ordered, line.ProductID)
		}
		aggregated[line.ProductID] += line.Quantity
	}

	result := make([]domain.CartLine, 0, len(ordered))
	for _, id := range ordered {
		result = append(result, domain.CartLine{ProductID: id, Quantity: aggregated[id]})
	}
	return result
}

func toReceipt(order domain.Order) domain.Receipt {
	lines := make([]domain.ReceiptLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, domain.ReceiptLine{
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.PriceAtSaleCents,
			LineTotalCents: line.PriceAtSaleCents * int64(line.Quantity),
		})
	}

	return domain.Receipt{
		OrderID:        order.ID,
		BranchID:       order.BranchID,
		Lines:          lines,
		SubtotalCents:  order.SubtotalCents,
		DiscountCents:  order.DiscountCents,
		TotalCents:     order.TotalCents,
		PointsRedeemed: order.PointsRedeemed,
		PointsEarned:   order.PointsEarned,
		PaymentMethod:  order.PaymentMethod,
		CreatedAt:      order.CreatedAt,
	}
}
