package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store"
)

const seedOrgID = "org-demo"

type Store struct {
	mu                sync.RWMutex
	branchesByID      map[string]domain.Branch
	productsByID      map[string]domain.Product
	stock             map[string]int
	stockUpdatedAt    map[string]time.Time
	ordersByID        map[string]domain.Order
	rulesByID         map[string]domain.CommissionRule
	commissionRecords map[string]domain.CommissionRecord
	customersByID     map[string]domain.Customer
	customerIDByPhone map[string]string
	settingsByOrg     map[string]domain.LoyaltySettings
	shiftsByID        map[string]domain.Shift
	activeShiftByKey  map[string]string
	usersByUsername   map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		id       string
		username string
		password string
		role     string
		branchID string
	}{
		{"user-manager", "manager", managerPwd, domain.RoleManager, ""},
		{"user-cashier", "cashier", cashierPwd, domain.RoleCashier, "br-main"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:        u.id,
			OrgID:     seedOrgID,
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			BranchID:  u.branchID,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	branches := []domain.Branch{
		{ID: "br-main", OrgID: seedOrgID, Name: "Main Branch", Main: true, CreatedAt: now},
		{ID: "br-east", OrgID: seedOrgID, Name: "East Branch", CreatedAt: now},
	}

	products := []domain.Product{
		{ID: "prod-mie", OrgID: seedOrgID, SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", CategoryID: "cat-grocery", PriceCents: 3500, CostCents: 2700, Active: true, CreatedAt: now},
		{ID: "prod-telur", OrgID: seedOrgID, SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", CategoryID: "cat-grocery", PriceCents: 26500, CostCents: 23000, Active: true, CreatedAt: now},
		{ID: "prod-susu", OrgID: seedOrgID, SKU: "SKU-SUSU-01", Name: "Susu UHT 1L", CategoryID: "cat-dairy", PriceCents: 18900, CostCents: 13600, Active: true, CreatedAt: now},
		{ID: "prod-kopi", OrgID: seedOrgID, SKU: "SKU-KOPI-01", Name: "Kopi Sachet", CategoryID: "cat-beverage", PriceCents: 2600, CostCents: 1700, Active: true, CreatedAt: now},
		{ID: "prod-teh", OrgID: seedOrgID, SKU: "SKU-TEH-01", Name: "Teh Celup", CategoryID: "cat-beverage", PriceCents: 9800, CostCents: 7200, Active: true, CreatedAt: now},
		{ID: "prod-keripik", OrgID: seedOrgID, SKU: "SKU-KERIPIK-01", Name: "Keripik Singkong", CategoryID: "cat-snack", PriceCents: 12800, CostCents: 8000, Active: true, CreatedAt: now},
		{ID: "prod-sabun", OrgID: seedOrgID, SKU: "SKU-SABUN-01", Name: "Sabun Mandi", CategoryID: "cat-household", PriceCents: 7400, CostCents: 5000, Active: true, CreatedAt: now},
	}

	branchMap := make(map[string]domain.Branch, len(branches))
	for _, b := range branches {
		branchMap[b.ID] = b
	}

	productMap := make(map[string]domain.Product, len(products))
	stock := make(map[string]int)
	for _, p := range products {
		productMap[p.ID] = p
		stock[stockKey(p.ID, "br-main")] = 120
		stock[stockKey(p.ID, "br-east")] = 40
	}

	customers := map[string]domain.Customer{
		"cust-budi": {ID: "cust-budi", OrgID: seedOrgID, Name: "Budi Santoso", Phone: "0811000111", Points: 500, CreatedAt: now},
	}

	return &Store{
		branchesByID:      branchMap,
		productsByID:      productMap,
		stock:             stock,
		stockUpdatedAt:    make(map[string]time.Time),
		ordersByID:        make(map[string]domain.Order),
		rulesByID:         make(map[string]domain.CommissionRule),
		commissionRecords: make(map[string]domain.CommissionRecord),
		customersByID:     customers,
		customerIDByPhone: map[string]string{customerPhoneKey(seedOrgID, "0811000111"): "cust-budi"},
		settingsByOrg: map[string]domain.LoyaltySettings{
			seedOrgID: {OrgID: seedOrgID, Enabled: true, PointsPerCurrency: 100, PointsToCurrency: 10, UpdatedAt: now},
		},
		shiftsByID:       make(map[string]domain.Shift),
		activeShiftByKey: make(map[string]string),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, orgID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		if p.OrgID != orgID || !p.Active {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.CategoryID == b.CategoryID {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.CategoryID, b.CategoryID)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.OrgID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidOrder
	}
	if product.SKU != "" {
		for _, existing := range s.productsByID {
			if existing.OrgID == product.OrgID && existing.SKU == product.SKU {
				return nil, store.ErrInvalidOrder
			}
		}
	}

	product.Active = true
	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, orgID string, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[productID]
	if !exists || product.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, orgID string, productIDs []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(productIDs))
	for _, id := range productIDs {
		if product, exists := s.productsByID[id]; exists && product.OrgID == orgID {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.productsByID[product.ID]
	if !exists || existing.OrgID != product.OrgID {
		return nil, store.ErrNotFound
	}
	if product.PriceCents < 1 {
		return nil, store.ErrInvalidOrder
	}

	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) GetStock(_ context.Context, productID string, branchID string) (*domain.StockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := stockKey(productID, branchID)
	qty, exists := s.stock[key]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &domain.StockEntry{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  qty,
		UpdatedAt: s.stockUpdatedAt[key],
	}, nil
}

// ReserveStock is the check-and-decrement: both happen under one lock
// so two cashiers selling the last unit cannot both succeed.
func (s *Store) ReserveStock(_ context.Context, productID string, branchID string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stockKey(productID, branchID)
	current, exists := s.stock[key]
	if !exists || current < quantity {
		return &store.StockShortfall{ProductID: productID, Requested: quantity}
	}
	s.stock[key] = current - quantity
	s.stockUpdatedAt[key] = time.Now().UTC()
	return nil
}

func (s *Store) ReleaseStock(_ context.Context, productID string, branchID string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stockKey(productID, branchID)
	s.stock[key] += quantity
	s.stockUpdatedAt[key] = time.Now().UTC()
	return nil
}

func (s *Store) ListBranches(_ context.Context, orgID string) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := make([]domain.Branch, 0, len(s.branchesByID))
	for _, b := range s.branchesByID {
		if b.OrgID == orgID {
			branches = append(branches, b)
		}
	}
	slices.SortFunc(branches, func(a, b domain.Branch) int { return cmpString(a.Name, b.Name) })
	return branches, nil
}

func (s *Store) GetBranchByID(_ context.Context, orgID string, branchID string) (*domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, exists := s.branchesByID[branchID]
	if !exists || branch.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	copyBranch := branch
	return &copyBranch, nil
}

func (s *Store) GetMainBranch(_ context.Context, orgID string) (*domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.branchesByID {
		if b.OrgID == orgID && b.Main {
			copyBranch := b
			return &copyBranch, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" || order.OrgID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidOrder
	}
	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrInvalidOrder
	}

	s.ordersByID[order.ID] = cloneOrder(order)
	created := cloneOrder(order)
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, orgID string, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[orderID]
	if !exists || order.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	copyOrder := cloneOrder(order)
	return &copyOrder, nil
}

func (s *Store) ListOrders(_ context.Context, orgID string, branchID string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if o.OrgID != orgID {
			continue
		}
		if branchID != "" && o.BranchID != branchID {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}

	slices.SortFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) ListCommissionRules(_ context.Context, orgID string) ([]domain.CommissionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]domain.CommissionRule, 0, len(s.rulesByID))
	for _, r := range s.rulesByID {
		if r.OrgID == orgID {
			rules = append(rules, r)
		}
	}
	slices.SortFunc(rules, func(a, b domain.CommissionRule) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return rules, nil
}

func (s *Store) CreateCommissionRule(_ context.Context, rule domain.CommissionRule) (*domain.CommissionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == "" || rule.OrgID == "" || rule.Rate < 0 {
		return nil, store.ErrInvalidOrder
	}

	s.rulesByID[rule.ID] = rule
	created := rule
	return &created, nil
}

func (s *Store) UpdateCommissionRuleActive(_ context.Context, orgID string, ruleID string, active bool) (*domain.CommissionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rulesByID[ruleID]
	if !exists || rule.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	rule.Active = active
	s.rulesByID[ruleID] = rule
	updated := rule
	return &updated, nil
}

func (s *Store) CreateCommissionRecord(_ context.Context, record domain.CommissionRecord) (*domain.CommissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" || record.OrgID == "" || record.AmountCents <= 0 {
		return nil, store.ErrInvalidOrder
	}

	s.commissionRecords[record.ID] = record
	created := record
	return &created, nil
}

func (s *Store) ListCommissionRecords(_ context.Context, orgID string, query domain.CommissionReportQuery, limit int) ([]domain.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.CommissionRecord, 0, len(s.commissionRecords))
	for _, r := range s.commissionRecords {
		if r.OrgID != orgID {
			continue
		}
		if query.SellerID != "" && r.SellerID != query.SellerID {
			continue
		}
		if query.Period != "" && r.Period != query.Period {
			continue
		}
		if query.Status != "" && r.Status != query.Status {
			continue
		}
		records = append(records, r)
	}

	slices.SortFunc(records, func(a, b domain.CommissionRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) GetCustomerByID(_ context.Context, orgID string, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[customerID]
	if !exists || customer.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) GetCustomerByPhone(_ context.Context, orgID string, phone string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.customerIDByPhone[customerPhoneKey(orgID, phone)]
	if !exists {
		return nil, store.ErrNotFound
	}
	customer := s.customersByID[id]
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.OrgID == "" || customer.Phone == "" {
		return nil, store.ErrInvalidOrder
	}
	phoneKey := customerPhoneKey(customer.OrgID, customer.Phone)
	if _, exists := s.customerIDByPhone[phoneKey]; exists {
		return nil, store.ErrInvalidOrder
	}

	s.customersByID[customer.ID] = customer
	s.customerIDByPhone[phoneKey] = customer.ID
	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(_ context.Context, orgID string, limit int) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		if c.OrgID == orgID {
			customers = append(customers, c)
		}
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int { return cmpString(a.Name, b.Name) })
	if limit > 0 && len(customers) > limit {
		customers = customers[:limit]
	}
	return customers, nil
}

// SettleLoyalty applies redeem, earn, spend, and visit count as one
// guarded update so the points balance can never go negative.
func (s *Store) SettleLoyalty(_ context.Context, orgID string, customerID string, pointsRedeemed int64, pointsEarned int64, spentCents int64) error {
	if pointsRedeemed < 0 || pointsEarned < 0 {
		return store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customersByID[customerID]
	if !exists || customer.OrgID != orgID {
		return store.ErrNotFound
	}
	if customer.Points < pointsRedeemed {
		return store.ErrInsufficientPoints
	}

	customer.Points = customer.Points - pointsRedeemed + pointsEarned
	customer.TotalSpentCents += spentCents
	customer.VisitCount++
	s.customersByID[customerID] = customer
	return nil
}

func (s *Store) GetLoyaltySettings(_ context.Context, orgID string) (*domain.LoyaltySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, exists := s.settingsByOrg[orgID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySettings := settings
	return &copySettings, nil
}

func (s *Store) UpdateLoyaltySettings(_ context.Context, settings domain.LoyaltySettings) (*domain.LoyaltySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.OrgID == "" || settings.PointsPerCurrency < 0 || settings.PointsToCurrency < 0 {
		return nil, store.ErrInvalidOrder
	}

	s.settingsByOrg[settings.OrgID] = settings
	updated := settings
	return &updated, nil
}

func (s *Store) OpenShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shift.ID == "" || shift.OrgID == "" || shift.CashierID == "" || shift.StartingCashCents < 0 {
		return nil, store.ErrInvalidOrder
	}
	key := shiftKey(shift.OrgID, shift.CashierID)
	if _, exists := s.activeShiftByKey[key]; exists {
		return nil, store.ErrInvalidOrder
	}

	shift.Status = domain.ShiftStatusActive
	s.shiftsByID[shift.ID] = shift
	s.activeShiftByKey[key] = shift.ID
	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(_ context.Context, orgID string, cashierID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.activeShiftByKey[shiftKey(orgID, cashierID)]
	if !exists {
		return nil, store.ErrNoActiveShift
	}
	shift := s.shiftsByID[id]
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) AccumulateShift(_ context.Context, shiftID string, saleCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists || shift.Status != domain.ShiftStatusActive {
		return store.ErrNotFound
	}

	shift.TotalSalesCents += saleCents
	shift.TotalOrders++
	s.shiftsByID[shiftID] = shift
	return nil
}

func (s *Store) CloseActiveShift(_ context.Context, orgID string, cashierID string, endingCashCents int64, notes string, closedAt time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := shiftKey(orgID, cashierID)
	id, exists := s.activeShiftByKey[key]
	if !exists {
		return nil, store.ErrNoActiveShift
	}

	shift := s.shiftsByID[id]
	shift.Status = domain.ShiftStatusClosed
	shift.EndingCashCents = endingCashCents
	shift.ExpectedCashCents = shift.StartingCashCents + shift.TotalSalesCents
	shift.CashDifferenceCents = endingCashCents - shift.ExpectedCashCents
	shift.Notes = notes
	shift.ClosedAt = &closedAt
	s.shiftsByID[id] = shift
	delete(s.activeShiftByKey, key)

	closed := shift
	return &closed, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidOrder
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidOrder
	}

	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context, orgID string) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		if u.OrgID == orgID {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int { return cmpString(a.Username, b.Username) })
	return users, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func cloneOrder(order domain.Order) domain.Order {
	copyOrder := order
	copyOrder.Lines = slices.Clone(order.Lines)
	return copyOrder
}

func stockKey(productID string, branchID string) string {
	return productID + "::" + branchID
}

func shiftKey(orgID string, cashierID string) string {
	return orgID + "::" + cashierID
}

func customerPhoneKey(orgID string, phone string) string {
	return orgID + "::" + strings.TrimSpace(phone)
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
