package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
	"github.com/palmkaka/saas-inventory-pos-sub000/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, orgID string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, COALESCE(sku, ''), name, COALESCE(category_id, ''), price_cents, cost_cents, active, created_at
		FROM products
		WHERE org_id = $1 AND active = true
		ORDER BY category_id, name
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.CategoryID, &p.PriceCents, &p.CostCents, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.OrgID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidOrder
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, org_id, sku, name, category_id, price_cents, cost_cents, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, product.ID, product.OrgID, nullIfEmpty(product.SKU), product.Name, nullIfEmpty(product.CategoryID),
		product.PriceCents, product.CostCents, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, orgID string, productID string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, COALESCE(sku, ''), name, COALESCE(category_id, ''), price_cents, cost_cents, active, created_at
		FROM products
		WHERE org_id = $1 AND id = $2
	`, orgID, productID).Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.CategoryID, &p.PriceCents, &p.CostCents, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, orgID string, productIDs []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, COALESCE(sku, ''), name, COALESCE(category_id, ''), price_cents, cost_cents, active, created_at
		FROM products
		WHERE org_id = $1 AND id = ANY($2)
	`, orgID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.CategoryID, &p.PriceCents, &p.CostCents, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidOrder
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $3, category_id = $4, price_cents = $5, cost_cents = $6, active = $7
		WHERE org_id = $1 AND id = $2
	`, product.OrgID, product.ID, product.Name, nullIfEmpty(product.CategoryID),
		product.PriceCents, product.CostCents, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) GetStock(ctx context.Context, productID string, branchID string) (*domain.StockEntry, error) {
	var entry domain.StockEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT product_id, branch_id, quantity, updated_at
		FROM stock_entries
		WHERE product_id = $1 AND branch_id = $2
	`, productID, branchID).Scan(&entry.ProductID, &entry.BranchID, &entry.Quantity, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ReserveStock decrements only when enough stock remains. The quantity
// guard lives inside the UPDATE, so concurrent reservations of the last
// units serialize on the row and exactly one wins.
func (s *Store) ReserveStock(ctx context.Context, productID string, branchID string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidOrder
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE stock_entries
		SET quantity = quantity - $3, updated_at = now()
		WHERE product_id = $1 AND branch_id = $2 AND quantity >= $3
	`, productID, branchID, quantity)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &store.StockShortfall{ProductID: productID, Requested: quantity}
	}
	return nil
}

func (s *Store) ReleaseStock(ctx context.Context, productID string, branchID string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_entries (product_id, branch_id, quantity, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET quantity = stock_entries.quantity + EXCLUDED.quantity, updated_at = now()
	`, productID, branchID, quantity)
	return err
}

func (s *Store) ListBranches(ctx context.Context, orgID string) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, is_main, created_at
		FROM branches
		WHERE org_id = $1
		ORDER BY name
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 8)
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.OrgID, &b.Name, &b.Main, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return branches, nil
}

func (s *Store) GetBranchByID(ctx context.Context, orgID string, branchID string) (*domain.Branch, error) {
	var b domain.Branch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, is_main, created_at
		FROM branches
		WHERE org_id = $1 AND id = $2
	`, orgID, branchID).Scan(&b.ID, &b.OrgID, &b.Name, &b.Main, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetMainBranch(ctx context.Context, orgID string) (*domain.Branch, error) {
	var b domain.Branch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, is_main, created_at
		FROM branches
		WHERE org_id = $1 AND is_main = true
		LIMIT 1
	`, orgID).Scan(&b.ID, &b.OrgID, &b.Name, &b.Main, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreateOrder writes the header and every line in one transaction so a
// partially written sale can never be observed.
func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.OrgID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidOrder
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, org_id, branch_id, seller_id, shift_id, customer_id,
			subtotal_cents, points_redeemed, discount_cents, total_cents, points_earned,
			payment_method, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, order.ID, order.OrgID, order.BranchID, order.SellerID, nullIfEmpty(order.ShiftID), nullIfEmpty(order.CustomerID),
		order.SubtotalCents, order.PointsRedeemed, order.DiscountCents, order.TotalCents, order.PointsEarned,
		order.PaymentMethod, order.Status, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, price_at_sale_cents, cost_at_sale_cents)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, order.ID, line.ProductID, line.ProductName, line.Quantity, line.PriceAtSaleCents, line.CostAtSaleCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(ctx context.Context, orgID string, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, branch_id, seller_id, COALESCE(shift_id, ''), COALESCE(customer_id, ''),
			subtotal_cents, points_redeemed, discount_cents, total_cents, points_earned,
			payment_method, status, created_at
		FROM orders
		WHERE org_id = $1 AND id = $2
	`, orgID, orderID).Scan(&o.ID, &o.OrgID, &o.BranchID, &o.SellerID, &o.ShiftID, &o.CustomerID,
		&o.SubtotalCents, &o.PointsRedeemed, &o.DiscountCents, &o.TotalCents, &o.PointsEarned,
		&o.PaymentMethod, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	lines, err := s.orderLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, orgID string, branchID string, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, branch_id, seller_id, COALESCE(shift_id, ''), COALESCE(customer_id, ''),
			subtotal_cents, points_redeemed, discount_cents, total_cents, points_earned,
			payment_method, status, created_at
		FROM orders
		WHERE org_id = $1 AND ($2 = '' OR branch_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, orgID, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrgID, &o.BranchID, &o.SellerID, &o.ShiftID, &o.CustomerID,
			&o.SubtotalCents, &o.PointsRedeemed, &o.DiscountCents, &o.TotalCents, &o.PointsEarned,
			&o.PaymentMethod, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := s.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (s *Store) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, price_at_sale_cents, cost_at_sale_cents
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_name
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.PriceAtSaleCents, &l.CostAtSaleCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) ListCommissionRules(ctx context.Context, orgID string) ([]domain.CommissionRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, scope, COALESCE(category_id, ''), COALESCE(product_id, ''), rule_type, rate, active, created_at
		FROM commission_rules
		WHERE org_id = $1
		ORDER BY created_at, id
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]domain.CommissionRule, 0, 16)
	for rows.Next() {
		var r domain.CommissionRule
		if err := rows.Scan(&r.ID, &r.OrgID, &r.Name, &r.Scope, &r.CategoryID, &r.ProductID, &r.Type, &r.Rate, &r.Active, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

func (s *Store) CreateCommissionRule(ctx context.Context, rule domain.CommissionRule) (*domain.CommissionRule, error) {
	if rule.ID == "" || rule.OrgID == "" || rule.Rate < 0 {
		return nil, store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commission_rules (id, org_id, name, scope, category_id, product_id, rule_type, rate, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rule.ID, rule.OrgID, rule.Name, rule.Scope, nullIfEmpty(rule.CategoryID), nullIfEmpty(rule.ProductID),
		rule.Type, rule.Rate, rule.Active, rule.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := rule
	return &created, nil
}

func (s *Store) UpdateCommissionRuleActive(ctx context.Context, orgID string, ruleID string, active bool) (*domain.CommissionRule, error) {
	var r domain.CommissionRule
	err := s.db.QueryRowContext(ctx, `
		UPDATE commission_rules
		SET active = $3
		WHERE org_id = $1 AND id = $2
		RETURNING id, org_id, name, scope, COALESCE(category_id, ''), COALESCE(product_id, ''), rule_type, rate, active, created_at
	`, orgID, ruleID, active).Scan(&r.ID, &r.OrgID, &r.Name, &r.Scope, &r.CategoryID, &r.ProductID, &r.Type, &r.Rate, &r.Active, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateCommissionRecord(ctx context.Context, record domain.CommissionRecord) (*domain.CommissionRecord, error) {
	if record.ID == "" || record.OrgID == "" || record.AmountCents <= 0 {
		return nil, store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commission_records (id, org_id, order_id, product_id, rule_id, seller_id,
			sale_amount_cents, amount_cents, status, period, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, record.ID, record.OrgID, record.OrderID, record.ProductID, record.RuleID, record.SellerID,
		record.SaleAmountCents, record.AmountCents, record.Status, record.Period, record.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := record
	return &created, nil
}

func (s *Store) ListCommissionRecords(ctx context.Context, orgID string, query domain.CommissionReportQuery, limit int) ([]domain.CommissionRecord, error) {
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, order_id, product_id, rule_id, seller_id,
			sale_amount_cents, amount_cents, status, period, created_at
		FROM commission_records
		WHERE org_id = $1
			AND ($2 = '' OR seller_id = $2)
			AND ($3 = '' OR period = $3)
			AND ($4 = '' OR status = $4)
		ORDER BY created_at DESC
		LIMIT $5
	`, orgID, query.SellerID, query.Period, query.Status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.CommissionRecord, 0, limit)
	for rows.Next() {
		var r domain.CommissionRecord
		if err := rows.Scan(&r.ID, &r.OrgID, &r.OrderID, &r.ProductID, &r.RuleID, &r.SellerID,
			&r.SaleAmountCents, &r.AmountCents, &r.Status, &r.Period, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, orgID string, customerID string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, phone, points, total_spent_cents, visit_count, created_at
		FROM customers
		WHERE org_id = $1 AND id = $2
	`, orgID, customerID).Scan(&c.ID, &c.OrgID, &c.Name, &c.Phone, &c.Points, &c.TotalSpentCents, &c.VisitCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, orgID string, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, phone, points, total_spent_cents, visit_count, created_at
		FROM customers
		WHERE org_id = $1 AND phone = $2
	`, orgID, phone).Scan(&c.ID, &c.OrgID, &c.Name, &c.Phone, &c.Points, &c.TotalSpentCents, &c.VisitCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.OrgID == "" || customer.Phone == "" {
		return nil, store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, org_id, name, phone, points, total_spent_cents, visit_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, customer.ID, customer.OrgID, customer.Name, customer.Phone,
		customer.Points, customer.TotalSpentCents, customer.VisitCount, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(ctx context.Context, orgID string, limit int) ([]domain.Customer, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, phone, points, total_spent_cents, visit_count, created_at
		FROM customers
		WHERE org_id = $1
		ORDER BY name
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, limit)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Phone, &c.Points, &c.TotalSpentCents, &c.VisitCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

// SettleLoyalty applies the whole loyalty delta as one guarded update.
// The points >= redeemed predicate keeps two simultaneous redemptions
// for the same customer from driving the balance negative.
func (s *Store) SettleLoyalty(ctx context.Context, orgID string, customerID string, pointsRedeemed int64, pointsEarned int64, spentCents int64) error {
	if pointsRedeemed < 0 || pointsEarned < 0 {
		return store.ErrInvalidOrder
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET points = points - $3 + $4,
			total_spent_cents = total_spent_cents + $5,
			visit_count = visit_count + 1
		WHERE org_id = $1 AND id = $2 AND points >= $3
	`, orgID, customerID, pointsRedeemed, pointsEarned, spentCents)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetCustomerByID(ctx, orgID, customerID); err != nil {
			return err
		}
		return store.ErrInsufficientPoints
	}
	return nil
}

func (s *Store) GetLoyaltySettings(ctx context.Context, orgID string) (*domain.LoyaltySettings, error) {
	var settings domain.LoyaltySettings
	err := s.db.QueryRowContext(ctx, `
		SELECT org_id, enabled, points_per_currency, points_to_currency, updated_at
		FROM loyalty_settings
		WHERE org_id = $1
	`, orgID).Scan(&settings.OrgID, &settings.Enabled, &settings.PointsPerCurrency, &settings.PointsToCurrency, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (s *Store) UpdateLoyaltySettings(ctx context.Context, settings domain.LoyaltySettings) (*domain.LoyaltySettings, error) {
	if settings.OrgID == "" || settings.PointsPerCurrency < 0 || settings.PointsToCurrency < 0 {
		return nil, store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loyalty_settings (org_id, enabled, points_per_currency, points_to_currency, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (org_id)
		DO UPDATE SET enabled = EXCLUDED.enabled,
			points_per_currency = EXCLUDED.points_per_currency,
			points_to_currency = EXCLUDED.points_to_currency,
			updated_at = EXCLUDED.updated_at
	`, settings.OrgID, settings.Enabled, settings.PointsPerCurrency, settings.PointsToCurrency, settings.UpdatedAt)
	if err != nil {
		return nil, err
	}

	updated := settings
	return &updated, nil
}

// OpenShift relies on a partial unique index on (org_id, cashier_id)
// WHERE status = 'active', so a second open for the same cashier fails
// at the database no matter how the requests race.
func (s *Store) OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.ID == "" || shift.OrgID == "" || shift.CashierID == "" || shift.StartingCashCents < 0 {
		return nil, store.ErrInvalidOrder
	}

	shift.Status = domain.ShiftStatusActive
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, org_id, branch_id, cashier_id, status, starting_cash_cents,
			total_sales_cents, total_orders, opened_at)
		VALUES ($1,$2,$3,$4,$5,$6,0,0,$7)
	`, shift.ID, shift.OrgID, shift.BranchID, shift.CashierID, shift.Status, shift.StartingCashCents, shift.OpenedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(ctx context.Context, orgID string, cashierID string) (*domain.Shift, error) {
	var shift domain.Shift
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, branch_id, cashier_id, status, starting_cash_cents,
			total_sales_cents, total_orders, opened_at
		FROM shifts
		WHERE org_id = $1 AND cashier_id = $2 AND status = $3
	`, orgID, cashierID, domain.ShiftStatusActive).Scan(&shift.ID, &shift.OrgID, &shift.BranchID, &shift.CashierID,
		&shift.Status, &shift.StartingCashCents, &shift.TotalSalesCents, &shift.TotalOrders, &shift.OpenedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoActiveShift
		}
		return nil, err
	}
	return &shift, nil
}

func (s *Store) AccumulateShift(ctx context.Context, shiftID string, saleCents int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE shifts
		SET total_sales_cents = total_sales_cents + $2, total_orders = total_orders + 1
		WHERE id = $1 AND status = $3
	`, shiftID, saleCents, domain.ShiftStatusActive)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CloseActiveShift(ctx context.Context, orgID string, cashierID string, endingCashCents int64, notes string, closedAt time.Time) (*domain.Shift, error) {
	var shift domain.Shift
	var closed sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		UPDATE shifts
		SET status = $4,
			ending_cash_cents = $3,
			expected_cash_cents = starting_cash_cents + total_sales_cents,
			cash_difference_cents = $3 - (starting_cash_cents + total_sales_cents),
			notes = $5,
			closed_at = $6
		WHERE org_id = $1 AND cashier_id = $2 AND status = $7
		RETURNING id, org_id, branch_id, cashier_id, status, starting_cash_cents,
			total_sales_cents, total_orders, ending_cash_cents, expected_cash_cents,
			cash_difference_cents, COALESCE(notes, ''), opened_at, closed_at
	`, orgID, cashierID, endingCashCents, domain.ShiftStatusClosed, nullIfEmpty(notes), closedAt, domain.ShiftStatusActive).
		Scan(&shift.ID, &shift.OrgID, &shift.BranchID, &shift.CashierID, &shift.Status, &shift.StartingCashCents,
			&shift.TotalSalesCents, &shift.TotalOrders, &shift.EndingCashCents, &shift.ExpectedCashCents,
			&shift.CashDifferenceCents, &shift.Notes, &shift.OpenedAt, &closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoActiveShift
		}
		return nil, err
	}
	if closed.Valid {
		t := closed.Time
		shift.ClosedAt = &t
	}
	return &shift, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, org_id, username, password_hash, role, branch_id, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, user.ID, user.OrgID, user.Username, user.Password, user.Role, nullIfEmpty(user.BranchID), user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidOrder
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, orgID string) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, username, password_hash, role, COALESCE(branch_id, ''), active, created_at
		FROM users
		WHERE org_id = $1
		ORDER BY username
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Username, &u.Password, &u.Role, &u.BranchID, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, username, password_hash, role, COALESCE(branch_id, ''), active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.OrgID, &u.Username, &u.Password, &u.Role, &u.BranchID, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
