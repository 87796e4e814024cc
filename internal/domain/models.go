package domain

import "time"

type Branch struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Main      bool      `json:"main"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

type Product struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	SKU        string    `json:"sku,omitempty"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id,omitempty"`
	PriceCents int64     `json:"price_cents"`
	CostCents  int64     `json:"cost_cents"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CategoryID   string `json:"category_id"`
	PriceCents   int64  `json:"price_cents"`
	CostCents    int64  `json:"cost_cents"`
	BranchID     string `json:"branch_id"`
	InitialStock int    `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	CostCents  *int64  `json:"cost_cents,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type StockEntry struct {
	ProductID string    `json:"product_id"`
	BranchID  string    `json:"branch_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RestockRequest struct {
	ProductID string `json:"product_id"`
	BranchID  string `json:"branch_id"`
	Quantity  int    `json:"quantity"`
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerID     string     `json:"customer_id,omitempty"`
	PointsToRedeem int64      `json:"points_to_redeem"`
	PaymentMethod  string     `json:"payment_method"`
	Lines          []CartLine `json:"lines"`
}

type Order struct {
	ID             string      `json:"id"`
	OrgID          string      `json:"org_id"`
	BranchID       string      `json:"branch_id"`
	SellerID       string      `json:"seller_id"`
	ShiftID        string      `json:"shift_id,omitempty"`
	CustomerID     string      `json:"customer_id,omitempty"`
	SubtotalCents  int64       `json:"subtotal_cents"`
	PointsRedeemed int64       `json:"points_redeemed"`
	DiscountCents  int64       `json:"discount_cents"`
	TotalCents     int64       `json:"total_cents"`
	PointsEarned   int64       `json:"points_earned"`
	PaymentMethod  string      `json:"payment_method"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	Lines          []OrderLine `json:"lines"`
}

type OrderLine struct {
	OrderID          string `json:"order_id"`
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	Quantity         int    `json:"quantity"`
	PriceAtSaleCents int64  `json:"price_at_sale_cents"`
	CostAtSaleCents  int64  `json:"cost_at_sale_cents"`
}

type ReceiptLine struct {
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Receipt struct {
	OrderID        string        `json:"order_id"`
	BranchID       string        `json:"branch_id"`
	Lines          []ReceiptLine `json:"lines"`
	SubtotalCents  int64         `json:"subtotal_cents"`
	DiscountCents  int64         `json:"discount_cents"`
	TotalCents     int64         `json:"total_cents"`
	PointsRedeemed int64         `json:"points_redeemed"`
	PointsEarned   int64         `json:"points_earned"`
	PaymentMethod  string        `json:"payment_method"`
	CreatedAt      time.Time     `json:"created_at"`
}

type CommissionRule struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	Name       string    `json:"name"`
	Scope      string    `json:"scope"`
	CategoryID string    `json:"category_id,omitempty"`
	ProductID  string    `json:"product_id,omitempty"`
	Type       string    `json:"type"`
	Rate       float64   `json:"rate"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommissionRuleCreateRequest struct {
	Name       string  `json:"name"`
	Scope      string  `json:"scope"`
	CategoryID string  `json:"category_id,omitempty"`
	ProductID  string  `json:"product_id,omitempty"`
	Type       string  `json:"type"`
	Rate       float64 `json:"rate"`
}

type CommissionRecord struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"org_id"`
	OrderID         string    `json:"order_id"`
	ProductID       string    `json:"product_id"`
	RuleID          string    `json:"rule_id"`
	SellerID        string    `json:"seller_id"`
	SaleAmountCents int64     `json:"sale_amount_cents"`
	AmountCents     int64     `json:"amount_cents"`
	Status          string    `json:"status"`
	Period          string    `json:"period"`
	CreatedAt       time.Time `json:"created_at"`
}

type Customer struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"org_id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Points          int64     `json:"points"`
	TotalSpentCents int64     `json:"total_spent_cents"`
	VisitCount      int       `json:"visit_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type LoyaltySettings struct {
	OrgID             string    `json:"org_id"`
	Enabled           bool      `json:"enabled"`
	PointsPerCurrency int64     `json:"points_per_currency"`
	PointsToCurrency  int64     `json:"points_to_currency"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type LoyaltySettingsUpdateRequest struct {
	Enabled           *bool  `json:"enabled,omitempty"`
	PointsPerCurrency *int64 `json:"points_per_currency,omitempty"`
	PointsToCurrency  *int64 `json:"points_to_currency,omitempty"`
}

type Shift struct {
	ID                  string     `json:"id"`
	OrgID               string     `json:"org_id"`
	BranchID            string     `json:"branch_id"`
	CashierID           string     `json:"cashier_id"`
	Status              string     `json:"status"`
	StartingCashCents   int64      `json:"starting_cash_cents"`
	TotalSalesCents     int64      `json:"total_sales_cents"`
	TotalOrders         int        `json:"total_orders"`
	EndingCashCents     int64      `json:"ending_cash_cents,omitempty"`
	ExpectedCashCents   int64      `json:"expected_cash_cents,omitempty"`
	CashDifferenceCents int64      `json:"cash_difference_cents,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	OpenedAt            time.Time  `json:"opened_at"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
}

type ShiftOpenRequest struct {
	BranchID          string `json:"branch_id,omitempty"`
	StartingCashCents int64  `json:"starting_cash_cents"`
}

type ShiftCloseRequest struct {
	EndingCashCents int64  `json:"ending_cash_cents"`
	Notes           string `json:"notes"`
}

type ShiftResponse struct {
	Shift Shift `json:"shift"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	UserID   string
	Username string
	Role     string
	OrgID    string
	BranchID string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	OrgID     string
	Username  string
	Password  string
	Role      string
	BranchID  string
	Active    bool
	CreatedAt time.Time
}

type CashierUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	BranchID  string    `json:"branch_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BranchID string `json:"branch_id,omitempty"`
}

type CommissionReportQuery struct {
	SellerID string
	Period   string
	Status   string
}

type CommissionReportResponse struct {
	Records    []CommissionRecord `json:"records"`
	TotalCents int64              `json:"total_cents"`
}

const (
	OrderStatusCompleted = "COMPLETED"
)

const (
	ShiftStatusActive = "active"
	ShiftStatusClosed = "closed"
)

const (
	CommissionScopeAll      = "ALL"
	CommissionScopeCategory = "CATEGORY"
	CommissionScopeProduct  = "PRODUCT"
)

const (
	CommissionTypePercentage = "PERCENTAGE"
	CommissionTypeFixed      = "FIXED"
)

const (
	CommissionStatusPending = "PENDING"
	CommissionStatusPaid    = "PAID"
)

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)
