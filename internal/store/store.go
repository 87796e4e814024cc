package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNoActiveShift      = errors.New("no active shift")
	ErrInvalidOrder       = errors.New("invalid order")
)

// StockShortfall reports which product could not be reserved. It wraps
// ErrInsufficientStock so errors.Is keeps working at the API boundary.
type StockShortfall struct {
	ProductID string
	Requested int
}

func (e *StockShortfall) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

func (e *StockShortfall) Unwrap() error {
	return ErrInsufficientStock
}

type Repository interface {
	ListProducts(ctx context.Context, orgID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, orgID string, productID string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, orgID string, productIDs []string) (map[string]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	GetStock(ctx context.Context, productID string, branchID string) (*domain.StockEntry, error)
	ReserveStock(ctx context.Context, productID string, branchID string, quantity int) error
	ReleaseStock(ctx context.Context, productID string, branchID string, quantity int) error

	ListBranches(ctx context.Context, orgID string) ([]domain.Branch, error)
	GetBranchByID(ctx context.Context, orgID string, branchID string) (*domain.Branch, error)
	GetMainBranch(ctx context.Context, orgID string) (*domain.Branch, error)

	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, orgID string, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, orgID string, branchID string, limit int) ([]domain.Order, error)

	ListCommissionRules(ctx context.Context, orgID string) ([]domain.CommissionRule, error)
	CreateCommissionRule(ctx context.Context, rule domain.CommissionRule) (*domain.CommissionRule, error)
	UpdateCommissionRuleActive(ctx context.Context, orgID string, ruleID string, active bool) (*domain.CommissionRule, error)
	CreateCommissionRecord(ctx context.Context, record domain.CommissionRecord) (*domain.CommissionRecord, error)
	ListCommissionRecords(ctx context.Context, orgID string, query domain.CommissionReportQuery, limit int) ([]domain.CommissionRecord, error)

	GetCustomerByID(ctx context.Context, orgID string, customerID string) (*domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, orgID string, phone string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListCustomers(ctx context.Context, orgID string, limit int) ([]domain.Customer, error)
	SettleLoyalty(ctx context.Context, orgID string, customerID string, pointsRedeemed int64, pointsEarned int64, spentCents int64) error

	GetLoyaltySettings(ctx context.Context, orgID string) (*domain.LoyaltySettings, error)
	UpdateLoyaltySettings(ctx context.Context, settings domain.LoyaltySettings) (*domain.LoyaltySettings, error)

	OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetActiveShift(ctx context.Context, orgID string, cashierID string) (*domain.Shift, error)
	AccumulateShift(ctx context.Context, shiftID string, saleCents int64) error
	CloseActiveShift(ctx context.Context, orgID string, cashierID string, endingCashCents int64, notes string, closedAt time.Time) (*domain.Shift, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context, orgID string) ([]domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
}
