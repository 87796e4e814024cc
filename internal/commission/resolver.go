package commission

import (
	"math"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
)

// Line is the slice of an order line the resolver needs. The caller
// supplies the product's category so resolution never touches storage.
type Line struct {
	ProductID      string
	CategoryID     string
	Quantity       int
	UnitPriceCents int64
}

type Match struct {
	Rule        domain.CommissionRule
	AmountCents int64
}

// Resolve picks the applicable rule for a sold line. Precedence is
// product scope, then category scope, then the org-wide fallback; the
// first active match in that order wins. A nil result means the line
// earns no commission, which is not an error.
func Resolve(rules []domain.CommissionRule, line Line) *Match {
	rule := matchRule(rules, line)
	if rule == nil {
		return nil
	}

	amount := Amount(*rule, line)
	if amount <= 0 {
		return nil
	}
	return &Match{Rule: *rule, AmountCents: amount}
}

// Amount computes the earned commission in cents. PERCENTAGE rules pay
// a share of the line subtotal; FIXED rules pay the rate per unit sold,
// with the rate expressed in currency units.
func Amount(rule domain.CommissionRule, line Line) int64 {
	subtotal := line.UnitPriceCents * int64(line.Quantity)

	switch rule.Type {
	case domain.CommissionTypePercentage:
		return int64(math.Round(rule.Rate / 100 * float64(subtotal)))
	case domain.CommissionTypeFixed:
		return int64(math.Round(rule.Rate*100)) * int64(line.Quantity)
	default:
		return 0
	}
}

// Period buckets a sale timestamp into the calendar month commission
// records are settled under.
func Period(at time.Time) string {
	return at.UTC().Format("2006-01")
}

func matchRule(rules []domain.CommissionRule, line Line) *domain.CommissionRule {
	if found := firstActive(rules, func(r domain.CommissionRule) bool {
		return r.Scope == domain.CommissionScopeProduct && r.ProductID == line.ProductID
	}); found != nil {
		return found
	}

	if line.CategoryID != "" {
		if found := firstActive(rules, func(r domain.CommissionRule) bool {
			return r.Scope == domain.CommissionScopeCategory && r.CategoryID == line.CategoryID
		}); found != nil {
			return found
		}
	}

	return firstActive(rules, func(r domain.CommissionRule) bool {
		return r.Scope == domain.CommissionScopeAll
	})
}

func firstActive(rules []domain.CommissionRule, match func(domain.CommissionRule) bool) *domain.CommissionRule {
	for i := range rules {
		if rules[i].Active && match(rules[i]) {
			rule := rules[i]
			return &rule
		}
	}
	return nil
}
