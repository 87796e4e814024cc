package loyalty

import "github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"

// Exchange rates in LoyaltySettings are expressed in whole currency
// units while money is carried as cents.
const centsPerCurrencyUnit = 100

// QuoteRedemption converts a requested point spend into a discount in
// cents: floor(points / points_to_currency) currency units. The caller
// guarantees the customer holds at least pointsRequested.
func QuoteRedemption(pointsRequested int64, settings domain.LoyaltySettings) int64 {
	if pointsRequested <= 0 || settings.PointsToCurrency <= 0 {
		return 0
	}
	return pointsRequested / settings.PointsToCurrency * centsPerCurrencyUnit
}

// QuoteEarning returns the points earned on a sale total:
// floor(total / points_per_currency) with the total in currency units.
// Earning is computed from the discounted total, so redeeming points
// on a sale reduces what that sale earns.
func QuoteEarning(totalCents int64, settings domain.LoyaltySettings) int64 {
	if !settings.Enabled || settings.PointsPerCurrency <= 0 || totalCents <= 0 {
		return 0
	}
	return totalCents / (settings.PointsPerCurrency * centsPerCurrencyUnit)
}
