package delivery

import (
	"math"

	"github.com/shopspring/decimal"

	"storefront-order-engine/models"
	"storefront-order-engine/money"
)

type feeTier struct {
	maxKm float64
	fee   decimal.Decimal
}

// Tiers are checked in order; the first upper bound that covers the distance wins.
var feeTiers = []feeTier{
	{maxKm: 5, fee: decimal.NewFromInt(10)},
	{maxKm: 10, fee: decimal.NewFromInt(20)},
	{maxKm: 15, fee: decimal.NewFromInt(30)},
	{maxKm: 20, fee: decimal.NewFromInt(40)},
	{maxKm: 25, fee: decimal.NewFromInt(50)},
	{maxKm: 30, fee: decimal.NewFromInt(60)},
}

var (
	// FarFee applies beyond the last tier.
	FarFee = decimal.NewFromInt(75)

	// DefaultFee is charged when no quote could be computed.
	DefaultFee = money.MustParse("3.00")
)

// transitKmPerHour is the notional courier speed behind EstimatedHours.
const transitKmPerHour = 10

// FeeForDistance maps a distance to its tiered delivery fee.
func FeeForDistance(km float64) decimal.Decimal {
	for _, tier := range feeTiers {
		if km <= tier.maxKm {
			return tier.fee
		}
	}
	return FarFee
}

// EstimatedHours is the transit time at 10 km/h, rounded up, plus one hour of processing.
func EstimatedHours(km float64) int {
	if km < 0 {
		km = 0
	}
	return int(math.Ceil(km/transitKmPerHour)) + 1
}

// FeeOrDefault returns the quoted fee, or DefaultFee when quote is nil.
func FeeOrDefault(quote *models.DeliveryQuote) decimal.Decimal {
	if quote == nil {
		return DefaultFee
	}
	return quote.Fee
}
