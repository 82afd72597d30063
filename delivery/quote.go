package delivery

import (
	"context"
	"fmt"
	"strings"

	"storefront-order-engine/models"
)

// Calculator quotes delivery from a fixed origin to a resolved address.
type Calculator struct {
	origin   models.Coordinates
	resolver Resolver
}

// NewCalculator panics if origin is not a valid coordinate pair.
// A nil resolver makes every quote fall back to DefaultFee.
func NewCalculator(origin models.Coordinates, resolver Resolver) *Calculator {
	mustBeValid(origin)
	return &Calculator{origin: origin, resolver: resolver}
}

// Quote resolves "address, city" and prices the delivery. Any failure to
// resolve is reported as ErrUnresolvedAddress; callers then use FeeOrDefault(nil).
func (c *Calculator) Quote(ctx context.Context, address, city string) (*models.DeliveryQuote, error) {
	address = strings.TrimSpace(address)
	city = strings.TrimSpace(city)
	if address == "" || city == "" || c.resolver == nil {
		return nil, ErrUnresolvedAddress
	}

	dest, err := c.resolver.Resolve(ctx, address+", "+city)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvedAddress, err)
	}
	if !ValidCoordinates(dest) {
		return nil, fmt.Errorf("%w: resolver returned (%v, %v)", ErrUnresolvedAddress, dest.Lat, dest.Lng)
	}

	return QuoteBetween(c.origin, dest), nil
}

// QuoteBetween prices a delivery between two known points.
func QuoteBetween(from, to models.Coordinates) *models.DeliveryQuote {
	km := DistanceKm(from, to)
	return &models.DeliveryQuote{
		DistanceKm:     km,
		Fee:            FeeForDistance(km),
		EstimatedHours: EstimatedHours(km),
	}
}
