package main

import (
	"fmt"
	"strconv"
	"strings"

	"storefront-order-engine/cart"
	"storefront-order-engine/checkout"
	"storefront-order-engine/delivery"
	"storefront-order-engine/models"
	"storefront-order-engine/money"
)

// landmarks stands in for a geocoder in demos.
var landmarks = []delivery.Landmark{
	{Match: "connaught place", Coords: models.Coordinates{Lat: 28.6315, Lng: 77.2167}},
	{Match: "sector 18", Coords: models.Coordinates{Lat: 28.5355, Lng: 77.3910}},
	{Match: "cyber city", Coords: models.Coordinates{Lat: 28.4950, Lng: 77.0895}},
	{Match: "noida", Coords: models.Coordinates{Lat: 28.5355, Lng: 77.3910}},
	{Match: "gurgaon", Coords: models.Coordinates{Lat: 28.4595, Lng: 77.0266}},
	{Match: "new delhi", Coords: models.Coordinates{Lat: 28.6139, Lng: 77.2090}},
}

// buildCart parses "id:name:price:qty" lines separated by commas.
func buildCart(lines string) (*cart.Cart, error) {
	c := cart.New()
	for _, line := range strings.Split(lines, ",") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("cart line %q: want id:name:price:qty", line)
		}

		price, err := money.Parse(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("cart line %q: %w", line, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil {
			return nil, fmt.Errorf("cart line %q: bad quantity: %w", line, err)
		}

		item := models.LineItem{
			ProductID: strings.TrimSpace(parts[0]),
			Name:      strings.TrimSpace(parts[1]),
			UnitPrice: price,
		}
		if err := c.AddItem(item, qty); err != nil {
			return nil, fmt.Errorf("cart line %q: %w", line, err)
		}
	}
	return c, nil
}

func (cf checkoutFlags) request() checkout.Request {
	return checkout.Request{
		Customer: models.Customer{
			FirstName: cf.firstName,
			LastName:  cf.lastName,
			Email:     cf.email,
			Mobile:    cf.mobile,
		},
		Address: models.Address{
			Line1:   cf.line1,
			Line2:   cf.line2,
			City:    cf.city,
			State:   cf.state,
			Country: cf.country,
			Zip:     cf.zip,
		},
		Payment: models.PaymentSelection{
			Method: models.PaymentMethod(cf.payment),
			Detail: cf.upiID,
		},
		Notes: cf.notes,
	}
}
