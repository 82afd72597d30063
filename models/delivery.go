package models

import "github.com/shopspring/decimal"

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryQuote is a computed delivery distance, fee and time estimate.
type DeliveryQuote struct {
	DistanceKm     float64         `json:"distance_km"`
	Fee            decimal.Decimal `json:"fee"`
	EstimatedHours int             `json:"estimated_hours"`
}
