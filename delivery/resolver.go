package delivery

import (
	"context"
	"errors"
	"strings"

	"storefront-order-engine/models"
)

var ErrUnresolvedAddress = errors.New("address could not be resolved to coordinates")

// Resolver turns free-form address text into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, addressText string) (models.Coordinates, error)
}

// Landmark is one entry of a StaticResolver table.
type Landmark struct {
	Match  string
	Coords models.Coordinates
}

// StaticResolver matches address text against a fixed table by
// case-insensitive substring. The first matching entry wins.
type StaticResolver struct {
	landmarks []Landmark
}

func NewStaticResolver(landmarks ...Landmark) *StaticResolver {
	table := make([]Landmark, 0, len(landmarks))
	for _, l := range landmarks {
		if l.Match == "" {
			continue
		}
		table = append(table, Landmark{Match: strings.ToLower(l.Match), Coords: l.Coords})
	}
	return &StaticResolver{landmarks: table}
}

func (r *StaticResolver) Resolve(_ context.Context, addressText string) (models.Coordinates, error) {
	text := strings.ToLower(addressText)
	for _, l := range r.landmarks {
		if strings.Contains(text, l.Match) {
			return l.Coords, nil
		}
	}
	return models.Coordinates{}, ErrUnresolvedAddress
}
