package ports

import "context"

// GeoInfo is the resolved position of a town
type GeoInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Geocoder resolves a town name into coordinates and a canonical address.
// A town the service does not know yields a NotFound error.
type Geocoder interface {
	Resolve(ctx context.Context, town string) (*GeoInfo, error)
	GetProviderName() string
}
