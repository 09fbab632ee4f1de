// Package catalog loads the beat catalog from configured sources and turns
// loosely-typed rows into canonical, playable tracks.
package catalog

import (
	"context"
)

// Provider is the interface for catalog sources.
type Provider interface {
	// Fetch retrieves every record the source currently offers.
	Fetch(ctx context.Context) ([]Record, error)

	// Name returns the provider type (used in config).
	Name() string
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}
