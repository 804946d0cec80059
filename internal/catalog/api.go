package catalog

import (
	"context"
	"fmt"

	"github.com/medibook/share-engine/internal/httpclient"
)

// APISource fetches the catalog from an HTTP endpoint serving catalog JSON.
type APISource struct {
	endpoint string
	client   httpclient.Client
}

// NewAPISource creates an API-based catalog source.
func NewAPISource(endpoint string) *APISource {
	return &APISource{
		endpoint: endpoint,
		client:   httpclient.NewDefaultClient(0), // default timeout
	}
}

var _ Source = (*APISource)(nil)

// Fetch retrieves and parses the catalog from the endpoint.
func (a *APISource) Fetch(ctx context.Context) (*Catalog, string, error) {
	data, err := a.client.Get(ctx, a.endpoint)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch catalog from %s: %w", a.endpoint, err)
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return nil, "", err
	}
	return cat, hashBytes(data), nil
}

// CurrentHash returns the hash of the endpoint's current response body.
func (a *APISource) CurrentHash(ctx context.Context) (string, error) {
	data, err := a.client.Get(ctx, a.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to fetch catalog from %s: %w", a.endpoint, err)
	}
	return hashBytes(data), nil
}
