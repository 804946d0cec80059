// Package catalog fetches and caches the shared label-template catalog.
//
// The catalog is published in a shared registry outside the engine's control;
// on remote mutation the engine re-fetches the whole collection rather than
// patching incrementally. Consistency matters more than bandwidth here.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RecordType is the remote record type of published catalog templates,
// used when subscribing to catalog mutations.
const RecordType = "catalog.template"

// Template is one label template in the shared catalog.
type Template struct {
	// Name is the unique template identifier
	Name string `json:"name"`

	// Description says what the template is for
	Description string `json:"description,omitempty"`

	// Layout is the opaque rendering layout consumed by the label renderer
	Layout string `json:"layout"`

	// Version is the template's published version string
	Version string `json:"version,omitempty"`

	// UpdatedAt is when the template was last modified upstream
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Catalog is the full set of published label templates.
type Catalog struct {
	// Name identifies the catalog
	Name string `json:"name"`

	// Templates is the published template collection
	Templates []Template `json:"templates"`
}

// Validate checks structural invariants of a fetched catalog.
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("catalog name is required")
	}

	seen := make(map[string]bool, len(c.Templates))
	for i, tpl := range c.Templates {
		if tpl.Name == "" {
			return fmt.Errorf("template[%d]: name is required", i)
		}
		if seen[tpl.Name] {
			return fmt.Errorf("template[%d]: duplicate template name '%s'", i, tpl.Name)
		}
		seen[tpl.Name] = true
		if tpl.Layout == "" {
			return fmt.Errorf("template[%d] (%s): layout is required", i, tpl.Name)
		}
	}

	return nil
}

// Source fetches the catalog from its upstream location. Hashes returned by
// Fetch and CurrentHash are computed over the same raw upstream bytes, so the
// two are directly comparable for change detection.
type Source interface {
	// Fetch retrieves and parses the current catalog, returning the hash
	// of the raw upstream data alongside it
	Fetch(ctx context.Context) (*Catalog, string, error)

	// CurrentHash returns the hash of the upstream data without parsing it
	CurrentHash(ctx context.Context) (string, error)
}

// parseCatalog decodes and validates raw catalog JSON.
func parseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog data: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &cat, nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
