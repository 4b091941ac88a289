// Package scrape defines the site-adapter contract and the shared fetch layer.
package scrape

import (
	"context"

	"github.com/petrescueapp/data-collector/internal/model"
)

// Source is the per-municipality extraction strategy. A concrete source binds
// a base origin, request headers, a timeout, and one or more listing
// endpoints; the collector drives it without knowing any of that.
type Source interface {
	// Name identifies the municipality for logs and alerts.
	Name() string

	// ListDetailPages fetches the configured listing endpoints and returns
	// the absolute detail-page URLs, deduplicated across endpoints. A
	// listing page with zero matching anchors is a *StructureError: the
	// reference sites are never legitimately empty, so zero matches means
	// the layout changed.
	ListDetailPages(ctx context.Context) ([]string, error)

	// ExtractRaw fetches one detail page and pulls out the raw fields.
	ExtractRaw(ctx context.Context, detailURL string) (model.RawRecord, error)

	// Canonicalize normalizes a raw record. Identical across sources; it
	// delegates to the normalize package.
	Canonicalize(raw model.RawRecord) (model.Record, error)
}
