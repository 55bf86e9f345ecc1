// Package catalog defines the interfaces to the external content catalog and
// its cache. Both are collaborators owned outside this service; the master
// list builder and the consensus engine only depend on these contracts.
package catalog

import (
	"context"
	"errors"

	"matchroom/internal/domain"
)

// ErrUnavailable indicates the catalog gateway could not be reached. Callers
// either fall back to the cache (list building) or abort cleanly (consensus
// detection); partial results are never persisted.
var ErrUnavailable = errors.New("catalog: gateway unavailable")

// Gateway fetches candidate lists and content detail from the catalog.
type Gateway interface {
	// FetchCandidates returns an ordered candidate list for a filter spec.
	FetchCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error)

	// FetchContent returns the detail for one content id.
	FetchContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error)
}

// Cache is the external cache collaborator: it keeps the last good candidate
// set per filter spec (the gateway-failure fallback) and content detail.
type Cache interface {
	// GetCandidates returns the cached candidate set for a filter spec;
	// repository.ErrNotFound on a miss.
	GetCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error)

	// SetCandidates stores the candidate set for a filter spec.
	SetCandidates(ctx context.Context, filters domain.Filters, items []domain.ContentItem) error

	// GetContent returns cached detail for one id; repository.ErrNotFound on a miss.
	GetContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error)

	// SetContent stores detail for one item.
	SetContent(ctx context.Context, item *domain.ContentItem) error
}
