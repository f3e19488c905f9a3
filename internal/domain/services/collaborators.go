package services

import "context"

// Outdater is the cache-invalidation collaborator. Implementations
// mark derived or cached content stale after a change. Both methods
// must be callable inside the caller's transaction scope and may fail
// the whole transaction.
type Outdater interface {
	// ProcessPageEdit invalidates content derived from an existing
	// page whose attachments changed.
	ProcessPageEdit(ctx context.Context, siteID, pageID int64, slug string) error

	// ProcessPageDisplace invalidates content affected by something
	// newly existing where nothing did before.
	ProcessPageDisplace(ctx context.Context, siteID, pageID int64, slug string) error
}

// PageResolver resolves a page's human-readable slug. Fails with a
// not-found error if the page does not exist.
type PageResolver interface {
	ResolveSlug(ctx context.Context, siteID, pageID int64) (string, error)
}
