package domain

import "context"

// GuestCartStore persists the cart of an unauthenticated session. Absent or
// corrupted state always reads as an empty cart, never an error; a quantity
// below 1 is never persisted (removal deletes the line instead).
type GuestCartStore interface {
	// Load returns the entries for a session, in insertion order.
	Load(ctx context.Context, sessionID string) ([]CartEntry, error)

	// Save replaces the stored entries for a session.
	Save(ctx context.Context, sessionID string, entries []CartEntry) error

	// Clear removes the stored cart for a session entirely.
	Clear(ctx context.Context, sessionID string) error
}

// CatalogGateway exposes the read-only reference endpoints of the storefront
// API used for hydration.
type CatalogGateway interface {
	FetchAttributes(ctx context.Context) (*AttributeReferenceSet, error)
	FetchProduct(ctx context.Context, productID string) (*ProductSummary, error)
}

// RemoteCartGateway is the server-side cart of an authenticated user. The
// server is the source of truth for merge-by-identity; callers send adds
// verbatim and never pre-merge.
type RemoteCartGateway interface {
	List(ctx context.Context, token string) ([]CartEntry, error)
	Add(ctx context.Context, token string, entry CartEntry) error
	UpdateQuantity(ctx context.Context, token, itemID string, quantity int) error
	Remove(ctx context.Context, token, itemID string) error
}
