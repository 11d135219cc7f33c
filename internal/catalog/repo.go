package catalog

import "context"

// Repo is the read-only catalog query interface.
type Repo interface {
	// ListApproved returns approved vendors with their items, ordered by vendor id.
	ListApproved(ctx context.Context) ([]Vendor, error)
	// GetByID returns an approved vendor or ErrNotFound.
	GetByID(ctx context.Context, vendorID int64) (Vendor, error)
}
