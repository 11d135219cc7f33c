package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	vendors map[int64]Vendor
}

func NewMemoryRepo(vendors ...Vendor) *MemoryRepo {
	r := &MemoryRepo{vendors: make(map[int64]Vendor, len(vendors))}
	for _, v := range vendors {
		r.vendors[v.ID] = cloneVendor(v)
	}
	return r
}

// Put inserts or replaces a vendor.
func (r *MemoryRepo) Put(vendor Vendor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendors[vendor.ID] = cloneVendor(vendor)
}

func (r *MemoryRepo) ListApproved(ctx context.Context) ([]Vendor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Vendor, 0, len(r.vendors))
	for _, v := range r.vendors {
		if !v.Approved {
			continue
		}
		out = append(out, cloneVendor(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, vendorID int64) (Vendor, error) {
	if err := ctx.Err(); err != nil {
		return Vendor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vendors[vendorID]
	if !ok || !v.Approved {
		return Vendor{}, ErrNotFound
	}
	return cloneVendor(v), nil
}

func cloneVendor(v Vendor) Vendor {
	out := v
	if v.Location != nil {
		loc := *v.Location
		out.Location = &loc
	}
	if v.Amenities != nil {
		out.Amenities = make(map[string]bool, len(v.Amenities))
		for k, val := range v.Amenities {
			out.Amenities[k] = val
		}
	}
	out.Items = make([]Item, len(v.Items))
	for i, item := range v.Items {
		item.VendorID = v.ID
		out.Items[i] = item
	}
	return out
}
