package catalog

import (
	"context"
	"errors"
	"fmt"

	"discovery-backend/internal/shared/metrics"
)

// Service exposes geographic browsing over the catalog.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Snapshot returns the approved vendors visible at call time.
func (s *Service) Snapshot(ctx context.Context) ([]Vendor, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("catalog service not configured")
	}
	return s.Repo.ListApproved(ctx)
}

// Nearby returns approved vendors matching q, distance sorted.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]Nearby, error) {
	if q.Origin != nil && !q.Origin.Valid() {
		return nil, fmt.Errorf("%w: origin out of range", ErrInvalidInput)
	}
	if q.RadiusKM != nil && *q.RadiusKM < 0 {
		return nil, fmt.Errorf("%w: negative radius", ErrInvalidInput)
	}
	vendors, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := Locate(vendors, q)
	metrics.ObserveNearbyResults(len(out))
	return out, nil
}

// Get returns an approved vendor by id.
func (s *Service) Get(ctx context.Context, vendorID int64) (Vendor, error) {
	if s == nil || s.Repo == nil {
		return Vendor{}, errors.New("catalog service not configured")
	}
	if vendorID <= 0 {
		return Vendor{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, vendorID)
}
