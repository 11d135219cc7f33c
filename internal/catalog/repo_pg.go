package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"discovery-backend/internal/geo"
)

type PGRepo struct {
	DB *sql.DB
}

const vendorColumns = `
  v.id, v.name, v.address, v.latitude, v.longitude,
  v.has_wifi, v.has_socket, v.is_pet_friendly, v.is_quiet, v.serves_food, v.has_board_games,
  v.is_approved,
  i.id, i.name, i.description, i.category, i.price`

func (r *PGRepo) ListApproved(ctx context.Context) ([]Vendor, error) {
	query := `
SELECT` + vendorColumns + `
FROM vendors v
LEFT JOIN catalog_items i ON i.vendor_id = v.id
WHERE v.is_approved = TRUE
ORDER BY v.id, i.id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list approved vendors: %w", err)
	}
	defer rows.Close()
	return scanVendors(rows)
}

func (r *PGRepo) GetByID(ctx context.Context, vendorID int64) (Vendor, error) {
	query := `
SELECT` + vendorColumns + `
FROM vendors v
LEFT JOIN catalog_items i ON i.vendor_id = v.id
WHERE v.id = $1 AND v.is_approved = TRUE
ORDER BY i.id`
	rows, err := r.DB.QueryContext(ctx, query, vendorID)
	if err != nil {
		return Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	defer rows.Close()
	vendors, err := scanVendors(rows)
	if err != nil {
		return Vendor{}, err
	}
	if len(vendors) == 0 {
		return Vendor{}, ErrNotFound
	}
	return vendors[0], nil
}

// scanVendors folds joined vendor/item rows into vendors, preserving row order.
func scanVendors(rows *sql.Rows) ([]Vendor, error) {
	var out []Vendor
	index := make(map[int64]int)
	for rows.Next() {
		var (
			v                  Vendor
			address            sql.NullString
			lat, lon           sql.NullFloat64
			flags              [6]bool
			itemID             sql.NullInt64
			itemName, itemDesc sql.NullString
			itemCategory       sql.NullString
			itemPrice          sql.NullFloat64
		)
		if err := rows.Scan(
			&v.ID, &v.Name, &address, &lat, &lon,
			&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5],
			&v.Approved,
			&itemID, &itemName, &itemDesc, &itemCategory, &itemPrice,
		); err != nil {
			return nil, fmt.Errorf("scan vendor row: %w", err)
		}

		pos, ok := index[v.ID]
		if !ok {
			if address.Valid {
				v.Address = address.String
			}
			if lat.Valid && lon.Valid {
				v.Location = &geo.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
			}
			v.Amenities = make(map[string]bool, len(KnownAmenities))
			for i, key := range KnownAmenities {
				v.Amenities[key] = flags[i]
			}
			out = append(out, v)
			pos = len(out) - 1
			index[v.ID] = pos
		}
		if !itemID.Valid {
			continue
		}
		item := Item{
			ID:       itemID.Int64,
			VendorID: out[pos].ID,
			Name:     itemName.String,
		}
		if itemDesc.Valid {
			item.Description = itemDesc.String
		}
		if itemCategory.Valid {
			item.Category = itemCategory.String
		}
		if itemPrice.Valid {
			item.Price = itemPrice.Float64
		}
		out[pos].Items = append(out[pos].Items, item)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("iterate vendor rows: %w", err)
	}
	for i := range out {
		if out[i].Items == nil {
			out[i].Items = []Item{}
		}
	}
	return out, nil
}
