package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type MySQLVendorRepo struct{ db *sql.DB }

func NewMySQLVendorRepo(db *sql.DB) *MySQLVendorRepo { return &MySQLVendorRepo{db: db} }

func (r *MySQLVendorRepo) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, phone, address_line, city, state, pin_code, country,
       pickup_location, pickup_location_added
FROM vendors WHERE id = ?`, id)

	var v domain.Vendor
	var pickup sql.NullString
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.AddressLine, &v.City, &v.State,
		&v.PinCode, &v.Country, &pickup, &v.PickupLocationAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	v.PickupLocation = pickup.String
	return &v, nil
}

// SetPickupLocation write-through caches the carrier-confirmed location on
// the vendor record so shipments stop re-registering it.
func (r *MySQLVendorRepo) SetPickupLocation(ctx context.Context, vendorID, location string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE vendors SET pickup_location = ?, pickup_location_added = 1
        WHERE id = ?`, location, vendorID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrVendorNotFound
	}
	return nil
}

var _ usecase.VendorRepo = (*MySQLVendorRepo)(nil)
