package repositories

import (
	"context"

	"property-backend/internal/money"
	"property-backend/internal/portfolio"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PropertyRepository struct {
	DB *pgxpool.Pool
}

func NewPropertyRepository(db *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{DB: db}
}

// ListByLandlord returns the landlord's properties. Occupied is left false;
// the report service derives it from leases.
func (r *PropertyRepository) ListByLandlord(ctx context.Context, landlordID int) ([]portfolio.Property, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM properties WHERE landlord_id = $1 ORDER BY id`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []portfolio.Property
	for rows.Next() {
		var p portfolio.Property
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

type MaintenanceRepository struct {
	DB *pgxpool.Pool
}

func NewMaintenanceRepository(db *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{DB: db}
}

// ListByLandlord returns every maintenance request on the landlord's properties
func (r *MaintenanceRepository) ListByLandlord(ctx context.Context, landlordID int) ([]portfolio.MaintenanceRequest, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT m.id, m.property_id, m.actual_cost_cents, m.request_date
         FROM maintenance_requests m
         JOIN properties p ON p.id = m.property_id
         WHERE p.landlord_id = $1
         ORDER BY m.request_date, m.id`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []portfolio.MaintenanceRequest
	for rows.Next() {
		var (
			req  portfolio.MaintenanceRequest
			cost *int64
		)
		if err := rows.Scan(&req.ID, &req.PropertyID, &cost, &req.RequestDate); err != nil {
			return nil, err
		}
		if cost != nil {
			c, err := money.FromCents(*cost)
			if err != nil {
				return nil, err
			}
			req.ActualCost = &c
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
