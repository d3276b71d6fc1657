package repositories

import (
	"context"
	"errors"
	"strings"

	"property-backend/internal/ledger"
	"property-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LandlordRepository struct {
	DB *pgxpool.Pool
}

func NewLandlordRepository(db *pgxpool.Pool) *LandlordRepository {
	return &LandlordRepository{DB: db}
}

func (r *LandlordRepository) Create(ctx context.Context, l *models.Landlord) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO landlords(name, email, password_hash)
         VALUES($1, $2, $3)
         RETURNING id, created_at`,
		l.Name, strings.ToLower(l.Email), l.PasswordHash,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *LandlordRepository) GetByEmail(ctx context.Context, email string) (*models.Landlord, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
         FROM landlords WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))

	var l models.Landlord
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.PasswordHash, &l.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// notFound maps pgx's no-rows error onto the ledger's NotFound kind
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ErrNotFound
	}
	return err
}
