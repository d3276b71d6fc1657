package repositories

import (
	"context"
	"fmt"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the part of pgxpool.Pool and pgx.Tx the loaders need
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LedgerRepository loads and saves lease ledgers. Every query joins through
// properties so a landlord only ever sees their own leases.
type LedgerRepository struct {
	DB *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

const leaseColumns = `l.id, l.property_id, l.tenant_id, l.monthly_rent_cents,
		l.start_date, l.end_date, l.payment_due_day, l.status`

const paymentColumns = `id::text, lease_id, amount_cents, payment_date, payment_method,
		payment_type, notes, status, void_reason, voided_at`

// LoadLedger reads one lease and all its payments without locking
func (r *LedgerRepository) LoadLedger(ctx context.Context, landlordID, leaseID int) (*ledger.LeaseLedger, error) {
	return loadLedger(ctx, r.DB, landlordID, leaseID, false)
}

// UpdateLedger runs one load, mutate, save cycle. The lease row is locked
// with SELECT ... FOR UPDATE for the whole transaction, so concurrent writers
// to the same lease are serialized. fn returns the record it created or
// changed; that record is upserted before commit. If fn fails nothing is
// written.
func (r *LedgerRepository) UpdateLedger(
	ctx context.Context,
	landlordID, leaseID int,
	fn func(*ledger.LeaseLedger) (ledger.PaymentRecord, error),
) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	defer tx.Rollback(ctx)

	l, err := loadLedger(ctx, tx, landlordID, leaseID, true)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}

	changed, err := fn(l)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}

	if err := savePayment(ctx, tx, changed); err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, fmt.Errorf("save payment %s: %w", changed.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	return changed, l.Terms(), nil
}

// paymentKey normalizes a payment ID for a uuid comparison. Anything that is
// not a UUID cannot match a row.
func paymentKey(paymentID string) (string, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return "", ledger.ErrNotFound
	}
	return id.String(), nil
}

// LeaseIDForPayment finds which of the landlord's leases a payment belongs to
func (r *LedgerRepository) LeaseIDForPayment(ctx context.Context, landlordID int, paymentID string) (int, error) {
	key, err := paymentKey(paymentID)
	if err != nil {
		return 0, err
	}

	var leaseID int
	err = r.DB.QueryRow(ctx,
		`SELECT pm.lease_id
         FROM payments pm
         JOIN leases l ON l.id = pm.lease_id
         JOIN properties p ON p.id = l.property_id
         WHERE pm.id = $1::uuid AND p.landlord_id = $2`, key, landlordID,
	).Scan(&leaseID)
	if err != nil {
		return 0, notFound(err)
	}
	return leaseID, nil
}

// DeletePayment hard-deletes a payment row. This is the administrative
// path and ignores the void/restore lifecycle.
func (r *LedgerRepository) DeletePayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	key, err := paymentKey(paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	defer tx.Rollback(ctx)

	var leaseID int
	err = tx.QueryRow(ctx,
		`SELECT pm.lease_id
         FROM payments pm
         JOIN leases l ON l.id = pm.lease_id
         JOIN properties p ON p.id = l.property_id
         WHERE pm.id = $1::uuid AND p.landlord_id = $2
         FOR UPDATE OF l`, key, landlordID,
	).Scan(&leaseID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, notFound(err)
	}

	terms, err := loadTerms(ctx, tx, landlordID, leaseID, false)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}

	row := tx.QueryRow(ctx,
		`DELETE FROM payments WHERE id = $1::uuid RETURNING `+paymentColumns, key)
	deleted, err := scanPayment(row)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, notFound(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	return deleted, terms, nil
}

// LedgersForLandlord loads every lease ledger of the landlord, optionally
// limited to one property (propertyID 0 means all)
func (r *LedgerRepository) LedgersForLandlord(ctx context.Context, landlordID, propertyID int) ([]*ledger.LeaseLedger, error) {
	return r.loadMany(ctx,
		`SELECT `+leaseColumns+`
         FROM leases l
         JOIN properties p ON p.id = l.property_id
         WHERE p.landlord_id = $1 AND ($2 = 0 OR l.property_id = $2)
         ORDER BY l.id`, landlordID, propertyID)
}

// LedgersForTenant loads every lease ledger of one tenant
func (r *LedgerRepository) LedgersForTenant(ctx context.Context, landlordID, tenantID int) ([]*ledger.LeaseLedger, error) {
	return r.loadMany(ctx,
		`SELECT `+leaseColumns+`
         FROM leases l
         JOIN properties p ON p.id = l.property_id
         WHERE p.landlord_id = $1 AND l.tenant_id = $2
         ORDER BY l.start_date, l.id`, landlordID, tenantID)
}

// LeasesForLandlord returns lease terms only, for occupancy
func (r *LedgerRepository) LeasesForLandlord(ctx context.Context, landlordID int) ([]ledger.LeaseTerms, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+leaseColumns+`
         FROM leases l
         JOIN properties p ON p.id = l.property_id
         WHERE p.landlord_id = $1
         ORDER BY l.id`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []ledger.LeaseTerms
	for rows.Next() {
		terms, err := scanTerms(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, terms)
	}
	return leases, rows.Err()
}

func (r *LedgerRepository) loadMany(ctx context.Context, leaseQuery string, args ...any) ([]*ledger.LeaseLedger, error) {
	rows, err := r.DB.Query(ctx, leaseQuery, args...)
	if err != nil {
		return nil, err
	}
	var (
		terms []ledger.LeaseTerms
		ids   []int
	)
	for rows.Next() {
		t, err := scanTerms(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		terms = append(terms, t)
		ids = append(ids, t.LeaseID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}

	byLease, err := loadPayments(ctx, r.DB,
		`SELECT `+paymentColumns+`
         FROM payments
         WHERE lease_id = ANY($1)
         ORDER BY payment_date, created_at, id`, ids)
	if err != nil {
		return nil, err
	}

	ledgers := make([]*ledger.LeaseLedger, 0, len(terms))
	for _, t := range terms {
		l, err := ledger.NewLeaseLedger(t, byLease[t.LeaseID]...)
		if err != nil {
			return nil, fmt.Errorf("lease %d: %w", t.LeaseID, err)
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, nil
}

func loadLedger(ctx context.Context, q querier, landlordID, leaseID int, lock bool) (*ledger.LeaseLedger, error) {
	terms, err := loadTerms(ctx, q, landlordID, leaseID, lock)
	if err != nil {
		return nil, err
	}

	byLease, err := loadPayments(ctx, q,
		`SELECT `+paymentColumns+`
         FROM payments
         WHERE lease_id = $1
         ORDER BY payment_date, created_at, id`, leaseID)
	if err != nil {
		return nil, err
	}
	return ledger.NewLeaseLedger(terms, byLease[leaseID]...)
}

func loadTerms(ctx context.Context, q querier, landlordID, leaseID int, lock bool) (ledger.LeaseTerms, error) {
	query := `SELECT ` + leaseColumns + `
         FROM leases l
         JOIN properties p ON p.id = l.property_id
         WHERE l.id = $1 AND p.landlord_id = $2`
	if lock {
		query += ` FOR UPDATE OF l`
	}

	terms, err := scanTerms(q.QueryRow(ctx, query, leaseID, landlordID))
	if err != nil {
		return ledger.LeaseTerms{}, notFound(err)
	}
	return terms, nil
}

func loadPayments(ctx context.Context, q querier, query string, args ...any) (map[int][]ledger.PaymentRecord, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byLease := make(map[int][]ledger.PaymentRecord)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		byLease[p.LeaseID] = append(byLease[p.LeaseID], p)
	}
	return byLease, rows.Err()
}

// savePayment inserts a new record or updates the status columns of an
// existing one. Amount, date, method and type never change after insert.
func savePayment(ctx context.Context, tx pgx.Tx, p ledger.PaymentRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payments (id, lease_id, amount_cents, payment_date, payment_method,
                               payment_type, notes, status, void_reason, voided_at)
         VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         ON CONFLICT (id) DO UPDATE
         SET status = EXCLUDED.status,
             void_reason = EXCLUDED.void_reason,
             voided_at = EXCLUDED.voided_at`,
		p.ID, p.LeaseID, p.Amount.Cents(), p.PaymentDate, string(p.Method),
		string(p.Type), p.Notes, string(p.Status), p.VoidReason, p.VoidedAt,
	)
	return err
}

func scanTerms(row pgx.Row) (ledger.LeaseTerms, error) {
	var (
		t      ledger.LeaseTerms
		rent   int64
		status string
	)
	if err := row.Scan(&t.LeaseID, &t.PropertyID, &t.TenantID, &rent,
		&t.StartDate, &t.EndDate, &t.PaymentDueDay, &status); err != nil {
		return ledger.LeaseTerms{}, err
	}

	m, err := money.FromCents(rent)
	if err != nil {
		return ledger.LeaseTerms{}, fmt.Errorf("lease %d rent: %w", t.LeaseID, err)
	}
	t.MonthlyRent = m
	t.Status = ledger.LeaseStatus(status)
	t.StartDate = timeutil.DateOf(t.StartDate)
	t.EndDate = timeutil.DateOf(t.EndDate)
	return t, nil
}

func scanPayment(row pgx.Row) (ledger.PaymentRecord, error) {
	var (
		p                     ledger.PaymentRecord
		cents                 int64
		method, ptype, status string
		voidedAt              *time.Time
	)
	if err := row.Scan(&p.ID, &p.LeaseID, &cents, &p.PaymentDate, &method,
		&ptype, &p.Notes, &status, &p.VoidReason, &voidedAt); err != nil {
		return ledger.PaymentRecord{}, err
	}

	amount, err := money.FromCents(cents)
	if err != nil {
		return ledger.PaymentRecord{}, fmt.Errorf("payment %s amount: %w", p.ID, err)
	}
	p.Amount = amount
	p.PaymentDate = timeutil.DateOf(p.PaymentDate)
	p.Method = ledger.PaymentMethod(method)
	p.Type = ledger.PaymentType(ptype)
	p.Status = ledger.PaymentStatus(status)
	if voidedAt != nil {
		at := voidedAt.UTC()
		p.VoidedAt = &at
	}
	return p, nil
}
