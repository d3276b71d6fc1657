package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/middleware"
	"property-backend/internal/money"
	"property-backend/internal/portfolio"
	"property-backend/internal/services"
	"property-backend/internal/timeutil"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store holds one landlord's leases in memory
type store struct {
	mu       sync.Mutex
	landlord int
	ledgers  map[int]*ledger.LeaseLedger
}

func (s *store) lookup(landlordID, leaseID int) (*ledger.LeaseLedger, error) {
	l, ok := s.ledgers[leaseID]
	if !ok || landlordID != s.landlord {
		return nil, ledger.ErrNotFound
	}
	return l, nil
}

func (s *store) LoadLedger(_ context.Context, landlordID, leaseID int) (*ledger.LeaseLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(landlordID, leaseID)
}

func (s *store) UpdateLedger(_ context.Context, landlordID, leaseID int, fn func(*ledger.LeaseLedger) (ledger.PaymentRecord, error)) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(landlordID, leaseID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	p, err := fn(l)
	return p, l.Terms(), err
}

func (s *store) LeaseIDForPayment(_ context.Context, landlordID int, paymentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if landlordID == s.landlord {
		for id, l := range s.ledgers {
			if _, err := l.Payment(paymentID); err == nil {
				return id, nil
			}
		}
	}
	return 0, ledger.ErrNotFound
}

func (s *store) DeletePayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	leaseID, err := s.LeaseIDForPayment(ctx, landlordID, paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledgers[leaseID]
	removed, _ := l.Payment(paymentID)
	var keep []ledger.PaymentRecord
	for _, p := range l.Payments() {
		if p.ID != paymentID {
			keep = append(keep, p)
		}
	}
	s.ledgers[leaseID], _ = ledger.NewLeaseLedger(l.Terms(), keep...)
	return removed, l.Terms(), nil
}

func (s *store) LedgersForLandlord(_ context.Context, landlordID, propertyID int) ([]*ledger.LeaseLedger, error) {
	var out []*ledger.LeaseLedger
	if landlordID == s.landlord {
		for _, l := range s.ledgers {
			if propertyID == 0 || l.Terms().PropertyID == propertyID {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (s *store) LedgersForTenant(_ context.Context, landlordID, tenantID int) ([]*ledger.LeaseLedger, error) {
	var out []*ledger.LeaseLedger
	if landlordID == s.landlord {
		for _, l := range s.ledgers {
			if l.Terms().TenantID == tenantID {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (s *store) LeasesForLandlord(ctx context.Context, landlordID int) ([]ledger.LeaseTerms, error) {
	ledgers, _ := s.LedgersForLandlord(ctx, landlordID, 0)
	var out []ledger.LeaseTerms
	for _, l := range ledgers {
		out = append(out, l.Terms())
	}
	return out, nil
}

type noProperties struct{}

func (noProperties) ListByLandlord(context.Context, int) ([]portfolio.Property, error) {
	return nil, nil
}

type noMaintenance struct{}

func (noMaintenance) ListByLandlord(context.Context, int) ([]portfolio.MaintenanceRequest, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*mux.Router, *store) {
	l, err := ledger.NewLeaseLedger(ledger.LeaseTerms{
		LeaseID:       10,
		PropertyID:    100,
		TenantID:      1000,
		MonthlyRent:   money.MustCents(150000),
		StartDate:     timeutil.Date(2024, time.January, 1),
		EndDate:       timeutil.Date(2024, time.December, 31),
		PaymentDueDay: 5,
		Status:        ledger.LeaseActive,
	})
	require.NoError(t, err)
	st := &store{landlord: 1, ledgers: map[int]*ledger.LeaseLedger{10: l}}

	payments := services.NewPaymentService(st, nil)
	payments.Invalidate = nil
	leases := services.NewLeaseService(st)
	reports := services.NewReportService(st, noProperties{}, noMaintenance{}, nil)

	ph := NewPaymentHandler(payments)
	lh := NewLeaseHandler(leases, reports)
	th := NewTenantHandler(services.NewTenantService(st))
	rh := NewReportHandler(reports)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithLandlord(r.Context(), 1, "owner@example.com")))
		})
	})
	api.HandleFunc("/leases/{lease_id}", lh.LeaseDetails).Methods("GET")
	api.HandleFunc("/leases/{lease_id}/statement.pdf", lh.StatementPDF).Methods("GET")
	api.HandleFunc("/leases/{lease_id}/payments", ph.RecordPayment).Methods("POST")
	api.HandleFunc("/leases/{lease_id}/payments", ph.PaymentHistory).Methods("GET")
	api.HandleFunc("/payments/{payment_id}", ph.GetPayment).Methods("GET")
	api.HandleFunc("/payments/{payment_id}", ph.DeletePayment).Methods("DELETE")
	api.HandleFunc("/payments/{payment_id}/void", ph.VoidPayment).Methods("POST")
	api.HandleFunc("/payments/{payment_id}/restore", ph.RestorePayment).Methods("POST")
	api.HandleFunc("/tenants/{tenant_id}/reliability", th.Reliability).Methods("GET")
	api.HandleFunc("/reports/summary", rh.GetSummary).Methods("GET")
	api.HandleFunc("/reports/summary/csv", rh.GetSummaryCSV).Methods("GET")
	api.HandleFunc("/reports/summary/pdf", rh.GetSummaryPDF).Methods("GET")
	api.HandleFunc("/reports/statements.zip", rh.GetStatementsZip).Methods("GET")

	// unauthenticated route to check the context guard
	r.HandleFunc("/anon/leases/{lease_id}", lh.LeaseDetails).Methods("GET")
	return r, st
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestPaymentLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/api/leases/10/payments",
		`{"amount":"1,500.00","payment_date":"2024-01-05","payment_method":"Bank_Transfer","payment_type":"rent","notes":" jan "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created ledger.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(150000), created.Amount.Cents())
	assert.Equal(t, ledger.MethodBankTransfer, created.Method)
	assert.Equal(t, "jan", created.Notes)

	rec = do(r, "GET", "/api/payments/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, "POST", "/api/payments/"+created.ID+"/void", `{"reason":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ledger.ErrMissingReason.Error(), errorOf(t, rec))

	rec = do(r, "POST", "/api/payments/"+created.ID+"/void", `{"reason":"entered twice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, "POST", "/api/payments/"+created.ID+"/void", `{"reason":"entered twice"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, "POST", "/api/payments/"+created.ID+"/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, "POST", "/api/payments/"+created.ID+"/restore", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, "GET", "/api/leases/10/payments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []ledger.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = do(r, "DELETE", "/api/payments/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, "GET", "/api/payments/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordPaymentValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"zero amount", "/api/leases/10/payments", `{"amount":"0","payment_date":"2024-01-05","payment_method":"cash"}`, http.StatusBadRequest},
		{"negative amount", "/api/leases/10/payments", `{"amount":"-5","payment_date":"2024-01-05","payment_method":"cash"}`, http.StatusBadRequest},
		{"sub-cent amount", "/api/leases/10/payments", `{"amount":"1.005","payment_date":"2024-01-05","payment_method":"cash"}`, http.StatusBadRequest},
		{"impossible date", "/api/leases/10/payments", `{"amount":"10","payment_date":"2024-02-30","payment_method":"cash"}`, http.StatusBadRequest},
		{"missing date", "/api/leases/10/payments", `{"amount":"10","payment_method":"cash"}`, http.StatusBadRequest},
		{"bad method", "/api/leases/10/payments", `{"amount":"10","payment_date":"2024-01-05","payment_method":"barter"}`, http.StatusBadRequest},
		{"bad type", "/api/leases/10/payments", `{"amount":"10","payment_date":"2024-01-05","payment_method":"cash","payment_type":"tip"}`, http.StatusBadRequest},
		{"bad json", "/api/leases/10/payments", `{`, http.StatusBadRequest},
		{"bad lease id", "/api/leases/abc/payments", `{}`, http.StatusBadRequest},
		{"unknown lease", "/api/leases/99/payments", `{"amount":"10","payment_date":"2024-01-05","payment_method":"cash"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, "POST", tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordPaymentDefaultsToRent(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/api/leases/10/payments", `{"amount":"$99.5","payment_date":"2024-01-05","payment_method":"check"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created ledger.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, ledger.TypeRent, created.Type)
	assert.Equal(t, int64(9950), created.Amount.Cents())
}

func TestLeaseDetailsAndReliability(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/api/leases/10/payments", `{"amount":"1500","payment_date":"2024-01-05","payment_method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(r, "POST", "/api/leases/10/payments", `{"amount":"1500","payment_date":"2024-02-06","payment_method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, "GET", "/api/leases/10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		TotalRentPaid    json.Number `json:"total_rent_paid"`
		ReliabilityScore int         `json:"reliability_score"`
	}
	dec := json.NewDecoder(strings.NewReader(rec.Body.String()))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&details))
	assert.Equal(t, "3000.00", details.TotalRentPaid.String())
	assert.Equal(t, 50, details.ReliabilityScore)

	rec = do(r, "GET", "/api/tenants/1000/reliability", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":50`)

	rec = do(r, "GET", "/api/tenants/5/reliability", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, "GET", "/api/leases/10/statement.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestHandlersRequireLandlord(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "GET", "/anon/leases/10", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/api/leases/10/payments", `{"amount":"1500","payment_date":"2024-01-05","payment_method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, "GET", "/api/reports/summary?from=2024-01-01&to=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_income":1500.00`)

	rec = do(r, "GET", "/api/reports/summary?from=2024-02-01&to=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "GET", "/api/reports/summary?property_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "GET", "/api/reports/summary/csv?from=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "summary_2024-01-01_all.csv")

	// archive requested but not configured
	rec = do(r, "GET", "/api/reports/summary/pdf?archive=1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get(ArchiveKeyHeader))
	assert.Equal(t, "report archive not configured", errorOf(t, rec))

	rec = do(r, "GET", "/api/reports/statements.zip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
}

type archiver struct {
	err  error
	keys []string
}

func (a *archiver) Put(_ context.Context, landlordID int, name, _ string, _ []byte, _ time.Time) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("reports/landlord-%d/%s", landlordID, name)
	a.keys = append(a.keys, key)
	return key, nil
}

func TestReportArchive(t *testing.T) {
	tests := []struct {
		name    string
		dest    *archiver
		wantKey string
	}{
		{"uploaded", &archiver{}, "reports/landlord-1/summary_all_all.csv"},
		{"upload fails, download still served", &archiver{err: errors.New("bucket gone")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &store{landlord: 1, ledgers: map[int]*ledger.LeaseLedger{}}
			rh := NewReportHandler(services.NewReportService(st, noProperties{}, noMaintenance{}, tt.dest))

			r := mux.NewRouter()
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(middleware.WithLandlord(r.Context(), 1, "owner@example.com")))
				})
			})
			r.HandleFunc("/reports/summary/csv", rh.GetSummaryCSV).Methods("GET")

			rec := do(r, "GET", "/reports/summary/csv?archive=1", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantKey, rec.Header().Get(ArchiveKeyHeader))
			assert.True(t, strings.HasPrefix(rec.Body.String(), "Portfolio Summary"))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrNegativeResult, http.StatusBadRequest},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrDuplicatePayment, http.StatusConflict},
		{ledger.ErrLeaseMismatch, http.StatusUnprocessableEntity},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
