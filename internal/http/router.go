package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"property-backend/internal/handlers"
	"property-backend/internal/middleware"
)

// NewRouter wires the landlord API. Middleware added with Use only runs on
// matched routes, so CORS wraps the returned router in main.
func NewRouter(
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	leaseHandler *handlers.LeaseHandler,
	tenantHandler *handlers.TenantHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	// Protected API routes - everything below is scoped to the token's landlord
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Leases
	api.HandleFunc("/leases/{lease_id:[0-9]+}", leaseHandler.LeaseDetails).Methods("GET")
	api.HandleFunc("/leases/{lease_id:[0-9]+}/statement.pdf", leaseHandler.StatementPDF).Methods("GET")

	// Payments
	api.HandleFunc("/leases/{lease_id:[0-9]+}/payments", paymentHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/leases/{lease_id:[0-9]+}/payments", paymentHandler.PaymentHistory).Methods("GET")
	api.HandleFunc("/payments/{payment_id}", paymentHandler.GetPayment).Methods("GET")
	api.HandleFunc("/payments/{payment_id}", paymentHandler.DeletePayment).Methods("DELETE")
	api.HandleFunc("/payments/{payment_id}/void", paymentHandler.VoidPayment).Methods("POST")
	api.HandleFunc("/payments/{payment_id}/restore", paymentHandler.RestorePayment).Methods("POST")

	// Tenants
	api.HandleFunc("/tenants/{tenant_id:[0-9]+}/reliability", tenantHandler.Reliability).Methods("GET")

	// Reports
	api.HandleFunc("/reports/summary", reportHandler.GetSummary).Methods("GET")
	api.HandleFunc("/reports/summary/csv", reportHandler.GetSummaryCSV).Methods("GET")
	api.HandleFunc("/reports/summary/pdf", reportHandler.GetSummaryPDF).Methods("GET")
	api.HandleFunc("/reports/statements.zip", reportHandler.GetStatementsZip).Methods("GET")

	return r
}
