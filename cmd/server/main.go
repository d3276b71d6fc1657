package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-backend/internal/archive"
	"property-backend/internal/auth"
	"property-backend/internal/cache"
	"property-backend/internal/config"
	"property-backend/internal/database"
	"property-backend/internal/db"
	"property-backend/internal/events"
	"property-backend/internal/handlers"
	"property-backend/internal/health"
	h "property-backend/internal/http"
	"property-backend/internal/middleware"
	"property-backend/internal/monitoring"
	"property-backend/internal/repositories"
	"property-backend/internal/services"
	"property-backend/internal/timeutil"
	"property-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	timeutil.SetLocation(cfg.App.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Run database migrations
	// Uses embedded migrations for standalone binary operation
	log.Println("Running database migrations...")
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := database.NewMigratorWithFS(pool, migrations.FS).RunMigrations(migrateCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *migrateOnly {
		return
	}

	// Initialize Redis cache (optional - reports fall back to direct queries)
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (reports will not be cached)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}
	defer cache.Close()

	// Start monitoring server in background; it also receives payment events
	monitor := monitoring.NewMonitoringServer(pool, cfg.Server.MonitoringHost, cfg.Server.MonitoringPort)
	monitorSrv := monitor.Start(ctx)

	// Payment events go to every configured sink
	fanout := events.NewFanout().Add("monitoring", monitor)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		fanout.Add("kafka", kafkaPub)
		log.Printf("[Kafka] Publishing payment events to %s on %v", cfg.Kafka.Topic, cfg.Kafka.Brokers)
	}

	// Report archive is optional
	var archiver services.Archiver
	store, err := archive.New(ctx, cfg)
	switch {
	case err == nil:
		archiver = store
		log.Printf("[Archive] Reports archive to bucket %s", cfg.Archive.Bucket)
	case errors.Is(err, archive.ErrNotConfigured):
		log.Println("[Archive] No bucket configured, report archiving disabled")
	default:
		log.Printf("[Archive] Disabled: %v", err)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	landlordRepo := repositories.NewLandlordRepository(pool)
	ledgerRepo := repositories.NewLedgerRepository(pool)
	propertyRepo := repositories.NewPropertyRepository(pool)
	maintenanceRepo := repositories.NewMaintenanceRepository(pool)

	// Initialize services
	authService := services.NewAuthService(landlordRepo, jwtManager)
	paymentService := services.NewPaymentService(ledgerRepo, fanout)
	leaseService := services.NewLeaseService(ledgerRepo)
	tenantService := services.NewTenantService(ledgerRepo)
	reportService := services.NewReportService(ledgerRepo, propertyRepo, maintenanceRepo, archiver)
	reportService.Symbol = cfg.App.CurrencySymbol
	reportService.CacheTTL = time.Duration(cfg.Redis.TTLMinutes) * time.Minute

	// Initialize handlers
	router := h.NewRouter(
		handlers.NewAuthHandler(authService),
		handlers.NewPaymentHandler(paymentService),
		handlers.NewLeaseHandler(leaseService, reportService),
		handlers.NewTenantHandler(tenantService),
		handlers.NewReportHandler(reportService),
		handlers.NewHealthHandler(health.NewHealthChecker(pool)),
		middleware.NewAuthMiddleware(jwtManager),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := monitorSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Monitoring] Shutdown: %v", err)
	}
}
