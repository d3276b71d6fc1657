package health

import (
	"context"
	"time"

	"property-backend/internal/cache"
)

// Pinger is implemented by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db Pinger

	// cache reports whether Redis answers; nil client means caching is off
	cacheEnabled func() bool
	cacheHealthy func(ctx context.Context) bool
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{
		db:           db,
		cacheEnabled: func() bool { return cache.GetClient() != nil },
		cacheHealthy: cache.IsHealthy,
	}
}

// CheckBasic is unhealthy only when the database is. A broken cache degrades
// reports to direct queries, so it only marks the service degraded.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()
	cacheHealth := h.checkCache()

	status := "healthy"
	switch {
	case dbHealth.Status != "healthy":
		status = "unhealthy"
	case cacheHealth.Status == "unhealthy":
		status = "degraded"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Cache:    cacheHealth,
	}
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	return component(err == nil, time.Since(start))
}

func (h *HealthChecker) checkCache() ComponentHealth {
	if h.cacheEnabled == nil || !h.cacheEnabled() {
		return ComponentHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	ok := h.cacheHealthy(ctx)
	return component(ok, time.Since(start))
}

func component(ok bool, took time.Duration) ComponentHealth {
	status := "healthy"
	if !ok {
		status = "unhealthy"
	}
	return ComponentHealth{Status: status, ResponseTime: took.Milliseconds()}
}
