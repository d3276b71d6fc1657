package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"property-backend/internal/events"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	recentEventLimit = 50
	broadcastBuffer  = 64
)

// MonitoringServer serves system stats and a live feed of payment events and
// alerts. It implements events.Publisher so it can sit in the event fanout.
//
// The feed is not scoped to a landlord, so the server listens on localhost
// unless server.monitoring_host says otherwise.
type MonitoringServer struct {
	db   *pgxpool.Pool
	host string
	port int

	alerts    []Alert
	recent    []events.PaymentEvent
	alertsMux sync.RWMutex

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Message
}

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// Message is what websocket clients receive
type Message struct {
	Type string      `json:"type"` // "payment_event" or "alert"
	Data interface{} `json:"data"`
}

type DashboardStats struct {
	DatabaseStatus  string  `json:"database_status"`
	ResponseTime    int64   `json:"response_time_ms"`
	PoolTotalConns  int32   `json:"pool_total_conns"`
	PoolIdleConns   int32   `json:"pool_idle_conns"`
	PoolAcquired    int32   `json:"pool_acquired_conns"`
	DBSize          string  `json:"db_size"`
	Uptime          string  `json:"uptime"`
	ActiveAlerts    int     `json:"active_alerts"`
	FeedClients     int     `json:"feed_clients"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	MemoryUsed      string  `json:"memory_used"`
	MemoryTotal     string  `json:"memory_total"`
	DiskPercent     float64 `json:"disk_percent"`
	DiskUsed        string  `json:"disk_used"`
	DiskTotal       string  `json:"disk_total"`
	RecentPayments  int     `json:"recent_payment_events"`
	LastPaymentKind string  `json:"last_payment_kind,omitempty"`
}

// Zero CheckOrigin keeps gorilla's same-origin check, so browser pages from
// other sites cannot open the feed.
var upgrader = websocket.Upgrader{}

func NewMonitoringServer(db *pgxpool.Pool, host string, port int) *MonitoringServer {
	return &MonitoringServer{
		db:        db,
		host:      host,
		port:      port,
		alerts:    make([]Alert, 0),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, broadcastBuffer),
	}
}

func (ms *MonitoringServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/alerts", ms.getAlerts).Methods("GET")
	r.HandleFunc("/api/events", ms.getRecentEvents).Methods("GET")

	// WebSocket for real-time updates
	r.HandleFunc("/ws", ms.handleWebSocket)
	return r
}

// Start runs the broadcaster and health checker until ctx is cancelled and
// returns the HTTP server so the caller can shut it down.
func (ms *MonitoringServer) Start(ctx context.Context) *http.Server {
	go ms.handleBroadcast(ctx)
	go ms.monitorHealth(ctx)

	srv := &http.Server{
		Addr:              ms.addr(),
		Handler:           ms.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[Monitoring] Dashboard API running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Monitoring] Server error: %v", err)
		}
	}()
	return srv
}

func (ms *MonitoringServer) addr() string {
	return net.JoinHostPort(ms.host, strconv.Itoa(ms.port))
}

// Publish queues a payment event for the live feed. It never blocks the
// payment request: when the queue is full the event is dropped.
func (ms *MonitoringServer) Publish(_ context.Context, event events.PaymentEvent) error {
	ms.alertsMux.Lock()
	ms.recent = append(ms.recent, event)
	if len(ms.recent) > recentEventLimit {
		ms.recent = ms.recent[len(ms.recent)-recentEventLimit:]
	}
	ms.alertsMux.Unlock()

	select {
	case ms.broadcast <- Message{Type: "payment_event", Data: event}:
		return nil
	default:
		return fmt.Errorf("monitoring feed full, dropped %s %s", event.Kind, event.PaymentID)
	}
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats(ctx context.Context) DashboardStats {
	var stats DashboardStats
	ms.collectDatabaseStats(ctx, &stats)

	// System metrics (current pod/node)
	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsed = formatBytes(memStats.Used)
		stats.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
		stats.DiskUsed = formatBytes(diskStats.Used)
		stats.DiskTotal = formatBytes(diskStats.Total)
	}

	ms.alertsMux.RLock()
	for _, alert := range ms.alerts {
		if !alert.Resolved {
			stats.ActiveAlerts++
		}
	}
	stats.RecentPayments = len(ms.recent)
	if n := len(ms.recent); n > 0 {
		stats.LastPaymentKind = string(ms.recent[n-1].Kind)
	}
	ms.alertsMux.RUnlock()

	ms.clientsMux.Lock()
	stats.FeedClients = len(ms.clients)
	ms.clientsMux.Unlock()

	return stats
}

func (ms *MonitoringServer) collectDatabaseStats(parent context.Context, stats *DashboardStats) {
	if ms.db == nil {
		stats.DatabaseStatus = "unknown"
		return
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ms.db.Ping(ctx)
	stats.ResponseTime = time.Since(start).Milliseconds()
	stats.DatabaseStatus = "healthy"
	if err != nil {
		stats.DatabaseStatus = "unhealthy"
		return
	}

	pool := ms.db.Stat()
	stats.PoolTotalConns = pool.TotalConns()
	stats.PoolIdleConns = pool.IdleConns()
	stats.PoolAcquired = pool.AcquiredConns()

	var dbSizeBytes int64
	if err := ms.db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSizeBytes); err == nil {
		stats.DBSize = formatBytes(uint64(dbSizeBytes))
	}
	var uptimeSec int
	if err := ms.db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec); err == nil {
		stats.Uptime = formatUptime(uptimeSec)
	}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (ms *MonitoringServer) getAlerts(w http.ResponseWriter, r *http.Request) {
	ms.alertsMux.RLock()
	defer ms.alertsMux.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.alerts)
}

func (ms *MonitoringServer) getRecentEvents(w http.ResponseWriter, r *http.Request) {
	ms.alertsMux.RLock()
	recent := make([]events.PaymentEvent, len(ms.recent))
	copy(recent, ms.recent)
	ms.alertsMux.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recent)
}

func (ms *MonitoringServer) raiseAlert(severity, alertType, message string) {
	alert := Alert{
		Severity:  severity,
		Type:      alertType,
		Message:   message,
		Timestamp: time.Now(),
	}

	ms.alertsMux.Lock()
	alert.ID = len(ms.alerts) + 1
	ms.alerts = append(ms.alerts, alert)
	ms.alertsMux.Unlock()

	select {
	case ms.broadcast <- Message{Type: "alert", Data: alert}:
	default:
		log.Printf("[Monitoring] Feed full, alert %d not broadcast", alert.ID)
	}
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Monitoring] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *MonitoringServer) handleBroadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ms.broadcast:
			ms.clientsMux.Lock()
			for client := range ms.clients {
				client.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := client.WriteJSON(msg); err != nil {
					client.Close()
					delete(ms.clients, client)
				}
			}
			ms.clientsMux.Unlock()
		}
	}
}

func (ms *MonitoringServer) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var stats DashboardStats
		ms.collectDatabaseStats(ctx, &stats)

		if stats.DatabaseStatus == "unhealthy" {
			ms.raiseAlert("critical", "database_down", "Database is unreachable")
		}
		if stats.ResponseTime > 1000 {
			ms.raiseAlert("warning", "high_latency", fmt.Sprintf("Database response time: %dms", stats.ResponseTime))
		}
	}
}
