// Package main provides the unified registry daemon:
// - Watcher (continuous): WebSocket feed of badge account writes
// - Sync (scheduled): full reconciliation against getProgramAccounts
// - HTTP: /health, /metrics (Prometheus), /status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/observability"
	"token-badge-registry/internal/registry"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/storage"
	chstore "token-badge-registry/internal/storage/clickhouse"
	"token-badge-registry/internal/storage/memory"
	"token-badge-registry/internal/storage/migrations"
	pgstore "token-badge-registry/internal/storage/postgres"
)

// DefaultProgramID is the mainnet AMM program whose badge accounts are mirrored.
const DefaultProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

// Server holds all components of the registry daemon.
type Server struct {
	// Configuration
	rpcEndpoint  string
	wsEndpoint   string
	programID    domain.Pubkey
	syncInterval time.Duration
	useMemory    bool

	// Stores
	badges storage.BadgeStore
	events storage.BadgeEventStore

	logger *log.Logger

	// State
	mu          sync.Mutex
	started     time.Time
	lastSyncRun time.Time
	lastSync    registry.SyncResult
	syncRunning bool
	syncRuns    int
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	programFlag := flag.String("program", envOr("BADGE_PROGRAM_ID", DefaultProgramID), "AMM program ID owning the badge accounts")
	syncInterval := flag.Duration("sync-interval", 15*time.Minute, "Full reconciliation interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[registryd] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	programID, err := domain.PubkeyFromBase58(*programFlag)
	if err != nil {
		logger.Fatalf("Invalid --program %q: %v", *programFlag, err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	badges, events, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		rpcEndpoint:  *rpcEndpoint,
		wsEndpoint:   *wsEndpoint,
		programID:    programID,
		syncInterval: *syncInterval,
		useMemory:    *useMemory,
		badges:       badges,
		events:       events,
		logger:       logger,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*metricsAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// createStores creates badge and event stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.BadgeStore, storage.BadgeEventStore, func(), error) {
	if useMemory {
		return memory.NewBadgeStore(), memory.NewBadgeEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return pgstore.NewBadgeStore(pool), chstore.NewBadgeEventStore(chConn), cleanup, nil
}

// Run starts the watcher and the sync scheduler.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting registry daemon...")

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	errCh := make(chan error, 2)

	go func() {
		err := s.runWatcher(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("watcher: %w", err)
		}
	}()

	go func() {
		err := s.runSyncScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("sync scheduler: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runWatcher streams badge account writes over WebSocket.
func (s *Server) runWatcher(ctx context.Context) error {
	ws, err := solana.NewWSClient(ctx, s.wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	watcher := registry.NewWatcher(registry.WatcherOptions{
		WS:         ws,
		BadgeStore: s.badges,
		EventStore: s.events,
		ProgramID:  s.programID,
		Logger:     log.New(os.Stdout, "[watcher] ", log.LstdFlags|log.Lshortfile),
	})

	s.logger.Println("Watcher started")
	return watcher.Run(ctx)
}

// runSyncScheduler runs full reconciliation on schedule.
func (s *Server) runSyncScheduler(ctx context.Context) error {
	s.logger.Printf("Starting sync scheduler (interval: %v)...", s.syncInterval)

	rpc := solana.NewHTTPClient(s.rpcEndpoint)
	syncer := registry.NewSyncer(registry.SyncerOptions{
		RPC:        rpc,
		BadgeStore: s.badges,
		EventStore: s.events,
		ProgramID:  s.programID,
		Logger:     log.New(os.Stdout, "[sync] ", log.LstdFlags|log.Lshortfile),
	})

	// Run immediately on start
	s.runSync(ctx, syncer)

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx, syncer)
		}
	}
}

// runSync executes one reconciliation pass.
func (s *Server) runSync(ctx context.Context, syncer *registry.Syncer) {
	s.mu.Lock()
	if s.syncRunning {
		s.mu.Unlock()
		s.logger.Println("Sync already running, skipping...")
		return
	}
	s.syncRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncRunning = false
		s.lastSyncRun = time.Now()
		s.syncRuns++
		s.mu.Unlock()
	}()

	start := time.Now()
	result, err := syncer.Run(ctx)
	if err != nil {
		s.logger.Printf("Sync error: %v", err)
		return
	}

	s.mu.Lock()
	s.lastSync = result
	s.mu.Unlock()

	observability.DefaultMetrics.LastSuccessfulSync.Set(float64(time.Now().Unix()))
	s.logger.Printf("Sync completed in %v: scanned=%d added=%d removed=%d",
		time.Since(start), result.Scanned, result.Added, result.Removed)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	ProgramID   string    `json:"program_id"`
	LastSyncRun time.Time `json:"last_sync_run,omitempty"`
	SyncRuns    int       `json:"sync_runs"`
	SyncRunning bool      `json:"sync_running"`
	LastScanned int       `json:"last_scanned"`
	LastAdded   int       `json:"last_added"`
	LastRemoved int       `json:"last_removed"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		ProgramID:   s.programID.String(),
		LastSyncRun: s.lastSyncRun,
		SyncRuns:    s.syncRuns,
		SyncRunning: s.syncRunning,
		LastScanned: s.lastSync.Scanned,
		LastAdded:   s.lastSync.Added,
		LastRemoved: s.lastSync.Removed,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
