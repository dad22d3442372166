/*
main.go - Application entry point

PURPOSE:
  Starts the shop ledger server. Loads configuration, opens the storage
  gateway, restores the ledger and serves the JSON API with graceful
  shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (defaults, optional YAML, LEDGER_* env)
  3. Open the storage gateway for the configured driver
  4. Open the ledger (missing or unreadable data starts from defaults)
  5. Configure the insight generator if an API key is set
  6. Start the daily backup scheduler if backup.dir is set
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config   YAML config file (optional)
  -port     HTTP server port (overrides config)
  -storage  Storage driver: file | sqlite | postgres | memory
  -export   Write a backup file into this directory and exit

EXAMPLES:
  # File storage under ./data
  ./server

  # SQLite with revision history
  LEDGER_STORAGE_DRIVER=sqlite LEDGER_STORAGE_PATH=./data/ledger.db ./server

  # Dump a backup
  ./server -export ./backups

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/shop-ledger/api"
	"github.com/warp/shop-ledger/config"
	"github.com/warp/shop-ledger/insight"
	"github.com/warp/shop-ledger/ledger"
	"github.com/warp/shop-ledger/store/file"
	"github.com/warp/shop-ledger/store/memory"
	"github.com/warp/shop-ledger/store/sqlstore"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	driver := flag.String("storage", "", "Storage driver: file, sqlite, postgres or memory")
	exportDir := flag.String("export", "", "Write a backup into this directory and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *driver != "" {
		cfg.Storage.Driver = *driver
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// Initialize storage
	persist, history, closer, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closer.Close()

	l, err := ledger.Open(ctx, persist, ledger.WithObserver(func(s ledger.State) {
		log.Printf("ledger: saved (%d customers, %d transactions, %d expenses)",
			len(s.Customers), len(s.Transactions), len(s.Expenses))
	}))
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}

	if *exportDir != "" {
		data, err := l.ExportSnapshot()
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		path, err := file.WriteExport(*exportDir, data, time.Now())
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Backup written to %s", path)
		return
	}

	// Insight generator
	var gen insight.Generator
	if cfg.Insight.APIKey != "" {
		g, err := insight.NewGemini(ctx, cfg.Insight.APIKey, cfg.Insight.Model)
		if err != nil {
			log.Printf("Warning: insights disabled: %v", err)
		} else {
			gen = g
		}
	} else {
		log.Println("Insights disabled: no insight.api_key configured")
	}

	handler := api.NewHandler(l, insight.NewService(gen))
	handler.History = history
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	backups := api.NewBackupScheduler(l, cfg.Backup.Dir)
	backups.CheckInterval = cfg.Backup.Interval
	backups.Start()
	defer backups.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // insight calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d (%s storage)", cfg.Server.Port, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStorage returns the gateway for the configured driver. history is
// non-nil only for SQL drivers.
func openStorage(c config.StorageConfig) (ledger.Persistence, api.HistoryStore, io.Closer, error) {
	switch c.Driver {
	case config.DriverMemory:
		return memory.NewWithKey(c.Key), nil, nopCloser{}, nil
	case config.DriverSQLite:
		path, err := sqlitePath(c.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		st, err := sqlstore.OpenSQLite(path, c.Key, c.History)
		if err != nil {
			return nil, nil, nil, err
		}
		return st, st, st, nil
	case config.DriverPostgres:
		st, err := sqlstore.OpenPostgres(c.DSN, c.Key, c.History)
		if err != nil {
			return nil, nil, nil, err
		}
		return st, st, st, nil
	default:
		st, err := file.New(c.Path, c.Key)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("Storing ledger in %s", st.Path())
		return st, nil, nopCloser{}, nil
	}
}

// sqlitePath treats an extensionless path as a directory holding ledger.db.
func sqlitePath(path string) (string, error) {
	if path == ":memory:" || filepath.Ext(path) != "" {
		return path, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(path, "ledger.db"), nil
}
