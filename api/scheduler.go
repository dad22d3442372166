/*
scheduler.go - Automated daily backup scheduler

PURPOSE:
  Periodically writes an export of the ledger into a backup directory,
  at most one file per calendar day (ledger_backup_<date>.json). The
  files use the import format, so any of them can be restored through
  POST /api/import.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips the write when today's file already exists
  - Never mutates the ledger; failures are logged and retried next tick

USAGE:
  scheduler := NewBackupScheduler(l, "./backups")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - store/file/file.go: WriteExport and the file naming
  - handlers.go: Export endpoint (manual backup)
*/
package api

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/warp/shop-ledger/ledger"
	"github.com/warp/shop-ledger/store/file"
)

// BackupScheduler writes daily export files.
type BackupScheduler struct {
	Ledger        *ledger.Ledger
	Dir           string
	CheckInterval time.Duration

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBackupScheduler creates a scheduler that checks hourly.
func NewBackupScheduler(l *ledger.Ledger, dir string) *BackupScheduler {
	return &BackupScheduler{
		Ledger:        l,
		Dir:           dir,
		CheckInterval: time.Hour,
		now:           time.Now,
	}
}

// Start begins the scheduler. An empty Dir disables it.
func (bs *BackupScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.Dir == "" {
		log.Println("[Backup] No directory configured, not starting")
		return
	}
	if bs.ticker != nil {
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.stop = make(chan struct{})
	bs.wg.Add(1)

	go bs.run(bs.ticker, bs.stop)

	log.Printf("[Backup] Started: %s every %v", bs.Dir, bs.CheckInterval)
}

// Stop stops the scheduler and waits for a running backup to finish.
func (bs *BackupScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker == nil {
		return
	}
	bs.ticker.Stop()
	close(bs.stop)
	bs.wg.Wait()
	bs.ticker = nil
	log.Println("[Backup] Stopped")
}

func (bs *BackupScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer bs.wg.Done()

	// Run immediately on start
	bs.backupIfDue()

	for {
		select {
		case <-ticker.C:
			bs.backupIfDue()
		case <-stop:
			return
		}
	}
}

// backupIfDue writes today's file unless it exists. It reports whether a
// file was written.
func (bs *BackupScheduler) backupIfDue() bool {
	now := bs.now()
	path := filepath.Join(bs.Dir, file.ExportFileName(now))

	if _, err := os.Stat(path); err == nil {
		return false
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[Backup] Error checking %s: %v", path, err)
		return false
	}

	data, err := bs.Ledger.ExportSnapshot()
	if err != nil {
		log.Printf("[Backup] Error exporting ledger: %v", err)
		return false
	}
	written, err := file.WriteExport(bs.Dir, data, now)
	if err != nil {
		log.Printf("[Backup] Error writing backup: %v", err)
		return false
	}
	log.Printf("[Backup] Wrote %s", written)
	return true
}
