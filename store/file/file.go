/*
Package file provides a Persistence gateway backed by a JSON file.

LAYOUT:
  <dir>/<key>.json                     Current snapshot
  <dir>/ledger_backup_<YYYY-MM-DD>.json Exports written by WriteExport

ATOMIC WRITES:
  Save writes to a temp file in the same directory and renames it over
  the target, so a crash mid-write leaves the previous snapshot intact.
*/
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/warp/shop-ledger/ledger"
)

// Store persists the snapshot as one file.
type Store struct {
	path string
}

// New creates dir if needed and returns a store for key inside it.
func New(dir, key string) (*Store, error) {
	if key == "" {
		key = ledger.DefaultKey
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, key+".json")}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load returns nil, nil if the file does not exist yet.
func (s *Store) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) Save(_ context.Context, data []byte) error {
	return writeAtomic(s.path, data)
}

// ExportFileName returns the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("ledger_backup_%s.json", t.UTC().Format("2006-01-02"))
}

// WriteExport writes an export document into dir and returns its path.
func WriteExport(dir string, data []byte, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(t))
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

var _ ledger.Persistence = (*Store)(nil)
