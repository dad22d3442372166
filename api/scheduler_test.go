package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shop-ledger/ledger"
)

func TestBackupScheduler_OncePerDay(t *testing.T) {
	// GIVEN: A scheduler over an empty directory
	// WHEN: Checking twice on the same day, then on the next day
	// THEN: One file per day, in the import format

	dir := t.TempDir()
	l := ledger.New(nil, ledger.DefaultState())
	require.NoError(t, l.SetShopName(context.Background(), "Rahim Gas"))

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	bs := NewBackupScheduler(l, dir)
	bs.now = func() time.Time { return now }

	assert.True(t, bs.backupIfDue())
	assert.False(t, bs.backupIfDue(), "today's backup already exists")

	now = now.Add(24 * time.Hour)
	assert.True(t, bs.backupIfDue())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(filepath.Join(dir, "ledger_backup_2025-03-10.json"))
	require.NoError(t, err)
	restored, err := ledger.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "Rahim Gas", restored.ShopName)
}

func TestBackupScheduler_StartStop(t *testing.T) {
	dir := t.TempDir()
	bs := NewBackupScheduler(ledger.New(nil, ledger.DefaultState()), dir)
	bs.CheckInterval = time.Hour

	bs.Start()
	bs.Stop()
	bs.Stop()

	// The first check runs on start, before the first tick.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupScheduler_DisabledWithoutDir(t *testing.T) {
	bs := NewBackupScheduler(ledger.New(nil, ledger.DefaultState()), "")
	bs.Start()
	bs.Stop()
	assert.Nil(t, bs.ticker)
}
