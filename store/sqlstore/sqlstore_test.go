package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shop-ledger/ledger"
)

func newTestStore(t *testing.T, history int) *Store {
	t.Helper()
	st, err := OpenSQLite(":memory:", ledger.DefaultKey, history)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestLoad_EmptyReturnsNil(t *testing.T) {
	st := newTestStore(t, DefaultHistory)

	data, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveLoad_Overwrites(t *testing.T) {
	st := newTestStore(t, DefaultHistory)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, []byte(`{"v":1}`)))
	require.NoError(t, st.Save(ctx, []byte(`{"v":2}`)))

	data, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))
}

func TestSave_ArchivesPrevious(t *testing.T) {
	// GIVEN: Three saves
	// THEN: The two earlier blobs are in history, newest first

	st := newTestStore(t, DefaultHistory)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, st.Save(ctx, []byte(fmt.Sprintf(`{"v":%d}`, i))))
	}

	revs, err := st.History(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, int64(2), revs[0].Revision)
	assert.Equal(t, int64(1), revs[1].Revision)
	assert.Equal(t, len(`{"v":2}`), revs[0].Size)
	assert.False(t, revs[0].SavedAt.IsZero())

	data, err := st.Revision(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(data))
}

func TestSave_TrimsHistory(t *testing.T) {
	st := newTestStore(t, 2)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		require.NoError(t, st.Save(ctx, []byte(fmt.Sprintf(`{"v":%d}`, i))))
	}

	revs, err := st.History(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, int64(5), revs[0].Revision)
	assert.Equal(t, int64(4), revs[1].Revision)

	data, err := st.Revision(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, data, "trimmed revisions are gone")
}

func TestSave_NoHistory(t *testing.T) {
	st := newTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, []byte(`a`)))
	require.NoError(t, st.Save(ctx, []byte(`b`)))

	revs, err := st.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestHistory_BadTimestampIsAnError(t *testing.T) {
	st := newTestStore(t, DefaultHistory)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, []byte(`a`)))
	require.NoError(t, st.Save(ctx, []byte(`b`)))

	_, err := st.db.ExecContext(ctx, `UPDATE snapshot_history SET saved_at = 'yesterday'`)
	require.NoError(t, err)

	_, err = st.History(ctx)
	assert.ErrorContains(t, err, "bad saved_at")
}

func TestKeysAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	a, err := OpenSQLite(path, "shop_a", DefaultHistory)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(path, "shop_b", DefaultHistory)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.Save(ctx, []byte(`A`)))

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLedgerOverSQLite(t *testing.T) {
	// GIVEN: A ledger persisted to a SQLite file
	// WHEN: Reopening the database
	// THEN: The committed state comes back

	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	st, err := OpenSQLite(path, ledger.DefaultKey, DefaultHistory)
	require.NoError(t, err)
	l, err := ledger.Open(ctx, st)
	require.NoError(t, err)
	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "Rahim"})
	require.NoError(t, err)
	_, err = l.AddTransaction(ctx, ledger.NewTransaction{
		CustomerID: c.ID,
		Type:       ledger.TxCreditSale,
		Amount:     ledger.NewMoneyFromInt(1450),
		Date:       ledger.NewDate(2025, time.January, 10),
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path, ledger.DefaultKey, DefaultHistory)
	require.NoError(t, err)
	defer st.Close()
	reopened, err := ledger.Open(ctx, st)
	require.NoError(t, err)

	s := reopened.State()
	assert.Len(t, s.Customers, 1)
	assert.True(t, ledger.BalanceOf(c.ID, s.Transactions).Equal(ledger.NewMoneyFromInt(1450)))
}
