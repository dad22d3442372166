package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shop-ledger/ledger"
	"github.com/warp/shop-ledger/store/memory"
)

var day = ledger.NewDate(2025, time.March, 10)

// newTestLedger returns a ledger with sequential ids over a memory store.
func newTestLedger(t *testing.T) (*ledger.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	n := 0
	l, err := ledger.Open(context.Background(), store,
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		ledger.WithClock(func() time.Time { return time.UnixMilli(1741600000000) }),
	)
	require.NoError(t, err)
	return l, store
}

func money(v int64) ledger.Money { return ledger.NewMoneyFromInt(v) }

func addTx(t *testing.T, l *ledger.Ledger, customerID string, typ ledger.TransactionType, amount int64) ledger.Transaction {
	t.Helper()
	tx, err := l.AddTransaction(context.Background(), ledger.NewTransaction{
		CustomerID: customerID,
		ProductID:  "gas-12",
		Date:       day,
		Type:       typ,
		Amount:     money(amount),
	})
	require.NoError(t, err)
	return tx
}

// =============================================================================
// CUSTOMER TESTS
// =============================================================================

func TestAddCustomer_AssignsIDAndTimestamp(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "Rahim", Phone: "01711"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, int64(1741600000000), c.CreatedAt)
	assert.Len(t, l.State().Customers, 1)
	assert.Equal(t, 1, store.Saves(), "each mutation saves once")
}

func TestDeleteCustomer_CascadesTransactions(t *testing.T) {
	// GIVEN: Customer A with 3 transactions, customer B with 2
	// WHEN: Deleting A
	// THEN: A and its 3 transactions are gone, B's are untouched, one save

	l, store := newTestLedger(t)
	ctx := context.Background()

	a, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	b, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "B"})
	require.NoError(t, err)

	addTx(t, l, a.ID, ledger.TxCreditSale, 500)
	addTx(t, l, a.ID, ledger.TxPaymentReceived, 200)
	addTx(t, l, a.ID, ledger.TxCashSale, 100)
	addTx(t, l, b.ID, ledger.TxCreditSale, 300)
	addTx(t, l, b.ID, ledger.TxCreditSale, 50)

	savesBefore := store.Saves()
	require.NoError(t, l.DeleteCustomer(ctx, a.ID))

	s := l.State()
	assert.Len(t, s.Customers, 1)
	assert.Len(t, s.Transactions, 2)
	for _, tx := range s.Transactions {
		assert.Equal(t, b.ID, tx.CustomerID)
	}
	assert.Equal(t, savesBefore+1, store.Saves())
	assert.True(t, ledger.BalanceOf(b.ID, s.Transactions).Equal(money(350)))
}

func TestDeleteCustomer_Unknown(t *testing.T) {
	l, _ := newTestLedger(t)
	addTx(t, l, "c1", ledger.TxCreditSale, 10)

	require.NoError(t, l.DeleteCustomer(context.Background(), "nobody"))
	assert.Len(t, l.State().Transactions, 1)
}

func TestUpdateCustomer_MergesFields(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "Karim", Phone: "017", Address: "Dhaka"})
	require.NoError(t, err)

	phone := "018"
	require.NoError(t, l.UpdateCustomer(ctx, c.ID, ledger.CustomerUpdate{Phone: &phone}))

	got, ok := l.State().Customer(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Karim", got.Name)
	assert.Equal(t, "018", got.Phone)
	assert.Equal(t, "Dhaka", got.Address)
	assert.Equal(t, c.CreatedAt, got.CreatedAt)
}

func TestUpdateCustomer_UnknownIsNoOp(t *testing.T) {
	l, _ := newTestLedger(t)
	before := l.State()

	name := "Ghost"
	require.NoError(t, l.UpdateCustomer(context.Background(), "missing", ledger.CustomerUpdate{Name: &name}))
	assert.Equal(t, before, l.State())
}

// =============================================================================
// PRODUCT & TRANSACTION TESTS
// =============================================================================

func TestDeleteProduct_KeepsTransactions(t *testing.T) {
	// GIVEN: A transaction referencing gas-12
	// WHEN: Deleting the product
	// THEN: The transaction stays and resolves to "Unknown"

	l, _ := newTestLedger(t)
	ctx := context.Background()
	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	tx := addTx(t, l, c.ID, ledger.TxCreditSale, 500)

	require.NoError(t, l.DeleteProduct(ctx, "gas-12"))

	s := l.State()
	assert.Len(t, s.Transactions, 1)
	assert.Equal(t, ledger.Unknown, s.ProductName(tx))
	assert.True(t, ledger.BalanceOf(c.ID, s.Transactions).Equal(money(500)))
}

func TestAddTransaction_UnknownCustomerAccepted(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := addTx(t, l, "ghost", ledger.TxCreditSale, 100)

	s := l.State()
	assert.Len(t, s.Transactions, 1)
	assert.Equal(t, ledger.Unknown, s.CustomerName(tx.CustomerID))
	assert.True(t, ledger.TotalOutstanding(s.Customers, s.Transactions).IsZero())
}

func TestDeleteTransaction(t *testing.T) {
	l, _ := newTestLedger(t)
	tx1 := addTx(t, l, "c1", ledger.TxCreditSale, 100)
	tx2 := addTx(t, l, "c1", ledger.TxCreditSale, 50)

	require.NoError(t, l.DeleteTransaction(context.Background(), tx1.ID))

	s := l.State()
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, tx2.ID, s.Transactions[0].ID)
}

func TestExpenses_AddDelete(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	e, err := l.AddExpense(ctx, ledger.NewExpense{Date: day, Category: ledger.CategoryRent, Amount: money(1000)})
	require.NoError(t, err)
	assert.Len(t, l.State().Expenses, 1)

	require.NoError(t, l.DeleteExpense(ctx, e.ID))
	assert.Empty(t, l.State().Expenses)
}

// =============================================================================
// WRITE-THROUGH TESTS
// =============================================================================

func TestSaveFailure_LeavesStateUnchanged(t *testing.T) {
	// GIVEN: A gateway that rejects writes
	// WHEN: Adding a customer
	// THEN: The error wraps ErrPersistence and nothing is published

	l, store := newTestLedger(t)
	store.FailSaves(true)

	_, err := l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrPersistence)
	assert.ErrorIs(t, err, memory.ErrSaveRejected)
	assert.Empty(t, l.State().Customers)

	store.FailSaves(false)
	_, err = l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	assert.Len(t, l.State().Customers, 1)
}

func TestWriteThrough_ReopenSeesMutations(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	addTx(t, l, c.ID, ledger.TxCreditSale, 500)
	require.NoError(t, l.SetShopName(ctx, "Rahim Gas House"))

	reopened, err := ledger.Open(ctx, store)
	require.NoError(t, err)

	s := reopened.State()
	assert.Equal(t, "Rahim Gas House", s.ShopName)
	assert.Len(t, s.Customers, 1)
	assert.True(t, ledger.BalanceOf(c.ID, s.Transactions).Equal(money(500)))
}

func TestWriteThrough_ZeroAndNegativeAmounts(t *testing.T) {
	// GIVEN: A credit sale of -40 and a payment of 0
	// WHEN: Reopening the store
	// THEN: Both are kept and the balance is -40

	l, store := newTestLedger(t)
	ctx := context.Background()
	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	addTx(t, l, c.ID, ledger.TxCreditSale, -40)
	addTx(t, l, c.ID, ledger.TxPaymentReceived, 0)

	assert.True(t, ledger.BalanceOf(c.ID, l.State().Transactions).Equal(money(-40)))

	reopened, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	s := reopened.State()
	assert.Len(t, s.Transactions, 2)
	assert.True(t, ledger.BalanceOf(c.ID, s.Transactions).Equal(money(-40)))
	assert.True(t, ledger.TotalOutstanding(s.Customers, s.Transactions).Equal(money(-40)))
}

func TestObservers_NotifiedAfterCommit(t *testing.T) {
	var seen []int
	l, err := ledger.Open(context.Background(), memory.New(),
		ledger.WithObserver(func(s ledger.State) { seen = append(seen, len(s.Customers)) }))
	require.NoError(t, err)

	_, err = l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	_, err = l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "B"})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestObserver_NotCalledOnFailedSave(t *testing.T) {
	store := memory.New()
	calls := 0
	l, err := ledger.Open(context.Background(), store, ledger.WithObserver(func(ledger.State) { calls++ }))
	require.NoError(t, err)

	store.FailSaves(true)
	_, err = l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestObserver_CanReadLedger(t *testing.T) {
	// Observers run outside the lock, so reading the ledger must not deadlock.
	l, _ := newTestLedger(t)
	var names []string
	l.Subscribe(func(ledger.State) {
		names = append(names, l.State().ShopName)
	})

	require.NoError(t, l.SetShopName(context.Background(), "Shop"))
	assert.Equal(t, []string{"Shop"}, names)
}

func TestObservers_EachConcurrentCommitNotifiedOnce(t *testing.T) {
	// Notification order across goroutines is not fixed, but every
	// committed state reaches the observer exactly once.
	var mu sync.Mutex
	var seen []int
	l, _ := newTestLedger(t)
	l.Subscribe(func(s ledger.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, len(s.Customers))
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "C"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want := make([]int, 20)
	for i := range want {
		want[i] = i + 1
	}
	assert.ElementsMatch(t, want, seen)
	assert.Len(t, l.State().Customers, 20)
}

func TestState_IsACopy(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)

	s := l.State()
	s.Customers[0].Name = "mutated"
	s.Products = nil

	fresh := l.State()
	assert.Equal(t, "A", fresh.Customers[0].Name)
	assert.Len(t, fresh.Products, 3)
}

func TestConcurrentMutations(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddExpense(ctx, ledger.NewExpense{Date: day, Category: ledger.CategoryOther, Amount: money(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, l.State().Expenses, 20)
	assert.Equal(t, 20, store.Saves())
	assert.True(t, ledger.TotalExpenses(l.State().Expenses).Equal(money(20)))
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen_EmptyStoreGivesDefaults(t *testing.T) {
	l, err := ledger.Open(context.Background(), memory.New())
	require.NoError(t, err)

	s := l.State()
	assert.Equal(t, ledger.DefaultShopName, s.ShopName)
	assert.Len(t, s.Products, 3)
	assert.Empty(t, s.Customers)
	assert.Nil(t, s.User)
}

func TestOpen_CorruptBlobGivesDefaults(t *testing.T) {
	store := memory.New()
	store.Put([]byte("{not json"))

	l, err := ledger.Open(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultShopName, l.State().ShopName)
}

func TestOpen_PartialBlobFillsDefaults(t *testing.T) {
	store := memory.New()
	store.Put([]byte(`{"shopName":"Karim Store","customers":[{"id":"c1","name":"A","phone":"","address":"","createdAt":1}]}`))

	l, err := ledger.Open(context.Background(), store)
	require.NoError(t, err)

	s := l.State()
	assert.Equal(t, "Karim Store", s.ShopName)
	assert.Len(t, s.Customers, 1)
	assert.Len(t, s.Products, 3, "missing products fall back to the defaults")
	assert.NotNil(t, s.Transactions)
	assert.NotNil(t, s.Expenses)
}

func TestOpen_KeepsRecordsWithUnrecognisedType(t *testing.T) {
	// GIVEN: A saved transaction with an empty type next to a credit sale
	// WHEN: Reopening, mutating and reopening again
	// THEN: Nothing is dropped and the balance only counts the credit sale

	l, store := newTestLedger(t)
	ctx := context.Background()
	c, err := l.AddCustomer(ctx, ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	addTx(t, l, c.ID, ledger.TxCreditSale, 500)
	addTx(t, l, c.ID, "", 90)

	reopened, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	s := reopened.State()
	assert.Len(t, s.Customers, 1)
	assert.Len(t, s.Transactions, 2)
	assert.True(t, ledger.BalanceOf(c.ID, s.Transactions).Equal(money(500)))

	_, err = reopened.AddCustomer(ctx, ledger.NewCustomer{Name: "B"})
	require.NoError(t, err)
	again, err := ledger.Open(ctx, store)
	require.NoError(t, err)
	assert.Len(t, again.State().Customers, 2)
	assert.Len(t, again.State().Transactions, 2)
}

func TestOpen_SkipsUnreadableRecords(t *testing.T) {
	// GIVEN: A stored blob where one transaction has a bad date and one
	// expense a bad amount
	// THEN: Only those records are dropped; everything else loads

	store := memory.New()
	store.Put([]byte(`{
		"shopName": "Karim Store",
		"customers": [{"id":"c1","name":"A","phone":"","address":"","createdAt":1}],
		"transactions": [
			{"id":"t1","customerId":"c1","productId":"gas-12","date":"2025-03-10","type":"credit_sale","amount":500},
			{"id":"t2","customerId":"c1","productId":"gas-12","date":"someday","type":"credit_sale","amount":100}
		],
		"expenses": [
			{"id":"e1","date":"2025-03-10","category":"Rent","amount":"lots"},
			{"id":"e2","date":"2025-03-10","category":"Rent","amount":300}
		],
		"user": 42
	}`))

	l, err := ledger.Open(context.Background(), store)
	require.NoError(t, err)

	s := l.State()
	assert.Equal(t, "Karim Store", s.ShopName)
	assert.Len(t, s.Customers, 1)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "t1", s.Transactions[0].ID)
	require.Len(t, s.Expenses, 1)
	assert.Equal(t, "e2", s.Expenses[0].ID)
	assert.Nil(t, s.User)
	assert.Len(t, s.Products, 3)
}

func TestNew_NilPersistence(t *testing.T) {
	l := ledger.New(nil, ledger.DefaultState())
	_, err := l.AddCustomer(context.Background(), ledger.NewCustomer{Name: "A"})
	require.NoError(t, err)
	assert.Len(t, l.State().Customers, 1)
}
