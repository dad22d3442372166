/*
ledger.go - The Ledger: owned state plus its only mutation surface

PURPOSE:
  Ledger holds the current State behind a single-writer lock and exposes
  one method per sanctioned mutation. Callers never touch the slices
  directly; reads get a deep copy from State().

WRITE-THROUGH:
  Every mutation follows the same commit path:
    1. Copy the current state
    2. Apply the change to the copy
    3. Encode and Save() the copy through the Persistence gateway
    4. Publish the copy as the current state
    5. Notify observers (outside the lock)

  If step 3 fails nothing is published and the error is returned, so the
  persisted copy never lags a mutation a caller can observe.

CASCADE DELETE:
  DeleteCustomer removes the customer and every transaction that names it
  in one commit. No reader can see one half without the other.

PERMISSIVE INPUT:
  Validation belongs at the input boundary (see api/validate.go). The
  Ledger accepts what it is given: transactions for unknown customers,
  zero or negative amounts. None of these can crash a read path.

SEE ALSO:
  - persistence.go: Gateway interface
  - snapshot.go: Encoding and defaults
  - balance.go: Read-side folds
*/
package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer is called with the committed state after each mutation.
// Observers run outside the lock, so two concurrent commits may notify in
// either order. Call State() when the latest value matters.
type Observer func(State)

// Ledger is safe for concurrent use; mutations are serialised.
type Ledger struct {
	mu      sync.RWMutex
	state   State
	persist Persistence

	newID     func() string
	now       func() time.Time
	observers []Observer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator replaces the uuid generator (tests use deterministic ids).
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) { l.now = fn }
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observers = append(l.observers, o) }
}

// New creates a Ledger over an initial state. A nil Persistence keeps the
// ledger in memory only.
func New(p Persistence, initial State, opts ...Option) *Ledger {
	l := &Ledger{
		state:   normalize(initial.Clone()),
		persist: p,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open loads the stored snapshot. A missing or undecodable blob yields the
// default state; only a failing gateway is an error.
func Open(ctx context.Context, p Persistence, opts ...Option) (*Ledger, error) {
	initial := DefaultState()
	if p != nil {
		data, err := p.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: load: %w", ErrPersistence, err)
		}
		if len(data) > 0 {
			decoded, err := decodeStored(data)
			if err != nil {
				log.Printf("ledger: stored snapshot unreadable, starting from defaults: %v", err)
			} else {
				initial = decoded
			}
		}
	}
	return New(p, initial, opts...), nil
}

// Subscribe registers an observer for future commits.
func (l *Ledger) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// State returns a deep copy of the current state.
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// AddCustomer assigns an id and creation time, then appends.
func (l *Ledger) AddCustomer(ctx context.Context, in NewCustomer) (Customer, error) {
	var created Customer
	err := l.commit(ctx, func(s *State) {
		created = Customer{
			ID:        l.newID(),
			Name:      in.Name,
			Phone:     in.Phone,
			Address:   in.Address,
			CreatedAt: l.now().UnixMilli(),
		}
		s.Customers = append(s.Customers, created)
	})
	if err != nil {
		return Customer{}, err
	}
	return created, nil
}

// UpdateCustomer merges the non-nil fields. An unknown id is a no-op.
func (l *Ledger) UpdateCustomer(ctx context.Context, id string, upd CustomerUpdate) error {
	return l.commit(ctx, func(s *State) {
		for i := range s.Customers {
			if s.Customers[i].ID != id {
				continue
			}
			if upd.Name != nil {
				s.Customers[i].Name = *upd.Name
			}
			if upd.Phone != nil {
				s.Customers[i].Phone = *upd.Phone
			}
			if upd.Address != nil {
				s.Customers[i].Address = *upd.Address
			}
			return
		}
	})
}

// DeleteCustomer removes the customer and all of its transactions.
func (l *Ledger) DeleteCustomer(ctx context.Context, id string) error {
	return l.commit(ctx, func(s *State) {
		s.Customers = removeWhere(s.Customers, func(c Customer) bool { return c.ID == id })
		s.Transactions = removeWhere(s.Transactions, func(tx Transaction) bool { return tx.CustomerID == id })
	})
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (l *Ledger) AddProduct(ctx context.Context, in NewProduct) (Product, error) {
	var created Product
	err := l.commit(ctx, func(s *State) {
		created = Product{ID: l.newID(), Name: in.Name, DefaultPrice: in.DefaultPrice}
		s.Products = append(s.Products, created)
	})
	if err != nil {
		return Product{}, err
	}
	return created, nil
}

// DeleteProduct never touches transactions; they keep the dangling id.
func (l *Ledger) DeleteProduct(ctx context.Context, id string) error {
	return l.commit(ctx, func(s *State) {
		s.Products = removeWhere(s.Products, func(p Product) bool { return p.ID == id })
	})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// AddTransaction appends without checking that the customer exists.
func (l *Ledger) AddTransaction(ctx context.Context, in NewTransaction) (Transaction, error) {
	var created Transaction
	err := l.commit(ctx, func(s *State) {
		created = Transaction{
			ID:         l.newID(),
			CustomerID: in.CustomerID,
			ProductID:  in.ProductID,
			Date:       in.Date,
			Type:       in.Type,
			Amount:     in.Amount,
			Note:       in.Note,
		}
		s.Transactions = append(s.Transactions, created)
	})
	if err != nil {
		return Transaction{}, err
	}
	return created, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	return l.commit(ctx, func(s *State) {
		s.Transactions = removeWhere(s.Transactions, func(tx Transaction) bool { return tx.ID == id })
	})
}

// =============================================================================
// EXPENSES
// =============================================================================

func (l *Ledger) AddExpense(ctx context.Context, in NewExpense) (Expense, error) {
	var created Expense
	err := l.commit(ctx, func(s *State) {
		created = Expense{
			ID:          l.newID(),
			Date:        in.Date,
			Category:    in.Category,
			Amount:      in.Amount,
			Description: in.Description,
		}
		s.Expenses = append(s.Expenses, created)
	})
	if err != nil {
		return Expense{}, err
	}
	return created, nil
}

func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	return l.commit(ctx, func(s *State) {
		s.Expenses = removeWhere(s.Expenses, func(e Expense) bool { return e.ID == id })
	})
}

// =============================================================================
// SHOP PROFILE
// =============================================================================

func (l *Ledger) SetShopName(ctx context.Context, name string) error {
	return l.commit(ctx, func(s *State) { s.ShopName = name })
}

// SetUser replaces the signed-in user; nil signs out.
func (l *Ledger) SetUser(ctx context.Context, user *UserProfile) error {
	return l.commit(ctx, func(s *State) {
		if user == nil {
			s.User = nil
			return
		}
		u := *user
		s.User = &u
	})
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// ExportSnapshot returns the current state as an indented JSON document.
func (l *Ledger) ExportSnapshot() ([]byte, error) {
	return EncodeSnapshot(l.State())
}

// ImportSnapshot replaces the entire state. The document is fully decoded
// and validated first; on any error the current state is untouched.
func (l *Ledger) ImportSnapshot(ctx context.Context, data []byte) error {
	next, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	return l.commit(ctx, func(s *State) { *s = next })
}

// =============================================================================
// COMMIT
// =============================================================================

func (l *Ledger) commit(ctx context.Context, apply func(*State)) error {
	l.mu.Lock()
	next := l.state.Clone()
	apply(&next)
	next = normalize(next)

	if err := l.save(ctx, next); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = next
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	for _, o := range observers {
		o(next.Clone())
	}
	return nil
}

func (l *Ledger) save(ctx context.Context, s State) error {
	if l.persist == nil {
		return nil
	}
	data, err := encodeStored(s)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}
	if err := l.persist.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	return nil
}

func removeWhere[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
