package ledger

import (
	"slices"
	"strings"
)

// Unknown is shown wherever a referenced customer or product no longer exists.
const Unknown = "Unknown"

// State is the whole ledger: the unit of persistence, export and import.
// Collections keep insertion order (most recent last).
type State struct {
	ShopName     string        `json:"shopName"`
	Customers    []Customer    `json:"customers"`
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Expenses     []Expense     `json:"expenses"`
	User         *UserProfile  `json:"user,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with s.
func (s State) Clone() State {
	out := State{
		ShopName:     s.ShopName,
		Customers:    cloneSlice(s.Customers),
		Products:     cloneSlice(s.Products),
		Transactions: cloneSlice(s.Transactions),
		Expenses:     cloneSlice(s.Expenses),
	}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

// =============================================================================
// LOOKUPS - Weak references resolve to (value, ok), never an error
// =============================================================================

func (s State) Customer(id string) (Customer, bool) {
	for _, c := range s.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

func (s State) Product(id string) (Product, bool) {
	if id == "" {
		return Product{}, false
	}
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CustomerName resolves a customer id for display.
func (s State) CustomerName(id string) string {
	if c, ok := s.Customer(id); ok {
		return c.Name
	}
	return Unknown
}

// ProductName resolves a transaction's product for display. Payments carry
// no product and render as an empty string.
func (s State) ProductName(tx Transaction) string {
	if p, ok := s.Product(tx.ProductID); ok {
		return p.Name
	}
	if tx.ProductID == "" && tx.Type == TxPaymentReceived {
		return ""
	}
	return Unknown
}

// TransactionsFor returns a customer's transactions in insertion order.
func (s State) TransactionsFor(customerID string) []Transaction {
	var out []Transaction
	for _, tx := range s.Transactions {
		if tx.CustomerID == customerID {
			out = append(out, tx)
		}
	}
	return out
}

// SearchCustomers matches the query against name (case-insensitive) or phone.
// An empty query returns every customer.
func (s State) SearchCustomers(query string) []Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cloneSlice(s.Customers)
	}
	var out []Customer
	for _, c := range s.Customers {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) {
			out = append(out, c)
		}
	}
	return out
}

// Recent returns up to n of the latest transactions, newest first.
func (s State) Recent(n int) []Transaction {
	return newestFirst(s.Transactions, n)
}

// RecentExpenses returns up to n of the latest expenses, newest first.
func (s State) RecentExpenses(n int) []Expense {
	return newestFirst(s.Expenses, n)
}

// newestFirst reverses the tail of items. n <= 0 means all of them.
func newestFirst[T any](items []T, n int) []T {
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= len(items)-n; i-- {
		out = append(out, items[i])
	}
	return out
}
