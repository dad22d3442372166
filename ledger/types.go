/*
Package ledger provides the shop's bookkeeping core.

PURPOSE:
  Holds the canonical business state of one retail shop (customers,
  products, sales/payment transactions, expenses, shop profile) and the
  only sanctioned mutation surface over it. Customer balances are never
  stored: they are folded from the transaction log on every read.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: Decimal amount in the shop's single currency (Taka)
  - Date: Calendar date without a time component
  - Customer, Product, Transaction, Expense: the four collections
  - TransactionType: Credit sale, cash sale, payment received
  - State: The whole serialisable snapshot

REFERENCES:
  Transactions point at customers and products by id only. There is no
  foreign key and no back-pointer; every read path treats a miss as
  "unknown" instead of failing.

SEE ALSO:
  - ledger.go: Mutation operations and write-through persistence
  - balance.go: Balance and aggregate folds
  - snapshot.go: Snapshot encoding, defaults and import validation
*/
package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount in the implied shop currency
// =============================================================================

// CurrencySymbol is the display symbol of the only supported currency (BDT).
const CurrencySymbol = "৳"

// Money is an amount in Taka. The zero value is 0.
// JSON encodes it as a bare number so snapshots stay compatible with
// backups written by the browser version of the app.
type Money struct {
	decimal.Decimal
}

func NewMoney(value float64) Money { return Money{decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money { return Money{decimal.NewFromInt(value)} }

// ParseMoney parses a decimal string such as "150.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d}, nil
}

func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }
func (m Money) Sub(o Money) Money { return Money{m.Decimal.Sub(o.Decimal)} }
func (m Money) Neg() Money { return Money{m.Decimal.Neg()} }
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }
func (m Money) GreaterThan(o Money) bool { return m.Decimal.GreaterThan(o.Decimal) }

// Display renders the amount with the currency symbol, e.g. "৳1500".
func (m Money) Display() string { return CurrencySymbol + m.Decimal.String() }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

// =============================================================================
// DATE - Calendar date, no time component
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day. It is encoded as "YYYY-MM-DD".
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day t falls on in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) IsZero() bool { return d.Time.IsZero() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Accept full ISO timestamps too; only the day part matters.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// TRANSACTION TYPE - Closed set, each with its own balance effect
// =============================================================================

type TransactionType string

const (
	TxCreditSale      TransactionType = "credit_sale"      // Owed by the customer: raises balance
	TxCashSale        TransactionType = "cash_sale"        // Settled on the spot: no balance effect
	TxPaymentReceived TransactionType = "payment_received" // Customer paid dues: lowers balance
)

// TransactionTypes lists every variant in display order.
var TransactionTypes = []TransactionType{TxCreditSale, TxCashSale, TxPaymentReceived}

// transactionTypeAliases maps the upper-case names and the Bengali labels
// used by the browser version of the app onto the canonical values.
var transactionTypeAliases = map[string]TransactionType{
	"CREDIT_SALE":      TxCreditSale,
	"CASH_SALE":        TxCashSale,
	"PAYMENT_RECEIVED": TxPaymentReceived,
	"বাকি বিক্রয়":      TxCreditSale,
	"নগদ বিক্রয়":       TxCashSale,
	"বাকি পরিশোধ":      TxPaymentReceived,
}

// ParseTransactionType accepts canonical values and known aliases.
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.TrimSpace(s)
	switch t := TransactionType(s); t {
	case TxCreditSale, TxCashSale, TxPaymentReceived:
		return t, nil
	}
	if t, ok := transactionTypeAliases[s]; ok {
		return t, nil
	}
	if t, ok := transactionTypeAliases[strings.ToUpper(s)]; ok {
		return t, nil
	}
	return "", &UnknownTransactionTypeError{Value: s}
}

// IsSale reports whether the type counts towards sales revenue.
func (t TransactionType) IsSale() bool { return t == TxCreditSale || t == TxCashSale }

// Known reports whether t is one of the three canonical values.
func (t TransactionType) Known() bool {
	return t == TxCreditSale || t == TxCashSale || t == TxPaymentReceived
}

// UnmarshalJSON maps aliases onto the canonical values. Any other string is
// kept as written so a saved record survives a reload; balances ignore it.
func (t *TransactionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("transaction type must be a string: %w", err)
	}
	if parsed, err := ParseTransactionType(s); err == nil {
		*t = parsed
		return nil
	}
	*t = TransactionType(s)
	return nil
}

// =============================================================================
// EXPENSE CATEGORY - Fixed set with free-text fallback
// =============================================================================

type ExpenseCategory string

const (
	CategoryRent      ExpenseCategory = "Rent"
	CategoryUtilities ExpenseCategory = "Utilities"
	CategorySalaries  ExpenseCategory = "Salaries"
	CategorySupplies  ExpenseCategory = "Supplies"
	CategoryMarketing ExpenseCategory = "Marketing"
	CategoryRepairs   ExpenseCategory = "Repairs"
	CategoryOther     ExpenseCategory = "Other"
)

// ExpenseCategories is the standard category list in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryRent, CategoryUtilities, CategorySalaries, CategorySupplies,
	CategoryMarketing, CategoryRepairs, CategoryOther,
}

func (c ExpenseCategory) IsStandard() bool {
	for _, std := range ExpenseCategories {
		if c == std {
			return true
		}
	}
	return false
}

// =============================================================================
// ENTITIES
// =============================================================================

type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

// Created returns the creation timestamp as a time.Time.
func (c Customer) Created() time.Time { return time.UnixMilli(c.CreatedAt) }

type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DefaultPrice Money  `json:"defaultPrice"`
}

// Transaction is immutable once recorded; it can only be deleted.
type Transaction struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	ProductID  string          `json:"productId,omitempty"` // empty for payments
	Date       Date            `json:"date"`
	Type       TransactionType `json:"type"`
	Amount     Money           `json:"amount"`
	Note       string          `json:"note"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	Category    ExpenseCategory `json:"category"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description"`
}

// UserProfile is the signed-in owner. Session data only; not ledger logic.
type UserProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// =============================================================================
// INPUTS - What callers supply; ids and timestamps are assigned by the Ledger
// =============================================================================

type NewCustomer struct {
	Name    string
	Phone   string
	Address string
}

// CustomerUpdate carries the fields to merge. Nil fields are left alone.
type CustomerUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

type NewProduct struct {
	Name         string
	DefaultPrice Money
}

type NewTransaction struct {
	CustomerID string
	ProductID  string
	Date       Date
	Type       TransactionType
	Amount     Money
	Note       string
}

type NewExpense struct {
	Date        Date
	Category    ExpenseCategory
	Amount      Money
	Description string
}
