/*
Package report builds the read models the front end renders.

PURPOSE:
  Combines ledger folds into view-shaped structs: the dashboard, the
  expense summary, resolved transaction rows and the owner's daily report.
  Everything is computed from a State snapshot; nothing here mutates.

NAME RESOLUTION:
  Rows carry customer and product names resolved at build time. A deleted
  customer or product shows as ledger.Unknown, never as an error.

SEE ALSO:
  - ledger/balance.go: The underlying folds
  - api/handlers.go: Serves these as JSON
*/
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/shop-ledger/ledger"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

// DefaultSeriesDays is the length of the dashboard chart.
const DefaultSeriesDays = 7

// TransactionRow is a transaction with its references resolved for display.
type TransactionRow struct {
	ledger.Transaction
	CustomerName string `json:"customerName"`
	ProductName  string `json:"productName"`
}

// Rows resolves names for txs, keeping their order.
func Rows(s ledger.State, txs []ledger.Transaction) []TransactionRow {
	out := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionRow{
			Transaction:  tx,
			CustomerName: s.CustomerName(tx.CustomerID),
			ProductName:  s.ProductName(tx),
		})
	}
	return out
}

// =============================================================================
// DASHBOARD
// =============================================================================

type Dashboard struct {
	ShopName       string             `json:"shopName"`
	Date           ledger.Date        `json:"date"`
	TotalDues      ledger.Money       `json:"totalDues"`
	TotalSales     ledger.Money       `json:"totalSales"`
	TodayCashSales ledger.Money       `json:"todayCashSales"`
	TodayPayments  ledger.Money       `json:"todayPayments"`
	TodayExpenses  ledger.Money       `json:"todayExpenses"`
	Series         []ledger.DayTotals `json:"series"`
	Recent         []TransactionRow   `json:"recent"`
}

// BuildDashboard computes the dashboard for the day containing now, with a
// trailing chart of days entries (DefaultSeriesDays when days <= 0).
func BuildDashboard(s ledger.State, now time.Time, days int) Dashboard {
	if days <= 0 {
		days = DefaultSeriesDays
	}
	today := ledger.DateOf(now)
	return Dashboard{
		ShopName:       s.ShopName,
		Date:           today,
		TotalDues:      ledger.TotalOutstanding(s.Customers, s.Transactions),
		TotalSales:     ledger.TotalSales(s.Transactions),
		TodayCashSales: ledger.CashSalesOn(s.Transactions, today),
		TodayPayments:  ledger.PaymentsOn(s.Transactions, today),
		TodayExpenses:  ledger.ExpensesOn(s.Expenses, today),
		Series:         ledger.DailySeries(s.Transactions, s.Expenses, today, days),
		Recent:         Rows(s, s.Recent(RecentLimit)),
	}
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseSummary struct {
	Total      ledger.Money            `json:"total"`
	ByCategory []ledger.CategoryAmount `json:"byCategory"`
}

func BuildExpenseSummary(s ledger.State) ExpenseSummary {
	return ExpenseSummary{
		Total:      ledger.TotalExpenses(s.Expenses),
		ByCategory: ledger.ExpensesByCategory(s.Expenses),
	}
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// CustomerRow is a customer with their current balance.
type CustomerRow struct {
	ledger.Customer
	Balance ledger.Money `json:"balance"`
}

func CustomerRows(s ledger.State, customers []ledger.Customer) []CustomerRow {
	out := make([]CustomerRow, 0, len(customers))
	for _, c := range customers {
		out = append(out, CustomerRow{Customer: c, Balance: ledger.BalanceOf(c.ID, s.Transactions)})
	}
	return out
}

// =============================================================================
// DAILY REPORT - Summary the owner mails to themselves
// =============================================================================

type DailyReport struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func BuildDailyReport(s ledger.State, now time.Time) DailyReport {
	d := BuildDashboard(s, now, 1)
	day := d.Date.String()

	var body strings.Builder
	fmt.Fprintf(&body, "Summary for %q on %s:\n\n", s.ShopName, day)
	fmt.Fprintf(&body, "1. Cash sales today: %s\n", d.TodayCashSales.Display())
	fmt.Fprintf(&body, "2. Payments collected today: %s\n", d.TodayPayments.Display())
	fmt.Fprintf(&body, "3. Expenses today: %s\n", d.TodayExpenses.Display())
	fmt.Fprintf(&body, "4. Total outstanding dues: %s\n", d.TotalDues.Display())

	r := DailyReport{
		Subject: fmt.Sprintf("%s - business report (%s)", s.ShopName, day),
		Body:    body.String(),
	}
	if s.User != nil {
		r.To = s.User.Email
	}
	return r
}
