/*
balance.go - Balance and aggregate calculation

PURPOSE:
  Answers "how much does this customer owe?" and the reporting totals the
  dashboard needs. Everything here is a pure fold over a slice; nothing
  is cached and nothing mutates.

BALANCE EFFECTS:
  credit_sale       +amount
  payment_received  -amount
  cash_sale         ignored (settled on the spot; revenue only)

ORDER INDEPENDENCE:
  Every function sums, so the result does not depend on record order or
  on how customers' records are interleaved. Recomputing from the full
  log on each call is deliberate: logs are small and there is no balance
  field to fall out of sync.

SEE ALSO:
  - report/report.go: Combines these into the dashboard read model
*/
package ledger

// BalanceOf returns what customerID currently owes.
func BalanceOf(customerID string, txs []Transaction) Money {
	var balance Money
	for _, tx := range txs {
		if tx.CustomerID != customerID {
			continue
		}
		switch tx.Type {
		case TxCreditSale:
			balance = balance.Add(tx.Amount)
		case TxPaymentReceived:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}

// TotalOutstanding sums the balances of the given customers. Transactions
// whose customer is not in the list do not contribute.
func TotalOutstanding(customers []Customer, txs []Transaction) Money {
	var total Money
	for _, c := range customers {
		total = total.Add(BalanceOf(c.ID, txs))
	}
	return total
}

// =============================================================================
// SALES AND PAYMENTS
// =============================================================================

// TotalSales sums credit and cash sales.
func TotalSales(txs []Transaction) Money {
	return sumTransactions(txs, func(tx Transaction) bool { return tx.Type.IsSale() })
}

func CashSales(txs []Transaction) Money {
	return sumTransactions(txs, ofType(TxCashSale))
}

func CreditSales(txs []Transaction) Money {
	return sumTransactions(txs, ofType(TxCreditSale))
}

func PaymentsReceived(txs []Transaction) Money {
	return sumTransactions(txs, ofType(TxPaymentReceived))
}

// SalesOn sums credit and cash sales recorded on day.
func SalesOn(txs []Transaction, day Date) Money {
	return sumTransactions(txs, func(tx Transaction) bool {
		return tx.Type.IsSale() && tx.Date.Equal(day)
	})
}

func CashSalesOn(txs []Transaction, day Date) Money {
	return sumTransactions(txs, func(tx Transaction) bool {
		return tx.Type == TxCashSale && tx.Date.Equal(day)
	})
}

func PaymentsOn(txs []Transaction, day Date) Money {
	return sumTransactions(txs, func(tx Transaction) bool {
		return tx.Type == TxPaymentReceived && tx.Date.Equal(day)
	})
}

func sumTransactions(txs []Transaction, keep func(Transaction) bool) Money {
	var total Money
	for _, tx := range txs {
		if keep(tx) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func ofType(t TransactionType) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Type == t }
}

// =============================================================================
// EXPENSES
// =============================================================================

func TotalExpenses(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func ExpensesOn(expenses []Expense, day Date) Money {
	var total Money
	for _, e := range expenses {
		if e.Date.Equal(day) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// CategoryAmount is one row of an expense breakdown.
type CategoryAmount struct {
	Category ExpenseCategory `json:"category"`
	Amount   Money           `json:"amount"`
}

// ExpensesByCategory returns every standard category (zero when unused), in
// display order, followed by free-text categories in first-seen order.
func ExpensesByCategory(expenses []Expense) []CategoryAmount {
	totals := make(map[ExpenseCategory]Money)
	var extra []ExpenseCategory
	for _, e := range expenses {
		if _, seen := totals[e.Category]; !seen && !e.Category.IsStandard() {
			extra = append(extra, e.Category)
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	out := make([]CategoryAmount, 0, len(ExpenseCategories)+len(extra))
	for _, c := range ExpenseCategories {
		out = append(out, CategoryAmount{Category: c, Amount: totals[c]})
	}
	for _, c := range extra {
		out = append(out, CategoryAmount{Category: c, Amount: totals[c]})
	}
	return out
}

// =============================================================================
// DAILY SERIES
// =============================================================================

// DayTotals is one point of the trailing sales/expenses chart.
type DayTotals struct {
	Date     Date  `json:"date"`
	Sales    Money `json:"sales"`
	Expenses Money `json:"expenses"`
}

// DailySeries returns n consecutive days ending at end, oldest first.
func DailySeries(txs []Transaction, expenses []Expense, end Date, n int) []DayTotals {
	if n <= 0 {
		return []DayTotals{}
	}
	out := make([]DayTotals, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := end.AddDays(-i)
		out = append(out, DayTotals{
			Date:     day,
			Sales:    SalesOn(txs, day),
			Expenses: ExpensesOn(expenses, day),
		})
	}
	return out
}
