package api

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/warp/shop-ledger/ledger"
)

const maxCategoryLen = 40

// errValidation marks input rejected at the boundary (HTTP 400).
var errValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

// validateAmount requires a strictly positive amount.
func validateAmount(m ledger.Money) error {
	if !m.IsPositive() {
		return invalid("amount must be positive, got %s", m.String())
	}
	return nil
}

// parseDate defaults an empty value to today.
func parseDate(value string, today ledger.Date) (ledger.Date, error) {
	if strings.TrimSpace(value) == "" {
		return today, nil
	}
	d, err := ledger.ParseDate(value)
	if err != nil {
		return ledger.Date{}, fmt.Errorf("%w: %w", errValidation, err)
	}
	return d, nil
}

func validateCategory(category string) (ledger.ExpenseCategory, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", invalid("category is required")
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return "", invalid("category too long, max %d characters", maxCategoryLen)
	}
	return ledger.ExpenseCategory(category), nil
}

func (req CreateTransactionRequest) toInput(today ledger.Date) (ledger.NewTransaction, error) {
	if err := validateRequired("customerId", req.CustomerID); err != nil {
		return ledger.NewTransaction{}, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return ledger.NewTransaction{}, err
	}
	txType, err := ledger.ParseTransactionType(req.Type)
	if err != nil {
		return ledger.NewTransaction{}, fmt.Errorf("%w: %w", errValidation, err)
	}
	date, err := parseDate(req.Date, today)
	if err != nil {
		return ledger.NewTransaction{}, err
	}
	productID := strings.TrimSpace(req.ProductID)
	if txType == ledger.TxPaymentReceived {
		productID = ""
	}
	return ledger.NewTransaction{
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProductID:  productID,
		Date:       date,
		Type:       txType,
		Amount:     req.Amount,
		Note:       strings.TrimSpace(req.Note),
	}, nil
}

func (req CreateExpenseRequest) toInput(today ledger.Date) (ledger.NewExpense, error) {
	if err := validateAmount(req.Amount); err != nil {
		return ledger.NewExpense{}, err
	}
	category, err := validateCategory(req.Category)
	if err != nil {
		return ledger.NewExpense{}, err
	}
	date, err := parseDate(req.Date, today)
	if err != nil {
		return ledger.NewExpense{}, err
	}
	return ledger.NewExpense{
		Date:        date,
		Category:    category,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
	}, nil
}
