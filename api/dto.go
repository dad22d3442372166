/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Request bodies are decoded into these types and validated in handlers
  before anything reaches the ledger. Responses reuse the ledger and
  report types directly, so the JSON field names match the snapshot
  format (camelCase).

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO / *Response: Response types that are not plain ledger/report types

SEE ALSO:
  - validate.go: Field validation
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/shop-ledger/ledger"
	"github.com/warp/shop-ledger/report"
)

// =============================================================================
// REQUESTS
// =============================================================================

type ShopRequest struct {
	Name string `json:"name"`
}

type SignInRequest struct {
	Credential string `json:"credential"`
}

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateCustomerRequest merges only the fields present in the body.
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type CreateProductRequest struct {
	Name         string       `json:"name"`
	DefaultPrice ledger.Money `json:"defaultPrice"`
}

type CreateTransactionRequest struct {
	CustomerID string       `json:"customerId"`
	ProductID  string       `json:"productId"`
	Date       string       `json:"date"` // YYYY-MM-DD, defaults to today
	Type       string       `json:"type"`
	Amount     ledger.Money `json:"amount"`
	Note       string       `json:"note"`
}

type CreateExpenseRequest struct {
	Date        string       `json:"date"` // YYYY-MM-DD, defaults to today
	Category    string       `json:"category"`
	Amount      ledger.Money `json:"amount"`
	Description string       `json:"description"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type ShopDTO struct {
	ShopName string              `json:"shopName"`
	User     *ledger.UserProfile `json:"user,omitempty"`
}

type CustomerDetailDTO struct {
	report.CustomerRow
	Transactions []report.TransactionRow `json:"transactions"`
}

type InsightResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"` // service_unavailable | invalid_response
}

type ImportResponse struct {
	Customers    int `json:"customers"`
	Products     int `json:"products"`
	Transactions int `json:"transactions"`
	Expenses     int `json:"expenses"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
