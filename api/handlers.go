/*
handlers.go - HTTP API handlers for the shop ledger

PURPOSE:
  Exposes the ledger via a JSON REST API. Handlers parse and validate
  input, call exactly one Ledger operation, and render ledger/report
  types. This is the input boundary: the Ledger itself does not validate.

ENDPOINTS:
  Shop:
    GET    /api/shop                      Shop name and signed-in user
    PUT    /api/shop                      Rename shop
    PUT    /api/user                      Sign in with an ID-token credential
    DELETE /api/user                      Sign out

  Customers:
    GET    /api/customers?q=              List (with balances), optional search
    POST   /api/customers                 Create
    GET    /api/customers/{id}            Detail with balance and history
    PATCH  /api/customers/{id}            Partial update
    DELETE /api/customers/{id}            Delete customer and their transactions
    GET    /api/customers/{id}/transactions

  Products, transactions, expenses:
    GET/POST /api/products, DELETE /api/products/{id}
    GET/POST /api/transactions, DELETE /api/transactions/{id}
    GET/POST /api/expenses, DELETE /api/expenses/{id}
    GET    /api/expenses/summary

  Reports:
    GET    /api/dashboard?days=7
    GET    /api/reports/daily
    POST   /api/insights

  Snapshots:
    GET    /api/export                    Download ledger_backup_<date>.json
    POST   /api/import?confirm=true       Replace everything
    GET    /api/backups                   Archived revisions (SQL storage only)
    POST   /api/backups/{revision}/restore

ERROR HANDLING:
  - 400: Validation errors, rejected imports
  - 404: Unknown customer on a direct lookup
  - 428: Import without confirm=true
  - 500: Persistence failures
  Insight failures are NOT errors: 200 with fallback text and a kind.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/shop-ledger/auth"
	"github.com/warp/shop-ledger/insight"
	"github.com/warp/shop-ledger/ledger"
	"github.com/warp/shop-ledger/report"
	"github.com/warp/shop-ledger/store/file"
	"github.com/warp/shop-ledger/store/sqlstore"
)

// maxImportBytes bounds the size of an import document.
const maxImportBytes = 16 << 20

// HistoryStore is implemented by gateways that archive previous snapshots.
type HistoryStore interface {
	History(ctx context.Context) ([]sqlstore.Revision, error)
	Revision(ctx context.Context, revision int64) ([]byte, error)
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger  *ledger.Ledger
	Insight *insight.Service
	History HistoryStore // nil when storage keeps no history

	now func() time.Time
}

// NewHandler creates a handler. svc may be nil (insights then fall back).
func NewHandler(l *ledger.Ledger, svc *insight.Service) *Handler {
	return &Handler{Ledger: l, Insight: svc, now: time.Now}
}

func (h *Handler) today() ledger.Date { return ledger.DateOf(h.now()) }

// =============================================================================
// SHOP & USER
// =============================================================================

// GetShop returns the shop profile.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	s := h.Ledger.State()
	writeJSON(w, http.StatusOK, ShopDTO{ShopName: s.ShopName, User: s.User})
}

// RenameShop sets the shop name.
func (h *Handler) RenameShop(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := validateRequired("name", name); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Ledger.SetShopName(r.Context(), name); err != nil {
		h.fail(w, err)
		return
	}
	h.GetShop(w, r)
}

// SignIn decodes the credential and stores the profile.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := auth.ProfileFromCredential(req.Credential)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credential", err)
		return
	}
	if err := h.Ledger.SetUser(r.Context(), &profile); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// SignOut clears the signed-in user.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.SetUser(r.Context(), nil); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// ListCustomers returns customers with balances, filtered by ?q=.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	s := h.Ledger.State()
	matches := s.SearchCustomers(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, report.CustomerRows(s, matches))
}

// CreateCustomer adds a customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateRequired("name", req.Name); err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.Ledger.AddCustomer(r.Context(), ledger.NewCustomer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report.CustomerRow{Customer: c})
}

// GetCustomer returns one customer with balance and history (newest first).
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	s := h.Ledger.State()
	c, ok := s.Customer(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, CustomerDetailDTO{
		CustomerRow:  report.CustomerRows(s, []ledger.Customer{c})[0],
		Transactions: customerHistory(s, c.ID),
	})
}

// GetCustomerTransactions returns the customer's history, newest first.
func (h *Handler) GetCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	s := h.Ledger.State()
	id := chi.URLParam(r, "id")
	if _, ok := s.Customer(id); !ok {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, customerHistory(s, id))
}

func customerHistory(s ledger.State, customerID string) []report.TransactionRow {
	txs := s.TransactionsFor(customerID)
	newest := make([]ledger.Transaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		newest = append(newest, txs[i])
	}
	return report.Rows(s, newest)
}

// UpdateCustomer merges the fields present in the body.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name != nil {
		if err := validateRequired("name", *req.Name); err != nil {
			h.fail(w, err)
			return
		}
	}
	if _, ok := h.Ledger.State().Customer(id); !ok {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	upd := ledger.CustomerUpdate{Name: trimPtr(req.Name), Phone: trimPtr(req.Phone), Address: trimPtr(req.Address)}
	if err := h.Ledger.UpdateCustomer(r.Context(), id, upd); err != nil {
		h.fail(w, err)
		return
	}
	h.GetCustomer(w, r)
}

// DeleteCustomer removes the customer and their transactions. Idempotent.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.State().Products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateRequired("name", req.Name); err != nil {
		h.fail(w, err)
		return
	}
	if req.DefaultPrice.IsNegative() {
		h.fail(w, invalid("defaultPrice must not be negative"))
		return
	}
	p, err := h.Ledger.AddProduct(r.Context(), ledger.NewProduct{
		Name:         strings.TrimSpace(req.Name),
		DefaultPrice: req.DefaultPrice,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DeleteProduct leaves transactions that reference the product untouched.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// ListTransactions returns all transactions newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	s := h.Ledger.State()
	writeJSON(w, http.StatusOK, report.Rows(s, s.Recent(0)))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput(h.today())
	if err != nil {
		h.fail(w, err)
		return
	}
	tx, err := h.Ledger.AddTransaction(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report.Rows(h.Ledger.State(), []ledger.Transaction{tx})[0])
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EXPENSES
// =============================================================================

// ListExpenses returns all expenses newest first.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.State().RecentExpenses(0))
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput(h.today())
	if err != nil {
		h.fail(w, err)
		return
	}
	e, err := h.Ledger.AddExpense(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetExpenseSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.BuildExpenseSummary(h.Ledger.State()))
}

// =============================================================================
// REPORTS
// =============================================================================

// GetDashboard returns today's metrics and a trailing chart (?days=1..90).
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	days := report.DefaultSeriesDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 90 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90", err)
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, report.BuildDashboard(h.Ledger.State(), h.now(), days))
}

func (h *Handler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.BuildDailyReport(h.Ledger.State(), h.now()))
}

// GetInsights asks the insight service for advice. Failures degrade to
// fallback text; they never change ledger state.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	text, err := h.Insight.Summarize(r.Context(), h.Ledger.State())
	if err != nil {
		log.Printf("insight: %v", err)
		fallback := insight.Fallback
		if errors.Is(err, insight.ErrInvalidResponse) {
			fallback = insight.NoAdvice
		}
		writeJSON(w, http.StatusOK, InsightResponse{Text: fallback, Error: insight.Kind(err)})
		return
	}
	writeJSON(w, http.StatusOK, InsightResponse{Text: text})
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Export streams the full state as a JSON attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.Ledger.ExportSnapshot()
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.ExportFileName(h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces the entire state with the request body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusPreconditionRequired, "Import replaces all data; repeat with confirm=true", nil)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read import", err)
		return
	}
	h.replace(r.Context(), w, data)
}

// ListBackups lists archived revisions.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusNotImplemented, "Storage keeps no history", nil)
		return
	}
	revs, err := h.History.History(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

// RestoreBackup replaces the state with an archived revision.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusNotImplemented, "Storage keeps no history", nil)
		return
	}
	rev, err := strconv.ParseInt(chi.URLParam(r, "revision"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid revision", err)
		return
	}
	data, err := h.History.Revision(r.Context(), rev)
	if err != nil {
		h.fail(w, err)
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "Revision not found", nil)
		return
	}
	h.replace(r.Context(), w, data)
}

func (h *Handler) replace(ctx context.Context, w http.ResponseWriter, data []byte) {
	if err := h.Ledger.ImportSnapshot(ctx, data); err != nil {
		h.fail(w, err)
		return
	}
	s := h.Ledger.State()
	writeJSON(w, http.StatusOK, ImportResponse{
		Customers:    len(s.Customers),
		Products:     len(s.Products),
		Transactions: len(s.Transactions),
		Expenses:     len(s.Expenses),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// fail maps an error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid snapshot", err)
	default:
		log.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
