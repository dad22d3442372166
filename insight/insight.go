/*
Package insight turns ledger aggregates into advisory prose.

PURPOSE:
  The Insight Gateway. It reduces a ledger State to five numbers plus the
  shop name, renders a prompt, and forwards it to a text-generation
  service. Raw customer or transaction records never leave the process.

FAILURE MODEL:
  ErrServiceUnavailable: No generator configured, or the call failed
  ErrInvalidResponse:    The service answered with no usable text

  Callers treat both as non-fatal and show Fallback instead. Ledger state
  is never affected.

SEE ALSO:
  - gemini.go: Generator backed by google.golang.org/genai
*/
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/shop-ledger/ledger"
)

var (
	ErrServiceUnavailable = errors.New("insight service unavailable")
	ErrInvalidResponse    = errors.New("insight service returned an invalid response")
)

const (
	// Fallback is shown when the service fails.
	Fallback = "Could not fetch advice right now."
	// NoAdvice is shown when the service answers with nothing to say.
	NoAdvice = "No advice available at the moment."
)

// Generator produces text from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Aggregates is everything the service is allowed to see.
type Aggregates struct {
	ShopName      string
	CustomerCount int
	CashSales     ledger.Money
	CreditSales   ledger.Money
	Outstanding   ledger.Money
	Expenses      ledger.Money
}

// FromState derives the aggregates from a ledger state.
func FromState(s ledger.State) Aggregates {
	return Aggregates{
		ShopName:      s.ShopName,
		CustomerCount: len(s.Customers),
		CashSales:     ledger.CashSales(s.Transactions),
		CreditSales:   ledger.CreditSales(s.Transactions),
		Outstanding:   ledger.TotalOutstanding(s.Customers, s.Transactions),
		Expenses:      ledger.TotalExpenses(s.Expenses),
	}
}

const systemInstruction = "You are a helpful business assistant for small retailers in Bangladesh. You speak only in Bengali."

// BuildPrompt renders the consultant prompt for a.
func BuildPrompt(a Aggregates) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a professional retail business consultant for a shop named %q in Bangladesh.\n", a.ShopName)
	b.WriteString("Analyze this business ledger data and provide 3-4 concise, actionable insights or tips for the owner in BENGALI language.\n\n")
	b.WriteString("Data Summary:\n")
	fmt.Fprintf(&b, "- Number of Customers: %d\n", a.CustomerCount)
	fmt.Fprintf(&b, "- Total Cash Sales: %s\n", a.CashSales.Display())
	fmt.Fprintf(&b, "- Total Credit Sales: %s\n", a.CreditSales.Display())
	fmt.Fprintf(&b, "- Total Outstanding Dues: %s\n", a.Outstanding.Display())
	fmt.Fprintf(&b, "- Total Operational Expenses: %s\n\n", a.Expenses.Display())
	b.WriteString("Focus on Sales balance, Credit collection and Expense control.\n")
	b.WriteString("Format the response in BENGALI as clear, bulleted points. Keep it under 150 words.\n")
	return b.String()
}

// Service summarises ledger state through a Generator.
type Service struct {
	gen Generator
}

// NewService wraps gen. A nil gen makes every call ErrServiceUnavailable.
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// Summarize returns advisory text for s.
func (svc *Service) Summarize(ctx context.Context, s ledger.State) (string, error) {
	if svc == nil || svc.gen == nil {
		return "", fmt.Errorf("%w: no generator configured", ErrServiceUnavailable)
	}
	text, err := svc.gen.Generate(ctx, systemInstruction, BuildPrompt(FromState(s)))
	if err != nil {
		if errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrServiceUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidResponse
	}
	return text, nil
}

// Kind names the error category for API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "service_unavailable"
	}
}
