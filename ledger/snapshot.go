/*
snapshot.go - Snapshot encoding, defaults and import validation

PURPOSE:
  The whole State is persisted, exported and imported as one JSON document:

    {
      "shopName": "...",
      "customers": [...], "products": [...],
      "transactions": [...], "expenses": [...],
      "user": {...}            // optional
    }

TWO DECODERS:
  decodeStored():   Used when loading from the Persistence gateway. Missing
                    fields default (older saves stay readable) and each
                    record is decoded on its own: an unreadable record is
                    logged and skipped, the rest of the state is kept.
  DecodeSnapshot(): Used for imports. Additionally requires "customers"
                    and "transactions" to be present, so an unrelated JSON
                    file is rejected before anything is replaced. One
                    malformed record rejects the whole document.

  Transaction types outside the closed set are kept as written by both
  decoders, so anything ExportSnapshot writes can be imported again.

DEFAULTS:
  shopName     empty or missing -> DefaultShopName
  products     missing or null  -> DefaultProducts() (an explicit [] stays empty)
  collections  missing or null  -> empty
*/
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
)

// DefaultShopName is used until the owner names the shop.
const DefaultShopName = "Ledger Pro"

// DefaultProducts are the gas-cylinder SKUs a fresh shop starts with.
func DefaultProducts() []Product {
	return []Product{
		{ID: "gas-12", Name: "Gas 12 kg"},
		{ID: "gas-35", Name: "Gas 35 kg"},
		{ID: "gas-45", Name: "Gas 45 kg"},
	}
}

// DefaultState is the state of a shop with no saved data.
func DefaultState() State {
	return State{
		ShopName:     DefaultShopName,
		Customers:    []Customer{},
		Products:     DefaultProducts(),
		Transactions: []Transaction{},
		Expenses:     []Expense{},
	}
}

// document mirrors State with pointer fields so absent keys can be told
// apart from empty ones.
type document struct {
	ShopName     *string        `json:"shopName"`
	Customers    *[]Customer    `json:"customers"`
	Products     *[]Product     `json:"products"`
	Transactions *[]Transaction `json:"transactions"`
	Expenses     *[]Expense     `json:"expenses"`
	User         *UserProfile   `json:"user"`
}

func (d document) state() State {
	s := DefaultState()
	if d.ShopName != nil && *d.ShopName != "" {
		s.ShopName = *d.ShopName
	}
	if d.Customers != nil {
		s.Customers = cloneSlice(*d.Customers)
	}
	if d.Products != nil {
		s.Products = cloneSlice(*d.Products)
	}
	if d.Transactions != nil {
		s.Transactions = cloneSlice(*d.Transactions)
	}
	if d.Expenses != nil {
		s.Expenses = cloneSlice(*d.Expenses)
	}
	s.User = d.User
	return s
}

// decodeStored decodes a persisted blob, defaulting missing fields. It only
// fails when data is not a JSON object at all.
func decodeStored(data []byte) (State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return State{}, err
	}

	var doc document
	if raw, ok := fields["shopName"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			log.Printf("ledger: ignoring stored shopName: %v", err)
		} else {
			doc.ShopName = &name
		}
	}
	doc.Customers = storedRecords[Customer](fields, "customers")
	doc.Products = storedRecords[Product](fields, "products")
	doc.Transactions = storedRecords[Transaction](fields, "transactions")
	doc.Expenses = storedRecords[Expense](fields, "expenses")
	if raw, ok := fields["user"]; ok {
		if err := json.Unmarshal(raw, &doc.User); err != nil {
			log.Printf("ledger: ignoring stored user: %v", err)
			doc.User = nil
		}
	}
	return doc.state(), nil
}

// storedRecords decodes one collection record by record. It returns nil
// when the key is absent, null or not an array.
func storedRecords[T any](fields map[string]json.RawMessage, key string) *[]T {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("ledger: ignoring stored %s: %v", key, err)
		return nil
	}
	if items == nil {
		return nil
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			log.Printf("ledger: skipping unreadable %s[%d]: %v", key, i, err)
			continue
		}
		out = append(out, v)
	}
	return &out
}

// DecodeSnapshot decodes an import document. It fails with a
// *SnapshotError (errors.Is ErrInvalidSnapshot) if the document is not a
// JSON object, lacks customers or transactions, or holds a malformed record.
func DecodeSnapshot(data []byte) (State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return State{}, &SnapshotError{Reason: "not a JSON object"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return State{}, &SnapshotError{Reason: "malformed JSON", Err: err}
	}
	for _, required := range []string{"customers", "transactions"} {
		raw, ok := fields[required]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return State{}, &SnapshotError{Reason: fmt.Sprintf("missing %q", required)}
		}
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return State{}, &SnapshotError{Reason: "malformed record", Err: err}
	}
	return doc.state(), nil
}

// EncodeSnapshot renders s as indented JSON, the export file format.
func EncodeSnapshot(s State) ([]byte, error) {
	return json.MarshalIndent(normalize(s), "", "  ")
}

// encodeStored renders s compactly for the Persistence gateway.
func encodeStored(s State) ([]byte, error) {
	return json.Marshal(normalize(s))
}

// normalize makes nil collections encode as [] rather than null and gives
// an unnamed shop the default name.
func normalize(s State) State {
	if s.ShopName == "" {
		s.ShopName = DefaultShopName
	}
	s.Customers = nonNil(s.Customers)
	s.Products = nonNil(s.Products)
	s.Transactions = nonNil(s.Transactions)
	s.Expenses = nonNil(s.Expenses)
	return s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
