/*
persistence.go - Persistence gateway interface

PURPOSE:
  Defines the boundary between the Ledger and durable storage. The gateway
  stores exactly one opaque blob (the encoded State) under the
  application key it was configured with. It knows nothing about
  customers or balances.

CONTRACT:
  Load(): Returns the stored blob, or (nil, nil) when nothing is stored.
  Save(): Replaces the stored blob. Last writer wins; there is no merge.

  Decoding, defaulting and corruption handling live in the Ledger, so every
  gateway gets the same tolerant behaviour for free.

IMPLEMENTATIONS:
  - store/memory: In-process map (tests, dev)
  - store/file:   JSON file in a data directory
  - store/sqlstore: One row per key in SQLite or PostgreSQL
*/
package ledger

import "context"

// DefaultKey is the application key snapshots are stored under.
const DefaultKey = "retail_ledger_data"

// Persistence loads and saves the encoded State.
type Persistence interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
