// Package audit keeps an append-only SQLite ledger of committed catalog
// mutations with actor attribution.
package audit
