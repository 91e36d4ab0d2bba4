// Package storage persists the tracker state in a flat key-value store.
//
// Three keys are used: the serialized expense list, the budget and the income.
// Backends only need to store opaque strings under a key.
package storage

import "context"

// Keys under which the tracker state is persisted.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "budget"
	KeyIncome   = "income"
)

// KV is a durable string key-value store.
type KV interface {
	// Get returns the value stored under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
