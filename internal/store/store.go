// Package store defines the dedup store contract: two independent
// insert-if-absent membership namespaces backed by durable storage.
package store

import "context"

// Namespace selects one of the two dedup tables.
type Namespace string

const (
	// NamespaceNews keys are news item URLs.
	NamespaceNews Namespace = "news"
	// NamespaceSignals keys are canonical signal fingerprints.
	NamespaceSignals Namespace = "signals"
)

// Dedup is the persistent membership store. Records are append-only: no
// update, no delete, no TTL. Implementations must tolerate concurrent
// writers for the same key without error (insert-or-ignore semantics).
type Dedup interface {
	// Exists reports whether key was ever recorded in ns.
	Exists(ctx context.Context, ns Namespace, key string) (bool, error)

	// RecordIfAbsent inserts (key, payload) into ns unless key is already
	// present. Returns true when the key was newly inserted. Inserting an
	// existing key is a no-op, not an error.
	RecordIfAbsent(ctx context.Context, ns Namespace, key, payload string) (bool, error)

	Close() error
}
