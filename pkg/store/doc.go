// Package store loads rule documents from directories into an immutable,
// ordered snapshot.
//
// A snapshot is populated once and read-only thereafter, so concurrent
// readers need no locking. The Watcher rebuilds snapshots when rule
// directories change and broadcasts them to subscribers.
package store
