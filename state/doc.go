// Package state contains StateStore implementations for whole-state snapshot
// persistence: a volatile in-memory store for tests and demos, and a durable
// SQLite store that also tracks restore failures across restarts so repeated
// corruption can raise an operator alert instead of silently resetting.
package state
