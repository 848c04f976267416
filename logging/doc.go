// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer MindLogger with contextual
// helpers (mind, component, arbitrary key/value context) cloned onto every
// record.
package logging
