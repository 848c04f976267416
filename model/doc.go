// Package model defines the black-box generation capability consumed by the
// LLM-backed handler, plus a deterministic mock for tests. Concrete provider
// adapters live in the openai and anthropic subpackages; the scheduler core
// never depends on a specific vendor.
package model
