// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (match.go, commentary.go, broadcast.go, cache.go, errors.go)
// hold shared types and cross-cutting interfaces. No implementation code - just contracts.
// Interfaces stay on the consumer side to prevent circular imports.
package domain
