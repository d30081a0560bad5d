// Package app provides the application service layer.
//
// Orchestrates the match and commentary use cases: validation, status
// derivation, persistence, list caching and the broadcast hand-off. Sits
// between HTTP handlers and domain repositories. Depends on domain interfaces,
// not concrete implementations.
package app
