// Package persistence defines the vocabulary shared by the configuration
// loader, the store and the bootstrap routine: the named persistence unit
// and the error taxonomy every layer reports through.
//
// # Error Kinds
//
//   - CONFIGURATION: a unit cannot be resolved or is invalid
//   - CONNECTION: the backing store is unreachable
//   - TRANSACTION: begin, flush or commit failed and everything was rolled back
//   - CONTEXT_CLOSED: a released persistence context was used
//
// Callers classify errors with errors.Is against the exported sentinels.
package persistence
