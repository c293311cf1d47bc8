// Package storage defines the persistence contracts for the draw ledger.
//
// A run record captures everything needed to replay a draw: the block hash,
// the ordered candidate list, the winner count, and the accepted draws.
// Implementations live in subpackages.
//
// # Error Types
//
//   - ErrNotFound: the requested run does not exist.
//   - ErrAlreadyExists: a run with the same id was already recorded.
package storage
