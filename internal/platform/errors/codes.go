// Package errors provides structured errors for the audit API.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeRunIDEmpty   Code = "RUN_ID_EMPTY"
	CodeInvalidLimit Code = "INVALID_LIMIT"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// Replay errors
	CodeInvalidBlockHash       Code = "INVALID_BLOCK_HASH"
	CodeInsufficientCandidates Code = "INSUFFICIENT_CANDIDATES"
	CodeDrawLimitExceeded      Code = "DRAW_LIMIT_EXCEEDED"
	CodeReplayMismatch         Code = "REPLAY_MISMATCH"
	CodeReplayCanceled         Code = "REPLAY_CANCELED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRunIDEmpty,
		CodeInvalidLimit:
		return http.StatusBadRequest

	case CodeNotFound:
		return http.StatusNotFound

	// The stored run exists but cannot be reproduced as recorded.
	case CodeReplayMismatch:
		return http.StatusConflict

	case CodeInvalidBlockHash,
		CodeInsufficientCandidates,
		CodeDrawLimitExceeded:
		return http.StatusUnprocessableEntity

	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable

	case CodeReplayCanceled:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
