package hive

import (
	"errors"
	"fmt"
)

// ErrEnvironment means the client cannot be constructed in the
// current environment (no endpoints, no transport). It is raised at
// construction time, before any network I/O is attempted.
var ErrEnvironment = errors.New("hive client unavailable: no usable environment")

// NodeExhaustionError means every configured endpoint failed for a
// single call. Last carries the final underlying cause.
type NodeExhaustionError struct {
	Attempts int
	Last     error
}

func (e *NodeExhaustionError) Error() string {
	return fmt.Sprintf("all %d hive endpoints failed: %v", e.Attempts, e.Last)
}

func (e *NodeExhaustionError) Unwrap() error {
	return e.Last
}

// RPCError is an error reported in the JSON-RPC response envelope
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error: %s (code: %d)", e.Message, e.Code)
}
