package broadcast

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrSignerUnavailable means a signed operation was requested but no
// signing capability is configured. Callers must never treat this as
// a silent success.
var ErrSignerUnavailable = errors.New("no signing capability available")

// SignerRejectionError means the signer reported a non-success
// result or the user declined the operation. The signer's own
// message is surfaced verbatim.
type SignerRejectionError struct {
	Message string
}

func (e *SignerRejectionError) Error() string {
	return "broadcast rejected: " + e.Message
}

// Operation is a two-element blockchain operation descriptor,
// serialized as [type, data]
type Operation struct {
	Type string
	Data any
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Type, o.Data})
}

func (o *Operation) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &o.Type); err != nil {
		return err
	}
	var data any
	if err := json.Unmarshal(pair[1], &data); err != nil {
		return err
	}
	o.Data = data
	return nil
}

// Receipt is the successful outcome of a signed broadcast
type Receipt struct {
	TxID   string          `json:"tx_id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Signer is the async capability boundary for signing and
// broadcasting operations. The signing machinery itself (keys, user
// approval) lives behind this port and is not this module's concern.
type Signer interface {
	Broadcast(ctx context.Context, account string, ops []Operation, keyRole string) (*Receipt, error)
}

// BroadcastRequest is the payload handed to a signer implementation
type BroadcastRequest struct {
	Account    string      `json:"account"`
	Operations []Operation `json:"operations"`
	KeyRole    string      `json:"key_role"`
}

// BroadcastResponse is the signer's outcome report
type BroadcastResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	TxID    string          `json:"tx_id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// rejectionFromResponse turns a non-success response into an error,
// preferring the signer's message, then its error string, then a
// generic fallback
func rejectionFromResponse(resp *BroadcastResponse) error {
	switch {
	case resp == nil:
		return &SignerRejectionError{Message: "signer returned no result"}
	case resp.Message != "":
		return &SignerRejectionError{Message: resp.Message}
	case resp.Error != "":
		return &SignerRejectionError{Message: resp.Error}
	default:
		return &SignerRejectionError{Message: "broadcast failed"}
	}
}

// RequestFunc is a host-style callback signing API: it receives a
// request and eventually invokes the callback exactly once with the
// outcome.
type RequestFunc func(req *BroadcastRequest, respond func(*BroadcastResponse))

// CallbackSigner adapts a callback-convention signing API into the
// Signer interface, keeping the rest of the module callback-free.
type CallbackSigner struct {
	request RequestFunc
}

// NewCallbackSigner wraps a callback-style signing function
func NewCallbackSigner(request RequestFunc) *CallbackSigner {
	return &CallbackSigner{request: request}
}

// Broadcast submits the operations and waits for the callback or
// context expiry, whichever comes first
func (s *CallbackSigner) Broadcast(ctx context.Context, account string, ops []Operation, keyRole string) (*Receipt, error) {
	if s == nil || s.request == nil {
		return nil, ErrSignerUnavailable
	}

	req := &BroadcastRequest{Account: account, Operations: ops, KeyRole: keyRole}
	ch := make(chan *BroadcastResponse, 1)

	go s.request(req, func(resp *BroadcastResponse) {
		select {
		case ch <- resp:
		default:
		}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		if resp == nil || !resp.Success {
			return nil, rejectionFromResponse(resp)
		}
		return &Receipt{TxID: resp.TxID, Result: resp.Result}, nil
	}
}
