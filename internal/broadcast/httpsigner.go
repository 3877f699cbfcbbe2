package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSigner forwards broadcast requests to a signing sidecar over
// HTTP. The sidecar holds the keys and performs the actual signing
// and network broadcast.
type HTTPSigner struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSigner creates an HTTP signer adapter
func NewHTTPSigner(baseURL string) *HTTPSigner {
	return &HTTPSigner{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Broadcast posts the request to the sidecar's /broadcast endpoint
func (s *HTTPSigner) Broadcast(ctx context.Context, account string, ops []Operation, keyRole string) (*Receipt, error) {
	reqBody, err := json.Marshal(BroadcastRequest{Account: account, Operations: ops, KeyRole: keyRole})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/broadcast", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach signer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read signer response: %w", err)
	}

	var result BroadcastResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signer response: %w", err)
	}

	if !result.Success {
		return nil, rejectionFromResponse(&result)
	}
	return &Receipt{TxID: result.TxID, Result: result.Result}, nil
}
