// Package treasury talks to the signer sidecar that submits the on-chain
// bank payout. From this service's perspective it is an opaque call that
// either moves the funds or fails.
package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	programId  string
	httpClient *http.Client
}

func New(baseURL, programId string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		programId:  programId,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type payoutRequest struct {
	ProgramId string `json:"programId"`
	Recipient string `json:"recipient"`
	Lamports  int64  `json:"lamports"`
}

type payoutResponse struct {
	Status    string `json:"status"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

// Transfer asks the signer to pay lamports out of the bank to the
// recipient. Any non-2xx response or transport failure is an error; the
// caller decides whether the round stays payable.
func (c *Client) Transfer(ctx context.Context, recipient string, lamports int64) error {
	payload, err := json.Marshal(payoutRequest{
		ProgramId: c.programId,
		Recipient: recipient,
		Lamports:  lamports,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payout", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("treasury error: %s", string(body))
	}

	var result payoutResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Status != "success" {
		return fmt.Errorf("payout rejected: %s", result.Message)
	}
	return nil
}
