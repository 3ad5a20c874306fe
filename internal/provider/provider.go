// Package provider holds the HTTP clients for the external purchase provider
// and the seller trust-tier service. Both are treated as black boxes: one call
// per attempt, bounded timeout, no retries.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PurchaseRequest describes one data or airtime vend.
type PurchaseRequest struct {
	ServiceType string `json:"service_type"` // data|airtime
	Network     string `json:"network"`
	PhoneNumber string `json:"phone_number"`
	PlanID      string `json:"plan_id,omitempty"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
}

type PurchaseResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

type PurchaseClient interface {
	Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Purchase issues exactly one vend call. A transport error or timeout is
// reported as ErrProviderUnavailable; callers treat it like a provider-declined
// purchase.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return PurchaseResult{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/purchase", bytes.NewReader(body))
	if err != nil {
		return PurchaseResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("provider call: %w", err)
	}
	defer resp.Body.Close()

	var out PurchaseResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return PurchaseResult{}, fmt.Errorf("provider response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return PurchaseResult{Success: false, Message: out.Message}, nil
	}
	return out, nil
}
