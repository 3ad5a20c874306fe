package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fee percentages by seller trust tier.
const (
	TrustedFeePercent  = 3
	StandardFeePercent = 6
)

// TrustTiers resolves a seller's fee percentage at escrow-creation time.
type TrustTiers interface {
	FeePercent(ctx context.Context, sellerID string) (int, error)
}

type TrustClient struct {
	baseURL string
	http    *http.Client
}

func NewTrustClient(baseURL string, timeout time.Duration) *TrustClient {
	return &TrustClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *TrustClient) FeePercent(ctx context.Context, sellerID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/sellers/%s/tier", c.baseURL, sellerID), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("trust tier lookup: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Tier       string `json:"tier"`
		FeePercent int    `json:"fee_percent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("trust tier response: %w", err)
	}
	if out.FeePercent > 0 {
		return out.FeePercent, nil
	}
	switch out.Tier {
	case "trusted", "verified":
		return TrustedFeePercent, nil
	default:
		return StandardFeePercent, nil
	}
}
