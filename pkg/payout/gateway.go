// Package payout submits token transfers to winners. The on-chain mechanics
// live behind the Gateway interface; the settlement engine only sees
// "Payout(wallet, amount) → transaction reference".
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Gateway represents a token payout gateway
type Gateway interface {
	Payout(ctx context.Context, walletAddress string, amount float64, tokenSymbol string) (string, error)
}

// HTTPGateway submits payouts to an external transfer service
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// MockGateway simulates payouts for local development and tests
type MockGateway struct{}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) Gateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() Gateway {
	return &MockGateway{}
}

// Payout submits a token transfer and returns the transaction reference
func (g *HTTPGateway) Payout(ctx context.Context, walletAddress string, amount float64, tokenSymbol string) (string, error) {
	requestBody := map[string]interface{}{
		"to":     walletAddress,
		"amount": amount,
		"token":  tokenSymbol,
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/transfers", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit payout: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read payout response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payout failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse payout response: %w", err)
	}
	if response.TransactionID == "" {
		return "", fmt.Errorf("payout response missing transaction id")
	}
	return response.TransactionID, nil
}

// Payout simulates a successful transfer
func (g *MockGateway) Payout(ctx context.Context, walletAddress string, amount float64, tokenSymbol string) (string, error) {
	return "MOCK-TX-" + uuid.NewString(), nil
}
