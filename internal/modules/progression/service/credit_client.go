package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CreditResult is the privileged credit endpoint's reply.
type CreditResult struct {
	Success bool `json:"success"`
	XP      int  `json:"xp"`
	Level   int  `json:"level"`
}

// CreditClient reaches the trusted increment-and-relevel path on behalf of a caller.
type CreditClient interface {
	Credit(ctx context.Context, token string, amount int) (*CreditResult, error)
}

type HTTPCreditClient struct {
	url    string
	client *http.Client
}

func NewHTTPCreditClient(url string, timeout time.Duration) *HTTPCreditClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCreditClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCreditClient) Credit(ctx context.Context, token string, amount int) (*CreditResult, error) {
	body, err := json.Marshal(map[string]int{"amount": amount})
	if err != nil {
		return nil, fmt.Errorf("marshal credit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create credit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send credit request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read credit response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("credit endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result CreditResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode credit response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("credit endpoint reported failure")
	}
	return &result, nil
}
