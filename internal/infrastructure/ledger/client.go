// Package ledger cliente HTTP de la billetera de empresas.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
)

var _ ports.SettlementExecutor = (*Client)(nil)

// Client POST {base}/v1/wallets/{company}/{credits|debits}. La clave de idempotencia va en header;
// un 409 del ledger significa que el movimiento ya existía y se trata como aplicado.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.SettlementConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), apiKey: cfg.APIKey, http: &http.Client{Timeout: timeout}}
}

type entryRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type entryResponse struct {
	EntryID string `json:"entry_id"`
}

func (c *Client) Credit(ctx context.Context, e ports.LedgerEntry) (string, error) {
	return c.post(ctx, "credits", e)
}

func (c *Client) Debit(ctx context.Context, e ports.LedgerEntry) (string, error) {
	return c.post(ctx, "debits", e)
}

func (c *Client) post(ctx context.Context, kind string, e ports.LedgerEntry) (string, error) {
	if e.IdempotencyKey == "" {
		return "", fmt.Errorf("ledger: clave de idempotencia requerida")
	}
	payload, err := json.Marshal(entryRequest{Amount: e.Amount.StringFixed(2), Reason: e.Reason})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1/wallets/%s/%s", c.baseURL, e.CompanyID, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ledger: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", e.IdempotencyKey)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("ledger: leer respuesta: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusConflict:
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	default:
		return "", fmt.Errorf("ledger: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out entryResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", fmt.Errorf("ledger: respuesta inválida: %w", err)
		}
	}
	if out.EntryID == "" {
		out.EntryID = e.IdempotencyKey
	}
	return out.EntryID, nil
}
