// Package pricingapi cliente HTTP del motor de tarifas.
package pricingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
)

var _ ports.PricingQuoter = (*Client)(nil)

// Client POST {base}/v1/quotes.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.PricingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), apiKey: cfg.APIKey, http: &http.Client{Timeout: timeout}}
}

type quoteRequest struct {
	Carrier            string  `json:"carrier"`
	OriginPincode      string  `json:"origin_pincode"`
	DestinationPincode string  `json:"destination_pincode"`
	Zone               string  `json:"zone"`
	WeightKg           float64 `json:"weight_kg"`
	LengthCm           float64 `json:"length_cm,omitempty"`
	WidthCm            float64 `json:"width_cm,omitempty"`
	HeightCm           float64 `json:"height_cm,omitempty"`
	PaymentMode        string  `json:"payment_mode"`
	CODAmount          string  `json:"cod_amount,omitempty"`
}

type quoteResponse struct {
	Total             decimal.Decimal `json:"total"`
	RatecardVersionID string          `json:"ratecard_version_id"`
}

// Quote cualquier falla se reporta como domain.ErrPricingUnavailable para que el llamador use la tabla de respaldo.
func (c *Client) Quote(ctx context.Context, req ports.QuoteRequest) (*ports.Quote, error) {
	body := quoteRequest{
		Carrier:            req.CarrierID,
		OriginPincode:      req.OriginPincode,
		DestinationPincode: req.DestinationPincode,
		Zone:               string(req.Zone),
		WeightKg:           req.WeightKg,
		PaymentMode:        string(req.PaymentMode),
	}
	if req.Dimensions != nil {
		body.LengthCm, body.WidthCm, body.HeightCm = req.Dimensions.LengthCm, req.Dimensions.WidthCm, req.Dimensions.HeightCm
	}
	if req.PaymentMode == "cod" {
		body.CODAmount = req.CODAmount.StringFixed(2)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/quotes", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrPricingUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrPricingUnavailable, resp.StatusCode)
	}
	var out quoteResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: respuesta inválida: %v", domain.ErrPricingUnavailable, err)
	}
	if out.Total.IsNegative() {
		return nil, fmt.Errorf("%w: total negativo", domain.ErrPricingUnavailable)
	}
	return &ports.Quote{Total: out.Total, RatecardVersionID: out.RatecardVersionID}, nil
}
