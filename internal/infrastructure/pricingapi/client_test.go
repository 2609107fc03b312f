package pricingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
)

func TestQuote_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quotes", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		var body quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 0.8, body.WeightKg)
		assert.Equal(t, "D", body.Zone)
		_, _ = w.Write([]byte(`{"total":"55.00","ratecard_version_id":"rc-7"}`))
	}))
	defer srv.Close()

	c := NewClient(config.PricingConfig{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})
	q, err := c.Quote(context.Background(), ports.QuoteRequest{CarrierID: "velocity", Zone: "D", WeightKg: 0.8, PaymentMode: "prepaid"})
	require.NoError(t, err)
	assert.Equal(t, "55", q.Total.String())
	assert.Equal(t, "rc-7", q.RatecardVersionID)
}

func TestQuote_FallaEsPricingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.PricingConfig{BaseURL: srv.URL})
	_, err := c.Quote(context.Background(), ports.QuoteRequest{WeightKg: 1})
	assert.ErrorIs(t, err, domain.ErrPricingUnavailable)
}
