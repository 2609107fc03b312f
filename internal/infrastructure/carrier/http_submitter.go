package carrier

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
)

var _ ports.CarrierDisputeSubmitter = (*HTTPSubmitter)(nil)

// HTTPSubmitter API REST de disputas de la transportadora (POST {endpoint}/disputes).
type HTTPSubmitter struct {
	endpoints map[string]string
	apiKey    string
	client    *http.Client
}

func NewHTTPSubmitter(endpoints map[string]string, apiKey string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSubmitter{endpoints: endpoints, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

type disputePayload struct {
	ExternalID       string   `json:"external_id"`
	AWB              string   `json:"awb"`
	DeclaredWeightKg float64  `json:"declared_weight_kg"`
	ChargedWeightKg  float64  `json:"charged_weight_kg"`
	EvidenceURLs     []string `json:"evidence_urls"`
	Remarks          string   `json:"remarks,omitempty"`
}

type disputeResponse struct {
	ReferenceNumber string `json:"reference_number"`
	TicketID        string `json:"ticket_id"`
	Message         string `json:"message"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, req ports.SubmissionRequest) (*ports.SubmissionResult, error) {
	base, ok := s.endpoints[strings.ToLower(req.CarrierID)]
	if !ok || base == "" {
		return nil, fmt.Errorf("carrier %s: sin endpoint configurado", req.CarrierID)
	}
	body, err := json.Marshal(disputePayload{
		ExternalID:       req.DisputeID,
		AWB:              req.TrackingID,
		DeclaredWeightKg: req.DeclaredWeightKg,
		ChargedWeightKg:  req.ReportedWeightKg,
		EvidenceURLs:     req.EvidenceURLs,
		Remarks:          req.Notes,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/disputes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("carrier %s: crear request: %w", req.CarrierID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.DisputeID)
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("carrier %s: timeout o cancelación: %w", req.CarrierID, ctx.Err())
		}
		return nil, fmt.Errorf("carrier %s: llamada HTTP fallida: %w", req.CarrierID, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("carrier %s: leer respuesta: %w", req.CarrierID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("carrier %s: HTTP %d: %s", req.CarrierID, resp.StatusCode, truncate(string(raw), 200))
	}

	var out disputeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("carrier %s: respuesta inválida: %w", req.CarrierID, err)
	}
	ref := out.ReferenceNumber
	if ref == "" {
		ref = out.TicketID
	}
	if ref == "" {
		return nil, fmt.Errorf("carrier %s: respuesta sin número de referencia", req.CarrierID)
	}
	return &ports.SubmissionResult{Method: ChannelAPI, ReferenceNumber: ref}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
