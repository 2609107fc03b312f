package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// DisputeResponse disputa en respuestas.
type DisputeResponse struct {
	ID                   string                 `json:"id"`
	CompanyID            string                 `json:"company_id"`
	ShipmentID           string                 `json:"shipment_id"`
	TrackingID           string                 `json:"tracking_id"`
	CarrierID            string                 `json:"carrier_id"`
	Source               string                 `json:"source"`
	Status               string                 `json:"status"`
	Category             string                 `json:"category"`
	Priority             string                 `json:"priority"`
	Discrepancy          entity.Discrepancy     `json:"discrepancy"`
	FinancialImpact      entity.FinancialImpact `json:"financial_impact"`
	ObservationCount     int                    `json:"observation_count"`
	EvidenceCount        int                    `json:"evidence_count"`
	SellerNotes          string                 `json:"seller_notes,omitempty"`
	CourierReference     string                 `json:"courier_reference,omitempty"`
	SubmissionMethod     string                 `json:"submission_method,omitempty"`
	SubmissionAttempts   int                    `json:"submission_attempts"`
	SubmittedToCourierAt *time.Time             `json:"submitted_to_courier_at,omitempty"`
	EscalationReason     string                 `json:"escalation_reason,omitempty"`
	Resolution           *entity.Resolution     `json:"resolution,omitempty"`
	AutoResolveAt        time.Time              `json:"auto_resolve_at"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// EvidenceResponse evidencia con su validación.
type EvidenceResponse struct {
	ID          string                    `json:"id"`
	DisputeID   string                    `json:"dispute_id"`
	Kind        string                    `json:"kind"`
	URL         string                    `json:"url"`
	ContentType string                    `json:"content_type"`
	SizeBytes   int64                     `json:"size_bytes"`
	CapturedAt  *time.Time                `json:"captured_at,omitempty"`
	UploadedBy  string                    `json:"uploaded_by"`
	Validation  entity.EvidenceValidation `json:"validation"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// HistoryResponse transición registrada.
type HistoryResponse struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementResponse liquidación de la disputa.
type SettlementResponse struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Direction       string          `json:"direction"`
	Status          string          `json:"status"`
	Attempts        int             `json:"attempts"`
	LastError       string          `json:"last_error,omitempty"`
	LedgerReference string          `json:"ledger_reference,omitempty"`
	AppliedAt       *time.Time      `json:"applied_at,omitempty"`
}

// DisputeDetailResponse GET /api/disputes/{id}.
type DisputeDetailResponse struct {
	DisputeResponse
	Evidence   []EvidenceResponse  `json:"evidence"`
	History    []HistoryResponse   `json:"history"`
	Settlement *SettlementResponse `json:"settlement,omitempty"`
}

// DisputeListResponse listado paginado.
type DisputeListResponse struct {
	Items []DisputeResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// DisputeListQuery filtros de GET /api/disputes.
type DisputeListQuery struct {
	Limit     int    `query:"limit" validate:"gte=0,lte=200"`
	Offset    int    `query:"offset" validate:"gte=0"`
	Status    string `query:"status"`
	Priority  string `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category  string `query:"category"`
	CarrierID string `query:"carrier_id"`
	CompanyID string `query:"company_id"`
}

// RejectDisputeRequest body de POST /api/disputes/{id}/reject.
type RejectDisputeRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ReviewDisputeRequest body de POST /api/disputes/{id}/review.
type ReviewDisputeRequest struct {
	Action   string  `json:"action" validate:"required,oneof=approve reject partial escalate withdraw"`
	WeightKg float64 `json:"weight_kg" validate:"gte=0"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

// CarrierResponseRequest respuesta asíncrona de la transportadora.
type CarrierResponseRequest struct {
	Reference string  `json:"reference" validate:"required"`
	Outcome   string  `json:"outcome" validate:"required,oneof=accepted rejected partial withdrawn"`
	WeightKg  float64 `json:"weight_kg" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

// FromDispute mapea la entidad.
func FromDispute(d *entity.WeightDispute) DisputeResponse {
	return DisputeResponse{
		ID:                   d.ID,
		CompanyID:            d.CompanyID,
		ShipmentID:           d.ShipmentID,
		TrackingID:           d.TrackingID,
		CarrierID:            d.CarrierID,
		Source:               string(d.Source),
		Status:               string(d.Status),
		Category:             string(d.Category),
		Priority:             string(d.Priority),
		Discrepancy:          d.Discrepancy,
		FinancialImpact:      d.FinancialImpact,
		ObservationCount:     d.ObservationCount,
		EvidenceCount:        d.EvidenceCount,
		SellerNotes:          d.SellerNotes,
		CourierReference:     d.CourierReference,
		SubmissionMethod:     d.SubmissionMethod,
		SubmissionAttempts:   d.SubmissionAttempts,
		SubmittedToCourierAt: d.SubmittedToCourierAt,
		EscalationReason:     d.EscalationReason,
		Resolution:           d.Resolution,
		AutoResolveAt:        d.AutoResolveAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func FromEvidence(e *entity.DisputeEvidence) EvidenceResponse {
	return EvidenceResponse{
		ID:          e.ID,
		DisputeID:   e.DisputeID,
		Kind:        string(e.Kind),
		URL:         e.URL,
		ContentType: e.ContentType,
		SizeBytes:   e.SizeBytes,
		CapturedAt:  e.CapturedAt,
		UploadedBy:  e.UploadedBy,
		Validation:  e.Validation,
		CreatedAt:   e.CreatedAt,
	}
}

// FromDisputeDetails disputa con evidencias, historial y liquidación.
func FromDisputeDetails(d *entity.WeightDispute, history []entity.DisputeStateHistory, st *entity.Settlement) DisputeDetailResponse {
	out := DisputeDetailResponse{
		DisputeResponse: FromDispute(d),
		Evidence:        make([]EvidenceResponse, 0, len(d.Evidence)),
		History:         make([]HistoryResponse, 0, len(history)),
	}
	out.EvidenceCount = len(d.Evidence)
	for i := range d.Evidence {
		out.Evidence = append(out.Evidence, FromEvidence(&d.Evidence[i]))
	}
	for _, h := range history {
		out.History = append(out.History, HistoryResponse{
			From: string(h.From), To: string(h.To), Actor: h.Actor, Reason: h.Reason, CreatedAt: h.CreatedAt,
		})
	}
	if st != nil {
		out.Settlement = &SettlementResponse{
			ID:              st.ID,
			Amount:          st.Amount,
			Direction:       string(st.Direction),
			Status:          string(st.Status),
			Attempts:        st.Attempts,
			LastError:       st.LastError,
			LedgerReference: st.LedgerReference,
			AppliedAt:       st.AppliedAt,
		}
	}
	return out
}
