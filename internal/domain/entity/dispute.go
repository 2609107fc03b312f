package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisputeStatus estado del ciclo de vida de la disputa.
type DisputeStatus string

const (
	DisputePending           DisputeStatus = "pending"
	DisputeEvidenceSubmitted DisputeStatus = "evidence_submitted"
	DisputeUnderReview       DisputeStatus = "under_review"
	DisputeAccepted          DisputeStatus = "accepted"
	DisputeResolvedInFavor   DisputeStatus = "resolved_in_favor"
	DisputeResolvedAgainst   DisputeStatus = "resolved_against"
	DisputePartial           DisputeStatus = "partial_resolution"
	DisputeAutoAccepted      DisputeStatus = "auto_accepted"
	DisputeEscalated         DisputeStatus = "escalated"
	DisputeWithdrawn         DisputeStatus = "withdrawn"
)

// OpenDisputeStatuses estados no terminales.
var OpenDisputeStatuses = []DisputeStatus{
	DisputePending, DisputeEvidenceSubmitted, DisputeUnderReview, DisputeEscalated,
}

// IsTerminal indica si el estado ya no admite transiciones.
func (s DisputeStatus) IsTerminal() bool {
	switch s {
	case DisputeAccepted, DisputeResolvedInFavor, DisputeResolvedAgainst,
		DisputePartial, DisputeAutoAccepted, DisputeWithdrawn:
		return true
	}
	return false
}

// DisputeCategory causa probable de la discrepancia.
type DisputeCategory string

const (
	CategoryPackingMaterial      DisputeCategory = "packing_material"
	CategoryVolumetric           DisputeCategory = "volumetric"
	CategoryScannerError         DisputeCategory = "scanner_error"
	CategoryShapeDistortion      DisputeCategory = "shape_distortion"
	CategoryManualError          DisputeCategory = "manual_error"
	CategoryFraudSuspected       DisputeCategory = "fraud_suspected"
	CategoryLegitimateDifference DisputeCategory = "legitimate_difference"
	CategoryInvoiceDiscrepancy   DisputeCategory = "invoice_discrepancy"
)

// DisputePriority prioridad de atención.
type DisputePriority string

const (
	PriorityLow    DisputePriority = "low"
	PriorityMedium DisputePriority = "medium"
	PriorityHigh   DisputePriority = "high"
	PriorityUrgent DisputePriority = "urgent"
)

// DisputeSource quién originó la disputa.
type DisputeSource string

const (
	DisputeSourceWebhook        DisputeSource = "webhook"
	DisputeSourceCourierInvoice DisputeSource = "courier_invoice"
)

// CalculationMethod cómo se obtuvo el impacto financiero.
type CalculationMethod string

const (
	MethodRatecard     CalculationMethod = "ratecard"
	MethodFallbackZone CalculationMethod = "fallback_zone"
)

// Discrepancy comparación declarado vs reportado (kg).
type Discrepancy struct {
	DeclaredKg           float64 `json:"declared_kg"`
	ReportedKg           float64 `json:"reported_kg"`
	DeclaredChargeableKg float64 `json:"declared_chargeable_kg"`
	ReportedChargeableKg float64 `json:"reported_chargeable_kg"`
	ReportedVolumetricKg float64 `json:"reported_volumetric_kg"`
	DifferenceKg         float64 `json:"difference_kg"`
	Percentage           float64 `json:"percentage"`
}

// FinancialImpact diferencia de costo entre el peso declarado y el reportado.
type FinancialImpact struct {
	DeclaredCost    decimal.Decimal   `json:"declared_cost"`
	ActualCost      decimal.Decimal   `json:"actual_cost"`
	Difference      decimal.Decimal   `json:"difference"`
	Currency        string            `json:"currency"`
	RatecardVersion string            `json:"ratecard_version"`
	Method          CalculationMethod `json:"calculation_method"`
	Zone            string            `json:"zone"`
}

// Resolution resultado final; nil hasta el estado terminal.
type Resolution struct {
	Outcome       DisputeStatus     `json:"outcome"`
	FinalWeightKg float64           `json:"final_weight_kg"`
	FinalCost     decimal.Decimal   `json:"final_cost"`
	Amount        decimal.Decimal   `json:"amount"`
	Direction     LedgerDirection   `json:"direction"`
	Method        CalculationMethod `json:"calculation_method"`
	ResolvedBy    string            `json:"resolved_by"`
	ResolvedAt    time.Time         `json:"resolved_at"`
	Notes         string            `json:"notes,omitempty"`
}

// WeightDispute disputa de peso; a lo sumo una abierta por envío. Nunca se elimina.
type WeightDispute struct {
	ID                   string
	CompanyID            string
	ShipmentID           string
	TrackingID           string
	CarrierID            string
	Source               DisputeSource
	Discrepancy          Discrepancy
	FinancialImpact      FinancialImpact
	Status               DisputeStatus
	Category             DisputeCategory
	Priority             DisputePriority
	ObservationCount     int
	EvidenceCount        int
	Evidence             []DisputeEvidence
	SellerNotes          string
	CourierReference     string
	SubmissionMethod     string
	SubmissionAttempts   int
	SubmissionClaimedAt  *time.Time
	SubmittedToCourierAt *time.Time
	LastSubmissionError  string
	EscalationReason     string
	Resolution           *Resolution
	CreatedAt            time.Time
	UpdatedAt            time.Time
	AutoResolveAt        time.Time
}

// DisputeStateHistory fila de auditoría por transición.
type DisputeStateHistory struct {
	ID        string
	DisputeID string
	From      DisputeStatus
	To        DisputeStatus
	Actor     string
	Reason    string
	CreatedAt time.Time
}

// DisputeFilter filtros de listado.
type DisputeFilter struct {
	CompanyID string
	CarrierID string
	Statuses  []DisputeStatus
	Priority  DisputePriority
	Category  DisputeCategory
	Limit     int
	Offset    int
}
