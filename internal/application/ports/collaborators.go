package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks -source=collaborators.go

// QuoteRequest parámetros de cotización. Solo WeightKg cambia entre las dos llamadas de una disputa.
type QuoteRequest struct {
	CarrierID          string
	OriginPincode      string
	DestinationPincode string
	Zone               entity.Zone
	WeightKg           float64
	Dimensions         *weight.Dimensions
	PaymentMode        entity.PaymentMode
	CODAmount          decimal.Decimal
}

// Quote respuesta determinística del motor de tarifas.
type Quote struct {
	Total             decimal.Decimal
	RatecardVersionID string
}

// PricingQuoter motor de tarifas externo.
type PricingQuoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

// SubmissionRequest disputa a enviar a la transportadora.
type SubmissionRequest struct {
	DisputeID        string
	CarrierID        string
	TrackingID       string
	DeclaredWeightKg float64
	ReportedWeightKg float64
	EvidenceURLs     []string
	Notes            string
}

// SubmissionResult canal usado ("api", "xml", "email") y número de referencia para correlación.
type SubmissionResult struct {
	Method          string
	ReferenceNumber string
}

// CarrierDisputeSubmitter envío de disputas a la transportadora. Algunas solo aceptan correo.
type CarrierDisputeSubmitter interface {
	Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error)
}

// LedgerEntry movimiento en la billetera de la empresa.
type LedgerEntry struct {
	CompanyID      string
	Amount         decimal.Decimal
	IdempotencyKey string
	Reason         string
}

// SettlementExecutor libro contable externo. Debe respetar la clave de idempotencia.
type SettlementExecutor interface {
	Credit(ctx context.Context, e LedgerEntry) (string, error)
	Debit(ctx context.Context, e LedgerEntry) (string, error)
}

// NotificationSender email/SMS/WhatsApp; fire-and-forget.
type NotificationSender interface {
	Send(ctx context.Context, companyID, template string, params map[string]string) error
}

// EvidenceMarkers lo que un inspector detectó en la imagen.
type EvidenceMarkers struct {
	HasScale    bool
	HasRuler    bool
	HasAWB      bool
	DetectedAWB string
	CapturedAt  *time.Time
}

// EvidenceInspector detector de marcadores (balanza, regla, guía) en imágenes.
type EvidenceInspector interface {
	Inspect(ctx context.Context, content []byte, contentType string) (*EvidenceMarkers, error)
}

// ImageQualityScorer puntaje de calidad 0–100.
type ImageQualityScorer interface {
	Score(content []byte) (float64, error)
}
