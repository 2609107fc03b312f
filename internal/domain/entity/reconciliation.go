package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRow fila normalizada del archivo MIS de la transportadora.
type InvoiceRow struct {
	LineNo          int             `json:"line_no"`
	AWB             string          `json:"awb"`
	ChargedWeightKg float64         `json:"charged_weight_kg"`
	ChargedAmount   decimal.Decimal `json:"charged_amount"`
}

// RowError fila del MIS que no se pudo interpretar.
type RowError struct {
	LineNo int    `json:"line_no"`
	Raw    string `json:"raw,omitempty"`
	Reason string `json:"reason"`
}

// LineOutcome resultado de conciliar una fila.
type LineOutcome string

const (
	LineMatched           LineOutcome = "matched"
	LineUnmatched         LineOutcome = "unmatched"
	LineDiscrepant        LineOutcome = "discrepant"
	LineAlreadyReconciled LineOutcome = "already_reconciled"
	LineAlreadyDisputed   LineOutcome = "already_disputed"
	LineInvalid           LineOutcome = "invalid"
	LineFailed            LineOutcome = "failed"
)

// ReconciliationLine detalle por fila dentro del reporte.
type ReconciliationLine struct {
	LineNo          int             `json:"line_no"`
	AWB             string          `json:"awb"`
	ShipmentID      string          `json:"shipment_id,omitempty"`
	ChargedWeightKg float64         `json:"charged_weight_kg"`
	ChargedAmount   decimal.Decimal `json:"charged_amount"`
	ExpectedKg      float64         `json:"expected_kg"`
	Percentage      float64         `json:"percentage"`
	Outcome         LineOutcome     `json:"outcome"`
	DisputeID       string          `json:"dispute_id,omitempty"`
	Note            string          `json:"note,omitempty"`
}

// ReconciliationCounts agregados de la corrida.
type ReconciliationCounts struct {
	TotalRows         int `json:"total_rows"`
	Matched           int `json:"matched"`
	Unmatched         int `json:"unmatched"`
	Discrepant        int `json:"discrepant"`
	DisputesCreated   int `json:"disputes_created"`
	AlreadyReconciled int `json:"already_reconciled"`
	AlreadyDisputed   int `json:"already_disputed"`
	InvalidRows       int `json:"invalid_rows"`
	FailedRows        int `json:"failed_rows"`
}

// ReconciliationRun una por (carrier, mes, versión). Inmutable; re-ejecutar crea otra versión.
type ReconciliationRun struct {
	ID           string               `json:"id"`
	CarrierID    string               `json:"carrier_id"`
	BillingMonth string               `json:"billing_month"` // YYYY-MM
	Version      int                  `json:"version"`
	SourceFile   string               `json:"source_file"`
	Counts       ReconciliationCounts `json:"counts"`
	ReportRefs   map[string]string    `json:"report_refs"` // formato -> clave en el object store
	CreatedBy    string               `json:"created_by,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ReconciliationReport contenido del artefacto.
type ReconciliationReport struct {
	Run   ReconciliationRun    `json:"run"`
	Lines []ReconciliationLine `json:"lines"`
}
