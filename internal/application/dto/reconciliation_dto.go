package dto

import (
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// ReconciliationRunResponse versión de una conciliación.
type ReconciliationRunResponse struct {
	ID           string                      `json:"id"`
	CarrierID    string                      `json:"carrier_id"`
	BillingMonth string                      `json:"billing_month"`
	Version      int                         `json:"version"`
	SourceFile   string                      `json:"source_file"`
	Counts       entity.ReconciliationCounts `json:"counts"`
	Formats      []string                    `json:"formats"`
	CreatedBy    string                      `json:"created_by,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// ReconciliationResultResponse corrida recién creada con sus filas.
type ReconciliationResultResponse struct {
	Run   ReconciliationRunResponse   `json:"run"`
	Lines []entity.ReconciliationLine `json:"lines"`
}

func FromReconciliationRun(r *entity.ReconciliationRun) ReconciliationRunResponse {
	formats := make([]string, 0, len(r.ReportRefs))
	for _, f := range []string{"json", "xlsx", "pdf"} {
		if _, ok := r.ReportRefs[f]; ok {
			formats = append(formats, f)
		}
	}
	return ReconciliationRunResponse{
		ID:           r.ID,
		CarrierID:    r.CarrierID,
		BillingMonth: r.BillingMonth,
		Version:      r.Version,
		SourceFile:   r.SourceFile,
		Counts:       r.Counts,
		Formats:      formats,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
	}
}
