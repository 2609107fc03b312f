package dto

import (
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// SKUWeightResponse baseline de peso de un SKU.
type SKUWeightResponse struct {
	CompanyID        string               `json:"company_id"`
	SKU              string               `json:"sku"`
	SampleCount      int64                `json:"sample_count"`
	MeanKg           float64              `json:"mean_kg"`
	StdDevKg         float64              `json:"stddev_kg"`
	MinKg            float64              `json:"min_kg"`
	MaxKg            float64              `json:"max_kg"`
	StandardWeightKg float64              `json:"standard_weight_kg"`
	Confidence       float64              `json:"confidence"`
	Status           string               `json:"status"`
	Freeze           *entity.WeightFreeze `json:"freeze,omitempty"`
	LastSampleAt     *time.Time           `json:"last_sample_at,omitempty"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// FreezeSKURequest body de POST /api/skus/{sku}/freeze.
type FreezeSKURequest struct {
	WeightKg  float64    `json:"weight_kg" validate:"required,gt=0,lte=1000"`
	Reason    string     `json:"reason" validate:"max=500"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func FromSKUWeight(m *entity.SKUWeightMaster) SKUWeightResponse {
	return SKUWeightResponse{
		CompanyID:        m.CompanyID,
		SKU:              m.SKU,
		SampleCount:      m.Stats.Count,
		MeanKg:           m.Stats.Mean,
		StdDevKg:         m.Stats.StdDev(),
		MinKg:            m.Stats.Min,
		MaxKg:            m.Stats.Max,
		StandardWeightKg: m.StandardWeightKg,
		Confidence:       m.Confidence,
		Status:           string(m.Status),
		Freeze:           m.Freeze,
		LastSampleAt:     m.LastSampleAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// WeightSuggestionResponse Available=false: no hay peso congelado ni confianza suficiente, se ingresa a mano.
type WeightSuggestionResponse struct {
	SKU        string  `json:"sku"`
	Available  bool    `json:"available"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
