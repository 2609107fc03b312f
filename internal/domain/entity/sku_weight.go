package entity

import (
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/stats"
)

// SKUStatus estado del baseline de peso.
type SKUStatus string

const (
	SKULearning SKUStatus = "learning"
	SKUActive   SKUStatus = "active"
)

// WeightFreeze peso fijado manualmente, con vencimiento opcional.
type WeightFreeze struct {
	Enabled   bool       `json:"enabled"`
	WeightKg  float64    `json:"weight_kg"`
	Reason    string     `json:"reason,omitempty"`
	FrozenBy  string     `json:"frozen_by"`
	FrozenAt  time.Time  `json:"frozen_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ActiveAt indica si el congelamiento rige en el instante dado.
func (f *WeightFreeze) ActiveAt(now time.Time) bool {
	if f == nil || !f.Enabled {
		return false
	}
	return f.ExpiresAt == nil || now.Before(*f.ExpiresAt)
}

// SKUWeightMaster baseline estadístico por (empresa, SKU). Sobrevive a los envíos.
type SKUWeightMaster struct {
	CompanyID        string
	SKU              string
	Stats            stats.Welford
	StandardWeightKg float64
	Confidence       float64
	Status           SKUStatus
	Freeze           *WeightFreeze
	LastSampleAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
