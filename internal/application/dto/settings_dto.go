package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// SettingsResponse configuración vigente de la empresa.
type SettingsResponse struct {
	CompanyID        string          `json:"company_id"`
	ThresholdPercent float64         `json:"threshold_percent"`
	HighValueAmount  decimal.Decimal `json:"high_value_amount"`
	SuspiciousFraud  bool            `json:"suspicious_fraud"`
	FraudScore       float64         `json:"fraud_score"`
	FlaggedAt        *time.Time      `json:"flagged_at,omitempty"`
}

// UpdateSettingsRequest campos omitidos no cambian.
type UpdateSettingsRequest struct {
	ThresholdPercent *float64         `json:"threshold_percent" validate:"omitempty,gt=0,lte=100"`
	HighValueAmount  *decimal.Decimal `json:"high_value_amount"`
}

// FraudAssessmentResponse último análisis de fraude.
type FraudAssessmentResponse struct {
	CompanyID           string    `json:"company_id"`
	WindowStart         time.Time `json:"window_start"`
	WindowEnd           time.Time `json:"window_end"`
	DisputeCount        int       `json:"dispute_count"`
	UnderweightShare    float64   `json:"underweight_share"`
	ModePercentage      float64   `json:"mode_percentage"`
	ModeShare           float64   `json:"mode_share"`
	Recent24h           int       `json:"recent_24h"`
	HighValueCount      int       `json:"high_value_count"`
	HighValueNoEvidence int       `json:"high_value_no_evidence"`
	Score               float64   `json:"score"`
	Suspicious          bool      `json:"suspicious"`
	CreatedAt           time.Time `json:"created_at"`
}

func FromSettings(s entity.CompanyWeightSettings) SettingsResponse {
	return SettingsResponse{
		CompanyID:        s.CompanyID,
		ThresholdPercent: s.ThresholdPercent,
		HighValueAmount:  s.HighValueAmount,
		SuspiciousFraud:  s.SuspiciousFraud,
		FraudScore:       s.FraudScore,
		FlaggedAt:        s.FlaggedAt,
	}
}

func FromFraudAssessment(a *entity.FraudAssessment) FraudAssessmentResponse {
	return FraudAssessmentResponse{
		CompanyID:           a.CompanyID,
		WindowStart:         a.WindowStart,
		WindowEnd:           a.WindowEnd,
		DisputeCount:        a.DisputeCount,
		UnderweightShare:    a.UnderweightShare,
		ModePercentage:      a.ModePercentage,
		ModeShare:           a.ModeShare,
		Recent24h:           a.Recent24h,
		HighValueCount:      a.HighValueCount,
		HighValueNoEvidence: a.HighValueNoEvidence,
		Score:               a.Score,
		Suspicious:          a.Suspicious,
		CreatedAt:           a.CreatedAt,
	}
}
