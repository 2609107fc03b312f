package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyWeightSettings umbrales por empresa y marca de fraude.
type CompanyWeightSettings struct {
	CompanyID        string
	ThresholdPercent float64
	HighValueAmount  decimal.Decimal
	SuspiciousFraud  bool
	FraudScore       float64
	FlaggedAt        *time.Time
	UpdatedAt        time.Time
}

// FraudAssessment resultado de un análisis de patrones sobre la ventana de disputas.
type FraudAssessment struct {
	ID                  string
	CompanyID           string
	WindowStart         time.Time
	WindowEnd           time.Time
	DisputeCount        int
	UnderweightShare    float64
	ModePercentage      float64
	ModeShare           float64
	Recent24h           int
	Recent24hScore      float64
	HighValueCount      int
	HighValueNoEvidence int
	HighValueScore      float64
	Score               float64
	Suspicious          bool
	CreatedAt           time.Time
}
