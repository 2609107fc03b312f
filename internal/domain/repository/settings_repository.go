package repository

import (
	"context"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// SettingsRepository configuración por empresa.
type SettingsRepository interface {
	Get(ctx context.Context, companyID string) (*entity.CompanyWeightSettings, error)
	Upsert(ctx context.Context, s *entity.CompanyWeightSettings) error
	SetFraudFlag(ctx context.Context, companyID string, flagged bool, score float64, at time.Time) error
}

// FraudAssessmentRepository historial de análisis de fraude.
type FraudAssessmentRepository interface {
	Create(ctx context.Context, a *entity.FraudAssessment) error
	Latest(ctx context.Context, companyID string) (*entity.FraudAssessment, error)
}

// ZoneOverrideRepository zonas fijadas manualmente por par de códigos postales.
type ZoneOverrideRepository interface {
	Get(ctx context.Context, originPincode, destinationPincode string) (entity.Zone, bool, error)
	Upsert(ctx context.Context, originPincode, destinationPincode string, zone entity.Zone) error
}
