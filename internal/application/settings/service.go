// Package settings umbrales de disputa por empresa con valores por defecto globales.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Defaults valores globales (configuración).
type Defaults struct {
	ThresholdPercent float64
	HighValueAmount  decimal.Decimal
}

// UpdateInput campos nil no se modifican.
type UpdateInput struct {
	ThresholdPercent *float64
	HighValueAmount  *decimal.Decimal
}

type Service struct {
	repo     repository.SettingsRepository
	defaults Defaults
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.SettingsRepository, defaults Defaults, log *logger.Logger) *Service {
	return &Service{repo: repo, defaults: defaults, log: log, now: time.Now}
}

// Effective configuración vigente: lo guardado por la empresa o los valores por defecto.
func (s *Service) Effective(ctx context.Context, companyID string) (entity.CompanyWeightSettings, error) {
	out := entity.CompanyWeightSettings{
		CompanyID:        companyID,
		ThresholdPercent: s.defaults.ThresholdPercent,
		HighValueAmount:  s.defaults.HighValueAmount,
	}
	stored, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return out, fmt.Errorf("configuración de empresa: %w", err)
	}
	if stored == nil {
		return out, nil
	}
	if stored.ThresholdPercent > 0 {
		out.ThresholdPercent = stored.ThresholdPercent
	}
	if stored.HighValueAmount.IsPositive() {
		out.HighValueAmount = stored.HighValueAmount
	}
	out.SuspiciousFraud = stored.SuspiciousFraud
	out.FraudScore = stored.FraudScore
	out.FlaggedAt = stored.FlaggedAt
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

// Update cambia umbral (0–100 %) y monto de alto valor. La marca de fraude no se toca aquí.
func (s *Service) Update(ctx context.Context, companyID string, in UpdateInput) (entity.CompanyWeightSettings, error) {
	if in.ThresholdPercent != nil && (*in.ThresholdPercent <= 0 || *in.ThresholdPercent > 100) {
		return entity.CompanyWeightSettings{}, fmt.Errorf("%w: el umbral debe estar entre 0 y 100", domain.ErrInvalidInput)
	}
	if in.HighValueAmount != nil && !in.HighValueAmount.IsPositive() {
		return entity.CompanyWeightSettings{}, fmt.Errorf("%w: el monto de alto valor debe ser positivo", domain.ErrInvalidInput)
	}
	stored, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return entity.CompanyWeightSettings{}, err
	}
	if stored == nil {
		stored = &entity.CompanyWeightSettings{CompanyID: companyID}
	}
	if in.ThresholdPercent != nil {
		stored.ThresholdPercent = *in.ThresholdPercent
	}
	if in.HighValueAmount != nil {
		stored.HighValueAmount = *in.HighValueAmount
	}
	stored.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, stored); err != nil {
		return entity.CompanyWeightSettings{}, err
	}
	s.log.Info().Str("company_id", companyID).Float64("threshold", stored.ThresholdPercent).Msg("configuración de disputas actualizada")
	return s.Effective(ctx, companyID)
}

// ClearFraudFlag la marca de fraude solo se retira manualmente.
func (s *Service) ClearFraudFlag(ctx context.Context, companyID, by string) error {
	if err := s.repo.SetFraudFlag(ctx, companyID, false, 0, s.now()); err != nil {
		return err
	}
	s.log.Warn().Str("company_id", companyID).Str("by", by).Msg("marca de fraude retirada")
	return nil
}
