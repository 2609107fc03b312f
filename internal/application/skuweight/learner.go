// Package skuweight aprende el peso estándar por SKU a partir de pesos verificados.
package skuweight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/internal/domain/stats"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// SuggestionSource origen del peso sugerido.
type SuggestionSource string

const (
	SuggestionFrozen  SuggestionSource = "freeze"
	SuggestionLearned SuggestionSource = "learned"
)

// Suggestion peso sugerido al crear una orden.
type Suggestion struct {
	SKU        string           `json:"sku"`
	WeightKg   float64          `json:"weight_kg"`
	Source     SuggestionSource `json:"source"`
	Confidence float64          `json:"confidence"`
}

// FreezeInput fijación manual del peso.
type FreezeInput struct {
	WeightKg  float64
	Reason    string
	ExpiresAt *time.Time
	FrozenBy  string
}

// Learner las actualizaciones de un SKU se serializan con el locker y FOR UPDATE.
type Learner struct {
	tx     ports.TxRunner
	repo   repository.SKUWeightRepository
	locker ports.Locker
	log    *logger.Logger
	now    func() time.Time
}

func NewLearner(tx ports.TxRunner, repo repository.SKUWeightRepository, locker ports.Locker, log *logger.Logger) *Learner {
	return &Learner{tx: tx, repo: repo, locker: locker, log: log, now: time.Now}
}

func lockKey(companyID, sku string) string {
	return "sku:" + companyID + ":" + sku
}

func normalizeSKU(sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", fmt.Errorf("%w: SKU vacío", domain.ErrInvalidInput)
	}
	return sku, nil
}

// IngestShipment atribuye el peso a su SKU solo si el envío tiene un único SKU (peso por unidad).
// Devuelve false si el envío no aplica.
func (l *Learner) IngestShipment(ctx context.Context, sh *entity.Shipment, kg float64) (bool, error) {
	sku, qty, ok := sh.SingleSKU()
	if !ok {
		return false, nil
	}
	if _, err := l.Ingest(ctx, sh.CompanyID, sku, kg/float64(qty)); err != nil {
		return false, err
	}
	return true, nil
}

// Ingest agrega una muestra (Welford) y recalcula confianza y estado.
func (l *Learner) Ingest(ctx context.Context, companyID, sku string, unitKg float64) (*entity.SKUWeightMaster, error) {
	sku, err := normalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	if unitKg <= 0 {
		return nil, fmt.Errorf("%w: muestra %v kg", domain.ErrInvalidMeasurement, unitKg)
	}
	unlock, err := l.locker.Lock(ctx, lockKey(companyID, sku))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *entity.SKUWeightMaster
	err = l.tx.Run(ctx, func(r repository.TxRepos) error {
		m, err := r.SKUWeights.GetForUpdate(ctx, companyID, sku)
		if err != nil {
			return err
		}
		now := l.now()
		if m == nil {
			m = &entity.SKUWeightMaster{CompanyID: companyID, SKU: sku, Status: entity.SKULearning, CreatedAt: now}
		}
		prev := m.Status
		m.Stats.Add(unitKg)
		m.StandardWeightKg = weight.Round(m.Stats.Mean)
		m.Confidence = stats.Confidence(m.Stats)
		m.Status = entity.SKULearning
		if stats.IsActive(m.Stats) {
			m.Status = entity.SKUActive
		}
		m.LastSampleAt = &now
		m.UpdatedAt = now
		if err := r.SKUWeights.Upsert(ctx, m); err != nil {
			return err
		}
		if prev != m.Status {
			l.log.Info().Str("company_id", companyID).Str("sku", sku).
				Str("status", string(m.Status)).Float64("confidence", m.Confidence).
				Msg("estado del SKU actualizado")
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aprendizaje de peso: %w", err)
	}
	return out, nil
}

// Freeze fija un peso explícito, con vencimiento opcional.
func (l *Learner) Freeze(ctx context.Context, companyID, sku string, in FreezeInput) (*entity.SKUWeightMaster, error) {
	sku, err := normalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	if in.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: el peso a congelar debe ser mayor que cero", domain.ErrInvalidMeasurement)
	}
	now := l.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: la fecha de vencimiento debe ser futura", domain.ErrInvalidInput)
	}
	return l.mutate(ctx, companyID, sku, func(m *entity.SKUWeightMaster) {
		m.Freeze = &entity.WeightFreeze{
			Enabled:   true,
			WeightKg:  weight.Round(in.WeightKg),
			Reason:    in.Reason,
			FrozenBy:  in.FrozenBy,
			FrozenAt:  now,
			ExpiresAt: in.ExpiresAt,
		}
	})
}

// Unfreeze desactiva el congelamiento; las estadísticas no cambian.
func (l *Learner) Unfreeze(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	sku, err := normalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	m, err := l.repo.Get(ctx, companyID, sku)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return l.mutate(ctx, companyID, sku, func(m *entity.SKUWeightMaster) {
		if m.Freeze != nil {
			m.Freeze.Enabled = false
		}
	})
}

func (l *Learner) mutate(ctx context.Context, companyID, sku string, fn func(m *entity.SKUWeightMaster)) (*entity.SKUWeightMaster, error) {
	unlock, err := l.locker.Lock(ctx, lockKey(companyID, sku))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *entity.SKUWeightMaster
	err = l.tx.Run(ctx, func(r repository.TxRepos) error {
		m, err := r.SKUWeights.GetForUpdate(ctx, companyID, sku)
		if err != nil {
			return err
		}
		now := l.now()
		if m == nil {
			m = &entity.SKUWeightMaster{CompanyID: companyID, SKU: sku, Status: entity.SKULearning, CreatedAt: now}
		}
		fn(m)
		m.UpdatedAt = now
		out = m
		return r.SKUWeights.Upsert(ctx, m)
	})
	return out, err
}

// Get devuelve el baseline o ErrNotFound.
func (l *Learner) Get(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	m, err := l.repo.Get(ctx, companyID, strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// SuggestWeight peso congelado vigente, o el aprendido con confianza ≥ 70; nil si no hay.
func (l *Learner) SuggestWeight(ctx context.Context, companyID, sku string) (*Suggestion, error) {
	m, err := l.repo.Get(ctx, companyID, strings.TrimSpace(sku))
	if err != nil || m == nil {
		return nil, err
	}
	if m.Freeze.ActiveAt(l.now()) {
		return &Suggestion{SKU: m.SKU, WeightKg: m.Freeze.WeightKg, Source: SuggestionFrozen, Confidence: 100}, nil
	}
	if m.Confidence >= stats.SuggestConfidence {
		return &Suggestion{SKU: m.SKU, WeightKg: m.StandardWeightKg, Source: SuggestionLearned, Confidence: m.Confidence}, nil
	}
	return nil, nil
}
