package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var _ repository.SKUWeightRepository = (*SKUWeightRepo)(nil)

// SKUWeightRepo baselines por (empresa, SKU). El acumulador de Welford se guarda como JSONB.
type SKUWeightRepo struct {
	q Querier
}

func NewSKUWeightRepository(q Querier) *SKUWeightRepo {
	return &SKUWeightRepo{q: q}
}

const skuColumns = `company_id, sku, stats, standard_weight_kg, confidence, status, weight_freeze,
	last_sample_at, created_at, updated_at`

func (r *SKUWeightRepo) Get(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	return r.getOne(ctx, `SELECT `+skuColumns+` FROM sku_weight_masters WHERE company_id = $1 AND sku = $2`, companyID, sku)
}

// GetForUpdate bloquea el baseline; si no existe, no bloquea nada y el Upsert resuelve la carrera.
func (r *SKUWeightRepo) GetForUpdate(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	return r.getOne(ctx, `SELECT `+skuColumns+` FROM sku_weight_masters WHERE company_id = $1 AND sku = $2 FOR UPDATE`, companyID, sku)
}

func (r *SKUWeightRepo) getOne(ctx context.Context, query, companyID, sku string) (*entity.SKUWeightMaster, error) {
	var m entity.SKUWeightMaster
	var statsJSON, freeze []byte
	err := r.q.QueryRow(ctx, query, companyID, sku).Scan(
		&m.CompanyID, &m.SKU, &statsJSON, &m.StandardWeightKg, &m.Confidence, &m.Status, &freeze,
		&m.LastSampleAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sku weight: %w", err)
	}
	if err := fromJSON(statsJSON, &m.Stats); err != nil {
		return nil, err
	}
	if len(freeze) > 0 && string(freeze) != "null" {
		m.Freeze = &entity.WeightFreeze{}
		if err := fromJSON(freeze, m.Freeze); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (r *SKUWeightRepo) Upsert(ctx context.Context, m *entity.SKUWeightMaster) error {
	statsJSON, err := toJSON(m.Stats)
	if err != nil {
		return err
	}
	var freeze []byte
	if m.Freeze != nil {
		if freeze, err = toJSON(m.Freeze); err != nil {
			return err
		}
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO sku_weight_masters (`+skuColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (company_id, sku) DO UPDATE
		SET stats = EXCLUDED.stats,
		    standard_weight_kg = EXCLUDED.standard_weight_kg,
		    confidence = EXCLUDED.confidence,
		    status = EXCLUDED.status,
		    weight_freeze = EXCLUDED.weight_freeze,
		    last_sample_at = EXCLUDED.last_sample_at,
		    updated_at = EXCLUDED.updated_at`,
		m.CompanyID, m.SKU, statsJSON, m.StandardWeightKg, m.Confidence, m.Status, freeze,
		m.LastSampleAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sku weight: %w", err)
	}
	return nil
}
