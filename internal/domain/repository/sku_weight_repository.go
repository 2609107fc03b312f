package repository

import (
	"context"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// SKUWeightRepository baselines de peso por (empresa, SKU).
type SKUWeightRepository interface {
	Get(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error)
	GetForUpdate(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error)
	Upsert(ctx context.Context, m *entity.SKUWeightMaster) error
}
