package repository

import (
	"context"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// SettlementRepository liquidaciones, únicas por disputa.
type SettlementRepository interface {
	// Create devuelve domain.ErrDuplicate si la disputa ya tiene liquidación.
	Create(ctx context.Context, s *entity.Settlement) error
	GetByDispute(ctx context.Context, disputeID string) (*entity.Settlement, error)
	GetByDisputeForUpdate(ctx context.Context, disputeID string) (*entity.Settlement, error)
	Update(ctx context.Context, s *entity.Settlement) error
	ListPending(ctx context.Context, limit int) ([]*entity.Settlement, error)
}
