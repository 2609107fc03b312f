package repository

import (
	"context"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// ReconciliationRepository corridas de conciliación y ledger de filas conciliadas.
type ReconciliationRepository interface {
	NextVersion(ctx context.Context, carrierID, billingMonth string) (int, error)
	// CreateRun devuelve domain.ErrDuplicate si la versión ya existe.
	CreateRun(ctx context.Context, run *entity.ReconciliationRun) error
	GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error)
	ListRuns(ctx context.Context, carrierID, billingMonth string) ([]*entity.ReconciliationRun, error)
	IsRowReconciled(ctx context.Context, carrierID, billingMonth, awb string) (bool, error)
	// MarkRowReconciled es idempotente.
	MarkRowReconciled(ctx context.Context, carrierID, billingMonth, awb, shipmentID string) error
}
