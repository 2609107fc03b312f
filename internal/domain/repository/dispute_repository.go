package repository

import (
	"context"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// DisputeRepository puerto de persistencia de disputas, evidencias e historial.
type DisputeRepository interface {
	// Create devuelve domain.ErrDuplicateDispute si ya hay una disputa abierta para el envío.
	Create(ctx context.Context, d *entity.WeightDispute) error
	GetByID(ctx context.Context, id string) (*entity.WeightDispute, error)
	GetForUpdate(ctx context.Context, id string) (*entity.WeightDispute, error)
	GetOpenByShipment(ctx context.Context, shipmentID string) (*entity.WeightDispute, error)
	GetByCourierReference(ctx context.Context, carrierID, reference string) (*entity.WeightDispute, error)
	// HasAnyForShipment indica si el envío tuvo alguna disputa (abierta o resuelta).
	HasAnyForShipment(ctx context.Context, shipmentID string) (bool, error)
	Update(ctx context.Context, d *entity.WeightDispute) error
	List(ctx context.Context, f entity.DisputeFilter) ([]*entity.WeightDispute, int, error)

	ListDueForAutoResolve(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListStuckSubmissions(ctx context.Context, claimedBefore time.Time, limit int) ([]string, error)
	ListByCompanySince(ctx context.Context, companyID string, since time.Time) ([]*entity.WeightDispute, error)
	ListCompaniesWithDisputesSince(ctx context.Context, since time.Time) ([]string, error)
	ListOpenIDsByCompany(ctx context.Context, companyID string) ([]string, error)

	AddEvidence(ctx context.Context, e *entity.DisputeEvidence) error
	ListEvidence(ctx context.Context, disputeID string) ([]entity.DisputeEvidence, error)
	AddHistory(ctx context.Context, h entity.DisputeStateHistory) error
	ListHistory(ctx context.Context, disputeID string) ([]entity.DisputeStateHistory, error)
}
