package dispute

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

// OpenInput datos calculados por el detector o el conciliador.
type OpenInput struct {
	Shipment       *entity.Shipment
	Source         entity.DisputeSource
	Discrepancy    entity.Discrepancy
	Impact         entity.FinancialImpact
	Category       entity.DisputeCategory
	Priority       entity.DisputePriority
	CompanyFlagged bool
}

// OpenInTx crea la disputa en estado pending dentro de la transacción del llamador.
// Devuelve domain.ErrDuplicateDispute si el envío ya tiene una abierta.
// Si la empresa está marcada por fraude, la disputa pasa de inmediato a escalated.
func (m *Manager) OpenInTx(ctx context.Context, r repository.TxRepos, in OpenInput) (*entity.WeightDispute, error) {
	if in.Shipment == nil {
		return nil, fmt.Errorf("%w: envío requerido", domain.ErrInvalidInput)
	}
	now := m.now()
	sh := in.Shipment
	d := &entity.WeightDispute{
		ID:               uuid.New().String(),
		CompanyID:        sh.CompanyID,
		ShipmentID:       sh.ID,
		TrackingID:       sh.TrackingID,
		CarrierID:        sh.CarrierID,
		Source:           in.Source,
		Discrepancy:      in.Discrepancy,
		FinancialImpact:  in.Impact,
		Status:           entity.DisputePending,
		Category:         in.Category,
		Priority:         in.Priority,
		ObservationCount: 1,
		CreatedAt:        now,
		UpdatedAt:        now,
		AutoResolveAt:    now.Add(m.cfg.GracePeriod),
	}
	if err := r.Disputes.Create(ctx, d); err != nil {
		return nil, err
	}
	if err := r.Disputes.AddHistory(ctx, entity.DisputeStateHistory{
		ID:        uuid.New().String(),
		DisputeID: d.ID,
		To:        entity.DisputePending,
		Actor:     ActorSystem,
		Reason:    string(in.Source),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if in.CompanyFlagged {
		d.Priority = entity.PriorityUrgent
		if err := m.transition(ctx, r, d, entity.DisputeEscalated, ActorFraud, ReasonFraudSuspected); err != nil {
			return nil, err
		}
		if err := r.Disputes.Update(ctx, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MergeInTx suma una observación repetida a la disputa abierta en lugar de duplicarla.
func (m *Manager) MergeInTx(ctx context.Context, r repository.TxRepos, d *entity.WeightDispute) error {
	d.ObservationCount++
	d.UpdatedAt = m.now()
	return r.Disputes.Update(ctx, d)
}

// AfterOpen efectos posteriores al commit: notificación al vendedor.
func (m *Manager) AfterOpen(d *entity.WeightDispute) {
	m.Log.Info().
		Str("dispute_id", d.ID).
		Str("shipment_id", d.ShipmentID).
		Str("company_id", d.CompanyID).
		Str("category", string(d.Category)).
		Str("priority", string(d.Priority)).
		Str("calculation_method", string(d.FinancialImpact.Method)).
		Float64("percentage", d.Discrepancy.Percentage).
		Msg("disputa de peso abierta")
	m.notify(d.CompanyID, "weight_dispute_opened", disputeParams(d))
}
