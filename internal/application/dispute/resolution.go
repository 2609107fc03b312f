package dispute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	rules "github.com/jhoicas/weight-dispute-api/internal/domain/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ReviewAction decisión del revisor interno.
type ReviewAction string

const (
	ReviewApprove  ReviewAction = "approve"
	ReviewReject   ReviewAction = "reject"
	ReviewPartial  ReviewAction = "partial"
	ReviewEscalate ReviewAction = "escalate"
	ReviewWithdraw ReviewAction = "withdraw"
)

// ReviewInput WeightKg solo aplica a partial.
type ReviewInput struct {
	Action   ReviewAction
	WeightKg float64
	Notes    string
}

// CarrierOutcome respuesta de la transportadora.
type CarrierOutcome string

const (
	CarrierOutcomeAccepted  CarrierOutcome = "accepted"
	CarrierOutcomeRejected  CarrierOutcome = "rejected"
	CarrierOutcomePartial   CarrierOutcome = "partial"
	CarrierOutcomeWithdrawn CarrierOutcome = "withdrawn"
)

// CarrierResponse respuesta correlacionada por número de referencia (API, ticket o correo).
type CarrierResponse struct {
	CarrierID string
	Reference string
	Outcome   CarrierOutcome
	WeightKg  float64
	Notes     string
}

// Review aprueba (a favor del vendedor), rechaza, acuerda un peso parcial, escala o retira.
func (m *Manager) Review(ctx context.Context, actor Actor, id string, in ReviewInput) (*entity.WeightDispute, error) {
	notes := strings.TrimSpace(in.Notes)
	switch in.Action {
	case ReviewApprove:
		return m.resolve(ctx, actor, id, rules.CarrierAccepted{}, "review_approved", notes, nil)
	case ReviewReject:
		return m.resolve(ctx, actor, id, rules.CarrierRejected{}, "review_rejected", notes, nil)
	case ReviewWithdraw:
		return m.resolve(ctx, actor, id, rules.Withdrawn{}, "review_withdrawn", notes, nil)
	case ReviewEscalate:
		reason := notes
		if reason == "" {
			reason = ReasonManualReview
		}
		return m.Escalate(ctx, actor, id, reason)
	case ReviewPartial:
		d, err := m.Disputes.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if d == nil || !actor.canAccess(d) {
			return nil, domain.ErrNotFound
		}
		outcome, err := m.partialOutcome(ctx, d, in.WeightKg)
		if err != nil {
			return nil, err
		}
		return m.resolve(ctx, actor, id, outcome, "review_partial", notes, nil)
	default:
		return nil, fmt.Errorf("%w: acción %q; use approve, reject, partial, escalate o withdraw", domain.ErrInvalidInput, in.Action)
	}
}

// ApplyCarrierResponse resuelve la disputa enviada según la respuesta de la transportadora.
func (m *Manager) ApplyCarrierResponse(ctx context.Context, resp CarrierResponse) (*entity.WeightDispute, error) {
	if resp.CarrierID == "" || resp.Reference == "" {
		return nil, fmt.Errorf("%w: transportadora y referencia son obligatorias", domain.ErrInvalidInput)
	}
	d, err := m.Disputes.GetByCourierReference(ctx, resp.CarrierID, resp.Reference)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: referencia %s", domain.ErrNotFound, resp.Reference)
	}
	actor := Actor{UserID: "carrier:" + resp.CarrierID, Staff: true}
	notes := strings.TrimSpace(resp.Notes)
	switch resp.Outcome {
	case CarrierOutcomeAccepted:
		return m.resolve(ctx, actor, d.ID, rules.CarrierAccepted{}, "carrier_accepted", notes, nil)
	case CarrierOutcomeRejected:
		return m.resolve(ctx, actor, d.ID, rules.CarrierRejected{}, "carrier_rejected", notes, nil)
	case CarrierOutcomeWithdrawn:
		return m.resolve(ctx, actor, d.ID, rules.Withdrawn{}, "carrier_withdrawn", notes, nil)
	case CarrierOutcomePartial:
		outcome, err := m.partialOutcome(ctx, d, resp.WeightKg)
		if err != nil {
			return nil, err
		}
		return m.resolve(ctx, actor, d.ID, outcome, "carrier_partial", notes, nil)
	default:
		return nil, fmt.Errorf("%w: resultado %q", domain.ErrInvalidInput, resp.Outcome)
	}
}

func (m *Manager) partialOutcome(ctx context.Context, d *entity.WeightDispute, kg float64) (rules.Partial, error) {
	if kg <= 0 {
		return rules.Partial{}, fmt.Errorf("%w: indique el peso acordado en kg", domain.ErrInvalidMeasurement)
	}
	if m.Pricer == nil {
		return rules.Partial{}, domain.ErrPricingUnavailable
	}
	sh, err := m.Shipments.GetByID(ctx, d.ShipmentID)
	if err != nil {
		return rules.Partial{}, err
	}
	if sh == nil {
		return rules.Partial{}, domain.ErrNotFound
	}
	kg = weight.Round(kg)
	cost, method, err := m.Pricer.Price(ctx, sh, kg)
	if err != nil {
		return rules.Partial{}, err
	}
	return rules.Partial{WeightKg: kg, Cost: cost, Method: method}, nil
}

// Escalate envía la disputa a la cola de revisión manual.
func (m *Manager) Escalate(ctx context.Context, actor Actor, id, reason string) (*entity.WeightDispute, error) {
	d, err := m.mutate(ctx, actor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		return m.transition(ctx, r, d, entity.DisputeEscalated, actor.id(), reason)
	})
	if err != nil {
		return nil, err
	}
	m.Log.Warn().Str("dispute_id", d.ID).Str("reason", reason).Msg("disputa escalada a revisión manual")
	m.notify(d.CompanyID, "weight_dispute_escalated", disputeParams(d))
	return d, nil
}

// FlagCompany prioridad urgente para todas las disputas abiertas y escalamiento de las pendientes.
func (m *Manager) FlagCompany(ctx context.Context, companyID string) (int, error) {
	ids, err := m.Disputes.ListOpenIDsByCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	actor := Actor{UserID: ActorFraud, Staff: true}
	escalated := 0
	for _, id := range ids {
		var moved bool
		_, err := m.mutate(ctx, actor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
			if d.Status.IsTerminal() {
				return errSkip
			}
			d.Priority = entity.PriorityUrgent
			d.UpdatedAt = m.now()
			if d.Status != entity.DisputePending {
				return nil
			}
			moved = true
			return m.transition(ctx, r, d, entity.DisputeEscalated, ActorFraud, ReasonFraudSuspected)
		})
		if err != nil && !errors.Is(err, errSkip) {
			return escalated, fmt.Errorf("disputa %s: %w", id, err)
		}
		if err == nil && moved {
			escalated++
		}
	}
	return escalated, nil
}

// AutoResolveSweep acepta automáticamente las disputas pendientes vencidas.
// El estado se vuelve a verificar dentro de la transacción: una acción del vendedor puede ganarle al barrido.
func (m *Manager) AutoResolveSweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := m.Disputes.ListDueForAutoResolve(ctx, now, m.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, id := range ids {
		_, err := m.resolve(ctx, systemActor, id, rules.AutoAccepted{}, "auto_resolve", "", func(d *entity.WeightDispute) error {
			if d.Status != entity.DisputePending || d.AutoResolveAt.After(now) {
				return errSkip
			}
			return nil
		})
		switch {
		case err == nil:
			resolved++
		case errors.Is(err, errSkip):
			m.Log.Debug().Str("dispute_id", id).Msg("disputa ya resuelta antes del barrido")
		default:
			m.Log.Error().Err(err).Str("dispute_id", id).Msg("falló la auto-aceptación")
		}
	}
	return resolved, nil
}

// resolve transición terminal, peso de facturación y fila de liquidación en una sola transacción.
// El libro contable se invoca después del commit con clave de idempotencia = ID de la disputa.
func (m *Manager) resolve(ctx context.Context, actor Actor, id string, outcome rules.Outcome, reason, notes string, guard func(d *entity.WeightDispute) error) (*entity.WeightDispute, error) {
	var comp rules.SettlementComputation
	var sh *entity.Shipment
	d, err := m.mutate(ctx, actor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		if guard != nil {
			if err := guard(d); err != nil {
				return err
			}
		}
		c, err := rules.ComputeSettlement(d, outcome)
		if err != nil {
			return err
		}
		if err := m.transition(ctx, r, d, c.Status, actor.id(), reason); err != nil {
			return err
		}
		now := m.now()
		d.Resolution = &entity.Resolution{
			Outcome:       c.Status,
			FinalWeightKg: c.FinalWeightKg,
			FinalCost:     c.FinalCost,
			Amount:        c.Amount,
			Direction:     c.Direction,
			Method:        c.Method,
			ResolvedBy:    actor.id(),
			ResolvedAt:    now,
			Notes:         notes,
		}

		s, err := r.Shipments.GetForUpdate(ctx, d.ShipmentID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("%w: envío %s", domain.ErrNotFound, d.ShipmentID)
		}
		s.Weights.SetBilling(c.FinalWeightKg, entity.SourceResolution, now)
		s.WeightStatus = entity.WeightResolved
		s.UpdatedAt = now
		if err := r.Shipments.UpdateWeights(ctx, s); err != nil {
			return err
		}

		if err := r.Settlements.Create(ctx, newSettlement(d, c, now)); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.ErrSettlementAlreadyApplied
			}
			return err
		}
		comp, sh = c, s
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Log.Info().Str("dispute_id", d.ID).Str("status", string(d.Status)).
		Str("direction", string(comp.Direction)).Str("amount", comp.Amount.StringFixed(2)).
		Float64("final_weight_kg", comp.FinalWeightKg).Msg("disputa resuelta")

	if err := m.ExecuteSettlement(ctx, d.ID); err != nil && !errors.Is(err, domain.ErrSettlementAlreadyApplied) {
		m.Log.Error().Err(err).Str("dispute_id", d.ID).Msg("liquidación pendiente de reintento")
	}
	if m.Learner != nil && comp.PhysicalWeightKg > 0 {
		if _, err := m.Learner.IngestShipment(ctx, sh, comp.PhysicalWeightKg); err != nil {
			m.Log.Warn().Err(err).Str("shipment_id", sh.ID).Msg("no se pudo actualizar el peso del SKU")
		}
	}
	m.notify(d.CompanyID, "weight_dispute_resolved", disputeParams(d))
	return d, nil
}

func newSettlement(d *entity.WeightDispute, c rules.SettlementComputation, now time.Time) *entity.Settlement {
	st := &entity.Settlement{
		ID:             uuid.New().String(),
		DisputeID:      d.ID,
		CompanyID:      d.CompanyID,
		Amount:         c.Amount.Abs(),
		Direction:      c.Direction,
		Status:         entity.SettlementPending,
		IdempotencyKey: d.ID,
		Reason:         fmt.Sprintf("weight_dispute:%s:%s", c.Status, d.TrackingID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if c.Direction == entity.LedgerNone {
		st.Status = entity.SettlementNoop
	}
	return st
}

// ExecuteSettlement invoca el libro contable una sola vez por disputa.
// Una liquidación ya aplicada devuelve domain.ErrSettlementAlreadyApplied y solo se registra como advertencia.
func (m *Manager) ExecuteSettlement(ctx context.Context, disputeID string) error {
	unlock, err := m.Locker.Lock(ctx, "settlement:"+disputeID)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := m.Settlements.GetByDispute(ctx, disputeID)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: liquidación de %s", domain.ErrNotFound, disputeID)
	}
	switch st.Status {
	case entity.SettlementApplied:
		m.Log.Warn().Str("dispute_id", disputeID).Str("ledger_reference", st.LedgerReference).Msg("la liquidación ya fue aplicada")
		return domain.ErrSettlementAlreadyApplied
	case entity.SettlementNoop:
		return nil
	}

	entry := ports.LedgerEntry{
		CompanyID:      st.CompanyID,
		Amount:         st.Amount,
		IdempotencyKey: st.IdempotencyKey,
		Reason:         st.Reason,
	}
	var ref string
	if st.Direction == entity.LedgerDebit {
		ref, err = m.Ledger.Debit(ctx, entry)
	} else {
		ref, err = m.Ledger.Credit(ctx, entry)
	}

	txErr := m.Tx.Run(ctx, func(r repository.TxRepos) error {
		cur, e := r.Settlements.GetByDisputeForUpdate(ctx, disputeID)
		if e != nil {
			return e
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		now := m.now()
		cur.Attempts++
		cur.UpdatedAt = now
		if err != nil {
			cur.LastError = err.Error()
		} else {
			cur.Status = entity.SettlementApplied
			cur.LedgerReference = ref
			cur.LastError = ""
			cur.AppliedAt = &now
		}
		return r.Settlements.Update(ctx, cur)
	})
	if err != nil {
		return fmt.Errorf("libro contable: %w", err)
	}
	if txErr != nil {
		return fmt.Errorf("registrar liquidación: %w", txErr)
	}
	m.Log.Info().Str("dispute_id", disputeID).Str("direction", string(st.Direction)).
		Str("amount", st.Amount.StringFixed(2)).Str("ledger_reference", ref).Msg("liquidación aplicada")
	return nil
}

// RetryPendingSettlements reintenta las liquidaciones que quedaron pendientes.
func (m *Manager) RetryPendingSettlements(ctx context.Context) (int, error) {
	pending, err := m.Settlements.ListPending(ctx, m.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, st := range pending {
		err := m.ExecuteSettlement(ctx, st.DisputeID)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, domain.ErrSettlementAlreadyApplied):
		default:
			m.Log.Warn().Err(err).Str("dispute_id", st.DisputeID).Msg("reintento de liquidación fallido")
		}
	}
	return applied, nil
}
