package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

// errSkip la disputa cambió de estado y ya no aplica la operación.
var errSkip = errors.New("la disputa ya no es elegible")

func (m *Manager) enqueueSubmission(id string) {
	m.goAsync(func(ctx context.Context) {
		if err := m.Submit(ctx, id); err != nil {
			m.Log.Warn().Err(err).Str("dispute_id", id).Msg("envío a la transportadora no completado")
		}
	})
}

// Submit envía la disputa a la transportadora con reintentos y backoff exponencial.
// Al agotar los intentos la disputa pasa a escalated. Si otro proceso ya la tomó, no hace nada.
func (m *Manager) Submit(ctx context.Context, id string) error {
	d, err := m.claim(ctx, id)
	if errors.Is(err, errSkip) {
		return nil
	}
	if err != nil {
		return err
	}

	evs, err := m.Disputes.ListEvidence(ctx, id)
	if err != nil {
		return err
	}
	urls := make([]string, 0, len(evs))
	for _, e := range evs {
		urls = append(urls, e.URL)
	}
	req := ports.SubmissionRequest{
		DisputeID:        d.ID,
		CarrierID:        d.CarrierID,
		TrackingID:       d.TrackingID,
		DeclaredWeightKg: d.Discrepancy.DeclaredChargeableKg,
		ReportedWeightKg: d.Discrepancy.ReportedChargeableKg,
		EvidenceURLs:     urls,
		Notes:            d.SellerNotes,
	}

	var res *ports.SubmissionResult
	var lastErr error
	for attempt := 1; attempt <= m.cfg.SubmissionAttempts; attempt++ {
		res, lastErr = m.Submitter.Submit(ctx, req)
		if lastErr == nil && res == nil {
			lastErr = fmt.Errorf("respuesta vacía de la transportadora")
		}
		if lastErr == nil {
			break
		}
		m.Log.Warn().Err(lastErr).Str("dispute_id", id).Int("attempt", attempt).Msg("falló el envío a la transportadora")
		m.recordAttempt(ctx, id, lastErr)
		if attempt < m.cfg.SubmissionAttempts {
			if err := sleep(ctx, m.cfg.SubmissionBackoff<<(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}
	}

	if lastErr != nil {
		m.escalateSubmission(ctx, id, lastErr)
		return fmt.Errorf("%w: %v", domain.ErrCarrierSubmissionFailed, lastErr)
	}
	return m.markSubmitted(ctx, id, res)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) claim(ctx context.Context, id string) (*entity.WeightDispute, error) {
	return m.mutate(ctx, systemActor, id, func(_ repository.TxRepos, d *entity.WeightDispute) error {
		if d.Status != entity.DisputeEvidenceSubmitted {
			return errSkip
		}
		now := m.now()
		if d.SubmissionClaimedAt != nil && now.Sub(*d.SubmissionClaimedAt) < m.cfg.StuckAfter {
			return errSkip
		}
		d.SubmissionClaimedAt = &now
		d.UpdatedAt = now
		return nil
	})
}

func (m *Manager) recordAttempt(ctx context.Context, id string, cause error) {
	_, err := m.mutate(ctx, systemActor, id, func(_ repository.TxRepos, d *entity.WeightDispute) error {
		now := m.now()
		d.SubmissionAttempts++
		d.LastSubmissionError = cause.Error()
		d.SubmissionClaimedAt = &now
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		m.Log.Error().Err(err).Str("dispute_id", id).Msg("no se pudo registrar el intento de envío")
	}
}

func (m *Manager) markSubmitted(ctx context.Context, id string, res *ports.SubmissionResult) error {
	d, err := m.mutate(ctx, systemActor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		if d.Status != entity.DisputeEvidenceSubmitted {
			return errSkip
		}
		now := m.now()
		d.SubmissionMethod = res.Method
		d.CourierReference = res.ReferenceNumber
		if d.CourierReference == "" {
			d.CourierReference = d.ID
		}
		d.SubmittedToCourierAt = &now
		d.LastSubmissionError = ""
		return m.transition(ctx, r, d, entity.DisputeUnderReview, ActorSystem, "carrier_submitted")
	})
	if errors.Is(err, errSkip) {
		m.Log.Warn().Str("dispute_id", id).Str("reference", res.ReferenceNumber).Msg("la disputa cambió de estado durante el envío")
		return nil
	}
	if err != nil {
		return err
	}
	m.Log.Info().Str("dispute_id", id).Str("method", d.SubmissionMethod).Str("reference", d.CourierReference).Msg("disputa enviada a la transportadora")
	m.notify(d.CompanyID, "weight_dispute_submitted", disputeParams(d))
	return nil
}

func (m *Manager) escalateSubmission(ctx context.Context, id string, cause error) {
	d, err := m.mutate(ctx, systemActor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		if d.Status != entity.DisputeEvidenceSubmitted {
			return errSkip
		}
		d.LastSubmissionError = cause.Error()
		return m.transition(ctx, r, d, entity.DisputeEscalated, ActorSystem, ReasonCarrierSubmissionFailed)
	})
	if err != nil {
		if !errors.Is(err, errSkip) {
			m.Log.Error().Err(err).Str("dispute_id", id).Msg("no se pudo escalar la disputa")
		}
		return
	}
	m.Log.Warn().Str("dispute_id", id).Str("reason", ReasonCarrierSubmissionFailed).Msg("disputa escalada a revisión manual")
	m.notify(d.CompanyID, "weight_dispute_escalated", disputeParams(d))
}

// RecoverStuckSubmissions re-encola las disputas que quedaron en evidence_submitted sin envío.
func (m *Manager) RecoverStuckSubmissions(ctx context.Context) (int, error) {
	ids, err := m.Disputes.ListStuckSubmissions(ctx, m.now().Add(-m.cfg.StuckAfter), m.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		m.enqueueSubmission(id)
	}
	if len(ids) > 0 {
		m.Log.Info().Int("count", len(ids)).Msg("envíos pendientes re-encolados")
	}
	return len(ids), nil
}
