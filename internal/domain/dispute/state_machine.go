// Package dispute reglas puras de disputas de peso: transiciones, resultados, categoría y prioridad.
package dispute

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

var allowedTransitions = map[entity.DisputeStatus][]entity.DisputeStatus{
	entity.DisputePending: {
		entity.DisputeAccepted,
		entity.DisputeEvidenceSubmitted,
		entity.DisputeAutoAccepted,
		entity.DisputeEscalated,
		entity.DisputeWithdrawn,
	},
	entity.DisputeEvidenceSubmitted: {
		entity.DisputeUnderReview,
		entity.DisputeEscalated,
		entity.DisputeWithdrawn,
	},
	entity.DisputeUnderReview: {
		entity.DisputeResolvedInFavor,
		entity.DisputeResolvedAgainst,
		entity.DisputePartial,
		entity.DisputeEscalated,
		entity.DisputeWithdrawn,
	},
	entity.DisputeEscalated: {
		entity.DisputeResolvedInFavor,
		entity.DisputeResolvedAgainst,
		entity.DisputePartial,
		entity.DisputeWithdrawn,
	},
}

// CanTransition indica si from → to está permitido.
func CanTransition(from, to entity.DisputeStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition devuelve ErrInvalidTransition si from → to no está permitido.
func ValidateTransition(from, to entity.DisputeStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

// Transition aplica el cambio de estado sobre d y devuelve la fila de auditoría.
func Transition(d *entity.WeightDispute, to entity.DisputeStatus, actor, reason string, now time.Time) (entity.DisputeStateHistory, error) {
	if err := ValidateTransition(d.Status, to); err != nil {
		return entity.DisputeStateHistory{}, err
	}
	h := entity.DisputeStateHistory{
		ID:        uuid.New().String(),
		DisputeID: d.ID,
		From:      d.Status,
		To:        to,
		Actor:     actor,
		Reason:    reason,
		CreatedAt: now,
	}
	d.Status = to
	d.UpdatedAt = now
	if to == entity.DisputeEscalated {
		d.EscalationReason = reason
	}
	return h, nil
}
