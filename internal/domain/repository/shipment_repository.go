package repository

import (
	"context"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// ShipmentRepository puerto de persistencia del agregado envío.
// Los métodos Get devuelven (nil, nil) si no existe.
type ShipmentRepository interface {
	Create(ctx context.Context, s *entity.Shipment) error
	GetByID(ctx context.Context, id string) (*entity.Shipment, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*entity.Shipment, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Shipment, error)
	// UpdateWeights persiste historial de pesos y estado de verificación.
	UpdateWeights(ctx context.Context, s *entity.Shipment) error
}
