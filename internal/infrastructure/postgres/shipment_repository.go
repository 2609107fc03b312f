package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo implementación de ShipmentRepository (usable con pool o tx).
type ShipmentRepo struct {
	q Querier
}

// NewShipmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

const shipmentColumns = `id, company_id, order_id, tracking_id, carrier_id, origin_pincode, destination_pincode,
	payment_mode, cod_amount, dim_divisor, items, weights, weight_status, packed_at, created_at, updated_at`

func (r *ShipmentRepo) Create(ctx context.Context, s *entity.Shipment) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	items, err := toJSON(s.Items)
	if err != nil {
		return err
	}
	weights, err := toJSON(s.Weights)
	if err != nil {
		return err
	}
	query := `INSERT INTO shipments (` + shipmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.OrderID, s.TrackingID, s.CarrierID, s.OriginPincode, s.DestinationPincode,
		s.PaymentMode, s.CODAmount, s.DimDivisor, items, weights, s.WeightStatus, s.PackedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tracking %s ya registrado", domain.ErrDuplicate, s.TrackingID)
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) GetByID(ctx context.Context, id string) (*entity.Shipment, error) {
	return r.getOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

func (r *ShipmentRepo) GetByTrackingID(ctx context.Context, trackingID string) (*entity.Shipment, error) {
	return r.getOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE tracking_id = $1`, trackingID)
}

func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Shipment, error) {
	return r.getOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
}

func (r *ShipmentRepo) getOne(ctx context.Context, query string, arg string) (*entity.Shipment, error) {
	s, err := scanShipment(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return s, nil
}

// UpdateWeights persiste historial de pesos y estado de verificación.
func (r *ShipmentRepo) UpdateWeights(ctx context.Context, s *entity.Shipment) error {
	weights, err := toJSON(s.Weights)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE shipments
		SET weights = $2, weight_status = $3, packed_at = COALESCE($4, packed_at), updated_at = $5
		WHERE id = $1`,
		s.ID, weights, s.WeightStatus, s.PackedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update shipment weights: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanShipment(row pgx.Row) (*entity.Shipment, error) {
	var s entity.Shipment
	var items, weights []byte
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.OrderID, &s.TrackingID, &s.CarrierID, &s.OriginPincode, &s.DestinationPincode,
		&s.PaymentMode, &s.CODAmount, &s.DimDivisor, &items, &weights, &s.WeightStatus, &s.PackedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(items, &s.Items); err != nil {
		return nil, err
	}
	if err := fromJSON(weights, &s.Weights); err != nil {
		return nil, err
	}
	return &s, nil
}
