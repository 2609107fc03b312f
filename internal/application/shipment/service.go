// Package shipment registra envíos con su peso declarado.
package shipment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/skuweight"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// WeightSuggester peso aprendido o congelado del SKU.
type WeightSuggester interface {
	SuggestWeight(ctx context.Context, companyID, sku string) (*skuweight.Suggestion, error)
}

// RegisterInput Weight 0 pide la sugerencia del SKU (solo envíos de un SKU).
type RegisterInput struct {
	CompanyID          string
	OrderID            string
	TrackingID         string
	CarrierID          string
	OriginPincode      string
	DestinationPincode string
	PaymentMode        entity.PaymentMode
	CODAmount          decimal.Decimal
	DimDivisor         float64
	Items              []entity.ShipmentItem
	Weight             float64
	Unit               string
	Dimensions         *weight.Dimensions
	DimUnit            string
}

type Service struct {
	repo      repository.ShipmentRepository
	suggester WeightSuggester
	log       *logger.Logger
	now       func() time.Time
}

// NewService suggester puede ser nil.
func NewService(repo repository.ShipmentRepository, suggester WeightSuggester, log *logger.Logger) *Service {
	return &Service{repo: repo, suggester: suggester, log: log, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Shipment, error) {
	in.TrackingID = strings.ToUpper(strings.TrimSpace(in.TrackingID))
	if in.CompanyID == "" || in.TrackingID == "" {
		return nil, fmt.Errorf("%w: empresa y guía son requeridas", domain.ErrInvalidInput)
	}
	if in.PaymentMode == "" {
		in.PaymentMode = entity.PaymentPrepaid
	}
	if in.PaymentMode != entity.PaymentPrepaid && in.PaymentMode != entity.PaymentCOD {
		return nil, fmt.Errorf("%w: modalidad de pago %q", domain.ErrInvalidInput, in.PaymentMode)
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.SKU) == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: cada ítem requiere SKU y cantidad positiva", domain.ErrInvalidInput)
		}
	}

	sh := &entity.Shipment{
		ID:                 uuid.New().String(),
		CompanyID:          in.CompanyID,
		OrderID:            in.OrderID,
		TrackingID:         in.TrackingID,
		CarrierID:          strings.ToLower(strings.TrimSpace(in.CarrierID)),
		OriginPincode:      strings.TrimSpace(in.OriginPincode),
		DestinationPincode: strings.TrimSpace(in.DestinationPincode),
		PaymentMode:        in.PaymentMode,
		CODAmount:          in.CODAmount,
		DimDivisor:         in.DimDivisor,
		Items:              in.Items,
		WeightStatus:       entity.WeightPending,
		CreatedAt:          s.now(),
	}
	sh.UpdatedAt = sh.CreatedAt

	declared, err := s.declared(ctx, sh, in)
	if err != nil {
		return nil, err
	}
	if sh.Weights, err = entity.NewWeightRecord(declared); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}
	s.log.Info().Str("shipment_id", sh.ID).Str("tracking_id", sh.TrackingID).Str("company_id", sh.CompanyID).
		Float64("declared_kg", declared.ValueKg).Msg("envío registrado")
	return sh, nil
}

func (s *Service) declared(ctx context.Context, sh *entity.Shipment, in RegisterInput) (entity.WeightObservation, error) {
	obs := entity.WeightObservation{Stage: entity.StageDeclared, Source: entity.SourceManual, ObservedAt: sh.CreatedAt}
	if in.Dimensions != nil {
		unit, err := weight.ParseLengthUnit(in.DimUnit)
		if err != nil {
			return obs, err
		}
		dims, err := weight.ToCentimeters(*in.Dimensions, unit)
		if err != nil {
			return obs, err
		}
		obs.Dimensions = &dims
	}

	if in.Weight > 0 {
		unit, err := weight.ParseUnit(in.Unit)
		if err != nil {
			return obs, err
		}
		if obs.ValueKg, err = weight.ToKilograms(in.Weight, unit); err != nil {
			return obs, err
		}
		return obs, nil
	}

	sku, qty, ok := sh.SingleSKU()
	if !ok || s.suggester == nil {
		return obs, fmt.Errorf("%w: peso declarado requerido", domain.ErrInvalidMeasurement)
	}
	sug, err := s.suggester.SuggestWeight(ctx, sh.CompanyID, sku)
	if err != nil {
		return obs, err
	}
	if sug == nil {
		return obs, fmt.Errorf("%w: el SKU %s no tiene peso sugerido; ingrese el peso manualmente", domain.ErrInvalidMeasurement, sku)
	}
	obs.ValueKg = weight.Round(sug.WeightKg * float64(qty))
	obs.Location = "sku:" + string(sug.Source)
	return obs, nil
}

// Get envío de la empresa; companyID vacío omite el control (personal interno).
func (s *Service) Get(ctx context.Context, companyID, id string) (*entity.Shipment, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh == nil || (companyID != "" && sh.CompanyID != companyID) {
		return nil, domain.ErrNotFound
	}
	return sh, nil
}
