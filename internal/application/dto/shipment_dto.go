package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ShipmentItemRequest línea del envío.
type ShipmentItemRequest struct {
	SKU      string `json:"sku" validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateShipmentRequest body de POST /api/shipments. Sin weight se usa el peso sugerido del SKU.
type CreateShipmentRequest struct {
	CompanyID          string                `json:"company_id"`
	OrderID            string                `json:"order_id"`
	TrackingID         string                `json:"tracking_id" validate:"required,max=64"`
	CarrierID          string                `json:"carrier_id" validate:"required,max=64"`
	OriginPincode      string                `json:"origin_pincode" validate:"required,len=6,numeric"`
	DestinationPincode string                `json:"destination_pincode" validate:"required,len=6,numeric"`
	PaymentMode        string                `json:"payment_mode" validate:"omitempty,oneof=prepaid cod"`
	CODAmount          decimal.Decimal       `json:"cod_amount"`
	DimDivisor         float64               `json:"dim_divisor" validate:"omitempty,gt=0"`
	Items              []ShipmentItemRequest `json:"items" validate:"dive"`
	Weight             float64               `json:"weight" validate:"omitempty,gt=0"`
	Unit               string                `json:"unit"`
	Dimensions         *weight.Dimensions    `json:"dimensions"`
	DimUnit            string                `json:"dim_unit"`
}

// ShipmentResponse envío con su historial de pesos.
type ShipmentResponse struct {
	ID                 string                     `json:"id"`
	CompanyID          string                     `json:"company_id"`
	OrderID            string                     `json:"order_id,omitempty"`
	TrackingID         string                     `json:"tracking_id"`
	CarrierID          string                     `json:"carrier_id"`
	OriginPincode      string                     `json:"origin_pincode"`
	DestinationPincode string                     `json:"destination_pincode"`
	PaymentMode        string                     `json:"payment_mode"`
	Items              []entity.ShipmentItem      `json:"items"`
	WeightStatus       string                     `json:"weight_status"`
	Weights            []entity.WeightObservation `json:"weights"`
	CreatedAt          time.Time                  `json:"created_at"`
}

func FromShipment(s *entity.Shipment) ShipmentResponse {
	items := s.Items
	if items == nil {
		items = []entity.ShipmentItem{}
	}
	return ShipmentResponse{
		ID:                 s.ID,
		CompanyID:          s.CompanyID,
		OrderID:            s.OrderID,
		TrackingID:         s.TrackingID,
		CarrierID:          s.CarrierID,
		OriginPincode:      s.OriginPincode,
		DestinationPincode: s.DestinationPincode,
		PaymentMode:        string(s.PaymentMode),
		Items:              items,
		WeightStatus:       string(s.WeightStatus),
		Weights:            s.Weights.Observations,
		CreatedAt:          s.CreatedAt,
	}
}
