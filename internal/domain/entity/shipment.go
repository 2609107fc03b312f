package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode modalidad de pago del envío.
type PaymentMode string

const (
	PaymentPrepaid PaymentMode = "prepaid"
	PaymentCOD     PaymentMode = "cod"
)

// WeightStatus estado de verificación del peso del envío.
type WeightStatus string

const (
	WeightPending  WeightStatus = "pending"
	WeightVerified WeightStatus = "verified"
	WeightDisputed WeightStatus = "disputed"
	WeightResolved WeightStatus = "resolved"
)

// ShipmentItem línea de producto dentro del envío.
type ShipmentItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Shipment agregado dueño del historial de pesos. La disputa lo referencia solo por ID.
type Shipment struct {
	ID                 string
	CompanyID          string
	OrderID            string
	TrackingID         string
	CarrierID          string
	OriginPincode      string
	DestinationPincode string
	PaymentMode        PaymentMode
	CODAmount          decimal.Decimal
	DimDivisor         float64
	Items              []ShipmentItem
	Weights            WeightRecord
	WeightStatus       WeightStatus
	PackedAt           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SingleSKU devuelve el SKU y la cantidad si el envío contiene un único SKU.
func (s *Shipment) SingleSKU() (string, int, bool) {
	if len(s.Items) != 1 || s.Items[0].SKU == "" || s.Items[0].Quantity <= 0 {
		return "", 0, false
	}
	return s.Items[0].SKU, s.Items[0].Quantity, true
}

// PackingTime momento de empaque (o de creación si no se registró).
func (s *Shipment) PackingTime() time.Time {
	if s.PackedAt != nil {
		return *s.PackedAt
	}
	if obs, ok := s.Weights.Latest(StagePacked); ok {
		return obs.ObservedAt
	}
	return s.CreatedAt
}
