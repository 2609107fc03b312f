package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/application/shipment"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

type shipmentService interface {
	Register(ctx context.Context, in shipment.RegisterInput) (*entity.Shipment, error)
	Get(ctx context.Context, companyID, id string) (*entity.Shipment, error)
}

// ShipmentHandler registro de envíos con su peso declarado.
type ShipmentHandler struct {
	svc shipmentService
}

func NewShipmentHandler(svc shipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar envío
// @Description  Sin weight se usa el peso sugerido del SKU (solo envíos de un SKU).
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateShipmentRequest  true  "Datos del envío"
// @Success      201  {object}  dto.ShipmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/shipments [post]
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateShipmentRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	companyID := companyScope(c, in.CompanyID)
	if companyID == "" {
		return unauthorized(c)
	}
	items := make([]entity.ShipmentItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.ShipmentItem{SKU: it.SKU, Quantity: it.Quantity})
	}
	sh, err := h.svc.Register(c.UserContext(), shipment.RegisterInput{
		CompanyID:          companyID,
		OrderID:            in.OrderID,
		TrackingID:         in.TrackingID,
		CarrierID:          in.CarrierID,
		OriginPincode:      in.OriginPincode,
		DestinationPincode: in.DestinationPincode,
		PaymentMode:        entity.PaymentMode(in.PaymentMode),
		CODAmount:          in.CODAmount,
		DimDivisor:         in.DimDivisor,
		Items:              items,
		Weight:             in.Weight,
		Unit:               in.Unit,
		Dimensions:         in.Dimensions,
		DimUnit:            in.DimUnit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromShipment(sh))
}

// GetByID godoc
// @Summary      Obtener envío con su historial de pesos
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id          path   string  true   "ID del envío"
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetByID(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	sh, err := h.svc.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromShipment(sh))
}
