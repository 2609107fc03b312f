package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/pricing"
)

type usageReader interface {
	Snapshot() pricing.UsageSnapshot
}

// HealthHandler estado del servicio y uso del motor de tarifas.
type HealthHandler struct {
	usage usageReader
	name  string
}

func NewHealthHandler(name string, usage usageReader) *HealthHandler {
	return &HealthHandler{usage: usage, name: name}
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": h.name,
		"pricing": h.usage.Snapshot(),
	})
}

// PricingUsage godoc
// @Summary      Uso de tarifas: ratecard vs tabla de zonas
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  pricing.UsageSnapshot
// @Router       /api/pricing/usage [get]
func (h *HealthHandler) PricingUsage(c *fiber.Ctx) error {
	return c.JSON(h.usage.Snapshot())
}
