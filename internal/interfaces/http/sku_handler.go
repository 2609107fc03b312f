package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/application/skuweight"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

type skuWeightService interface {
	Get(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error)
	Freeze(ctx context.Context, companyID, sku string, in skuweight.FreezeInput) (*entity.SKUWeightMaster, error)
	Unfreeze(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error)
	SuggestWeight(ctx context.Context, companyID, sku string) (*skuweight.Suggestion, error)
}

var freezeSuggestions = []string{
	"Indique weight_kg en kilogramos, mayor que 0 y hasta 1000.",
	"expires_at es opcional; si se envía debe ser una fecha futura en formato RFC3339.",
}

// SKUHandler baseline de peso por SKU.
type SKUHandler struct {
	svc skuWeightService
}

func NewSKUHandler(svc skuWeightService) *SKUHandler {
	return &SKUHandler{svc: svc}
}

// Get godoc
// @Summary      Baseline de peso del SKU
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        sku         path   string  true   "SKU"
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Success      200  {object}  dto.SKUWeightResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/skus/{sku} [get]
func (h *SKUHandler) Get(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	m, err := h.svc.Get(c.UserContext(), companyID, c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSKUWeight(m))
}

// Freeze godoc
// @Summary      Congelar el peso del SKU
// @Description  El peso congelado tiene prioridad sobre el aprendido hasta que vence o se descongela.
// @Tags         skus
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku         path   string                true   "SKU"
// @Param        company_id  query  string                false  "Empresa (solo staff)"
// @Param        body        body   dto.FreezeSKURequest  true   "Peso y vencimiento"
// @Success      200  {object}  dto.SKUWeightResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/skus/{sku}/freeze [post]
func (h *SKUHandler) Freeze(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.FreezeSKURequest
	if ok, err := bindJSON(c, &in, freezeSuggestions...); !ok {
		return err
	}
	m, err := h.svc.Freeze(c.UserContext(), companyID, c.Params("sku"), skuweight.FreezeInput{
		WeightKg:  in.WeightKg,
		Reason:    strings.TrimSpace(in.Reason),
		ExpiresAt: in.ExpiresAt,
		FrozenBy:  GetUserID(c),
	})
	if err != nil {
		return writeError(c, err, freezeSuggestions...)
	}
	return c.JSON(dto.FromSKUWeight(m))
}

// Unfreeze godoc
// @Summary      Descongelar el peso del SKU
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        sku         path   string  true   "SKU"
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Success      200  {object}  dto.SKUWeightResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/skus/{sku}/freeze [delete]
func (h *SKUHandler) Unfreeze(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	m, err := h.svc.Unfreeze(c.UserContext(), companyID, c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSKUWeight(m))
}

// Suggest godoc
// @Summary      Peso sugerido para una orden nueva
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        sku         path   string  true   "SKU"
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Success      200  {object}  dto.WeightSuggestionResponse
// @Router       /api/skus/{sku}/suggestion [get]
func (h *SKUHandler) Suggest(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	sku := strings.TrimSpace(c.Params("sku"))
	s, err := h.svc.SuggestWeight(c.UserContext(), companyID, sku)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.WeightSuggestionResponse{SKU: sku}
	if s != nil {
		out.SKU = s.SKU
		out.Available = true
		out.WeightKg = s.WeightKg
		out.Source = string(s.Source)
		out.Confidence = s.Confidence
	}
	return c.JSON(out)
}
