package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/application/settings"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

type settingsService interface {
	Effective(ctx context.Context, companyID string) (entity.CompanyWeightSettings, error)
	Update(ctx context.Context, companyID string, in settings.UpdateInput) (entity.CompanyWeightSettings, error)
	ClearFraudFlag(ctx context.Context, companyID, by string) error
}

type fraudService interface {
	AnalyzeCompany(ctx context.Context, companyID string) (*entity.FraudAssessment, error)
	Latest(ctx context.Context, companyID string) (*entity.FraudAssessment, error)
}

// SettingsHandler umbrales por empresa y análisis de fraude.
type SettingsHandler struct {
	settings settingsService
	fraud    fraudService
}

func NewSettingsHandler(s settingsService, f fraudService) *SettingsHandler {
	return &SettingsHandler{settings: s, fraud: f}
}

// Get godoc
// @Summary      Configuración de disputas de la empresa
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Success      200  {object}  dto.SettingsResponse
// @Router       /api/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	s, err := h.settings.Effective(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSettings(s))
}

// Update godoc
// @Summary      Actualizar umbral y monto de alto valor
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        company_id  query  string                     false  "Empresa (solo staff)"
// @Param        body        body   dto.UpdateSettingsRequest  true   "Campos a cambiar"
// @Success      200  {object}  dto.SettingsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	companyID := companyScope(c, c.Query("company_id"))
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateSettingsRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	s, err := h.settings.Update(c.UserContext(), companyID, settings.UpdateInput{
		ThresholdPercent: in.ThresholdPercent,
		HighValueAmount:  in.HighValueAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSettings(s))
}

// LatestFraud godoc
// @Summary      Último análisis de fraude de una empresa
// @Tags         fraud
// @Security     Bearer
// @Produce      json
// @Param        company_id  path  string  true  "Empresa"
// @Success      200  {object}  dto.FraudAssessmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fraud/{company_id} [get]
func (h *SettingsHandler) LatestFraud(c *fiber.Ctx) error {
	a, err := h.fraud.Latest(c.UserContext(), c.Params("company_id"))
	if err != nil {
		return writeError(c, err)
	}
	if a == nil {
		return writeError(c, domain.ErrNotFound)
	}
	return c.JSON(dto.FromFraudAssessment(a))
}

// AnalyzeFraud godoc
// @Summary      Analizar ahora los patrones de fraude de una empresa
// @Tags         fraud
// @Security     Bearer
// @Produce      json
// @Param        company_id  path  string  true  "Empresa"
// @Success      200  {object}  dto.FraudAssessmentResponse
// @Router       /api/fraud/{company_id}/analyze [post]
func (h *SettingsHandler) AnalyzeFraud(c *fiber.Ctx) error {
	a, err := h.fraud.AnalyzeCompany(c.UserContext(), c.Params("company_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromFraudAssessment(a))
}

// ClearFraudFlag godoc
// @Summary      Retirar la marca de fraude
// @Description  La marca solo se retira manualmente.
// @Tags         fraud
// @Security     Bearer
// @Param        company_id  path  string  true  "Empresa"
// @Success      204
// @Router       /api/fraud/{company_id}/flag [delete]
func (h *SettingsHandler) ClearFraudFlag(c *fiber.Ctx) error {
	if err := h.settings.ClearFraudFlag(c.UserContext(), c.Params("company_id"), GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
