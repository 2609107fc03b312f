package http

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/application/reconciliation"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// maxMISBytes tamaño máximo del archivo MIS.
const maxMISBytes = 20 << 20

type reconciliationService interface {
	Run(ctx context.Context, in reconciliation.Input) (*entity.ReconciliationReport, error)
	GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error)
	ListRuns(ctx context.Context, carrierID, billingMonth string) ([]*entity.ReconciliationRun, error)
	Report(ctx context.Context, runID, format string) ([]byte, string, error)
}

var misUploadSuggestions = []string{
	"Envíe el archivo MIS (CSV o XLSX) en el campo file junto con carrier_id y billing_month (YYYY-MM).",
	"El archivo debe tener columnas de guía (AWB), peso cobrado y monto.",
}

// ReconciliationHandler conciliación de facturas de transportadoras.
type ReconciliationHandler struct {
	svc reconciliationService
}

func NewReconciliationHandler(svc reconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Upload godoc
// @Summary      Conciliar un archivo MIS
// @Description  Cada carga crea una versión nueva para carrier/mes. Las filas inválidas se reportan sin abortar el lote.
// @Tags         reconciliations
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true  "CSV o XLSX"
// @Param        carrier_id     formData  string  true  "Transportadora"
// @Param        billing_month  formData  string  true  "Mes de facturación YYYY-MM"
// @Success      201  {object}  dto.ReconciliationResultResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/reconciliations [post]
func (h *ReconciliationHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "MISSING_FILE", Message: "el campo file es requerido", Suggestions: misUploadSuggestions,
		})
	}
	if fh.Size > maxMISBytes {
		return badRequest(c, "FILE_TOO_LARGE", fmt.Sprintf("el archivo supera %d MB", maxMISBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, err)
	}

	rep, err := h.svc.Run(c.UserContext(), reconciliation.Input{
		CarrierID:    strings.TrimSpace(c.FormValue("carrier_id")),
		BillingMonth: strings.TrimSpace(c.FormValue("billing_month")),
		Filename:     fh.Filename,
		Content:      content,
		CreatedBy:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err, misUploadSuggestions...)
	}
	lines := rep.Lines
	if lines == nil {
		lines = []entity.ReconciliationLine{}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReconciliationResultResponse{
		Run:   dto.FromReconciliationRun(&rep.Run),
		Lines: lines,
	})
}

// List godoc
// @Summary      Listar versiones de conciliación
// @Tags         reconciliations
// @Security     Bearer
// @Produce      json
// @Param        carrier_id     query  string  false  "Transportadora"
// @Param        billing_month  query  string  false  "YYYY-MM"
// @Success      200  {array}  dto.ReconciliationRunResponse
// @Router       /api/reconciliations [get]
func (h *ReconciliationHandler) List(c *fiber.Ctx) error {
	runs, err := h.svc.ListRuns(c.UserContext(), c.Query("carrier_id"), c.Query("billing_month"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReconciliationRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, dto.FromReconciliationRun(r))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener una versión de conciliación
// @Tags         reconciliations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la corrida"
// @Success      200  {object}  dto.ReconciliationRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliations/{id} [get]
func (h *ReconciliationHandler) Get(c *fiber.Ctx) error {
	run, err := h.svc.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromReconciliationRun(run))
}

// Report godoc
// @Summary      Descargar el reporte de conciliación
// @Tags         reconciliations
// @Security     Bearer
// @Produce      json
// @Produce      application/pdf
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id      path   string  true   "ID de la corrida"
// @Param        format  query  string  false  "json, xlsx o pdf"  default(json)
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliations/{id}/report [get]
func (h *ReconciliationHandler) Report(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "json"))
	data, contentType, err := h.svc.Report(c.UserContext(), c.Params("id"), format)
	if err != nil {
		return writeError(c, err)
	}
	if format != "json" {
		c.Attachment(fmt.Sprintf("conciliacion-%s.%s", c.Params("id"), format))
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
