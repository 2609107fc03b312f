package http

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

type disputeService interface {
	Get(ctx context.Context, actor dispute.Actor, id string) (*dispute.Details, error)
	List(ctx context.Context, actor dispute.Actor, f entity.DisputeFilter) ([]*entity.WeightDispute, int, error)
	Accept(ctx context.Context, actor dispute.Actor, id string) (*entity.WeightDispute, error)
	Reject(ctx context.Context, actor dispute.Actor, id, notes string) (*entity.WeightDispute, error)
	AddEvidence(ctx context.Context, actor dispute.Actor, id string, up dispute.EvidenceUpload) (*entity.DisputeEvidence, error)
	Review(ctx context.Context, actor dispute.Actor, id string, in dispute.ReviewInput) (*entity.WeightDispute, error)
}

// Correcciones devueltas cuando la carga de evidencia se rechaza.
var evidenceUploadSuggestions = []string{
	"Adjunte un archivo JPG, PNG, MP4, MOV o PDF de hasta 25 MB en el campo file.",
	"Incluya una foto del paquete sobre una balanza con la lectura visible.",
	"Incluya una regla o cinta métrica junto a cada lado del paquete.",
	"La guía debe ser legible en la imagen.",
}

var rejectSuggestions = []string{
	"Cargue al menos una evidencia con POST /api/disputes/{id}/evidence antes de rechazar el peso.",
}

// DisputeHandler acciones del vendedor y del revisor sobre disputas.
type DisputeHandler struct {
	svc disputeService
}

func NewDisputeHandler(svc disputeService) *DisputeHandler {
	return &DisputeHandler{svc: svc}
}

// List godoc
// @Summary      Listar disputas
// @Description  Un vendedor solo ve las disputas de su empresa.
// @Tags         disputes
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "Estados separados por coma"
// @Param        priority    query  string  false  "low, medium, high, urgent"
// @Param        category    query  string  false  "Categoría"
// @Param        carrier_id  query  string  false  "Transportadora"
// @Param        company_id  query  string  false  "Empresa (solo staff)"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DisputeListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/disputes [get]
func (h *DisputeHandler) List(c *fiber.Ctx) error {
	var q dto.DisputeListQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	f := entity.DisputeFilter{
		CompanyID: q.CompanyID,
		CarrierID: strings.ToLower(q.CarrierID),
		Priority:  entity.DisputePriority(q.Priority),
		Category:  entity.DisputeCategory(q.Category),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, entity.DisputeStatus(s))
		}
	}
	list, total, err := h.svc.List(c.UserContext(), actorFrom(c), f)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.DisputeListResponse{
		Items: make([]dto.DisputeResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, d := range list {
		out.Items = append(out.Items, dto.FromDispute(d))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener disputa con evidencias, historial y liquidación
// @Tags         disputes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la disputa"
// @Success      200  {object}  dto.DisputeDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/disputes/{id} [get]
func (h *DisputeHandler) Get(c *fiber.Ctx) error {
	det, err := h.svc.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDisputeDetails(det.Dispute, det.History, det.Settlement))
}

// AddEvidence godoc
// @Summary      Cargar evidencia
// @Description  Guarda el archivo y devuelve la validación con sugerencias. Una evidencia débil no bloquea la carga.
// @Tags         disputes
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id           path      string  true   "ID de la disputa"
// @Param        file         formData  file    true   "Foto, video o PDF"
// @Param        captured_at  formData  string  false  "Fecha de captura RFC3339"
// @Param        has_scale    formData  bool    false  "La imagen muestra la balanza"
// @Param        has_ruler    formData  bool    false  "La imagen muestra la regla"
// @Param        has_awb      formData  bool    false  "La guía es visible"
// @Success      201  {object}  dto.EvidenceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/disputes/{id}/evidence [post]
func (h *DisputeHandler) AddEvidence(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "MISSING_FILE", Message: "el campo file es requerido", Suggestions: evidenceUploadSuggestions,
		})
	}
	if fh.Size > dispute.MaxEvidenceBytes {
		return writeError(c, fmt.Errorf("%w: el archivo supera los 25 MB", domain.ErrInvalidInput), evidenceUploadSuggestions...)
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, dispute.MaxEvidenceBytes+1))
	if err != nil {
		return writeError(c, err)
	}

	up := dispute.EvidenceUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
		HasScale:    formBool(c, "has_scale"),
		HasRuler:    formBool(c, "has_ruler"),
		HasAWB:      formBool(c, "has_awb"),
	}
	if raw := strings.TrimSpace(c.FormValue("captured_at")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "VALIDATION", "captured_at debe tener formato RFC3339")
		}
		t = t.UTC()
		up.CapturedAt = &t
	}

	ev, err := h.svc.AddEvidence(c.UserContext(), actorFrom(c), c.Params("id"), up)
	if err != nil {
		return writeError(c, err, evidenceUploadSuggestions...)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromEvidence(ev))
}

func formBool(c *fiber.Ctx, key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.FormValue(key)))
	return v
}

// Accept godoc
// @Summary      Aceptar el peso de la transportadora
// @Tags         disputes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la disputa"
// @Success      200  {object}  dto.DisputeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/disputes/{id}/accept [post]
func (h *DisputeHandler) Accept(c *fiber.Ctx) error {
	d, err := h.svc.Accept(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDispute(d))
}

// Reject godoc
// @Summary      Rechazar el peso de la transportadora
// @Description  Requiere evidencia cargada. La disputa se envía a la transportadora o se escala si el impacto es alto y la evidencia débil.
// @Tags         disputes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la disputa"
// @Param        body  body  dto.RejectDisputeRequest  false "Notas del vendedor"
// @Success      200  {object}  dto.DisputeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/disputes/{id}/reject [post]
func (h *DisputeHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectDisputeRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &in); !ok {
			return err
		}
	}
	d, err := h.svc.Reject(c.UserContext(), actorFrom(c), c.Params("id"), in.Notes)
	if err != nil {
		return writeError(c, err, rejectSuggestions...)
	}
	return c.JSON(dto.FromDispute(d))
}

// Review godoc
// @Summary      Decisión del revisor
// @Description  approve (a favor del vendedor), reject, partial (con weight_kg), escalate o withdraw.
// @Tags         disputes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la disputa"
// @Param        body  body  dto.ReviewDisputeRequest  true  "Decisión"
// @Success      200  {object}  dto.DisputeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/disputes/{id}/review [post]
func (h *DisputeHandler) Review(c *fiber.Ctx) error {
	var in dto.ReviewDisputeRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	d, err := h.svc.Review(c.UserContext(), actorFrom(c), c.Params("id"), dispute.ReviewInput{
		Action:   dispute.ReviewAction(in.Action),
		WeightKg: in.WeightKg,
		Notes:    in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDispute(d))
}
