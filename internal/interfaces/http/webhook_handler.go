package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/detection"
	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// HeaderWebhookToken token compartido por transportadora.
const HeaderWebhookToken = "X-Webhook-Token"

type observationParser interface {
	Parse(carrierID string, body []byte) ([]entity.CarrierObservation, error)
}

type observationProcessor interface {
	Process(ctx context.Context, obs entity.CarrierObservation) (*detection.Result, error)
}

type carrierResponder interface {
	ApplyCarrierResponse(ctx context.Context, resp dispute.CarrierResponse) (*entity.WeightDispute, error)
}

// WebhookHandler ingreso de pesos y respuestas de transportadoras.
type WebhookHandler struct {
	parser    observationParser
	processor observationProcessor
	responder carrierResponder
	tokens    map[string]string
	log       *logger.Logger
}

// NewWebhookHandler tokens vacío desactiva la verificación (solo desarrollo).
func NewWebhookHandler(parser observationParser, processor observationProcessor, responder carrierResponder, tokens map[string]string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, processor: processor, responder: responder, tokens: tokens, log: log}
}

// VerifyToken middleware: compara X-Webhook-Token con el token de la transportadora de la ruta.
func (h *WebhookHandler) VerifyToken(c *fiber.Ctx) error {
	if len(h.tokens) == 0 {
		return c.Next()
	}
	want, ok := h.tokens[strings.ToLower(c.Params("carrier"))]
	got := c.Get(HeaderWebhookToken)
	if !ok || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_WEBHOOK_TOKEN", Message: "token de webhook inválido"})
	}
	return c.Next()
}

// Ingest godoc
// @Summary      Recibir eventos de peso de una transportadora
// @Description  Normaliza el payload propio de cada transportadora y procesa cada evento por separado.
// @Description  Los eventos inválidos se rechazan sin afectar a los demás; si alguno falla por causa transitoria responde 503 para que la transportadora reintente.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        carrier          path    string  true  "Transportadora (velocity, ekart, delhivery u otra con payload genérico)"
// @Param        X-Webhook-Token  header  string  false "Token compartido"
// @Success      200  {object}  dto.WebhookResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.WebhookResponse
// @Router       /api/webhooks/{carrier} [post]
func (h *WebhookHandler) Ingest(c *fiber.Ctx) error {
	carrier := strings.ToLower(c.Params("carrier"))
	observations, err := h.parser.Parse(carrier, c.Body())
	if err != nil {
		h.log.Warn().Err(err).Str("carrier", carrier).Msg("payload de webhook inválido")
		return writeError(c, err)
	}

	out := dto.WebhookResponse{Carrier: carrier, Results: make([]dto.WebhookEventResult, 0, len(observations))}
	retry := false
	for _, obs := range observations {
		item := dto.WebhookEventResult{TrackingID: obs.TrackingID}
		res, err := h.processor.Process(c.UserContext(), obs)
		switch {
		case err == nil:
			out.Accepted++
			item.ShipmentID = res.ShipmentID
			item.Outcome = string(res.Outcome)
			item.DisputeID = res.DisputeID
			item.Percentage = res.Discrepancy.Percentage
		case permanentEventError(err):
			out.Rejected++
			item.Outcome = "rejected"
			item.Error = err.Error()
		default:
			retry = true
			out.Rejected++
			item.Outcome = "failed"
			item.Error = "error transitorio, reintente"
			h.log.Error().Err(err).Str("carrier", carrier).Str("tracking_id", obs.TrackingID).Msg("falló el procesamiento del evento de peso")
		}
		out.Results = append(out.Results, item)
	}
	if retry {
		return c.Status(fiber.StatusServiceUnavailable).JSON(out)
	}
	return c.JSON(out)
}

// permanentEventError errores que no se resuelven reintentando el mismo evento.
func permanentEventError(err error) bool {
	return errors.Is(err, domain.ErrInvalidMeasurement) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict)
}

// CarrierResponse godoc
// @Summary      Respuesta de la transportadora a una disputa
// @Description  Se correlaciona por el número de referencia devuelto al enviar la disputa.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        carrier          path    string                      true   "Transportadora"
// @Param        X-Webhook-Token  header  string                      false  "Token compartido"
// @Param        body             body    dto.CarrierResponseRequest  true   "Resultado"
// @Success      200  {object}  dto.DisputeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/webhooks/{carrier}/responses [post]
func (h *WebhookHandler) CarrierResponse(c *fiber.Ctx) error {
	var in dto.CarrierResponseRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	d, err := h.responder.ApplyCarrierResponse(c.UserContext(), dispute.CarrierResponse{
		CarrierID: strings.ToLower(c.Params("carrier")),
		Reference: strings.TrimSpace(in.Reference),
		Outcome:   dispute.CarrierOutcome(in.Outcome),
		WeightKg:  in.WeightKg,
		Notes:     in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDispute(d))
}
