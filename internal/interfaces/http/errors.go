package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrInvalidMeasurement antes que ErrInvalidInput.
var errorMappings = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidMeasurement, fiber.StatusBadRequest, "INVALID_MEASUREMENT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicateDispute, fiber.StatusConflict, "DUPLICATE_DISPUTE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrSettlementAlreadyApplied, fiber.StatusConflict, "SETTLEMENT_APPLIED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrLockNotObtained, fiber.StatusLocked, "LOCKED"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrPricingUnavailable, fiber.StatusServiceUnavailable, "PRICING_UNAVAILABLE"},
	{domain.ErrCarrierSubmissionFailed, fiber.StatusBadGateway, "CARRIER_UNAVAILABLE"},
}

// StatusFor traduce un error de dominio a status HTTP y código.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse. suggestions solo se adjunta en errores 4xx.
func writeError(c *fiber.Ctx, err error, suggestions ...string) error {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	out := dto.ErrorResponse{Code: code, Message: msg}
	if status < fiber.StatusInternalServerError && len(suggestions) > 0 {
		out.Suggestions = suggestions
	}
	return c.Status(status).JSON(out)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
}
