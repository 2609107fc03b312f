package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: peso 0", domain.ErrInvalidMeasurement), fiber.StatusBadRequest, "INVALID_MEASUREMENT"},
		{fmt.Errorf("%w: falta sku", domain.ErrInvalidInput), fiber.StatusBadRequest, "VALIDATION"},
		{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrLockNotObtained, fiber.StatusLocked, "LOCKED"},
		{domain.ErrPricingUnavailable, fiber.StatusServiceUnavailable, "PRICING_UNAVAILABLE"},
		{errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestValidationDetails_UsaNombreJSON(t *testing.T) {
	type req struct {
		WeightKg float64 `json:"weight_kg" validate:"required,gt=0"`
		Action   string  `json:"action" validate:"oneof=approve reject"`
	}
	err := validate.Struct(req{Action: "x"})
	details := validationDetails(err)
	assert.Equal(t, "required", details["weight_kg"])
	assert.Equal(t, "oneof=approve reject", details["action"])
}
