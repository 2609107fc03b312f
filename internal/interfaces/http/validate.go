package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
)

var validate = newValidator()

// newValidator reporta los campos con su nombre json (o query).
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// bindJSON parsea el cuerpo y aplica las reglas `validate`. ok=false significa que ya se respondió 400.
func bindJSON(c *fiber.Ctx, out interface{}, suggestions ...string) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo inválido", Suggestions: suggestions,
		})
	}
	return checkStruct(c, out, suggestions...)
}

// bindQuery igual que bindJSON sobre la query string.
func bindQuery(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.QueryParser(out); err != nil {
		return false, badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	return checkStruct(c, out)
}

func checkStruct(c *fiber.Ctx, out interface{}, suggestions ...string) (bool, error) {
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:        "VALIDATION",
			Message:     "datos inválidos",
			Suggestions: suggestions,
			Details:     validationDetails(err),
		})
	}
	return true, nil
}

// validationDetails campo -> regla incumplida ("weight_kg" -> "gt=0").
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
