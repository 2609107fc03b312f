package domain

import (
	"errors"

	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// Errores de dominio.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	ErrInvalidMeasurement       = weight.ErrInvalidMeasurement
	ErrPricingUnavailable       = errors.New("motor de tarifas no disponible")
	ErrDuplicateDispute         = errors.New("ya existe una disputa abierta para el envío")
	ErrSettlementAlreadyApplied = errors.New("la liquidación ya fue aplicada")
	ErrCarrierSubmissionFailed  = errors.New("falló el envío de la disputa a la transportadora")
	ErrInvalidTransition        = errors.New("transición de estado no permitida")
	ErrLockNotObtained          = errors.New("no se pudo obtener el bloqueo del envío")
)
