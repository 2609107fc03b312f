// Package weight normaliza pesos y dimensiones y calcula peso volumétrico y facturable.
// Funciones puras, sin estado.
package weight

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidMeasurement peso o dimensión no positivo o con unidad desconocida.
var ErrInvalidMeasurement = errors.New("medición inválida")

// DefaultDivisor divisor volumétrico más común entre transportadoras (cm³/kg).
const DefaultDivisor = 5000.0

// Unit unidad de masa.
type Unit string

const (
	Gram     Unit = "g"
	Kilogram Unit = "kg"
	Pound    Unit = "lb"
)

// LengthUnit unidad de longitud.
type LengthUnit string

const (
	Centimeter LengthUnit = "cm"
	Millimeter LengthUnit = "mm"
	Inch       LengthUnit = "in"
)

// Dimensions largo × ancho × alto en centímetros.
type Dimensions struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

// Validate exige las tres medidas positivas.
func (d Dimensions) Validate() error {
	if !positive(d.LengthCm) || !positive(d.WidthCm) || !positive(d.HeightCm) {
		return fmt.Errorf("%w: dimensiones %.2fx%.2fx%.2f", ErrInvalidMeasurement, d.LengthCm, d.WidthCm, d.HeightCm)
	}
	return nil
}

// Volume volumen en cm³.
func (d Dimensions) Volume() float64 {
	return d.LengthCm * d.WidthCm * d.HeightCm
}

// ParseUnit acepta las variantes que envían las transportadoras ("GM", "grams", "KGS"...).
func ParseUnit(raw string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "g", "gm", "gms", "gr", "gram", "grams":
		return Gram, nil
	case "", "kg", "kgs", "kilogram", "kilograms":
		return Kilogram, nil
	case "lb", "lbs", "pound", "pounds":
		return Pound, nil
	}
	return "", fmt.Errorf("%w: unidad %q", ErrInvalidMeasurement, raw)
}

// ParseLengthUnit igual que ParseUnit para longitudes; vacío = cm.
func ParseLengthUnit(raw string) (LengthUnit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "cm", "cms", "centimeter", "centimeters":
		return Centimeter, nil
	case "mm", "millimeter", "millimeters":
		return Millimeter, nil
	case "in", "inch", "inches":
		return Inch, nil
	}
	return "", fmt.Errorf("%w: unidad de longitud %q", ErrInvalidMeasurement, raw)
}

// ToKilograms convierte value en la unidad dada a kilogramos (3 decimales).
func ToKilograms(value float64, unit Unit) (float64, error) {
	if !positive(value) {
		return 0, fmt.Errorf("%w: peso %v", ErrInvalidMeasurement, value)
	}
	switch unit {
	case Gram:
		return Round(value / 1000), nil
	case Kilogram:
		return Round(value), nil
	case Pound:
		return Round(value * 0.45359237), nil
	}
	return 0, fmt.Errorf("%w: unidad %q", ErrInvalidMeasurement, unit)
}

// ToCentimeters normaliza dimensiones a centímetros.
func ToCentimeters(d Dimensions, unit LengthUnit) (Dimensions, error) {
	var f float64
	switch unit {
	case Centimeter:
		f = 1
	case Millimeter:
		f = 0.1
	case Inch:
		f = 2.54
	default:
		return Dimensions{}, fmt.Errorf("%w: unidad de longitud %q", ErrInvalidMeasurement, unit)
	}
	out := Dimensions{LengthCm: d.LengthCm * f, WidthCm: d.WidthCm * f, HeightCm: d.HeightCm * f}
	if err := out.Validate(); err != nil {
		return Dimensions{}, err
	}
	return out, nil
}

// VolumetricWeight (L×W×H)/divisor en kg.
func VolumetricWeight(d Dimensions, divisor float64) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if !positive(divisor) {
		return 0, fmt.Errorf("%w: divisor %v", ErrInvalidMeasurement, divisor)
	}
	return Round(d.Volume() / divisor), nil
}

// ChargeableWeight max(actual, volumétrico). volumetric = 0 significa "sin dimensiones".
func ChargeableWeight(actual, volumetric float64) (float64, error) {
	if !positive(actual) {
		return 0, fmt.Errorf("%w: peso real %v", ErrInvalidMeasurement, actual)
	}
	if volumetric < 0 || math.IsNaN(volumetric) || math.IsInf(volumetric, 0) {
		return 0, fmt.Errorf("%w: peso volumétrico %v", ErrInvalidMeasurement, volumetric)
	}
	return Round(math.Max(actual, volumetric)), nil
}

// Chargeable calcula el peso facturable de un peso real y dimensiones opcionales.
// Devuelve también el volumétrico (0 si dims es nil).
func Chargeable(actual float64, dims *Dimensions, divisor float64) (chargeable, volumetric float64, err error) {
	if dims != nil {
		volumetric, err = VolumetricWeight(*dims, divisor)
		if err != nil {
			return 0, 0, err
		}
	}
	chargeable, err = ChargeableWeight(actual, volumetric)
	if err != nil {
		return 0, 0, err
	}
	return chargeable, volumetric, nil
}

// PercentDifference |reported − declared| / declared × 100, redondeado a 2 decimales.
func PercentDifference(declared, reported float64) (float64, error) {
	if !positive(declared) {
		return 0, fmt.Errorf("%w: peso declarado %v", ErrInvalidMeasurement, declared)
	}
	if reported < 0 || math.IsNaN(reported) {
		return 0, fmt.Errorf("%w: peso reportado %v", ErrInvalidMeasurement, reported)
	}
	return math.Round(math.Abs(reported-declared)/declared*100*100) / 100, nil
}

// Round redondea a gramos (3 decimales).
func Round(kg float64) float64 {
	return math.Round(kg*1000) / 1000
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
