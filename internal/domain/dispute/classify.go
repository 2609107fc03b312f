package dispute

import (
	"math"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
	"github.com/shopspring/decimal"
)

// ClassificationInput datos que usa la heurística de categoría.
type ClassificationInput struct {
	Discrepancy        entity.Discrepancy
	DeclaredDimensions *weight.Dimensions
	ReportedDimensions *weight.Dimensions
	CompanyFlagged     bool
	FromInvoice        bool
}

const (
	packingToleranceKg  = 0.5
	packingTolerancePct = 25.0
	absurdRatio         = 50.0
	absurdWeightKg      = 500.0
	shapeTolerance      = 0.20
)

// Classify asigna la categoría más probable. El orden de las reglas importa.
func Classify(in ClassificationInput) entity.DisputeCategory {
	d := in.Discrepancy
	switch {
	case in.CompanyFlagged:
		return entity.CategoryFraudSuspected
	case in.FromInvoice:
		return entity.CategoryInvoiceDiscrepancy
	case d.ReportedChargeableKg < d.DeclaredChargeableKg:
		return entity.CategoryLegitimateDifference
	case d.ReportedVolumetricKg > d.ReportedKg && d.ReportedChargeableKg == d.ReportedVolumetricKg && d.ReportedVolumetricKg > d.DeclaredChargeableKg:
		return entity.CategoryVolumetric
	case isDecimalSlip(d.DeclaredKg, d.ReportedKg):
		return entity.CategoryManualError
	case d.DeclaredKg > 0 && (d.ReportedKg/d.DeclaredKg >= absurdRatio || d.ReportedKg >= absurdWeightKg):
		return entity.CategoryScannerError
	case shapeChanged(in.DeclaredDimensions, in.ReportedDimensions):
		return entity.CategoryShapeDistortion
	case d.DifferenceKg <= packingToleranceKg || d.Percentage <= packingTolerancePct:
		return entity.CategoryPackingMaterial
	default:
		return entity.CategoryScannerError
	}
}

// isDecimalSlip un factor ~10 entre declarado y reportado sugiere un error de digitación.
func isDecimalSlip(declared, reported float64) bool {
	if declared <= 0 || reported <= 0 {
		return false
	}
	ratio := reported / declared
	return math.Abs(ratio-10) <= 0.5 || math.Abs(ratio-0.1) <= 0.005
}

func shapeChanged(declared, reported *weight.Dimensions) bool {
	if declared == nil || reported == nil {
		return false
	}
	return axisChanged(declared.LengthCm, reported.LengthCm) ||
		axisChanged(declared.WidthCm, reported.WidthCm) ||
		axisChanged(declared.HeightCm, reported.HeightCm)
}

func axisChanged(a, b float64) bool {
	if a <= 0 {
		return false
	}
	return math.Abs(b-a)/a > shapeTolerance
}

// Prioritize urgente con fraude, alta sobre el umbral de alto valor, media desde 25% del umbral.
func Prioritize(impact, highValue decimal.Decimal, flagged bool) entity.DisputePriority {
	abs := impact.Abs()
	switch {
	case flagged:
		return entity.PriorityUrgent
	case highValue.IsPositive() && abs.GreaterThanOrEqual(highValue):
		return entity.PriorityHigh
	case highValue.IsPositive() && abs.GreaterThanOrEqual(highValue.Div(decimal.NewFromInt(4))):
		return entity.PriorityMedium
	default:
		return entity.PriorityLow
	}
}
