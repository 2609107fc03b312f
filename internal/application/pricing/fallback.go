package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// Currency moneda de todos los montos.
const Currency = "INR"

// FallbackRatePerKg tarifa de respaldo por zona (₹/kg).
var FallbackRatePerKg = map[entity.Zone]decimal.Decimal{
	entity.ZoneA: decimal.NewFromInt(30),
	entity.ZoneB: decimal.NewFromInt(35),
	entity.ZoneC: decimal.NewFromInt(45),
	entity.ZoneD: decimal.NewFromInt(55),
	entity.ZoneE: decimal.NewFromInt(70),
}

var (
	minChargeableKg = decimal.NewFromFloat(0.5)
	codMinFee       = decimal.NewFromInt(30)
	codRate         = decimal.NewFromFloat(0.015)
	gstRate         = decimal.NewFromFloat(0.18)
)

// FallbackCost costo con la tabla por zona: tarifa × peso (mín. 0,5 kg), recargo COD y GST 18%.
func FallbackCost(zone entity.Zone, kg float64, mode entity.PaymentMode, codAmount decimal.Decimal) (decimal.Decimal, error) {
	rate, ok := FallbackRatePerKg[zone]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: zona %q", domain.ErrInvalidInput, zone)
	}
	if kg <= 0 {
		return decimal.Zero, fmt.Errorf("%w: peso %v", domain.ErrInvalidMeasurement, kg)
	}
	w := decimal.NewFromFloat(kg)
	if w.LessThan(minChargeableKg) {
		w = minChargeableKg
	}
	subtotal := rate.Mul(w)
	if mode == entity.PaymentCOD {
		fee := codAmount.Mul(codRate)
		if fee.LessThan(codMinFee) {
			fee = codMinFee
		}
		subtotal = subtotal.Add(fee)
	}
	return subtotal.Add(subtotal.Mul(gstRate)).Round(2), nil
}
