package dispute

import (
	"fmt"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Outcome conjunto cerrado de resultados posibles de una disputa.
type Outcome interface {
	Status() entity.DisputeStatus
	isOutcome()
}

// SellerAccepted el vendedor acepta el peso de la transportadora.
type SellerAccepted struct{}

// AutoAccepted venció el plazo sin acción del vendedor.
type AutoAccepted struct{}

// CarrierAccepted la transportadora acepta el peso declarado (a favor del vendedor).
type CarrierAccepted struct{}

// CarrierRejected la transportadora mantiene su peso.
type CarrierRejected struct{}

// Withdrawn la transportadora retira el cargo.
type Withdrawn struct{}

// Partial peso acordado intermedio, ya cotizado.
type Partial struct {
	WeightKg float64
	Cost     decimal.Decimal
	Method   entity.CalculationMethod
}

func (SellerAccepted) Status() entity.DisputeStatus  { return entity.DisputeAccepted }
func (AutoAccepted) Status() entity.DisputeStatus    { return entity.DisputeAutoAccepted }
func (CarrierAccepted) Status() entity.DisputeStatus { return entity.DisputeResolvedInFavor }
func (CarrierRejected) Status() entity.DisputeStatus { return entity.DisputeResolvedAgainst }
func (Withdrawn) Status() entity.DisputeStatus       { return entity.DisputeWithdrawn }
func (Partial) Status() entity.DisputeStatus         { return entity.DisputePartial }

func (SellerAccepted) isOutcome()  {}
func (AutoAccepted) isOutcome()    {}
func (CarrierAccepted) isOutcome() {}
func (CarrierRejected) isOutcome() {}
func (Withdrawn) isOutcome()       {}
func (Partial) isOutcome()         {}

// SettlementComputation peso final y monto a liquidar para un resultado.
type SettlementComputation struct {
	Status entity.DisputeStatus
	// FinalWeightKg peso facturable que queda como billing.
	FinalWeightKg float64
	// PhysicalWeightKg peso real aceptado, usado para aprendizaje por SKU.
	PhysicalWeightKg float64
	FinalCost        decimal.Decimal
	// Amount = actualCost(final) − declaredCost. Positivo = débito, negativo = crédito.
	Amount    decimal.Decimal
	Direction entity.LedgerDirection
	Method    entity.CalculationMethod
}

// ComputeSettlement única función que traduce un resultado en peso final y monto.
func ComputeSettlement(d *entity.WeightDispute, o Outcome) (SettlementComputation, error) {
	fi := d.FinancialImpact
	c := SettlementComputation{Status: o.Status(), Method: fi.Method}
	switch v := o.(type) {
	case SellerAccepted, AutoAccepted, CarrierRejected:
		c.FinalWeightKg = d.Discrepancy.ReportedChargeableKg
		c.PhysicalWeightKg = d.Discrepancy.ReportedKg
		c.FinalCost = fi.ActualCost
	case CarrierAccepted, Withdrawn:
		c.FinalWeightKg = d.Discrepancy.DeclaredChargeableKg
		c.PhysicalWeightKg = d.Discrepancy.DeclaredKg
		c.FinalCost = fi.DeclaredCost
	case Partial:
		if v.WeightKg <= 0 {
			return SettlementComputation{}, fmt.Errorf("%w: peso acordado %v", domain.ErrInvalidMeasurement, v.WeightKg)
		}
		c.FinalWeightKg = v.WeightKg
		c.PhysicalWeightKg = v.WeightKg
		c.FinalCost = v.Cost
		c.Method = v.Method
	default:
		return SettlementComputation{}, fmt.Errorf("%w: resultado desconocido %T", domain.ErrInvalidInput, o)
	}
	c.Amount = c.FinalCost.Sub(fi.DeclaredCost).Round(2)
	switch c.Amount.Sign() {
	case 1:
		c.Direction = entity.LedgerDebit
	case -1:
		c.Direction = entity.LedgerCredit
	default:
		c.Direction = entity.LedgerNone
	}
	return c, nil
}
