package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ImpactCalculator cotiza declarado y reportado con los mismos parámetros.
// Si el motor de tarifas falla, ambos lados usan la tabla de respaldo y el resultado queda marcado.
type ImpactCalculator struct {
	quoter ports.PricingQuoter
	zones  *ZoneResolver
	usage  *Usage
	log    *logger.Logger
}

// NewImpactCalculator quoter puede ser nil: siempre se usa la tabla de respaldo.
func NewImpactCalculator(quoter ports.PricingQuoter, zones *ZoneResolver, usage *Usage, log *logger.Logger) *ImpactCalculator {
	if usage == nil {
		usage = &Usage{}
	}
	return &ImpactCalculator{quoter: quoter, zones: zones, usage: usage, log: log}
}

// Usage contadores de método.
func (c *ImpactCalculator) Usage() *Usage { return c.usage }

// Impact costo declarado y real para los pesos cobrables dados.
func (c *ImpactCalculator) Impact(ctx context.Context, sh *entity.Shipment, declaredKg, reportedKg float64, dims *weight.Dimensions) (entity.FinancialImpact, error) {
	zone, zoneErr := c.zones.Resolve(ctx, sh.OriginPincode, sh.DestinationPincode)

	fi := entity.FinancialImpact{Currency: Currency, Zone: string(zone)}
	declared, actual, version, err := c.quotePair(ctx, sh, zone, declaredKg, reportedKg, dims)
	if err == nil {
		fi.DeclaredCost = declared
		fi.ActualCost = actual
		fi.RatecardVersion = version
		fi.Method = entity.MethodRatecard
		fi.Difference = actual.Sub(declared).Round(2)
		c.usage.recordRatecard()
		return fi, nil
	}

	if zoneErr != nil {
		return entity.FinancialImpact{}, fmt.Errorf("%w: %v (zona: %v)", domain.ErrPricingUnavailable, err, zoneErr)
	}
	if fi.DeclaredCost, err = FallbackCost(zone, declaredKg, sh.PaymentMode, sh.CODAmount); err != nil {
		return entity.FinancialImpact{}, err
	}
	if fi.ActualCost, err = FallbackCost(zone, reportedKg, sh.PaymentMode, sh.CODAmount); err != nil {
		return entity.FinancialImpact{}, err
	}
	fi.Method = entity.MethodFallbackZone
	fi.Difference = fi.ActualCost.Sub(fi.DeclaredCost).Round(2)
	c.usage.recordFallback()
	c.log.Warn().
		Str("shipment_id", sh.ID).
		Str("zone", string(zone)).
		Str("calculation_method", string(entity.MethodFallbackZone)).
		Msg("impacto calculado con tabla de respaldo")
	return fi, nil
}

func (c *ImpactCalculator) quotePair(ctx context.Context, sh *entity.Shipment, zone entity.Zone, declaredKg, reportedKg float64, dims *weight.Dimensions) (decimal.Decimal, decimal.Decimal, string, error) {
	if c.quoter == nil {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("motor de tarifas no configurado")
	}
	req := c.request(sh, zone, declaredKg, dims)
	declared, err := c.quoter.Quote(ctx, req)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", err
	}
	req.WeightKg = reportedKg
	actual, err := c.quoter.Quote(ctx, req)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", err
	}
	return declared.Total.Round(2), actual.Total.Round(2), actual.RatecardVersionID, nil
}

func (c *ImpactCalculator) request(sh *entity.Shipment, zone entity.Zone, kg float64, dims *weight.Dimensions) ports.QuoteRequest {
	return ports.QuoteRequest{
		CarrierID:          sh.CarrierID,
		OriginPincode:      sh.OriginPincode,
		DestinationPincode: sh.DestinationPincode,
		Zone:               zone,
		WeightKg:           kg,
		Dimensions:         dims,
		PaymentMode:        sh.PaymentMode,
		CODAmount:          sh.CODAmount,
	}
}

// Price cotiza un único peso (resolución parcial).
func (c *ImpactCalculator) Price(ctx context.Context, sh *entity.Shipment, kg float64) (decimal.Decimal, entity.CalculationMethod, error) {
	zone, zoneErr := c.zones.Resolve(ctx, sh.OriginPincode, sh.DestinationPincode)
	if c.quoter != nil {
		q, err := c.quoter.Quote(ctx, c.request(sh, zone, kg, nil))
		if err == nil {
			c.usage.recordRatecard()
			return q.Total.Round(2), entity.MethodRatecard, nil
		}
		c.log.Warn().Err(err).Str("shipment_id", sh.ID).Msg("cotización falló, se usa tabla de respaldo")
	}
	if zoneErr != nil {
		return decimal.Zero, "", fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, zoneErr)
	}
	cost, err := FallbackCost(zone, kg, sh.PaymentMode, sh.CODAmount)
	if err != nil {
		return decimal.Zero, "", err
	}
	c.usage.recordFallback()
	c.log.Warn().
		Str("shipment_id", sh.ID).
		Str("calculation_method", string(entity.MethodFallbackZone)).
		Msg("precio calculado con tabla de respaldo")
	return cost, entity.MethodFallbackZone, nil
}
