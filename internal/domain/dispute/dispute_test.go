package dispute

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(entity.DisputePending, entity.DisputeAccepted))
	assert.True(t, CanTransition(entity.DisputePending, entity.DisputeAutoAccepted))
	assert.True(t, CanTransition(entity.DisputeEvidenceSubmitted, entity.DisputeUnderReview))
	assert.True(t, CanTransition(entity.DisputeUnderReview, entity.DisputePartial))
	assert.True(t, CanTransition(entity.DisputeEscalated, entity.DisputeResolvedAgainst))

	assert.False(t, CanTransition(entity.DisputeEvidenceSubmitted, entity.DisputePending))
	assert.False(t, CanTransition(entity.DisputeUnderReview, entity.DisputeAutoAccepted))
	assert.False(t, CanTransition(entity.DisputePending, entity.DisputeResolvedInFavor))
}

func TestTerminalesSinSalida(t *testing.T) {
	terminals := []entity.DisputeStatus{
		entity.DisputeAccepted, entity.DisputeResolvedInFavor, entity.DisputeResolvedAgainst,
		entity.DisputePartial, entity.DisputeAutoAccepted, entity.DisputeWithdrawn,
	}
	all := append(append([]entity.DisputeStatus{}, terminals...), entity.OpenDisputeStatuses...)
	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	for _, s := range entity.OpenDisputeStatuses {
		assert.False(t, s.IsTerminal())
	}
}

func TestTransition_RegistraHistorial(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d := &entity.WeightDispute{ID: "d1", Status: entity.DisputePending}

	h, err := Transition(d, entity.DisputeEscalated, "fraud-analyzer", "fraud_suspected", now)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeEscalated, d.Status)
	assert.Equal(t, "fraud_suspected", d.EscalationReason)
	assert.Equal(t, entity.DisputePending, h.From)
	assert.Equal(t, entity.DisputeEscalated, h.To)
	assert.Equal(t, "d1", h.DisputeID)
	assert.Equal(t, now, h.CreatedAt)

	_, err = Transition(d, entity.DisputePending, "x", "", now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Liquidación
// ──────────────────────────────────────────────────────────────────────────────

func sampleDispute() *entity.WeightDispute {
	return &entity.WeightDispute{
		ID: "d1",
		Discrepancy: entity.Discrepancy{
			DeclaredKg: 0.5, ReportedKg: 0.8,
			DeclaredChargeableKg: 0.5, ReportedChargeableKg: 0.8,
		},
		FinancialImpact: entity.FinancialImpact{
			DeclaredCost: decimal.RequireFromString("53.10"),
			ActualCost:   decimal.RequireFromString("70.80"),
			Difference:   decimal.RequireFromString("17.70"),
			Method:       entity.MethodRatecard,
		},
	}
}

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name      string
		outcome   Outcome
		status    entity.DisputeStatus
		finalKg   float64
		amount    string
		direction entity.LedgerDirection
	}{
		{"aceptada", SellerAccepted{}, entity.DisputeAccepted, 0.8, "17.7", entity.LedgerDebit},
		{"auto", AutoAccepted{}, entity.DisputeAutoAccepted, 0.8, "17.7", entity.LedgerDebit},
		{"en contra", CarrierRejected{}, entity.DisputeResolvedAgainst, 0.8, "17.7", entity.LedgerDebit},
		{"a favor", CarrierAccepted{}, entity.DisputeResolvedInFavor, 0.5, "0", entity.LedgerNone},
		{"retirada", Withdrawn{}, entity.DisputeWithdrawn, 0.5, "0", entity.LedgerNone},
		{"parcial", Partial{WeightKg: 0.65, Cost: decimal.RequireFromString("61.95"), Method: entity.MethodFallbackZone},
			entity.DisputePartial, 0.65, "8.85", entity.LedgerDebit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ComputeSettlement(sampleDispute(), tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.status, c.Status)
			assert.Equal(t, tt.finalKg, c.FinalWeightKg)
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(c.Amount), "monto %s", c.Amount)
			assert.Equal(t, tt.direction, c.Direction)
		})
	}
}

func TestComputeSettlement_CreditoCuandoReportadoMenor(t *testing.T) {
	d := sampleDispute()
	d.FinancialImpact.ActualCost = decimal.RequireFromString("40")
	c, err := ComputeSettlement(d, SellerAccepted{})
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerCredit, c.Direction)
	assert.True(t, decimal.RequireFromString("-13.1").Equal(c.Amount))
}

func TestComputeSettlement_ParcialInvalido(t *testing.T) {
	_, err := ComputeSettlement(sampleDispute(), Partial{WeightKg: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidMeasurement)
}

// ──────────────────────────────────────────────────────────────────────────────
// Categoría y prioridad
// ──────────────────────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   ClassificationInput
		want entity.DisputeCategory
	}{
		{
			name: "volumétrico",
			in: ClassificationInput{Discrepancy: entity.Discrepancy{
				DeclaredKg: 0.2, ReportedKg: 0.2, DeclaredChargeableKg: 0.2,
				ReportedChargeableKg: 9.6, ReportedVolumetricKg: 9.6, DifferenceKg: 9.4, Percentage: 4700,
			}},
			want: entity.CategoryVolumetric,
		},
		{
			name: "reportado menor",
			in: ClassificationInput{Discrepancy: entity.Discrepancy{
				DeclaredKg: 1, ReportedKg: 0.7, DeclaredChargeableKg: 1, ReportedChargeableKg: 0.7, DifferenceKg: 0.3, Percentage: 30,
			}},
			want: entity.CategoryLegitimateDifference,
		},
		{
			name: "error de digitación x10",
			in: ClassificationInput{Discrepancy: entity.Discrepancy{
				DeclaredKg: 0.5, ReportedKg: 5, DeclaredChargeableKg: 0.5, ReportedChargeableKg: 5, DifferenceKg: 4.5, Percentage: 900,
			}},
			want: entity.CategoryManualError,
		},
		{
			name: "báscula absurda",
			in: ClassificationInput{Discrepancy: entity.Discrepancy{
				DeclaredKg: 0.5, ReportedKg: 80, DeclaredChargeableKg: 0.5, ReportedChargeableKg: 80, DifferenceKg: 79.5, Percentage: 15900,
			}},
			want: entity.CategoryScannerError,
		},
		{
			name: "forma distinta",
			in: ClassificationInput{
				Discrepancy: entity.Discrepancy{
					DeclaredKg: 2, ReportedKg: 3, DeclaredChargeableKg: 2, ReportedChargeableKg: 3, DifferenceKg: 1, Percentage: 50,
				},
				DeclaredDimensions: &weight.Dimensions{LengthCm: 20, WidthCm: 20, HeightCm: 10},
				ReportedDimensions: &weight.Dimensions{LengthCm: 30, WidthCm: 20, HeightCm: 10},
			},
			want: entity.CategoryShapeDistortion,
		},
		{
			name: "material de empaque",
			in: ClassificationInput{Discrepancy: entity.Discrepancy{
				DeclaredKg: 0.5, ReportedKg: 0.8, DeclaredChargeableKg: 0.5, ReportedChargeableKg: 0.8, DifferenceKg: 0.3, Percentage: 60,
			}},
			want: entity.CategoryPackingMaterial,
		},
		{
			name: "empresa marcada",
			in:   ClassificationInput{CompanyFlagged: true},
			want: entity.CategoryFraudSuspected,
		},
		{
			name: "factura",
			in:   ClassificationInput{FromInvoice: true},
			want: entity.CategoryInvoiceDiscrepancy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestPrioritize(t *testing.T) {
	hv := decimal.NewFromInt(500)
	assert.Equal(t, entity.PriorityUrgent, Prioritize(decimal.NewFromInt(1), hv, true))
	assert.Equal(t, entity.PriorityHigh, Prioritize(decimal.NewFromInt(-600), hv, false))
	assert.Equal(t, entity.PriorityMedium, Prioritize(decimal.NewFromInt(125), hv, false))
	assert.Equal(t, entity.PriorityLow, Prioritize(decimal.NewFromInt(20), hv, false))
}
