package shipment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/application/skuweight"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/memory"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

func newService(t *testing.T, store *memory.Store) *Service {
	t.Helper()
	learner := skuweight.NewLearner(store, store.SKUWeights(), memory.NewLocker(), logger.Nop())
	return NewService(store.Shipments(), learner, logger.Nop())
}

func TestRegister_PesoEnGramosYDimensionesEnPulgadas(t *testing.T) {
	store := memory.NewStore()
	s := newService(t, store)

	sh, err := s.Register(context.Background(), RegisterInput{
		CompanyID: "c1", TrackingID: " awb-1 ", CarrierID: "Velocity",
		OriginPincode: "110001", DestinationPincode: "560001",
		Weight: 750, Unit: "gm",
		Dimensions: &weight.Dimensions{LengthCm: 10, WidthCm: 5, HeightCm: 2}, DimUnit: "in",
	})
	require.NoError(t, err)
	assert.Equal(t, "AWB-1", sh.TrackingID)
	assert.Equal(t, "velocity", sh.CarrierID)
	assert.Equal(t, entity.PaymentPrepaid, sh.PaymentMode)

	declared, ok := sh.Weights.Declared()
	require.True(t, ok)
	assert.Equal(t, 0.75, declared.ValueKg)
	require.NotNil(t, declared.Dimensions)
	assert.InDelta(t, 25.4, declared.Dimensions.LengthCm, 1e-9)

	got, err := s.Get(context.Background(), "c1", sh.ID)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, got.ID)

	_, err = s.Get(context.Background(), "otra", sh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_UsaPesoCongeladoDelSKU(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	learner := skuweight.NewLearner(store, store.SKUWeights(), memory.NewLocker(), logger.Nop())
	_, err := learner.Freeze(ctx, "c1", "SKU-9", skuweight.FreezeInput{WeightKg: 0.4, FrozenBy: "u1"})
	require.NoError(t, err)

	s := NewService(store.Shipments(), learner, logger.Nop())
	sh, err := s.Register(ctx, RegisterInput{
		CompanyID: "c1", TrackingID: "AWB-2",
		Items: []entity.ShipmentItem{{SKU: "SKU-9", Quantity: 3}},
	})
	require.NoError(t, err)
	declared, _ := sh.Weights.Declared()
	assert.Equal(t, 1.2, declared.ValueKg)
	assert.Equal(t, "sku:freeze", declared.Location)
}

func TestRegister_SinPesoNiSugerencia(t *testing.T) {
	s := newService(t, memory.NewStore())
	_, err := s.Register(context.Background(), RegisterInput{
		CompanyID: "c1", TrackingID: "AWB-3",
		Items: []entity.ShipmentItem{{SKU: "NUEVO", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMeasurement)
}

func TestRegister_Validaciones(t *testing.T) {
	s := newService(t, memory.NewStore())
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{CompanyID: "c1", Weight: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Register(ctx, RegisterInput{CompanyID: "c1", TrackingID: "X", Weight: 1, PaymentMode: "credit"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Register(ctx, RegisterInput{CompanyID: "c1", TrackingID: "X", Weight: -2})
	assert.ErrorIs(t, err, domain.ErrInvalidMeasurement)

	_, err = s.Register(ctx, RegisterInput{CompanyID: "c1", TrackingID: "DUP", Weight: 1})
	require.NoError(t, err)
	_, err = s.Register(ctx, RegisterInput{CompanyID: "c1", TrackingID: "dup", Weight: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
