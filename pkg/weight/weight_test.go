package weight

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKilograms(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    Unit
		want    float64
		wantErr bool
	}{
		{name: "gramos", value: 800, unit: Gram, want: 0.8},
		{name: "kilos", value: 1.2346, unit: Kilogram, want: 1.235},
		{name: "libras", value: 2, unit: Pound, want: 0.907},
		{name: "cero", value: 0, unit: Kilogram, wantErr: true},
		{name: "negativo", value: -1, unit: Gram, wantErr: true},
		{name: "unidad desconocida", value: 1, unit: Unit("oz"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToKilograms(tt.value, tt.unit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMeasurement)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("GMS")
	require.NoError(t, err)
	assert.Equal(t, Gram, u)

	u, err = ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, Kilogram, u)

	_, err = ParseUnit("stone")
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
}

// 0.2 kg reales, 40×40×30 cm, divisor 5000.
func TestChargeable_Volumetrico(t *testing.T) {
	dims := &Dimensions{LengthCm: 40, WidthCm: 40, HeightCm: 30}
	chargeable, volumetric, err := Chargeable(0.2, dims, DefaultDivisor)
	require.NoError(t, err)
	assert.InDelta(t, 9.6, volumetric, 1e-9)
	assert.InDelta(t, 9.6, chargeable, 1e-9)
}

func TestChargeable_SinDimensiones(t *testing.T) {
	chargeable, volumetric, err := Chargeable(0.5, nil, DefaultDivisor)
	require.NoError(t, err)
	assert.Zero(t, volumetric)
	assert.InDelta(t, 0.5, chargeable, 1e-9)
}

func TestVolumetricWeight_Invalido(t *testing.T) {
	_, err := VolumetricWeight(Dimensions{LengthCm: 10, WidthCm: 0, HeightCm: 10}, DefaultDivisor)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)

	_, err = VolumetricWeight(Dimensions{LengthCm: 10, WidthCm: 10, HeightCm: 10}, 0)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
}

func TestToCentimeters(t *testing.T) {
	got, err := ToCentimeters(Dimensions{LengthCm: 100, WidthCm: 50, HeightCm: 20}, Millimeter)
	require.NoError(t, err)
	assert.InDelta(t, 10, got.LengthCm, 1e-9)
	assert.InDelta(t, 5, got.WidthCm, 1e-9)
	assert.InDelta(t, 2, got.HeightCm, 1e-9)
}

func TestPercentDifference(t *testing.T) {
	p, err := PercentDifference(0.5, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 60, p, 1e-9)

	p, err = PercentDifference(0.5, 0.5)
	require.NoError(t, err)
	assert.Zero(t, p)

	p, err = PercentDifference(1, 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 10, p, 1e-9)

	_, err = PercentDifference(0, 1)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
}

func TestChargeableWeight_NuncaMenorQueReal(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		actual := 0.01 + r.Float64()*50
		vol := r.Float64() * 50
		got, err := ChargeableWeight(actual, vol)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, Round(actual))
		assert.GreaterOrEqual(t, got, Round(vol))
	}
}
