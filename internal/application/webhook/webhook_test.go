package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

func TestRegistry_Velocity(t *testing.T) {
	body := []byte(`{"event":"weight_update","data":{"awb":"VL123","charged_weight_grams":800,"length_cm":20,"breadth_cm":15,"height_cm":10,"scan_time":"2024-05-01T10:00:00Z","hub":"DEL-HUB"}}`)
	obs, err := DefaultRegistry().Parse("Velocity", body)
	require.NoError(t, err)
	require.Len(t, obs, 1)

	o := obs[0]
	assert.Equal(t, "velocity", o.CarrierID)
	assert.Equal(t, "VL123", o.TrackingID)
	assert.Equal(t, 800.0, o.Weight)
	assert.Equal(t, "g", o.Unit)
	assert.Equal(t, entity.StageScanned, o.Stage)
	assert.Equal(t, entity.SourceWebhook, o.Source)
	assert.True(t, o.HasDimensions())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), o.ScannedAt.UTC())
}

func TestRegistry_Ekart(t *testing.T) {
	body := []byte(`{"tracking_id":"EK9","vendor_weight":{"value":0.8,"uom":"KG"},"event_time":1714557600000,"location":"BLR"}`)
	obs, err := DefaultRegistry().Parse("ekart", body)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 0.8, obs[0].Weight)
	assert.Equal(t, "KG", obs[0].Unit)
	assert.False(t, obs[0].HasDimensions())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), obs[0].ScannedAt)
}

func TestRegistry_DelhiveryArregloYHoraIST(t *testing.T) {
	body := []byte(`{"Shipments":[{"AWB":"DL1","ChargedWeight":"800","Dimensions":"40x40x30","ScanDateTime":"2024-05-01 15:30:00","ScannedLocation":"Gurgaon"},{"AWB":"DL2","ChargedWeight":"1.2","WeightUnit":"kg","ScanDateTime":"2024-05-01 16:00:00"}]}`)
	obs, err := DefaultRegistry().Parse("delhivery", body)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "DL1", obs[0].TrackingID)
	assert.Equal(t, "g", obs[0].Unit)
	assert.Equal(t, 40.0, obs[0].Length)
	assert.Equal(t, 30.0, obs[0].Height)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), obs[0].ScannedAt)
	assert.Equal(t, "kg", obs[1].Unit)
}

func TestRegistry_GenericoParaDesconocidas(t *testing.T) {
	body := []byte(`[{"tracking_id":"X1","weight":500,"unit":"g","scanned_at":"2024-05-01T10:00:00Z"},{"tracking_id":"X2","weight":1,"unit":"kg","stage":"packed","scanned_at":"2024-05-01T10:00:00Z"}]`)
	obs, err := DefaultRegistry().Parse("shadowfax", body)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "shadowfax", obs[0].CarrierID)
	assert.Equal(t, entity.StageScanned, obs[0].Stage)
	assert.Equal(t, entity.StagePacked, obs[1].Stage)
}

func TestRegistry_Errores(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Parse("", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = reg.Parse("velocity", []byte(`no-json`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = reg.Parse("velocity", []byte(`{"data":{"charged_weight_grams":800}}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = reg.Parse("delhivery", []byte(`{"Shipment":{"AWB":"D","ChargedWeight":"abc"}}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = reg.Parse("delhivery", []byte(`{"Shipments":[]}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseDimensionText(t *testing.T) {
	l, b, h, err := parseDimensionText("40 X 35 x 30")
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 35, 30}, []float64{l, b, h})

	_, _, _, err = parseDimensionText("40x30")
	assert.Error(t, err)
}
