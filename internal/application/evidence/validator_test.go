package evidence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/weight-dispute-api/internal/application/evidence"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports/mocks"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

var packedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestValidate_FotoCompleta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	inspector := mocks.NewMockEvidenceInspector(ctrl)
	scorer := mocks.NewMockImageQualityScorer(ctrl)

	captured := packedAt.Add(2 * time.Hour)
	inspector.EXPECT().Inspect(gomock.Any(), gomock.Any(), "image/jpeg").
		Return(&ports.EvidenceMarkers{HasScale: true, HasRuler: true, DetectedAWB: "vl 123", CapturedAt: &captured}, nil)
	scorer.EXPECT().Score(gomock.Any()).Return(82.0, nil)

	v := evidence.NewValidator(inspector, scorer, logger.Nop())
	got := v.Validate(context.Background(), evidence.Input{
		Kind: entity.EvidencePhoto, Content: []byte("jpg"), ContentType: "image/jpeg",
		TrackingID: "VL123", PackedAt: packedAt,
	})

	assert.True(t, got.IsValid)
	assert.True(t, got.HasAWB)
	assert.True(t, got.FreshTimestamp)
	assert.Equal(t, "inspector", got.InspectedBy)
	assert.Empty(t, got.Suggestions)
}

func TestValidate_SinBalanzaNiRegla(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	scorer := mocks.NewMockImageQualityScorer(ctrl)
	scorer.EXPECT().Score(gomock.Any()).Return(90.0, nil)

	v := evidence.NewValidator(nil, scorer, logger.Nop())
	got := v.Validate(context.Background(), evidence.Input{
		Kind: entity.EvidencePhoto, Content: []byte("jpg"), TrackingID: "VL123", PackedAt: packedAt,
	})

	assert.False(t, got.IsValid)
	assert.Equal(t, "seller", got.InspectedBy)
	assert.Len(t, got.Suggestions, 4)
}

func TestValidate_CalidadExactamente50NoAlcanza(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	scorer := mocks.NewMockImageQualityScorer(ctrl)
	scorer.EXPECT().Score(gomock.Any()).Return(50.0, nil)

	v := evidence.NewValidator(nil, scorer, logger.Nop())
	got := v.Validate(context.Background(), evidence.Input{
		Kind: entity.EvidencePhoto, Content: []byte("jpg"), TrackingID: "VL123", PackedAt: packedAt,
		Declared: ports.EvidenceMarkers{HasScale: true},
	})
	assert.False(t, got.IsValid)
}

func TestValidate_InspectorFallaUsaDeclarados(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	inspector := mocks.NewMockEvidenceInspector(ctrl)
	scorer := mocks.NewMockImageQualityScorer(ctrl)
	inspector.EXPECT().Inspect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("503"))
	scorer.EXPECT().Score(gomock.Any()).Return(70.0, nil)

	old := packedAt.Add(-10 * 24 * time.Hour)
	v := evidence.NewValidator(inspector, scorer, logger.Nop())
	got := v.Validate(context.Background(), evidence.Input{
		Kind: entity.EvidencePhoto, Content: []byte("jpg"), TrackingID: "VL123", PackedAt: packedAt,
		Declared: ports.EvidenceMarkers{HasRuler: true, HasAWB: true, CapturedAt: &old},
	})

	assert.True(t, got.IsValid)
	assert.False(t, got.FreshTimestamp)
	assert.Equal(t, "seller", got.InspectedBy)
	assert.Len(t, got.Suggestions, 2)
}

func TestValidate_VideoPorTamano(t *testing.T) {
	v := evidence.NewValidator(nil, nil, logger.Nop())
	got := v.Validate(context.Background(), evidence.Input{
		Kind: entity.EvidenceVideo, Content: make([]byte, 6<<20), TrackingID: "VL123", PackedAt: packedAt,
		Declared: ports.EvidenceMarkers{HasScale: true},
	})
	assert.Equal(t, 80.0, got.QualityScore)
	assert.True(t, got.IsValid)
}
