package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// WeightStage etapa en la que se observó el peso.
type WeightStage string

const (
	StageDeclared WeightStage = "declared"
	StagePacked   WeightStage = "packed"
	StageApplied  WeightStage = "applied"
	StageScanned  WeightStage = "scanned"
	StageBilling  WeightStage = "billing"
)

// Valid indica si la etapa es conocida.
func (s WeightStage) Valid() bool {
	switch s {
	case StageDeclared, StagePacked, StageApplied, StageScanned, StageBilling:
		return true
	}
	return false
}

// WeightSource origen de la observación.
type WeightSource string

const (
	SourceManual      WeightSource = "manual"
	SourceWebhook     WeightSource = "webhook"
	SourceInvoice     WeightSource = "invoice"
	SourceTrackingAPI WeightSource = "tracking_api"
	SourceResolution  WeightSource = "dispute_resolution"
)

// WeightObservation entrada normalizada (kg, cm) del historial de pesos.
type WeightObservation struct {
	Stage      WeightStage        `json:"stage"`
	ValueKg    float64            `json:"value_kg"`
	Dimensions *weight.Dimensions `json:"dimensions,omitempty"`
	Source     WeightSource       `json:"source"`
	Location   string             `json:"location,omitempty"`
	ObservedAt time.Time          `json:"observed_at"`
}

// sameAs identifica duplicados de webhook: misma etapa, valor, dimensiones e instante.
func (o WeightObservation) sameAs(other WeightObservation) bool {
	if o.Stage != other.Stage || math.Abs(o.ValueKg-other.ValueKg) > 0.0005 || !o.ObservedAt.Equal(other.ObservedAt) {
		return false
	}
	if (o.Dimensions == nil) != (other.Dimensions == nil) {
		return false
	}
	return o.Dimensions == nil || *o.Dimensions == *other.Dimensions
}

// WeightRecord historial de pesos de un envío.
// Exactamente un "declared" desde la creación; a lo sumo un "billing", que solo cambia por resolución de disputa.
type WeightRecord struct {
	Observations []WeightObservation `json:"observations"`
}

// NewWeightRecord crea el historial con la observación declarada.
func NewWeightRecord(declared WeightObservation) (WeightRecord, error) {
	if declared.Stage != StageDeclared {
		return WeightRecord{}, fmt.Errorf("%w: la primera observación debe ser declarada", domain.ErrInvalidInput)
	}
	if declared.ValueKg <= 0 {
		return WeightRecord{}, fmt.Errorf("%w: peso declarado %v", domain.ErrInvalidMeasurement, declared.ValueKg)
	}
	return WeightRecord{Observations: []WeightObservation{declared}}, nil
}

// Declared devuelve la observación declarada.
func (r WeightRecord) Declared() (WeightObservation, bool) {
	for _, o := range r.Observations {
		if o.Stage == StageDeclared {
			return o, true
		}
	}
	return WeightObservation{}, false
}

// Billing devuelve el peso facturado definitivo, si existe.
func (r WeightRecord) Billing() (WeightObservation, bool) {
	return r.Latest(StageBilling)
}

// Latest devuelve la última observación de la etapa dada.
func (r WeightRecord) Latest(stage WeightStage) (WeightObservation, bool) {
	for i := len(r.Observations) - 1; i >= 0; i-- {
		if r.Observations[i].Stage == stage {
			return r.Observations[i], true
		}
	}
	return WeightObservation{}, false
}

// Contains indica si la observación ya fue registrada (webhook duplicado).
func (r WeightRecord) Contains(o WeightObservation) bool {
	for _, existing := range r.Observations {
		if existing.sameAs(o) {
			return true
		}
	}
	return false
}

// Append agrega una observación de transportadora o factura.
// Rechaza un segundo "declared" y cualquier "billing" (solo la resolución lo fija).
func (r *WeightRecord) Append(o WeightObservation) error {
	switch o.Stage {
	case StageDeclared:
		return fmt.Errorf("%w: el peso declarado ya existe", domain.ErrConflict)
	case StageBilling:
		return fmt.Errorf("%w: el peso de facturación solo se fija al resolver", domain.ErrConflict)
	}
	if !o.Stage.Valid() {
		return fmt.Errorf("%w: etapa %q", domain.ErrInvalidInput, o.Stage)
	}
	if o.ValueKg <= 0 {
		return fmt.Errorf("%w: peso %v", domain.ErrInvalidMeasurement, o.ValueKg)
	}
	r.Observations = append(r.Observations, o)
	return nil
}

// SetBilling fija el peso facturado, reemplazando el anterior si lo había.
func (r *WeightRecord) SetBilling(kg float64, source WeightSource, at time.Time) {
	kept := r.Observations[:0]
	for _, o := range r.Observations {
		if o.Stage != StageBilling {
			kept = append(kept, o)
		}
	}
	r.Observations = append(kept, WeightObservation{
		Stage:      StageBilling,
		ValueKg:    weight.Round(kg),
		Source:     source,
		ObservedAt: at,
	})
}
