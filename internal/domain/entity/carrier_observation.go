package entity

import "time"

// CarrierObservation evento canónico de peso que producen los adaptadores de webhook.
// Peso y dimensiones vienen en las unidades del proveedor; el detector los normaliza.
type CarrierObservation struct {
	CarrierID  string
	TrackingID string
	Stage      WeightStage
	Source     WeightSource
	Weight     float64
	Unit       string
	Length     float64
	Width      float64
	Height     float64
	DimUnit    string
	ScannedAt  time.Time
	Location   string
}

// HasDimensions indica si el evento trae las tres medidas.
func (o CarrierObservation) HasDimensions() bool {
	return o.Length != 0 || o.Width != 0 || o.Height != 0
}
