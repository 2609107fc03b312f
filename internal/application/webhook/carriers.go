package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// ── Genérico ─────────────────────────────────────────────────────────────────

// Generic {tracking_id, weight, unit, dimensions?, scanned_at, location, stage?}.
type Generic struct{}

type genericPayload struct {
	TrackingID string  `json:"tracking_id"`
	Stage      string  `json:"stage"`
	Weight     float64 `json:"weight"`
	Unit       string  `json:"unit"`
	Dimensions *struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Unit   string  `json:"unit"`
	} `json:"dimensions"`
	ScannedAt time.Time `json:"scanned_at"`
	Location  string    `json:"location"`
}

func (Generic) Carrier() string { return "generic" }

func (Generic) Parse(body []byte) ([]entity.CarrierObservation, error) {
	var list []genericPayload
	if err := decodeOneOrMany(body, &list); err != nil {
		return nil, invalid("genérico", err)
	}
	out := make([]entity.CarrierObservation, 0, len(list))
	for _, p := range list {
		o := entity.CarrierObservation{
			TrackingID: strings.TrimSpace(p.TrackingID),
			Stage:      entity.WeightStage(strings.ToLower(p.Stage)),
			Weight:     p.Weight,
			Unit:       p.Unit,
			ScannedAt:  p.ScannedAt,
			Location:   p.Location,
		}
		if p.Dimensions != nil {
			o.Length, o.Width, o.Height, o.DimUnit = p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height, p.Dimensions.Unit
		}
		out = append(out, o)
	}
	return out, nil
}

// ── Velocity ─────────────────────────────────────────────────────────────────

// Velocity informa el peso cobrado en gramos dentro de "data".
type Velocity struct{}

type velocityPayload struct {
	Event string `json:"event"`
	Data  struct {
		AWB           string    `json:"awb"`
		ChargedWeight float64   `json:"charged_weight_grams"`
		LengthCm      float64   `json:"length_cm"`
		BreadthCm     float64   `json:"breadth_cm"`
		HeightCm      float64   `json:"height_cm"`
		ScanTime      time.Time `json:"scan_time"`
		Hub           string    `json:"hub"`
	} `json:"data"`
}

func (Velocity) Carrier() string { return "velocity" }

func (Velocity) Parse(body []byte) ([]entity.CarrierObservation, error) {
	var p velocityPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, invalid("velocity", err)
	}
	o := entity.CarrierObservation{
		TrackingID: strings.TrimSpace(p.Data.AWB),
		Weight:     p.Data.ChargedWeight,
		Unit:       "g",
		ScannedAt:  p.Data.ScanTime,
		Location:   p.Data.Hub,
	}
	if p.Data.LengthCm > 0 || p.Data.BreadthCm > 0 || p.Data.HeightCm > 0 {
		o.Length, o.Width, o.Height, o.DimUnit = p.Data.LengthCm, p.Data.BreadthCm, p.Data.HeightCm, "cm"
	}
	return []entity.CarrierObservation{o}, nil
}

// ── Ekart ────────────────────────────────────────────────────────────────────

// Ekart usa vendor_weight{value,uom} y tiempo en milisegundos epoch.
type Ekart struct{}

type ekartPayload struct {
	TrackingID   string `json:"tracking_id"`
	VendorWeight struct {
		Value float64 `json:"value"`
		UOM   string  `json:"uom"`
	} `json:"vendor_weight"`
	Dimensions *struct {
		L   float64 `json:"l"`
		B   float64 `json:"b"`
		H   float64 `json:"h"`
		UOM string  `json:"uom"`
	} `json:"dimensions"`
	EventTime int64  `json:"event_time"`
	Location  string `json:"location"`
}

func (Ekart) Carrier() string { return "ekart" }

func (Ekart) Parse(body []byte) ([]entity.CarrierObservation, error) {
	var p ekartPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, invalid("ekart", err)
	}
	o := entity.CarrierObservation{
		TrackingID: strings.TrimSpace(p.TrackingID),
		Weight:     p.VendorWeight.Value,
		Unit:       p.VendorWeight.UOM,
		Location:   p.Location,
	}
	if p.EventTime > 0 {
		o.ScannedAt = time.UnixMilli(p.EventTime).UTC()
	}
	if p.Dimensions != nil {
		o.Length, o.Width, o.Height, o.DimUnit = p.Dimensions.L, p.Dimensions.B, p.Dimensions.H, p.Dimensions.UOM
	}
	return []entity.CarrierObservation{o}, nil
}

// ── Delhivery ────────────────────────────────────────────────────────────────

// Delhivery envía texto: peso en gramos, dimensiones "LxBxH" y hora local de India.
type Delhivery struct{}

var ist = time.FixedZone("IST", 5*3600+30*60)

type delhiveryShipment struct {
	AWB             string `json:"AWB"`
	ChargedWeight   string `json:"ChargedWeight"`
	WeightUnit      string `json:"WeightUnit"`
	Dimensions      string `json:"Dimensions"`
	ScanDateTime    string `json:"ScanDateTime"`
	ScannedLocation string `json:"ScannedLocation"`
}

type delhiveryEnvelope struct {
	Shipment  *delhiveryShipment  `json:"Shipment"`
	Shipments []delhiveryShipment `json:"Shipments"`
}

func (Delhivery) Carrier() string { return "delhivery" }

func (Delhivery) Parse(body []byte) ([]entity.CarrierObservation, error) {
	var env delhiveryEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, invalid("delhivery", err)
	}
	list := env.Shipments
	if env.Shipment != nil {
		list = append(list, *env.Shipment)
	}
	out := make([]entity.CarrierObservation, 0, len(list))
	for _, s := range list {
		w, err := strconv.ParseFloat(strings.TrimSpace(s.ChargedWeight), 64)
		if err != nil {
			return nil, invalid("delhivery", fmt.Errorf("peso %q", s.ChargedWeight))
		}
		unit := s.WeightUnit
		if unit == "" {
			unit = "g"
		}
		o := entity.CarrierObservation{
			TrackingID: strings.TrimSpace(s.AWB),
			Weight:     w,
			Unit:       unit,
			Location:   s.ScannedLocation,
		}
		if s.Dimensions != "" {
			l, b, h, err := parseDimensionText(s.Dimensions)
			if err != nil {
				return nil, invalid("delhivery", err)
			}
			o.Length, o.Width, o.Height, o.DimUnit = l, b, h, "cm"
		}
		if s.ScanDateTime != "" {
			at, err := time.ParseInLocation("2006-01-02 15:04:05", s.ScanDateTime, ist)
			if err != nil {
				return nil, invalid("delhivery", fmt.Errorf("fecha %q", s.ScanDateTime))
			}
			o.ScannedAt = at.UTC()
		}
		out = append(out, o)
	}
	return out, nil
}

// parseDimensionText interpreta "40x40x30" o "40 X 40 X 30".
func parseDimensionText(raw string) (float64, float64, float64, error) {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(raw, " ", "")), "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("dimensiones %q", raw)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("dimensiones %q", raw)
		}
		v[i] = f
	}
	return v[0], v[1], v[2], nil
}

// decodeOneOrMany acepta un objeto o un arreglo de objetos.
func decodeOneOrMany[T any](body []byte, out *[]T) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*out = []T{one}
	return nil
}
