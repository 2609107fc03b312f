// Package webhook normaliza los payloads de cada transportadora a entity.CarrierObservation.
// Agregar una transportadora solo requiere un Adapter nuevo.
package webhook

import (
	"fmt"
	"strings"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

// Adapter traduce el cuerpo del webhook de una transportadora.
type Adapter interface {
	Carrier() string
	Parse(body []byte) ([]entity.CarrierObservation, error)
}

// Registry adaptadores por transportadora; las desconocidas usan el formato genérico.
type Registry struct {
	adapters map[string]Adapter
	fallback Adapter
}

// NewRegistry registra los adaptadores dados además del genérico.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: map[string]Adapter{}, fallback: Generic{}}
	for _, a := range adapters {
		r.adapters[strings.ToLower(a.Carrier())] = a
	}
	return r
}

// DefaultRegistry Velocity, Ekart y Delhivery.
func DefaultRegistry() *Registry {
	return NewRegistry(Velocity{}, Ekart{}, Delhivery{})
}

// Parse elige el adaptador y completa CarrierID en cada observación.
func (r *Registry) Parse(carrierID string, body []byte) ([]entity.CarrierObservation, error) {
	carrierID = strings.ToLower(strings.TrimSpace(carrierID))
	if carrierID == "" {
		return nil, fmt.Errorf("%w: transportadora vacía", domain.ErrInvalidInput)
	}
	a, ok := r.adapters[carrierID]
	if !ok {
		a = r.fallback
	}
	obs, err := a.Parse(body)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: payload sin eventos de peso", domain.ErrInvalidInput)
	}
	for i := range obs {
		obs[i].CarrierID = carrierID
		if obs[i].Stage == "" {
			obs[i].Stage = entity.StageScanned
		}
		if obs[i].Source == "" {
			obs[i].Source = entity.SourceWebhook
		}
		if obs[i].TrackingID == "" {
			return nil, fmt.Errorf("%w: evento sin número de guía", domain.ErrInvalidInput)
		}
	}
	return obs, nil
}

// Carriers nombres registrados.
func (r *Registry) Carriers() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	return out
}

func invalid(carrier string, err error) error {
	return fmt.Errorf("%w: payload %s: %v", domain.ErrInvalidInput, carrier, err)
}
