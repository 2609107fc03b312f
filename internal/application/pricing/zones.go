// Package pricing traduce pesos en costos: zona, cotización y tabla de respaldo.
package pricing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Prefijos de zonas especiales: Jammu y Cachemira, noreste, Andamán.
var specialPrefixes = []string{"18", "19", "78", "79", "744"}

// Distritos de clasificación de las metrópolis.
var metroPrefixes = map[string]bool{
	"110": true, // Delhi
	"400": true, // Mumbai
	"700": true, // Kolkata
	"600": true, // Chennai
	"560": true, // Bengaluru
	"500": true, // Hyderabad
	"411": true, // Pune
	"380": true, // Ahmedabad
}

// ValidPincode seis dígitos, sin cero inicial.
func ValidPincode(p string) bool {
	if len(p) != 6 || p[0] == '0' {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isSpecial(p string) bool {
	for _, prefix := range specialPrefixes {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// ClassifyZone zona por reglas de códigos postales.
func ClassifyZone(origin, destination string) (entity.Zone, error) {
	if !ValidPincode(origin) || !ValidPincode(destination) {
		return "", fmt.Errorf("%w: código postal %q -> %q", domain.ErrInvalidInput, origin, destination)
	}
	switch {
	case isSpecial(origin) || isSpecial(destination):
		return entity.ZoneE, nil
	case origin[:3] == destination[:3]:
		return entity.ZoneA, nil
	case origin[:2] == destination[:2]:
		return entity.ZoneB, nil
	case metroPrefixes[origin[:3]] && metroPrefixes[destination[:3]]:
		return entity.ZoneC, nil
	default:
		return entity.ZoneD, nil
	}
}

// ZoneResolver zona con prioridad: override en BD, caché, reglas.
type ZoneResolver struct {
	overrides repository.ZoneOverrideRepository
	cache     ports.ZoneCache
	ttl       time.Duration
	group     singleflight.Group
	log       *logger.Logger
}

// NewZoneResolver overrides y cache pueden ser nil.
func NewZoneResolver(overrides repository.ZoneOverrideRepository, cache ports.ZoneCache, ttl time.Duration, log *logger.Logger) *ZoneResolver {
	return &ZoneResolver{overrides: overrides, cache: cache, ttl: ttl, log: log}
}

// Resolve devuelve la zona del par origen/destino.
func (r *ZoneResolver) Resolve(ctx context.Context, origin, destination string) (entity.Zone, error) {
	key := origin + "|" + destination
	if r.cache != nil {
		if z, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return z, nil
		} else if err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("caché de zonas no disponible")
		}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		z, err := r.lookup(ctx, origin, destination)
		if err != nil {
			return entity.Zone(""), err
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, key, z, r.ttl); err != nil {
				r.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar la zona en caché")
			}
		}
		return z, nil
	})
	if err != nil {
		return "", err
	}
	return v.(entity.Zone), nil
}

func (r *ZoneResolver) lookup(ctx context.Context, origin, destination string) (entity.Zone, error) {
	if r.overrides != nil {
		z, ok, err := r.overrides.Get(ctx, origin, destination)
		if err != nil {
			return "", fmt.Errorf("override de zona: %w", err)
		}
		if ok && z.Valid() {
			return z, nil
		}
	}
	return ClassifyZone(origin, destination)
}
