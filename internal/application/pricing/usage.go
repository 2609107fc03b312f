package pricing

import (
	"math"
	"sync/atomic"
)

// Usage contadores de método de cálculo desde el arranque.
type Usage struct {
	ratecard atomic.Int64
	fallback atomic.Int64
}

// UsageSnapshot lectura puntual de los contadores.
type UsageSnapshot struct {
	Ratecard      int64   `json:"ratecard"`
	Fallback      int64   `json:"fallback_zone"`
	FallbackShare float64 `json:"fallback_share"`
}

func (u *Usage) recordRatecard() { u.ratecard.Add(1) }
func (u *Usage) recordFallback() { u.fallback.Add(1) }

// Snapshot devuelve los contadores actuales.
func (u *Usage) Snapshot() UsageSnapshot {
	s := UsageSnapshot{Ratecard: u.ratecard.Load(), Fallback: u.fallback.Load()}
	if total := s.Ratecard + s.Fallback; total > 0 {
		s.FallbackShare = math.Round(float64(s.Fallback)/float64(total)*10000) / 10000
	}
	return s
}
