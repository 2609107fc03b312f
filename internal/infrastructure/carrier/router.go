// Package carrier envía disputas a las transportadoras por el canal que cada una acepta.
package carrier

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
)

// Canales soportados.
const (
	ChannelAPI   = "api"
	ChannelXML   = "xml"
	ChannelEmail = "email"
)

var _ ports.CarrierDisputeSubmitter = (*Router)(nil)

// Router elige el canal por transportadora; sin configuración usa "api".
type Router struct {
	channels  map[string]string
	byChannel map[string]ports.CarrierDisputeSubmitter
}

func NewRouter(channels map[string]string) *Router {
	return &Router{channels: channels, byChannel: map[string]ports.CarrierDisputeSubmitter{}}
}

// Register asocia la implementación de un canal.
func (r *Router) Register(channel string, s ports.CarrierDisputeSubmitter) *Router {
	r.byChannel[channel] = s
	return r
}

// ChannelFor canal configurado para la transportadora.
func (r *Router) ChannelFor(carrierID string) string {
	if ch, ok := r.channels[strings.ToLower(carrierID)]; ok && ch != "" {
		return ch
	}
	return ChannelAPI
}

func (r *Router) Submit(ctx context.Context, req ports.SubmissionRequest) (*ports.SubmissionResult, error) {
	ch := r.ChannelFor(req.CarrierID)
	s, ok := r.byChannel[ch]
	if !ok {
		return nil, fmt.Errorf("carrier %s: canal %q no disponible", req.CarrierID, ch)
	}
	res, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if res != nil && res.Method == "" {
		res.Method = ch
	}
	return res, nil
}
