// Package evidence puntúa la evidencia cargada por el vendedor.
// El resultado nunca bloquea el flujo: solo orienta el enrutamiento de la disputa.
package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

const (
	// FreshnessWindow diferencia máxima entre la foto y el empaque.
	FreshnessWindow = 7 * 24 * time.Hour
	// MinQuality puntaje que debe superarse para que la evidencia sea válida.
	MinQuality = 50.0
)

// Input artefacto a validar. Los marcadores declarados se usan si no hay inspector o este falla.
type Input struct {
	Kind        entity.EvidenceKind
	Content     []byte
	ContentType string
	TrackingID  string
	PackedAt    time.Time
	Declared    ports.EvidenceMarkers
}

// Validator inspector y scorer pueden ser nil.
type Validator struct {
	inspector ports.EvidenceInspector
	scorer    ports.ImageQualityScorer
	log       *logger.Logger
}

func NewValidator(inspector ports.EvidenceInspector, scorer ports.ImageQualityScorer, log *logger.Logger) *Validator {
	return &Validator{inspector: inspector, scorer: scorer, log: log}
}

// Validate revisa balanza, regla, guía, fecha y calidad, y arma las sugerencias de corrección.
func (v *Validator) Validate(ctx context.Context, in Input) entity.EvidenceValidation {
	markers, inspectedBy := v.markers(ctx, in)
	out := entity.EvidenceValidation{
		HasScale:    markers.HasScale,
		HasRuler:    markers.HasRuler,
		HasAWB:      markers.HasAWB,
		InspectedBy: inspectedBy,
		Suggestions: []string{},
	}
	if markers.DetectedAWB != "" {
		out.HasAWB = normalizeAWB(markers.DetectedAWB) == normalizeAWB(in.TrackingID)
	}

	captured := markers.CapturedAt
	if captured == nil {
		captured = in.Declared.CapturedAt
	}
	if captured != nil && !in.PackedAt.IsZero() {
		diff := captured.Sub(in.PackedAt)
		if diff < 0 {
			diff = -diff
		}
		out.FreshTimestamp = diff <= FreshnessWindow
	}

	out.QualityScore = v.quality(in)
	out.IsValid = (out.HasScale || out.HasRuler) && out.QualityScore > MinQuality

	if !out.HasScale {
		out.Suggestions = append(out.Suggestions, "Incluya una foto del paquete sobre una balanza con la lectura visible.")
	}
	if !out.HasRuler {
		out.Suggestions = append(out.Suggestions, "Incluya una regla o cinta métrica junto a cada lado del paquete.")
	}
	if !out.HasAWB {
		out.Suggestions = append(out.Suggestions, fmt.Sprintf("La guía %s debe ser legible en la imagen.", in.TrackingID))
	}
	if !out.FreshTimestamp {
		out.Suggestions = append(out.Suggestions, "La foto debe tomarse dentro de los 7 días del empaque y conservar la fecha de captura.")
	}
	if out.QualityScore <= MinQuality {
		out.Suggestions = append(out.Suggestions, "Mejore la iluminación y el enfoque; use una resolución de al menos 1280 px.")
	}
	return out
}

func (v *Validator) markers(ctx context.Context, in Input) (ports.EvidenceMarkers, string) {
	if v.inspector == nil || in.Kind != entity.EvidencePhoto {
		return in.Declared, "seller"
	}
	m, err := v.inspector.Inspect(ctx, in.Content, in.ContentType)
	if err != nil || m == nil {
		v.log.Warn().Err(err).Str("tracking_id", in.TrackingID).Msg("inspector de evidencia no disponible, se usan marcadores declarados")
		return in.Declared, "seller"
	}
	return *m, "inspector"
}

func (v *Validator) quality(in Input) float64 {
	switch in.Kind {
	case entity.EvidencePhoto:
		if v.scorer == nil {
			return 0
		}
		score, err := v.scorer.Score(in.Content)
		if err != nil {
			v.log.Warn().Err(err).Str("tracking_id", in.TrackingID).Msg("no se pudo puntuar la imagen")
			return 0
		}
		return score
	case entity.EvidenceVideo:
		return videoQuality(len(in.Content))
	default:
		if len(in.Content) > 0 {
			return 60
		}
		return 0
	}
}

// videoQuality aproximación por tamaño; no se decodifica el video.
func videoQuality(size int) float64 {
	switch {
	case size >= 5<<20:
		return 80
	case size >= 1<<20:
		return 60
	case size > 0:
		return 30
	default:
		return 0
	}
}

func normalizeAWB(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
