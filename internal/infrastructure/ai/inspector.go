// Package ai inspecciona fotos de evidencia con modelos de visión (Anthropic o Gemini).
package ai

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
)

const inspectorPrompt = `Eres un auditor de evidencias de peso de paquetes.
Analiza la foto y devuelve ÚNICAMENTE un objeto JSON (sin markdown) con esta estructura exacta:
{
  "has_scale": <true si se ve una balanza con lectura visible>,
  "has_ruler": <true si se ve una cinta o regla midiendo el paquete>,
  "has_awb": <true si se ve la etiqueta de guía (AWB) del envío>,
  "detected_awb": "<número de guía legible o cadena vacía>",
  "captured_at": "<fecha y hora visibles en la foto en RFC3339 o cadena vacía>"
}
No incluyas texto fuera del JSON.`

// maxImageBytes tamaño máximo enviado al modelo.
const maxImageBytes = 5 << 20

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

type markersPayload struct {
	HasScale    bool   `json:"has_scale"`
	HasRuler    bool   `json:"has_ruler"`
	HasAWB      bool   `json:"has_awb"`
	DetectedAWB string `json:"detected_awb"`
	CapturedAt  string `json:"captured_at"`
}

func (p markersPayload) toMarkers() *ports.EvidenceMarkers {
	m := &ports.EvidenceMarkers{
		HasScale:    p.HasScale,
		HasRuler:    p.HasRuler,
		HasAWB:      p.HasAWB,
		DetectedAWB: strings.ToUpper(strings.TrimSpace(p.DetectedAWB)),
	}
	if m.DetectedAWB != "" {
		m.HasAWB = true
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(p.CapturedAt)); err == nil {
		ts = ts.UTC()
		m.CapturedAt = &ts
	}
	return m
}

// extractJSON primer objeto JSON del texto, aunque venga envuelto en un bloque markdown.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

func checkImage(content []byte, contentType string) error {
	if len(content) == 0 {
		return fmt.Errorf("AI: imagen vacía")
	}
	if len(content) > maxImageBytes {
		return fmt.Errorf("AI: imagen de %d bytes supera el máximo de %d", len(content), maxImageBytes)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("AI: tipo %q no es una imagen", contentType)
	}
	return nil
}

// NewInspector construye el inspector del proveedor configurado; nil si no hay proveedor o clave.
func NewInspector(cfg config.AIConfig) ports.EvidenceInspector {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		if cfg.AnthropicAPIKey != "" {
			return NewAnthropicInspector(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		}
	case "gemini":
		if cfg.GeminiAPIKey != "" {
			return NewGeminiInspector(cfg.GeminiAPIKey, cfg.GeminiModel)
		}
	}
	return nil
}
