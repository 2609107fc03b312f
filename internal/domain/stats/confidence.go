package stats

import "math"

// Reglas de promoción de un baseline de peso.
const (
	ActiveMinSamples  = 10
	ActiveMaxCV       = 0.10
	SuggestConfidence = 70.0
	learningCap       = SuggestConfidence - 1
	consistencyCV     = 0.20
)

// IsActive n ≥ 10 y desviación < 10% de la media.
func IsActive(w Welford) bool {
	return w.Count >= ActiveMinSamples && w.Mean > 0 && w.StdDev() < ActiveMaxCV*w.Mean
}

// Confidence puntaje 0–100: mitad por tamaño de muestra (satura en 10), mitad por consistencia.
// Mientras el baseline no esté activo se limita a 69, de modo que nunca habilita sugerencias.
func Confidence(w Welford) float64 {
	if w.Count == 0 || w.Mean <= 0 {
		return 0
	}
	size := math.Min(float64(w.Count), ActiveMinSamples) / ActiveMinSamples * 50
	consistency := 0.0
	if w.Count >= 2 {
		consistency = math.Max(0, 1-w.CV()/consistencyCV) * 50
	}
	score := math.Round((size+consistency)*100) / 100
	if !IsActive(w) && score > learningCap {
		score = learningCap
	}
	return score
}
