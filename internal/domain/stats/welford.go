// Package stats estadística incremental por SKU (algoritmo de Welford).
package stats

import "math"

// Welford media y varianza en O(1) por muestra, sin guardar el historial.
type Welford struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Add incorpora una muestra.
func (w *Welford) Add(x float64) {
	w.Count++
	if w.Count == 1 {
		w.Min, w.Max = x, x
	} else {
		w.Min = math.Min(w.Min, x)
		w.Max = math.Max(w.Max, x)
	}
	delta := x - w.Mean
	w.Mean += delta / float64(w.Count)
	w.M2 += delta * (x - w.Mean)
}

// Variance varianza muestral (n−1); 0 con menos de dos muestras.
func (w Welford) Variance() float64 {
	if w.Count < 2 {
		return 0
	}
	return w.M2 / float64(w.Count-1)
}

// StdDev desviación estándar muestral.
func (w Welford) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// CV coeficiente de variación; +Inf si la media es 0.
func (w Welford) CV() float64 {
	if w.Mean == 0 {
		return math.Inf(1)
	}
	return w.StdDev() / w.Mean
}
