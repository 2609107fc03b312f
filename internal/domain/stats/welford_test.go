package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWelford_CoincideConCalculoDirecto(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	samples := make([]float64, 200)
	var w Welford
	for i := range samples {
		samples[i] = 0.2 + r.Float64()
		w.Add(samples[i])
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	var sq float64
	for _, s := range samples {
		sq += (s - mean) * (s - mean)
	}
	variance := sq / float64(len(samples)-1)

	assert.Equal(t, int64(200), w.Count)
	assert.InDelta(t, mean, w.Mean, 1e-9)
	assert.InDelta(t, variance, w.Variance(), 1e-9)
	assert.InDelta(t, math.Sqrt(variance), w.StdDev(), 1e-9)
}

func TestWelford_MinMax(t *testing.T) {
	var w Welford
	for _, x := range []float64{0.3, 0.1, 0.5} {
		w.Add(x)
	}
	assert.Equal(t, 0.1, w.Min)
	assert.Equal(t, 0.5, w.Max)
}

func TestWelford_UnaMuestra(t *testing.T) {
	var w Welford
	w.Add(1.5)
	assert.Zero(t, w.Variance())
	assert.Equal(t, 1.5, w.Mean)
}

// 10 envíos alrededor de 0.3 kg.
func TestConfidence_ActivaConDiezMuestrasConsistentes(t *testing.T) {
	var w Welford
	for _, x := range []float64{0.30, 0.31, 0.29, 0.30, 0.30, 0.31, 0.29, 0.30, 0.30, 0.30} {
		w.Add(x)
	}
	assert.True(t, IsActive(w))
	assert.GreaterOrEqual(t, Confidence(w), SuggestConfidence)
}

func TestConfidence_LimitadaMientrasAprende(t *testing.T) {
	var w Welford
	for i := 0; i < 9; i++ {
		w.Add(0.3)
	}
	assert.False(t, IsActive(w))
	assert.Equal(t, learningCap, Confidence(w))
}

func TestConfidence_DispersionAltaNoActiva(t *testing.T) {
	var w Welford
	for _, x := range []float64{0.1, 0.5, 0.2, 0.9, 0.3, 0.7, 0.1, 0.6, 0.2, 0.8, 0.4} {
		w.Add(x)
	}
	assert.False(t, IsActive(w))
	assert.Less(t, Confidence(w), SuggestConfidence)
}
