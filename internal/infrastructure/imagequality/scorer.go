// Package imagequality puntúa la calidad de fotos de evidencia (resolución, nitidez, exposición).
package imagequality

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
)

// Pesos de cada componente sobre 100.
const (
	resolutionPoints = 40.0
	sharpnessPoints  = 40.0
	exposurePoints   = 20.0
)

// Scorer la nitidez se mide como la media del laplaciano absoluto sobre una copia reducida.
type Scorer struct {
	// TargetPixels resolución que da el puntaje completo de resolución.
	TargetPixels int
	// SharpEdge media del laplaciano que satura la nitidez.
	SharpEdge float64
	// AnalysisSize lado máximo de la copia analizada.
	AnalysisSize int
}

var _ ports.ImageQualityScorer = (*Scorer)(nil)

func NewScorer() *Scorer {
	return &Scorer{TargetPixels: 1280 * 720, SharpEdge: 12, AnalysisSize: 512}
}

var laplacian = [9]float64{
	0, 1, 0,
	1, -4, 1,
	0, 1, 0,
}

func (s *Scorer) Score(content []byte) (float64, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("imagen ilegible: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0, fmt.Errorf("imagen vacía")
	}

	resolution := math.Min(1, float64(b.Dx()*b.Dy())/float64(s.TargetPixels))

	small := imaging.Fit(img, s.AnalysisSize, s.AnalysisSize, imaging.Lanczos)
	gray := imaging.Grayscale(small)
	edges := imaging.Convolve3x3(gray, laplacian, &imaging.ConvolveOptions{Abs: true})
	sharpness := math.Min(1, meanRed(edges)/s.SharpEdge)

	brightness := meanRed(gray)
	exposure := 1 - math.Abs(brightness-128)/128

	score := resolution*resolutionPoints + sharpness*sharpnessPoints + exposure*exposurePoints
	return math.Round(score*100) / 100, nil
}

// meanRed media del canal rojo; en escala de grises equivale a la luminancia.
func meanRed(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += float64(row[x])
		}
	}
	return sum / float64(n)
}
