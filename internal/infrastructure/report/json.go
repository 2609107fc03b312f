// Package report genera los artefactos del reporte de conciliación MIS.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// JSONRenderer reporte completo en JSON indentado.
type JSONRenderer struct{}

var _ ports.ReportRenderer = JSONRenderer{}

func NewJSONRenderer() JSONRenderer { return JSONRenderer{} }

func (JSONRenderer) Format() string      { return FormatJSON }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(r *entity.ReconciliationReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report: reporte nulo")
	}
	if r.Lines == nil {
		cp := *r
		cp.Lines = []entity.ReconciliationLine{}
		r = &cp
	}
	return json.MarshalIndent(r, "", "  ")
}

// All renderizadores disponibles, en el orden en que se generan.
func All() []ports.ReportRenderer {
	return []ports.ReportRenderer{NewJSONRenderer(), NewXLSXRenderer(), NewPDFRenderer()}
}
