package report

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// PDFRenderer versión imprimible: resumen y tabla de filas.
//
//	┌───────────────────────────────────────────────┐
//	│  Transportadora / mes / versión               │
//	│  Conteos                                      │
//	│  Línea | AWB | Cobrado | Esperado | % | ...   │
//	└───────────────────────────────────────────────┘
type PDFRenderer struct{}

var _ ports.ReportRenderer = PDFRenderer{}

func NewPDFRenderer() PDFRenderer { return PDFRenderer{} }

func (PDFRenderer) Format() string      { return FormatPDF }
func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Render(r *entity.ReconciliationReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report: reporte nulo")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Conciliación de pesos "+r.Run.CarrierID+" "+r.Run.BillingMonth, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(r.Run))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(countsRows(r.Run.Counts)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(r.Lines)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(run entity.ReconciliationRun) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("CONCILIACIÓN DE PESOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Transportadora: "+nonEmpty(run.CarrierID, "-")+"   |   Archivo: "+nonEmpty(run.SourceFile, "-"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Mes "+nonEmpty(run.BillingMonth, "-"), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1,
			}),
			text.New(fmt.Sprintf("Versión %d   |   %s", run.Version, run.CreatedAt.UTC().Format("02/01/2006 15:04")), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func countsRows(c entity.ReconciliationCounts) []core.Row {
	cell := func(label string, v int) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(strconv.Itoa(v), props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		)
	}
	return []core.Row{
		row.New(12).Add(
			cell("Filas", c.TotalRows),
			cell("Conciliadas", c.Matched),
			cell("Sin envío", c.Unmatched),
			cell("Con discrepancia", c.Discrepant),
			cell("Disputas creadas", c.DisputesCreated),
			cell("Inválidas", c.InvalidRows),
		),
		row.New(12).Add(
			cell("Ya conciliadas", c.AlreadyReconciled),
			cell("Ya disputadas", c.AlreadyDisputed),
			cell("Con error", c.FailedRows),
			col.New(6),
		),
	}
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Línea", 1, align.Center),
		h("AWB", 2, align.Left),
		h("Cobrado kg", 1, align.Right),
		h("Monto", 1, align.Right),
		h("Esperado kg", 1, align.Right),
		h("Dif. %", 1, align.Right),
		h("Resultado", 2, align.Left),
		h("Nota / disputa", 3, align.Left),
	)
}

func tableRows(lines []entity.ReconciliationLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		outcome := props.Text{Size: 7, Top: 1, Left: 1}
		if l.Outcome == entity.LineDiscrepant || l.Outcome == entity.LineFailed {
			outcome.Style = fontstyle.Bold
			outcome.Color = colorAlert
		}
		note := l.Note
		if l.DisputeID != "" {
			note = "Disputa " + l.DisputeID
		}
		out = append(out, row.New(6).Add(
			col.New(1).Add(text.New(strconv.Itoa(l.LineNo), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(nonEmpty(l.AWB, "-"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(kg(l.ChargedWeightKg), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.ChargedAmount.StringFixed(2), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(kg(l.ExpectedKg), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(strconv.FormatFloat(l.Percentage, 'f', 2, 64), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(string(l.Outcome), outcome)),
			col.New(3).Add(text.New(note, props.Text{Size: 6.5, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return out
}

func kg(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
