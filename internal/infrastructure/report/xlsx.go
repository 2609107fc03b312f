package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

const (
	sheetSummary = "Resumen"
	sheetLines   = "Detalle"
)

var lineHeaders = []interface{}{
	"Línea", "AWB", "Envío", "Peso cobrado (kg)", "Monto cobrado",
	"Peso esperado (kg)", "Diferencia %", "Resultado", "Disputa", "Nota",
}

// XLSXRenderer libro con hoja de resumen y hoja de detalle.
type XLSXRenderer struct{}

var _ ports.ReportRenderer = XLSXRenderer{}

func NewXLSXRenderer() XLSXRenderer { return XLSXRenderer{} }

func (XLSXRenderer) Format() string { return FormatXLSX }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Render(r *entity.ReconciliationReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report: reporte nulo")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: hoja resumen: %w", err)
	}
	if err := writeSummary(f, r); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetLines); err != nil {
		return nil, fmt.Errorf("xlsx: hoja detalle: %w", err)
	}
	if err := f.SetSheetRow(sheetLines, "A1", &lineHeaders); err != nil {
		return nil, fmt.Errorf("xlsx: encabezados: %w", err)
	}
	for i, l := range r.Lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			l.LineNo, l.AWB, l.ShipmentID, l.ChargedWeightKg, l.ChargedAmount.InexactFloat64(),
			l.ExpectedKg, l.Percentage, string(l.Outcome), l.DisputeID, l.Note,
		}
		if err := f.SetSheetRow(sheetLines, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", l.LineNo, err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheetLines, 1, 1, style)
	}
	_ = f.SetColWidth(sheetLines, "B", "C", 22)
	_ = f.SetColWidth(sheetLines, "J", "J", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, r *entity.ReconciliationReport) error {
	c := r.Run.Counts
	rows := [][]interface{}{
		{"Transportadora", r.Run.CarrierID},
		{"Mes de facturación", r.Run.BillingMonth},
		{"Versión", r.Run.Version},
		{"Archivo", r.Run.SourceFile},
		{"Generado", r.Run.CreatedAt.UTC().Format("2006-01-02 15:04 MST")},
		{},
		{"Filas totales", c.TotalRows},
		{"Conciliadas", c.Matched},
		{"Sin envío", c.Unmatched},
		{"Con discrepancia", c.Discrepant},
		{"Disputas creadas", c.DisputesCreated},
		{"Ya conciliadas", c.AlreadyReconciled},
		{"Ya disputadas", c.AlreadyDisputed},
		{"Inválidas", c.InvalidRows},
		{"Con error", c.FailedRows},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := row
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("xlsx: resumen: %w", err)
		}
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 22)
	return nil
}
