// Package misfile interpreta los archivos de liquidación (MIS) de las transportadoras, en CSV o XLSX.
package misfile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

var _ ports.MISParser = (*Parser)(nil)

// Parser elige el formato por extensión; cualquier otra cosa se trata como CSV.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(content []byte, filename string) ([]entity.InvoiceRow, []entity.RowError, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(content)
	default:
		records, err = readCSV(content)
	}
	if err != nil {
		return nil, nil, err
	}
	return mapRecords(records)
}

// Alias de encabezado por columna, ya normalizados.
var (
	awbHeaders    = []string{"awb", "awb no", "awb number", "awbno", "tracking id", "tracking number", "waybill", "waybill no"}
	weightHeaders = []string{"charged weight", "charged weight kg", "billed weight", "billed weight kg", "chargeable weight", "weight", "weight kg"}
	amountHeaders = []string{"charged amount", "amount", "freight", "freight amount", "total", "total amount", "billed amount"}
	unitHeaders   = []string{"weight unit", "unit", "uom"}
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	r := strings.NewReplacer("_", " ", "-", " ", ".", " ", "(", " ", ")", " ", "/", " ")
	return strings.Join(strings.Fields(r.Replace(h)), " ")
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

type columns struct {
	awb, weight, amount, unit int
	gramsHeader                bool
}

func resolveColumns(raw []string) (columns, error) {
	header := make([]string, len(raw))
	for i, h := range raw {
		header[i] = normalizeHeader(h)
	}
	c := columns{
		awb:    findColumn(header, awbHeaders),
		weight: findColumn(header, weightHeaders),
		amount: findColumn(header, amountHeaders),
		unit:   findColumn(header, unitHeaders),
	}
	if c.weight < 0 {
		for _, alias := range []string{"charged weight g", "charged weight gm", "weight g", "weight gm", "weight grams"} {
			if i := findColumn(header, []string{alias}); i >= 0 {
				c.weight, c.gramsHeader = i, true
				break
			}
		}
	}
	var missing []string
	if c.awb < 0 {
		missing = append(missing, "AWB")
	}
	if c.weight < 0 {
		missing = append(missing, "peso cobrado")
	}
	if c.amount < 0 {
		missing = append(missing, "monto")
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("encabezado MIS sin columnas: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// mapRecords la primera fila no vacía es el encabezado. LineNo es el número de registro (1 = encabezado).
func mapRecords(records [][]string) ([]entity.InvoiceRow, []entity.RowError, error) {
	start := -1
	for i, r := range records {
		if !blank(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, fmt.Errorf("archivo MIS sin encabezado")
	}
	cols, err := resolveColumns(records[start])
	if err != nil {
		return nil, nil, err
	}

	var rows []entity.InvoiceRow
	var bad []entity.RowError
	seen := map[string]int{}
	for i := start + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		lineNo := i + 1
		row, reason := parseRow(rec, cols, lineNo)
		if reason == "" {
			if first, dup := seen[row.AWB]; dup {
				reason = fmt.Sprintf("AWB duplicado (línea %d)", first)
			}
		}
		if reason != "" {
			bad = append(bad, entity.RowError{LineNo: lineNo, Raw: strings.Join(rec, ","), Reason: reason})
			continue
		}
		seen[row.AWB] = lineNo
		rows = append(rows, row)
	}
	return rows, bad, nil
}

func parseRow(rec []string, c columns, lineNo int) (entity.InvoiceRow, string) {
	awb := strings.ToUpper(strings.TrimSpace(cell(rec, c.awb)))
	if awb == "" {
		return entity.InvoiceRow{}, "AWB vacío"
	}
	value, err := parseNumber(cell(rec, c.weight))
	if err != nil {
		return entity.InvoiceRow{}, "peso cobrado inválido: " + cell(rec, c.weight)
	}
	unit := weight.Kilogram
	if c.gramsHeader {
		unit = weight.Gram
	}
	if c.unit >= 0 {
		if u := strings.TrimSpace(cell(rec, c.unit)); u != "" {
			if unit, err = weight.ParseUnit(u); err != nil {
				return entity.InvoiceRow{}, "unidad de peso desconocida: " + u
			}
		}
	}
	kg, err := weight.ToKilograms(value, unit)
	if err != nil {
		return entity.InvoiceRow{}, "peso cobrado no positivo"
	}
	amount, err := parseAmount(cell(rec, c.amount))
	if err != nil {
		return entity.InvoiceRow{}, "monto inválido: " + cell(rec, c.amount)
	}
	return entity.InvoiceRow{LineNo: lineNo, AWB: awb, ChargedWeightKg: kg, ChargedAmount: amount}, ""
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, p := range []string{"₹", "Rs.", "Rs", "INR"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("vacío")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negativo")
	}
	return d, nil
}
