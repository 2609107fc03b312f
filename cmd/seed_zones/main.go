// seed_zones genera el script SQL de zonas fijas (zone_overrides) a partir del
// CSV de pincodes que entrega la transportadora: origen, destino, zona (A-E).
//
// Uso: go run ./cmd/seed_zones [ruta/zonas.csv]
// Por defecto busca zonas.csv en el directorio actual. Acepta UTF-8 o Windows-1252.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_zone_overrides.sql
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

type zoneRow struct {
	origin, destination string
	zone                entity.Zone
}

func main() {
	csvPath := "zonas.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}

	rows, skipped, err := parseZones(bytes.NewReader(raw), !utf8.Valid(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_zone_overrides.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := writeSQL(w, rows, filepath.Base(csvPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generado %s: %d rutas, %d filas omitidas\n", outPath, len(rows), skipped)
}

// parseZones lee origen,destino,zona; omite encabezado y filas inválidas.
// Una ruta repetida conserva la última zona.
func parseZones(r io.Reader, windows1252 bool) ([]zoneRow, int, error) {
	if windows1252 {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	byRoute := map[string]zoneRow{}
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if len(rec) < 3 {
			skipped++
			continue
		}
		row := zoneRow{
			origin:      strings.TrimSpace(rec[0]),
			destination: strings.TrimSpace(rec[1]),
			zone:        entity.Zone(strings.ToUpper(strings.TrimSpace(rec[2]))),
		}
		if !validPincode(row.origin) || !validPincode(row.destination) || !row.zone.Valid() {
			skipped++
			continue
		}
		byRoute[row.origin+"|"+row.destination] = row
	}

	keys := make([]string, 0, len(byRoute))
	for k := range byRoute {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]zoneRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, byRoute[k])
	}
	return rows, skipped, nil
}

func validPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeSQL(w io.Writer, rows []zoneRow, source string) error {
	if _, err := fmt.Fprintf(w, "-- Zonas fijas por ruta de pincodes\n-- Generado desde %s\n\n", source); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := io.WriteString(w, "-- sin rutas válidas\n")
		return err
	}
	if _, err := io.WriteString(w, "INSERT INTO zone_overrides (origin_pincode, destination_pincode, zone) VALUES\n"); err != nil {
		return err
	}
	for i, r := range rows {
		sep := ","
		if i == len(rows)-1 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "  ('%s', '%s', '%s')%s\n", r.origin, r.destination, r.zone, sep); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "ON CONFLICT (origin_pincode, destination_pincode) DO UPDATE SET zone = EXCLUDED.zone, updated_at = now();\n")
	return err
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
