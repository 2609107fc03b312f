package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

func TestParseZones_OmiteInvalidasYDeduplica(t *testing.T) {
	in := "origen,destino,zona\n" +
		"560001,110001,d\n" +
		"560001,110001,E\n" +
		"400001,400002,A\n" +
		"12345,400002,A\n" +
		"400001,400003,Z\n" +
		"# comentario\n" +
		"400001\n"

	rows, skipped, err := parseZones(strings.NewReader(in), false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, zoneRow{origin: "400001", destination: "400002", zone: entity.ZoneA}, rows[0])
	assert.Equal(t, entity.ZoneE, rows[1].zone)
	assert.Equal(t, 4, skipped)
}

func TestParseZones_Windows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("origen,destino,zona,ciudad\n560001,110001,C,Bengalurú\n")
	require.NoError(t, err)

	rows, _, err := parseZones(strings.NewReader(raw), true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.ZoneC, rows[0].zone)
}

func TestWriteSQL(t *testing.T) {
	var buf bytes.Buffer
	rows := []zoneRow{
		{origin: "400001", destination: "400002", zone: entity.ZoneA},
		{origin: "560001", destination: "110001", zone: entity.ZoneE},
	}
	require.NoError(t, writeSQL(&buf, rows, "zonas.csv"))
	out := buf.String()
	assert.Contains(t, out, "('400001', '400002', 'A'),\n")
	assert.Contains(t, out, "('560001', '110001', 'E')\nON CONFLICT")

	buf.Reset()
	require.NoError(t, writeSQL(&buf, nil, "vacio.csv"))
	assert.NotContains(t, buf.String(), "INSERT")
}
