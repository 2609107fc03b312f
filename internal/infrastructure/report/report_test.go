package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

func sampleReport() *entity.ReconciliationReport {
	return &entity.ReconciliationReport{
		Run: entity.ReconciliationRun{
			ID: "run-1", CarrierID: "delhivery", BillingMonth: "2024-06", Version: 2,
			SourceFile: "mis.csv",
			Counts:     entity.ReconciliationCounts{TotalRows: 3, Matched: 1, Discrepant: 1, DisputesCreated: 1, InvalidRows: 1},
			CreatedAt:  time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC),
		},
		Lines: []entity.ReconciliationLine{
			{LineNo: 2, AWB: "AWB1", ShipmentID: "s1", ChargedWeightKg: 1, ChargedAmount: decimal.NewFromInt(60), ExpectedKg: 1, Outcome: entity.LineMatched},
			{LineNo: 3, AWB: "AWB2", ShipmentID: "s2", ChargedWeightKg: 2.5, ChargedAmount: decimal.NewFromInt(150), ExpectedKg: 1, Percentage: 150, Outcome: entity.LineDiscrepant, DisputeID: "d-9"},
			{LineNo: 4, Outcome: entity.LineInvalid, Note: "peso inválido"},
		},
	}
}

func TestJSONRenderer(t *testing.T) {
	data, err := NewJSONRenderer().Render(sampleReport())
	require.NoError(t, err)

	var got struct {
		Run struct {
			CarrierID string `json:"carrier_id"`
			Version   int    `json:"version"`
			Counts    struct {
				DisputesCreated int `json:"disputes_created"`
			} `json:"counts"`
		} `json:"run"`
		Lines []struct {
			AWB       string `json:"awb"`
			Outcome   string `json:"outcome"`
			DisputeID string `json:"dispute_id"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "delhivery", got.Run.CarrierID)
	assert.Equal(t, 2, got.Run.Version)
	assert.Equal(t, 1, got.Run.Counts.DisputesCreated)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, "discrepant", got.Lines[1].Outcome)
	assert.Equal(t, "d-9", got.Lines[1].DisputeID)
}

func TestJSONRenderer_SinFilas(t *testing.T) {
	data, err := NewJSONRenderer().Render(&entity.ReconciliationReport{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lines": []`)
}

func TestXLSXRenderer(t *testing.T) {
	data, err := NewXLSXRenderer().Render(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetLines}, f.GetSheetList())

	carrier, err := f.GetCellValue(sheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "delhivery", carrier)

	rows, err := f.GetRows(sheetLines)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "AWB", rows[0][1])
	assert.Equal(t, "AWB2", rows[2][1])
	assert.Equal(t, "discrepant", rows[2][7])
	assert.Equal(t, "d-9", rows[2][8])
}

func TestPDFRenderer(t *testing.T) {
	data, err := NewPDFRenderer().Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestAll_FormatosUnicos(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range All() {
		assert.False(t, seen[r.Format()], r.Format())
		seen[r.Format()] = true
		assert.NotEmpty(t, r.ContentType())
	}
	assert.Len(t, seen, 3)
}

func TestRender_Nil(t *testing.T) {
	for _, r := range All() {
		_, err := r.Render(nil)
		assert.Error(t, err, r.Format())
	}
}
