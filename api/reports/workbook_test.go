package reports

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSummarizeSavings(t *testing.T) {
	src, _ := Lookup("economia", false)
	fields := src.Defaults()
	col := -1
	for i, f := range fields {
		if f.Key == "economia" {
			col = i
		}
	}
	require.GreaterOrEqual(t, col, 0)

	rows := []Row{make(Row, len(fields)), make(Row, len(fields)), make(Row, len(fields))}
	rows[0][col] = decimal.RequireFromString("100")
	rows[1][col] = decimal.RequireFromString("50.5")
	rows[2][col] = decimal.RequireFromString("0.5")

	s := summarizeSavings(fields, rows)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, "151", s.Total.String())
	assert.Equal(t, "50.33", s.Average.String())

	empty := summarizeSavings(fields, nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Average.IsZero())
}

func TestWorkbookContents(t *testing.T) {
	fields := []Field{
		{"nup", "NUP", "nup", KindText},
		{"valor", "Valor", "valor", KindMoney},
		{"atrasada", "Atrasada", "atrasada", KindBool},
		{"inicio", "Data Início", "inicio", KindDate},
	}
	rows := []Row{
		{"23000.1/2025", decimal.RequireFromString("1234.5"), true, today},
		{"23000.2/2025", nil, false, nil},
	}
	summary := &SavingsSummary{Count: 2, Total: decimal.RequireFromString("80"), Average: decimal.RequireFromString("40")}

	f, err := Workbook("Relatório de Economia", fields, rows, summary)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	got, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, []string{"Relatório de Economia", "Resumo"}, got.GetSheetList())
	sheet := "Relatório de Economia"
	raw := excelize.Options{RawCellValue: true}
	cell := func(sheet, ref string) string {
		v, err := got.GetCellValue(sheet, ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "NUP", cell(sheet, "A1"))
	assert.Equal(t, "Data Início", cell(sheet, "D1"))
	assert.Equal(t, "23000.1/2025", cell(sheet, "A2"))
	assert.Equal(t, "1234.5", cell(sheet, "B2"))
	assert.Equal(t, "Sim", cell(sheet, "C2"))
	assert.NotEmpty(t, cell(sheet, "D2"))
	assert.Equal(t, "", cell(sheet, "B3"))
	assert.Equal(t, "Não", cell(sheet, "C3"))
	assert.Equal(t, "", cell(sheet, "D3"))

	assert.Equal(t, "Total de Licitações com Economia", cell(summarySheet, "A1"))
	assert.Equal(t, "2", cell(summarySheet, "B1"))
	assert.Equal(t, "80", cell(summarySheet, "B2"))
	assert.Equal(t, "40", cell(summarySheet, "B3"))
}

func TestWorkbookWithoutSummary(t *testing.T) {
	f, err := Workbook("PCA", []Field{{"n", "Número", "n", KindText}}, nil, nil)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"PCA"}, f.GetSheetList())
}
