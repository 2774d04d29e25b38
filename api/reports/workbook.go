package reports

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Resumo"
	dateFormat   = "dd/mm/yyyy"
	stampFormat  = "dd/mm/yyyy hh:mm"
	moneyFormat  = "#,##0.00"
)

// SavingsSummary totals the economia column of a report.
type SavingsSummary struct {
	Count   int             `json:"total_licitacoes"`
	Total   decimal.Decimal `json:"total_economia"`
	Average decimal.Decimal `json:"economia_media"`
}

func summarizeSavings(fields []Field, rows []Row) *SavingsSummary {
	col := -1
	for i, f := range fields {
		if f.Key == "economia" {
			col = i
			break
		}
	}
	s := &SavingsSummary{Count: len(rows), Total: decimal.Zero, Average: decimal.Zero}
	if col < 0 {
		return s
	}
	for _, r := range rows {
		if d, ok := r[col].(decimal.Decimal); ok {
			s.Total = s.Total.Add(d)
		}
	}
	if s.Count > 0 {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
	}
	return s
}

type styles struct {
	header, date, stamp, money int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}); err != nil {
		return st, err
	}
	custom := func(format string) (int, error) {
		return f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	}
	if st.date, err = custom(dateFormat); err != nil {
		return st, err
	}
	if st.stamp, err = custom(stampFormat); err != nil {
		return st, err
	}
	st.money, err = custom(moneyFormat)
	return st, err
}

// Workbook renders rows into a single-sheet xlsx file. A non-nil summary adds
// a second sheet with the savings totals.
func Workbook(sheet string, fields []Field, rows []Row, summary *SavingsSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(fields))
	for i, fd := range fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, fd.Header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return nil, err
		}
		widths[i] = len([]rune(fd.Header))
	}

	for r, row := range rows {
		for c, fd := range fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			v, style, width := cellValue(fd.Kind, row[c], st)
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return nil, err
				}
			}
			if width > widths[c] {
				widths[c] = width
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, 60))); err != nil {
			return nil, err
		}
	}

	if summary != nil {
		if err := writeSummary(f, summary, st); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func cellValue(kind Kind, v interface{}, st styles) (interface{}, int, int) {
	if v == nil {
		return nil, 0, 0
	}
	switch kind {
	case KindMoney, KindPercent:
		d, ok := v.(decimal.Decimal)
		if !ok {
			break
		}
		return d.InexactFloat64(), st.money, len(d.StringFixed(2)) + 3
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t, st.date, len(dateFormat)
		}
	case KindTimestamp:
		if t, ok := v.(time.Time); ok {
			return t, st.stamp, len(stampFormat)
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Sim", 0, 3
			}
			return "Não", 0, 3
		}
	}
	s := fmt.Sprint(v)
	return v, 0, len([]rune(s))
}

func writeSummary(f *excelize.File, s *SavingsSummary, st styles) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	lines := []struct {
		label string
		value interface{}
		style int
	}{
		{"Total de Licitações com Economia", s.Count, 0},
		{"Economia Total (R$)", s.Total.InexactFloat64(), st.money},
		{"Economia Média (R$)", s.Average.InexactFloat64(), st.money},
	}
	for i, l := range lines {
		row := i + 1
		label := fmt.Sprintf("A%d", row)
		value := fmt.Sprintf("B%d", row)
		if err := f.SetCellValue(summarySheet, label, l.label); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, st.header); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, value, l.value); err != nil {
			return err
		}
		if l.style != 0 {
			if err := f.SetCellStyle(summarySheet, value, value, l.style); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 34); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 18)
}
