package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/h2non/filetype"
	"github.com/xuri/excelize/v2"

	"SisContratacoes/internal/apperrors"
)

// ole2Magic opens every compound-file document, legacy .xls workbooks among
// them. filetype only recognises a few of its variants.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func isLegacyWorkbook(raw []byte) bool {
	return bytes.HasPrefix(raw, ole2Magic) || filetype.Is(raw, "xls")
}

// table is the raw cell grid of an upload. lines[i] is the 1-based line (or
// sheet row) where rows[i] starts.
type table struct {
	rows        [][]string
	lines       []int
	spreadsheet bool
	encoding    string
}

func readTable(raw []byte, format Format, encodings []string) (*table, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyFile
	}
	switch format {
	case FormatSpreadsheet:
		return readSpreadsheet(raw)
	case FormatDelimitedText:
		return readDelimited(raw, encodings)
	}
	return nil, ErrUnsupportedFormat
}

func readSpreadsheet(raw []byte) (*table, error) {
	var rows [][]string
	if isLegacyWorkbook(raw) {
		var err error
		if rows, err = readLegacySheet(raw); err != nil {
			return nil, err
		}
	} else {
		f, err := excelize.OpenReader(bytes.NewReader(raw))
		if err != nil {
			return nil, ErrBadSpreadsheet.Wrap(err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		rows, err = f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, ErrBadSpreadsheet.Wrap(err)
		}
	}
	t := &table{spreadsheet: true, rows: rows, lines: make([]int, len(rows))}
	for i := range rows {
		t.lines[i] = i + 1
	}
	return t, nil
}

// readLegacySheet returns the first sheet of an .xls workbook. Missing rows
// stay as nil entries so indexes keep matching sheet row numbers. The parser
// panics on some malformed streams; those come back as ErrBadSpreadsheet.
func readLegacySheet(raw []byte) (rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, ErrBadSpreadsheet.Wrap(fmt.Errorf("xls: %v", p))
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, ErrBadSpreadsheet.Wrap(err)
	}
	if wb == nil {
		return nil, ErrBadSpreadsheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrBadSpreadsheet
	}
	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := legacyRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// legacyRow is sheet.Row without the nil dereference on absent rows.
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func readDelimited(raw []byte, encodings []string) (*table, error) {
	if filetype.IsArchive(raw) || isLegacyWorkbook(raw) {
		return nil, apperrors.Validation("file looks like a spreadsheet, not delimited text")
	}
	text, enc, err := decodeText(raw, encodings)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = detectSeparator(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	t := &table{encoding: enc}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Validation("malformed delimited text: %v", err)
		}
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

// detectSeparator picks the most frequent of ';', ',' and tab on the first
// non-empty line, preferring ';' on ties.
func detectSeparator(text string) rune {
	var first string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}
	best, bestCount := ';', strings.Count(first, ";")
	for _, sep := range []rune{',', '\t'} {
		if n := strings.Count(first, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
