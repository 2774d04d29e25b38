package importer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type field int

const (
	fieldNumero field = iota
	fieldStatus
	fieldSituacao
	fieldTitulo
	fieldCategoria
	fieldValor
	fieldArea
	fieldDFD
	fieldInicio
	fieldConclusao
	fieldCount
)

type fieldDef struct {
	header string
	column string
	// extra holds other headers seen in exported plan spreadsheets.
	extra []string
}

var fieldDefs = [fieldCount]fieldDef{
	fieldNumero:    {header: "Número da Contratação", column: "numero_contratacao"},
	fieldStatus:    {header: "Status da Contratação", column: "status_contratacao"},
	fieldSituacao:  {header: "Situação da Execução", column: "situacao_execucao"},
	fieldTitulo:    {header: "Título da Contratação", column: "titulo_contratacao"},
	fieldCategoria: {header: "Categoria da Contratação", column: "categoria_contratacao"},
	fieldValor:     {header: "Valor Total", column: "valor_total", extra: []string{"Valor Total (R$)", "Valor"}},
	fieldArea:      {header: "Área Requisitante", column: "area_requisitante"},
	fieldDFD:       {header: "Número DFD", column: "numero_dfd", extra: []string{"Nº DFD", "N° DFD", "DFD"}},
	fieldInicio:    {header: "Data Estimada de Início", column: "data_estimada_inicio", extra: []string{"Data estimada para o início"}},
	fieldConclusao: {header: "Data Estimada de Conclusão", column: "data_estimada_conclusao", extra: []string{"Data estimada para a conclusão"}},
}

// positionalColumns is the column layout of the plan export used when a file
// carries no recognisable header.
var positionalColumns = map[int]field{
	0:  fieldNumero,
	1:  fieldStatus,
	2:  fieldSituacao,
	3:  fieldTitulo,
	4:  fieldCategoria,
	6:  fieldInicio,
	7:  fieldConclusao,
	9:  fieldArea,
	10: fieldDFD,
	24: fieldValor,
}

var headerAliases = buildHeaderAliases()

// buildHeaderAliases indexes every accepted spelling of each header by its
// normalized form: the accented header, its accent-free fold, the form left
// after a lossy decode replaced each accented rune with U+FFFD, and the
// snake_case column name.
func buildHeaderAliases() map[string]field {
	aliases := make(map[string]field)
	add := func(name string, f field) {
		key := normalizeHeader(name)
		if _, dup := aliases[key]; !dup {
			aliases[key] = f
		}
	}
	for f := field(0); f < fieldCount; f++ {
		def := fieldDefs[f]
		for _, h := range append([]string{def.header}, def.extra...) {
			add(h, f)
			add(corruptHeader(h), f)
		}
		add(def.column, f)
	}
	return aliases
}

func corruptHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= utf8.RuneSelf {
			r = utf8.RuneError
		}
		b.WriteRune(r)
	}
	return b.String()
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents strips combining marks, so "Conclusão" becomes "Conclusao".
func foldAccents(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeHeader lowercases, folds accents and collapses separators.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(foldAccents(repairText(s)))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// columnMap holds the cell index of each field, or -1 when the file lacks it.
type columnMap [fieldCount]int

func emptyColumnMap() columnMap {
	var cm columnMap
	for i := range cm {
		cm[i] = -1
	}
	return cm
}

func resolveHeader(cells []string) (columnMap, int) {
	cm := emptyColumnMap()
	resolved := 0
	for i, c := range cells {
		f, ok := headerAliases[normalizeHeader(c)]
		if !ok || cm[f] >= 0 {
			continue
		}
		cm[f] = i
		resolved++
	}
	return cm, resolved
}

func positionalColumnMap() columnMap {
	cm := emptyColumnMap()
	for i, f := range positionalColumns {
		cm[f] = i
	}
	return cm
}

// looksLikeHeader reports whether a key cell reads as a column label rather
// than a contract number.
func looksLikeHeader(keyCell string) bool {
	k := normalizeHeader(keyCell)
	return strings.Contains(k, "numero") || strings.Contains(k, "contrat")
}

func (cm columnMap) cell(row []string, f field) string {
	i := cm[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
