package importer

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"SisContratacoes/api/planning/status"
)

// Record is the mapped field set of one import row. An update replaces every
// one of these fields on the stored entry.
type Record struct {
	NumeroContratacao     string
	StatusContratacao     *string
	SituacaoExecucao      *string
	TituloContratacao     *string
	CategoriaContratacao  *string
	ValorTotal            decimal.Decimal
	AreaRequisitante      *string
	NumeroDFD             *string
	DataEstimadaInicio    *time.Time
	DataEstimadaConclusao *time.Time
}

// maxValor is the largest amount a NUMERIC(15,2) column holds.
var maxValor = decimal.RequireFromString("9999999999999.99")

// Validate checks the row against the column limits of the pca table.
func (r *Record) Validate() error {
	limits := []struct {
		name string
		v    *string
		max  int
	}{
		{"numero_contratacao", &r.NumeroContratacao, 50},
		{"status_contratacao", r.StatusContratacao, 100},
		{"situacao_execucao", r.SituacaoExecucao, 100},
		{"categoria_contratacao", r.CategoriaContratacao, 100},
		{"area_requisitante", r.AreaRequisitante, 200},
		{"numero_dfd", r.NumeroDFD, 50},
	}
	for _, l := range limits {
		if l.v != nil && utf8.RuneCountInString(*l.v) > l.max {
			return fmt.Errorf("%s exceeds %d characters", l.name, l.max)
		}
	}
	if r.ValorTotal.GreaterThan(maxValor) {
		return fmt.Errorf("valor_total %s out of range", r.ValorTotal.String())
	}
	return nil
}

func buildRecord(row []string, cm columnMap, spreadsheet bool) *Record {
	text := func(f field) *string { return normalizeText(cm.cell(row, f)) }

	rec := &Record{
		StatusContratacao:     text(fieldStatus),
		SituacaoExecucao:      text(fieldSituacao),
		TituloContratacao:     text(fieldTitulo),
		CategoriaContratacao:  text(fieldCategoria),
		ValorTotal:            parseCurrency(cm.cell(row, fieldValor), spreadsheet),
		AreaRequisitante:      text(fieldArea),
		NumeroDFD:             text(fieldDFD),
		DataEstimadaInicio:    parseDate(cm.cell(row, fieldInicio), spreadsheet),
		DataEstimadaConclusao: parseDate(cm.cell(row, fieldConclusao), spreadsheet),
	}
	if k := text(fieldNumero); k != nil {
		rec.NumeroContratacao = *k
	}
	if rec.SituacaoExecucao == nil {
		s := status.NotStartedLabel
		rec.SituacaoExecucao = &s
	}
	return rec
}
