// Package reports exports plan, dossier and bidding data as xlsx workbooks or
// JSON. Columns come from an explicit registry per data source, so a report
// request can only name columns listed here.
package reports

import (
	"SisContratacoes/api/constants"
	"SisContratacoes/api/planning/status"
	"SisContratacoes/internal/apperrors"
)

type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindPercent
	KindDate
	KindTimestamp
	KindInt
	KindBool
)

// todayMarker in a field expression is replaced with the reference-date parameter.
const todayMarker = "{today}"

type Field struct {
	Key    string
	Header string
	Expr   string
	Kind   Kind
}

type Source struct {
	Name   string
	Table  string
	Sheet  string
	Fields []Field
	// Default lists the columns of the fixed export, in order.
	Default      []string
	Where        string
	OrderBy      string
	DateColumn   string
	StatusColumn string
	ValueColumn  string
	// Custom marks sources selectable in a custom report.
	Custom bool
}

func (s *Source) field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Resolve maps requested keys to registry fields, keeping the request order.
func (s *Source) Resolve(keys []string) ([]Field, error) {
	if len(keys) == 0 {
		return nil, apperrors.Validation(constants.ErrNoFieldsSelected)
	}
	out := make([]Field, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		f, ok := s.field(k)
		if !ok {
			return nil, apperrors.Validation(constants.ErrUnknownField, k, s.Name)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out, nil
}

func (s *Source) Defaults() []Field {
	out, _ := s.Resolve(s.Default)
	return out
}

var pcaStatus = status.DefaultColumns(todayMarker)

var sources = map[string]*Source{
	"pca": {
		Name:  "pca",
		Table: "pca",
		Sheet: "PCA",
		Fields: []Field{
			{"numero_contratacao", "Número Contratação", "numero_contratacao", KindText},
			{"status_contratacao", "Status", "status_contratacao", KindText},
			{"situacao_execucao", "Situação Execução", "situacao_execucao", KindText},
			{"titulo_contratacao", "Título", "titulo_contratacao", KindText},
			{"categoria_contratacao", "Categoria", "categoria_contratacao", KindText},
			{"valor_total", "Valor Total", "valor_total", KindMoney},
			{"area_requisitante", "Área Requisitante", "area_requisitante", KindText},
			{"numero_dfd", "Número DFD", "numero_dfd", KindText},
			{"data_estimada_inicio", "Data Início", "data_estimada_inicio", KindDate},
			{"data_estimada_conclusao", "Data Conclusão", "data_estimada_conclusao", KindDate},
			{"atrasada", "Atrasada", "COALESCE(" + status.DelayedSQL(pcaStatus) + ", FALSE)", KindBool},
			{"vencida", "Vencida", "COALESCE(" + status.OverdueSQL(pcaStatus) + ", FALSE)", KindBool},
			{"created_at", "Criado em", "created_at", KindTimestamp},
		},
		Default: []string{
			"numero_contratacao", "status_contratacao", "situacao_execucao", "titulo_contratacao",
			"categoria_contratacao", "valor_total", "area_requisitante", "numero_dfd",
			"data_estimada_inicio", "data_estimada_conclusao", "atrasada", "vencida", "created_at",
		},
		OrderBy:      "numero_contratacao",
		DateColumn:   "created_at",
		StatusColumn: "status_contratacao",
		ValueColumn:  "valor_total",
		Custom:       true,
	},
	"qualificacao": {
		Name:  "qualificacao",
		Table: "qualificacoes",
		Sheet: "Qualificação",
		Fields: []Field{
			{"nup", "NUP", "nup", KindText},
			{"numero_contratacao", "Número Contratação", "numero_contratacao", KindText},
			{"ano", "Ano", "ano", KindInt},
			{"area_demandante", "Área Demandante", "area_demandante", KindText},
			{"responsavel_instrucao", "Responsável Instrução", "responsavel_instrucao", KindText},
			{"modalidade", "Modalidade", "modalidade", KindText},
			{"objeto", "Objeto", "objeto", KindText},
			{"palavra_chave", "Palavra-chave", "palavra_chave", KindText},
			{"valor_estimado", "Valor Estimado", "valor_estimado", KindMoney},
			{"status", "Status", "status", KindText},
			{"observacoes", "Observações", "observacoes", KindText},
			{"created_at", "Criado em", "created_at", KindTimestamp},
		},
		Default: []string{
			"nup", "numero_contratacao", "ano", "area_demandante", "responsavel_instrucao",
			"modalidade", "objeto", "palavra_chave", "valor_estimado", "status", "observacoes", "created_at",
		},
		OrderBy:      "ano DESC, nup",
		DateColumn:   "created_at",
		StatusColumn: "status",
		ValueColumn:  "valor_estimado",
		Custom:       true,
	},
	"licitacao": {
		Name:  "licitacao",
		Table: "licitacoes",
		Sheet: "Licitação",
		Fields: []Field{
			{"nup", "NUP", "nup", KindText},
			{"numero_contratacao", "Número Contratação", "numero_contratacao", KindText},
			{"ano", "Ano", "ano", KindInt},
			{"area_demandante", "Área Demandante", "area_demandante", KindText},
			{"modalidade", "Modalidade", "modalidade", KindText},
			{"objeto", "Objeto", "objeto", KindText},
			{"pregoeiro", "Pregoeiro", "pregoeiro", KindText},
			{"valor_estimado", "Valor Estimado", "valor_estimado", KindMoney},
			{"valor_homologado", "Valor Homologado", "valor_homologado", KindMoney},
			{"economia", "Economia", "economia", KindMoney},
			{"data_homologacao", "Data Homologação", "data_homologacao", KindDate},
			{"status", "Status", "status", KindText},
			{"link", "Link", "link", KindText},
			{"created_at", "Criado em", "created_at", KindTimestamp},
		},
		Default: []string{
			"nup", "numero_contratacao", "ano", "area_demandante", "modalidade", "objeto", "pregoeiro",
			"valor_estimado", "valor_homologado", "economia", "data_homologacao", "status", "link", "created_at",
		},
		OrderBy:      "created_at DESC",
		DateColumn:   "created_at",
		StatusColumn: "status",
		ValueColumn:  "valor_estimado",
		Custom:       true,
	},
	"economia": {
		Name:  "economia",
		Table: "licitacoes",
		Sheet: "Relatório de Economia",
		Fields: []Field{
			{"nup", "NUP", "nup", KindText},
			{"numero_contratacao", "Número Contratação", "numero_contratacao", KindText},
			{"objeto", "Objeto", "objeto", KindText},
			{"valor_estimado", "Valor Estimado", "valor_estimado", KindMoney},
			{"valor_homologado", "Valor Homologado", "valor_homologado", KindMoney},
			{"economia", "Economia (R$)", "economia", KindMoney},
			{"percentual_economia", "Percentual Economia (%)",
				"CASE WHEN valor_estimado > 0 THEN ROUND(economia / valor_estimado * 100, 2) ELSE 0 END", KindPercent},
			{"data_homologacao", "Data Homologação", "data_homologacao", KindDate},
			{"status", "Status", "status", KindText},
		},
		Default: []string{
			"nup", "numero_contratacao", "objeto", "valor_estimado", "valor_homologado",
			"economia", "percentual_economia", "data_homologacao", "status",
		},
		Where:        "economia > 0",
		OrderBy:      "economia DESC",
		DateColumn:   "created_at",
		StatusColumn: "status",
		ValueColumn:  "valor_estimado",
	},
}

// Lookup returns the named source. custom restricts it to custom-report sources.
func Lookup(name string, custom bool) (*Source, error) {
	s, ok := sources[name]
	if !ok || (custom && !s.Custom) {
		if custom {
			return nil, apperrors.Validation(constants.ErrUnknownDataSource, name)
		}
		return nil, apperrors.Validation(constants.ErrUnknownReport, name)
	}
	return s, nil
}

// Keys lists the registered field keys of a source, for error messages and docs.
func (s *Source) Keys() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Key
	}
	return out
}

func (k Kind) String() string {
	switch k {
	case KindMoney:
		return "money"
	case KindPercent:
		return "percent"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return "text"
}
