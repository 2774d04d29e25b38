package bidding

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

var hundred = decimal.NewFromInt(100)

// Licitacao is the bidding process opened for a concluded dossier.
type Licitacao struct {
	ID                   string              `json:"id"`
	Nup                  string              `json:"nup"`
	NumeroContratacao    *string             `json:"numero_contratacao"`
	Ano                  int                 `json:"ano"`
	AreaDemandante       *string             `json:"area_demandante"`
	ResponsavelInstrucao *string             `json:"responsavel_instrucao"`
	Modalidade           *string             `json:"modalidade"`
	Objeto               *string             `json:"objeto"`
	PalavraChave         *string             `json:"palavra_chave"`
	ValorEstimado        decimal.NullDecimal `json:"valor_estimado"`
	Observacoes          *string             `json:"observacoes"`
	Pregoeiro            *string             `json:"pregoeiro"`
	ValorHomologado      decimal.NullDecimal `json:"valor_homologado"`
	DataHomologacao      pgtype.Date         `json:"data_homologacao"`
	Link                 *string             `json:"link"`
	Status               string              `json:"status"`
	Economia             decimal.NullDecimal `json:"economia"`
	CreatedBy            *string             `json:"created_by"`
	UpdatedBy            *string             `json:"updated_by"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            *time.Time          `json:"updated_at"`
}

type Input struct {
	Nup                  *string          `json:"nup" validate:"omitempty,max=50"`
	NumeroContratacao    *string          `json:"numero_contratacao" validate:"omitempty,max=50"`
	AreaDemandante       *string          `json:"area_demandante" validate:"omitempty,max=200"`
	ResponsavelInstrucao *string          `json:"responsavel_instrucao" validate:"omitempty,max=200"`
	Modalidade           *string          `json:"modalidade" validate:"omitempty,max=100"`
	Objeto               *string          `json:"objeto"`
	PalavraChave         *string          `json:"palavra_chave" validate:"omitempty,max=200"`
	ValorEstimado        *decimal.Decimal `json:"valor_estimado"`
	Observacoes          *string          `json:"observacoes"`
	Pregoeiro            *string          `json:"pregoeiro" validate:"omitempty,max=200"`
	ValorHomologado      *decimal.Decimal `json:"valor_homologado"`
	DataHomologacao      *pgtype.Date     `json:"data_homologacao"`
	Link                 *string          `json:"link" validate:"omitempty,max=500"`
	Status               *string          `json:"status" validate:"omitempty,oneof='EM ANDAMENTO' HOMOLOGADA FRACASSADA REVOGADA"`
}

func (in *Input) validateValues() error {
	if in.Nup != nil {
		v := strings.TrimSpace(*in.Nup)
		if v == "" {
			return apperrors.Validation("%s", constants.FormatMissingFieldError("nup"))
		}
		in.Nup = &v
	}
	for name, v := range map[string]*decimal.Decimal{"valor_estimado": in.ValorEstimado, "valor_homologado": in.ValorHomologado} {
		if v != nil && v.IsNegative() {
			return apperrors.Validation("%s", constants.FormatFieldError(name, "must not be negative"))
		}
	}
	return nil
}

func (in *Input) ValidateCreate() error {
	if in.Nup == nil {
		return apperrors.Validation("%s", constants.FormatMissingFieldError("nup"))
	}
	return in.validateValues()
}

func (in *Input) ValidateUpdate() error {
	return in.validateValues()
}

// Economia is estimado minus homologado, or null unless both are known.
func Economia(estimado, homologado decimal.NullDecimal) decimal.NullDecimal {
	if !estimado.Valid || !homologado.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(estimado.Decimal.Sub(homologado.Decimal))
}

func setString(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}

func setDecimal(dst *decimal.NullDecimal, v *decimal.Decimal) {
	if v != nil {
		*dst = decimal.NewNullDecimal(*v)
	}
}

// apply copies the fields present in in onto l and recomputes economia.
func (l *Licitacao) apply(in *Input) {
	if in.Nup != nil {
		l.Nup = *in.Nup
	}
	setString(&l.NumeroContratacao, in.NumeroContratacao)
	setString(&l.AreaDemandante, in.AreaDemandante)
	setString(&l.ResponsavelInstrucao, in.ResponsavelInstrucao)
	setString(&l.Modalidade, in.Modalidade)
	setString(&l.Objeto, in.Objeto)
	setString(&l.PalavraChave, in.PalavraChave)
	setDecimal(&l.ValorEstimado, in.ValorEstimado)
	setString(&l.Observacoes, in.Observacoes)
	setString(&l.Pregoeiro, in.Pregoeiro)
	setDecimal(&l.ValorHomologado, in.ValorHomologado)
	if in.DataHomologacao != nil {
		l.DataHomologacao = *in.DataHomologacao
	}
	setString(&l.Link, in.Link)
	if in.Status != nil {
		l.Status = *in.Status
	}
	l.Economia = Economia(l.ValorEstimado, l.ValorHomologado)
}

type ListFilter struct {
	Skip   int
	Limit  int
	Status string
}

// StatusCounts is the raw aggregate the dashboard is derived from.
type StatusCounts struct {
	Total           int
	Homologadas     int
	EmAndamento     int
	Fracassadas     int
	Revogadas       int
	ValorEstimado   decimal.Decimal
	ValorHomologado decimal.Decimal
	Economia        decimal.Decimal
}

type Stats struct {
	Total              int             `json:"total_licitacoes"`
	Homologadas        int             `json:"homologadas"`
	EmAndamento        int             `json:"em_andamento"`
	Fracassadas        int             `json:"fracassadas"`
	Revogadas          int             `json:"revogadas"`
	ValorEstimado      decimal.Decimal `json:"valor_total_estimado"`
	ValorHomologado    decimal.Decimal `json:"valor_total_homologado"`
	Economia           decimal.Decimal `json:"total_economia"`
	EconomiaPercentual float64         `json:"economia_percentual"`
	TaxaSucesso        float64         `json:"taxa_sucesso"`
	PorStatus          map[string]int  `json:"licitacoes_por_status"`
}

// Summarize derives the percentages. The success rate counts homologated
// processes over the concluded ones (homologated, failed or revoked).
func Summarize(c StatusCounts) *Stats {
	st := &Stats{
		Total:           c.Total,
		Homologadas:     c.Homologadas,
		EmAndamento:     c.EmAndamento,
		Fracassadas:     c.Fracassadas,
		Revogadas:       c.Revogadas,
		ValorEstimado:   c.ValorEstimado,
		ValorHomologado: c.ValorHomologado,
		Economia:        c.Economia,
		PorStatus: map[string]int{
			constants.LicitacaoHomologada:  c.Homologadas,
			constants.LicitacaoEmAndamento: c.EmAndamento,
			constants.LicitacaoFracassada:  c.Fracassadas,
			constants.LicitacaoRevogada:    c.Revogadas,
		},
	}
	if c.ValorEstimado.IsPositive() {
		st.EconomiaPercentual = c.Economia.Div(c.ValorEstimado).Mul(hundred).Round(2).InexactFloat64()
	}
	if concluded := c.Homologadas + c.Fracassadas + c.Revogadas; concluded > 0 {
		st.TaxaSucesso = decimal.NewFromInt(int64(c.Homologadas)).
			Div(decimal.NewFromInt(int64(concluded))).Mul(hundred).Round(2).InexactFloat64()
	}
	return st
}

type SavingsItem struct {
	Nup               string          `json:"nup"`
	NumeroContratacao *string         `json:"numero_contratacao"`
	Objeto            *string         `json:"objeto"`
	ValorEstimado     decimal.Decimal `json:"valor_estimado"`
	ValorHomologado   decimal.Decimal `json:"valor_homologado"`
	Economia          decimal.Decimal `json:"economia"`
	Percentual        float64         `json:"percentual_economia"`
}

type SavingsReport struct {
	Licitacoes []SavingsItem   `json:"licitacoes"`
	Total      decimal.Decimal `json:"total_economia"`
	Count      int             `json:"total_licitacoes_com_economia"`
}

// BuildSavingsReport keeps the rows with a positive economia.
func BuildSavingsReport(rows []Licitacao) SavingsReport {
	rep := SavingsReport{Licitacoes: []SavingsItem{}, Total: decimal.Zero}
	for _, l := range rows {
		if !l.Economia.Valid || !l.Economia.Decimal.IsPositive() {
			continue
		}
		item := SavingsItem{
			Nup:               l.Nup,
			NumeroContratacao: l.NumeroContratacao,
			Objeto:            l.Objeto,
			ValorEstimado:     l.ValorEstimado.Decimal,
			ValorHomologado:   l.ValorHomologado.Decimal,
			Economia:          l.Economia.Decimal,
		}
		if item.ValorEstimado.IsPositive() {
			item.Percentual = item.Economia.Div(item.ValorEstimado).Mul(hundred).Round(2).InexactFloat64()
		}
		rep.Licitacoes = append(rep.Licitacoes, item)
		rep.Total = rep.Total.Add(item.Economia)
	}
	rep.Count = len(rep.Licitacoes)
	return rep
}
