package planning

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"SisContratacoes/api/constants"
	"SisContratacoes/api/planning/status"
	"SisContratacoes/internal/apperrors"
)

// PCA is one line of the annual procurement plan. Atrasada and Vencida are
// derived on every read and never stored.
type PCA struct {
	ID                    string          `json:"id"`
	NumeroContratacao     string          `json:"numero_contratacao"`
	StatusContratacao     *string         `json:"status_contratacao"`
	SituacaoExecucao      *string         `json:"situacao_execucao"`
	TituloContratacao     *string         `json:"titulo_contratacao"`
	CategoriaContratacao  *string         `json:"categoria_contratacao"`
	ValorTotal            decimal.Decimal `json:"valor_total"`
	AreaRequisitante      *string         `json:"area_requisitante"`
	NumeroDFD             *string         `json:"numero_dfd"`
	DataEstimadaInicio    pgtype.Date     `json:"data_estimada_inicio"`
	DataEstimadaConclusao pgtype.Date     `json:"data_estimada_conclusao"`
	CreatedBy             *string         `json:"created_by"`
	UpdatedBy             *string         `json:"updated_by"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             *time.Time      `json:"updated_at"`
	status.Result
}

// Classify fills the derived flags for the given calendar day.
func (p *PCA) Classify(today time.Time) {
	p.Result = status.Classify(p.SituacaoExecucao, dateValue(p.DataEstimadaInicio), dateValue(p.DataEstimadaConclusao), today)
}

func dateValue(d pgtype.Date) *time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return nil
	}
	t := d.Time
	return &t
}

// PCAInput is the body of create and update requests. On update, absent
// fields keep their stored value.
type PCAInput struct {
	NumeroContratacao     *string          `json:"numero_contratacao" validate:"omitempty,max=50"`
	StatusContratacao     *string          `json:"status_contratacao" validate:"omitempty,max=100"`
	SituacaoExecucao      *string          `json:"situacao_execucao" validate:"omitempty,max=100"`
	TituloContratacao     *string          `json:"titulo_contratacao"`
	CategoriaContratacao  *string          `json:"categoria_contratacao" validate:"omitempty,max=100"`
	ValorTotal            *decimal.Decimal `json:"valor_total"`
	AreaRequisitante      *string          `json:"area_requisitante" validate:"omitempty,max=200"`
	NumeroDFD             *string          `json:"numero_dfd" validate:"omitempty,max=50"`
	DataEstimadaInicio    *pgtype.Date     `json:"data_estimada_inicio"`
	DataEstimadaConclusao *pgtype.Date     `json:"data_estimada_conclusao"`
}

// validateValues checks the rules struct tags cannot express.
func (in *PCAInput) validateValues() error {
	if in.NumeroContratacao != nil {
		trimmed := strings.TrimSpace(*in.NumeroContratacao)
		if trimmed == "" {
			return apperrors.Validation("%s", constants.FormatMissingFieldError("numero_contratacao"))
		}
		if utf8.RuneCountInString(trimmed) > 50 {
			return apperrors.Validation("%s", constants.FormatFieldError("numero_contratacao", "exceeds 50 characters"))
		}
		in.NumeroContratacao = &trimmed
	}
	if in.ValorTotal != nil && in.ValorTotal.IsNegative() {
		return apperrors.Validation("%s", constants.FormatFieldError("valor_total", "must not be negative"))
	}
	return nil
}

// ValidateCreate requires the natural key on top of validateValues.
func (in *PCAInput) ValidateCreate() error {
	if in.NumeroContratacao == nil {
		return apperrors.Validation("%s", constants.FormatMissingFieldError("numero_contratacao"))
	}
	return in.validateValues()
}

func (in *PCAInput) ValidateUpdate() error {
	return in.validateValues()
}

// ListFilter selects a page of entries. Nil flags do not filter; Limit <= 0
// returns every match.
type ListFilter struct {
	Skip     int
	Limit    int
	Atrasada *bool
	Vencida  *bool
	Today    time.Time
}

// Stats is the dashboard summary. NoPrazo counts entries that are neither
// delayed nor overdue.
type Stats struct {
	Total      int             `json:"total_pcas"`
	Atrasadas  int             `json:"pcas_atrasadas"`
	Vencidas   int             `json:"pcas_vencidas"`
	NoPrazo    int             `json:"pcas_no_prazo"`
	ValorTotal decimal.Decimal `json:"valor_total_planejado"`
	Today      string          `json:"data_referencia"`
}
