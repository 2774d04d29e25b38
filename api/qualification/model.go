package qualification

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

// Qualificacao is the dossier opened for a planned contract, identified by
// its NUP (the administrative process number).
type Qualificacao struct {
	ID                   string              `json:"id"`
	Nup                  string              `json:"nup"`
	NumeroContratacao    string              `json:"numero_contratacao"`
	Ano                  int                 `json:"ano"`
	AreaDemandante       *string             `json:"area_demandante"`
	ResponsavelInstrucao *string             `json:"responsavel_instrucao"`
	Modalidade           *string             `json:"modalidade"`
	Objeto               *string             `json:"objeto"`
	PalavraChave         *string             `json:"palavra_chave"`
	ValorEstimado        decimal.NullDecimal `json:"valor_estimado"`
	Status               string              `json:"status"`
	Observacoes          *string             `json:"observacoes"`
	CreatedBy            *string             `json:"created_by"`
	UpdatedBy            *string             `json:"updated_by"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            *time.Time          `json:"updated_at"`
}

// Input is the body of create and update requests; absent fields are kept
// on update.
type Input struct {
	Nup                  *string          `json:"nup" validate:"omitempty,max=50"`
	NumeroContratacao    *string          `json:"numero_contratacao" validate:"omitempty,max=50"`
	Ano                  *int             `json:"ano" validate:"omitempty,gte=2000,lte=2100"`
	AreaDemandante       *string          `json:"area_demandante" validate:"omitempty,max=200"`
	ResponsavelInstrucao *string          `json:"responsavel_instrucao" validate:"omitempty,max=200"`
	Modalidade           *string          `json:"modalidade" validate:"omitempty,max=100"`
	Objeto               *string          `json:"objeto"`
	PalavraChave         *string          `json:"palavra_chave" validate:"omitempty,max=200"`
	ValorEstimado        *decimal.Decimal `json:"valor_estimado"`
	Status               *string          `json:"status" validate:"omitempty,oneof='EM ANALISE' CONCLUIDO"`
	Observacoes          *string          `json:"observacoes"`
}

func trimRequired(p **string, name string) error {
	if *p == nil {
		return nil
	}
	v := strings.TrimSpace(**p)
	if v == "" {
		return apperrors.Validation("%s", constants.FormatMissingFieldError(name))
	}
	*p = &v
	return nil
}

func (in *Input) validateValues() error {
	if err := trimRequired(&in.Nup, "nup"); err != nil {
		return err
	}
	if err := trimRequired(&in.NumeroContratacao, "numero_contratacao"); err != nil {
		return err
	}
	if in.ValorEstimado != nil && in.ValorEstimado.IsNegative() {
		return apperrors.Validation("%s", constants.FormatFieldError("valor_estimado", "must not be negative"))
	}
	return nil
}

// ValidateCreate requires the NUP and the plan entry it belongs to.
func (in *Input) ValidateCreate() error {
	if in.Nup == nil {
		return apperrors.Validation("%s", constants.FormatMissingFieldError("nup"))
	}
	if in.NumeroContratacao == nil {
		return apperrors.Validation("%s", constants.FormatMissingFieldError("numero_contratacao"))
	}
	return in.validateValues()
}

func (in *Input) ValidateUpdate() error {
	return in.validateValues()
}

type ListFilter struct {
	Skip              int
	Limit             int
	Status            string
	NumeroContratacao string
}

type Stats struct {
	Total         int             `json:"total_qualificacoes"`
	EmAnalise     int             `json:"em_analise"`
	Concluidas    int             `json:"concluidas"`
	ValorEstimado decimal.Decimal `json:"valor_total_estimado"`
}
