package qualification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

var (
	ErrNotFound     = apperrors.New(apperrors.KindNotFound, constants.ErrQualificacaoNotFound)
	ErrDuplicate    = apperrors.New(apperrors.KindValidation, constants.ErrQualificacaoDuplicate)
	ErrPCAMissing   = apperrors.New(apperrors.KindValidation, constants.ErrPCAReferenceMissing)
	ErrHasLicitacao = apperrors.New(apperrors.KindValidation, constants.ErrQualificacaoHasBidding)
)

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Qualificacao, error)
	Get(ctx context.Context, id string) (*Qualificacao, error)
	Create(ctx context.Context, in *Input, ano int, actorID string) (*Qualificacao, error)
	Update(ctx context.Context, id string, in *Input, actorID string) (*Qualificacao, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}

const columns = `id::text, nup, numero_contratacao, ano, area_demandante, responsavel_instrucao,
	modalidade, objeto, palavra_chave, valor_estimado, status, observacoes,
	created_by::text, updated_by::text, created_at, updated_at`

func scanQualificacao(row pgx.Row) (Qualificacao, error) {
	var q Qualificacao
	err := row.Scan(
		&q.ID, &q.Nup, &q.NumeroContratacao, &q.Ano, &q.AreaDemandante, &q.ResponsavelInstrucao,
		&q.Modalidade, &q.Objeto, &q.PalavraChave, &q.ValorEstimado, &q.Status, &q.Observacoes,
		&q.CreatedBy, &q.UpdatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	return q, err
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Qualificacao, error) {
	where := []string{"TRUE"}
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.NumeroContratacao != "" {
		args = append(args, f.NumeroContratacao)
		where = append(where, fmt.Sprintf("numero_contratacao = $%d", len(args)))
	}
	query := "SELECT " + columns + " FROM qualificacoes WHERE " + strings.Join(where, " AND ") + " ORDER BY ano DESC, nup"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Skip > 0 {
		args = append(args, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list qualificacoes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Qualificacao, error) { return scanQualificacao(r) })
	if err != nil {
		return nil, fmt.Errorf("list qualificacoes: %w", err)
	}
	return out, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*Qualificacao, error) {
	q, err := scanQualificacao(s.pool.QueryRow(ctx, "SELECT "+columns+" FROM qualificacoes WHERE id = $1::uuid", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get qualificacao: %w", err)
	}
	return &q, nil
}

func (s *PgStore) Create(ctx context.Context, in *Input, ano int, actorID string) (*Qualificacao, error) {
	if in.Ano != nil {
		ano = *in.Ano
	}
	status := constants.QualificacaoEmAnalise
	if in.Status != nil {
		status = *in.Status
	}
	query := `INSERT INTO qualificacoes (nup, numero_contratacao, ano, area_demandante,
		responsavel_instrucao, modalidade, objeto, palavra_chave, valor_estimado, status,
		observacoes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::uuid)
		RETURNING ` + columns
	q, err := scanQualificacao(s.pool.QueryRow(ctx, query,
		*in.Nup, *in.NumeroContratacao, ano, in.AreaDemandante, in.ResponsavelInstrucao,
		in.Modalidade, in.Objeto, in.PalavraChave, in.ValorEstimado, status, in.Observacoes, actorID,
	))
	if err != nil {
		return nil, mapWriteError("create qualificacao", err, ErrPCAMissing)
	}
	return &q, nil
}

func (s *PgStore) Update(ctx context.Context, id string, in *Input, actorID string) (*Qualificacao, error) {
	set := make([]string, 0, 14)
	args := make([]any, 0, 14)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Nup != nil {
		add("nup", *in.Nup)
	}
	if in.NumeroContratacao != nil {
		add("numero_contratacao", *in.NumeroContratacao)
	}
	if in.Ano != nil {
		add("ano", *in.Ano)
	}
	if in.AreaDemandante != nil {
		add("area_demandante", *in.AreaDemandante)
	}
	if in.ResponsavelInstrucao != nil {
		add("responsavel_instrucao", *in.ResponsavelInstrucao)
	}
	if in.Modalidade != nil {
		add("modalidade", *in.Modalidade)
	}
	if in.Objeto != nil {
		add("objeto", *in.Objeto)
	}
	if in.PalavraChave != nil {
		add("palavra_chave", *in.PalavraChave)
	}
	if in.ValorEstimado != nil {
		add("valor_estimado", *in.ValorEstimado)
	}
	if in.Status != nil {
		add("status", *in.Status)
	}
	if in.Observacoes != nil {
		add("observacoes", *in.Observacoes)
	}
	args = append(args, actorID)
	set = append(set, fmt.Sprintf("updated_by = $%d::uuid", len(args)), "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE qualificacoes SET %s WHERE id = $%d::uuid RETURNING %s",
		strings.Join(set, ", "), len(args), columns)
	q, err := scanQualificacao(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError("update qualificacao", err, ErrPCAMissing)
	}
	return &q, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM qualificacoes WHERE id = $1::uuid", id)
	if err != nil {
		return mapWriteError("delete qualificacao", err, ErrHasLicitacao)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $1),
		COUNT(*) FILTER (WHERE status = $2),
		COALESCE(SUM(valor_estimado), 0)
		FROM qualificacoes`,
		constants.QualificacaoEmAnalise, constants.QualificacaoConcluido,
	).Scan(&st.Total, &st.EmAnalise, &st.Concluidas, &st.ValorEstimado)
	if err != nil {
		return nil, fmt.Errorf("qualificacao stats: %w", err)
	}
	return st, nil
}

// mapWriteError turns constraint violations into caller errors. A foreign key
// violation means a missing parent on insert/update and a dependent row on
// delete, so the caller picks the error.
func mapWriteError(op string, err error, onForeignKey *apperrors.Error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate.Wrap(err)
		case "23503":
			return onForeignKey.Wrap(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
