package bidding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

var (
	ErrNotFound   = apperrors.New(apperrors.KindNotFound, constants.ErrLicitacaoNotFound)
	ErrNUPMissing = apperrors.New(apperrors.KindValidation, constants.ErrNUPReferenceMissing)
)

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Licitacao, error)
	Get(ctx context.Context, id string) (*Licitacao, error)
	Create(ctx context.Context, in *Input, actorID string) (*Licitacao, error)
	Update(ctx context.Context, id string, in *Input, actorID string) (*Licitacao, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (StatusCounts, error)
	// WithSavings lists the processes whose economia is positive.
	WithSavings(ctx context.Context) ([]Licitacao, error)
}

const columns = `id::text, nup, numero_contratacao, ano, area_demandante, responsavel_instrucao,
	modalidade, objeto, palavra_chave, valor_estimado, observacoes, pregoeiro,
	valor_homologado, data_homologacao, link, status, economia,
	created_by::text, updated_by::text, created_at, updated_at`

func scanLicitacao(row pgx.Row) (Licitacao, error) {
	var l Licitacao
	err := row.Scan(
		&l.ID, &l.Nup, &l.NumeroContratacao, &l.Ano, &l.AreaDemandante, &l.ResponsavelInstrucao,
		&l.Modalidade, &l.Objeto, &l.PalavraChave, &l.ValorEstimado, &l.Observacoes, &l.Pregoeiro,
		&l.ValorHomologado, &l.DataHomologacao, &l.Link, &l.Status, &l.Economia,
		&l.CreatedBy, &l.UpdatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) collect(ctx context.Context, query string, args ...any) ([]Licitacao, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Licitacao, error) { return scanLicitacao(r) })
}

func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Licitacao, error) {
	query := "SELECT " + columns + " FROM licitacoes WHERE ($1::text = '' OR status = $1) ORDER BY created_at DESC"
	args := []any{f.Status}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Skip > 0 {
		args = append(args, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	out, err := s.collect(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list licitacoes: %w", err)
	}
	return out, nil
}

func (s *PgStore) WithSavings(ctx context.Context) ([]Licitacao, error) {
	out, err := s.collect(ctx, "SELECT "+columns+" FROM licitacoes WHERE economia > 0 ORDER BY economia DESC")
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	return out, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*Licitacao, error) {
	l, err := scanLicitacao(s.pool.QueryRow(ctx, "SELECT "+columns+" FROM licitacoes WHERE id = $1::uuid", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get licitacao: %w", err)
	}
	return &l, nil
}

// fromDossier seeds a new process with the dossier's data.
func fromDossier(ctx context.Context, tx pgx.Tx, nup string) (Licitacao, error) {
	var l Licitacao
	var numero string
	err := tx.QueryRow(ctx, `SELECT nup, numero_contratacao, ano, area_demandante, responsavel_instrucao,
		modalidade, objeto, palavra_chave, valor_estimado
		FROM qualificacoes WHERE nup = $1 FOR SHARE`, nup).Scan(
		&l.Nup, &numero, &l.Ano, &l.AreaDemandante, &l.ResponsavelInstrucao,
		&l.Modalidade, &l.Objeto, &l.PalavraChave, &l.ValorEstimado,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return l, ErrNUPMissing
	}
	l.NumeroContratacao = &numero
	l.Status = constants.LicitacaoEmAndamento
	return l, err
}

// Create opens a process for an existing dossier. The ano always comes from
// the dossier; other blank fields fall back to it.
func (s *PgStore) Create(ctx context.Context, in *Input, actorID string) (*Licitacao, error) {
	var out Licitacao
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		l, err := fromDossier(ctx, tx, *in.Nup)
		if err != nil {
			return err
		}
		l.apply(in)
		out, err = scanLicitacao(tx.QueryRow(ctx, `INSERT INTO licitacoes (nup, numero_contratacao, ano,
			area_demandante, responsavel_instrucao, modalidade, objeto, palavra_chave, valor_estimado,
			observacoes, pregoeiro, valor_homologado, data_homologacao, link, status, economia, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17::uuid)
			RETURNING `+columns,
			l.Nup, l.NumeroContratacao, l.Ano, l.AreaDemandante, l.ResponsavelInstrucao, l.Modalidade,
			l.Objeto, l.PalavraChave, l.ValorEstimado, l.Observacoes, l.Pregoeiro, l.ValorHomologado,
			l.DataHomologacao, l.Link, l.Status, l.Economia, actorID,
		))
		return err
	})
	if err != nil {
		return nil, mapWriteError("create licitacao", err)
	}
	return &out, nil
}

func (s *PgStore) Update(ctx context.Context, id string, in *Input, actorID string) (*Licitacao, error) {
	var out Licitacao
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		l, err := scanLicitacao(tx.QueryRow(ctx, "SELECT "+columns+" FROM licitacoes WHERE id = $1::uuid FOR UPDATE", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		l.apply(in)
		out, err = scanLicitacao(tx.QueryRow(ctx, `UPDATE licitacoes SET nup = $1, numero_contratacao = $2,
			area_demandante = $3, responsavel_instrucao = $4, modalidade = $5, objeto = $6,
			palavra_chave = $7, valor_estimado = $8, observacoes = $9, pregoeiro = $10,
			valor_homologado = $11, data_homologacao = $12, link = $13, status = $14, economia = $15,
			updated_by = $16::uuid, updated_at = now()
			WHERE id = $17::uuid RETURNING `+columns,
			l.Nup, l.NumeroContratacao, l.AreaDemandante, l.ResponsavelInstrucao, l.Modalidade, l.Objeto,
			l.PalavraChave, l.ValorEstimado, l.Observacoes, l.Pregoeiro, l.ValorHomologado,
			l.DataHomologacao, l.Link, l.Status, l.Economia, actorID, id,
		))
		return err
	})
	if err != nil {
		return nil, mapWriteError("update licitacao", err)
	}
	return &out, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM licitacoes WHERE id = $1::uuid", id)
	if err != nil {
		return fmt.Errorf("delete licitacao: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts aggregates every dashboard figure in one pass. Savings only count
// homologated processes.
func (s *PgStore) Counts(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := s.pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $1),
		COUNT(*) FILTER (WHERE status = $2),
		COUNT(*) FILTER (WHERE status = $3),
		COUNT(*) FILTER (WHERE status = $4),
		COALESCE(SUM(valor_estimado), 0),
		COALESCE(SUM(valor_homologado) FILTER (WHERE status = $1), 0),
		COALESCE(SUM(valor_estimado - valor_homologado) FILTER (WHERE status = $1), 0)
		FROM licitacoes`,
		constants.LicitacaoHomologada, constants.LicitacaoEmAndamento,
		constants.LicitacaoFracassada, constants.LicitacaoRevogada,
	).Scan(&c.Total, &c.Homologadas, &c.EmAndamento, &c.Fracassadas, &c.Revogadas,
		&c.ValorEstimado, &c.ValorHomologado, &c.Economia)
	if err != nil {
		return c, fmt.Errorf("licitacao stats: %w", err)
	}
	return c, nil
}

func mapWriteError(op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNUPMissing.Wrap(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
