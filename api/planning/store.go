package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"SisContratacoes/api/constants"
	"SisContratacoes/api/planning/importer"
	"SisContratacoes/api/planning/status"
	"SisContratacoes/internal/apperrors"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

var (
	ErrNotFound  = apperrors.New(apperrors.KindNotFound, constants.ErrPCANotFound)
	ErrDuplicate = apperrors.New(apperrors.KindValidation, constants.ErrPCADuplicate)
	ErrInUse     = apperrors.New(apperrors.KindValidation, constants.ErrPCAHasQualificacao)
)

// Repository is the storage the HTTP handlers depend on.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]PCA, error)
	Get(ctx context.Context, id string) (*PCA, error)
	Create(ctx context.Context, in *PCAInput, actorID string) (*PCA, error)
	Update(ctx context.Context, id string, in *PCAInput, actorID string) (*PCA, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, today time.Time) (*Stats, error)
}

const pcaColumns = `id::text, numero_contratacao, status_contratacao, situacao_execucao,
	titulo_contratacao, categoria_contratacao, COALESCE(valor_total, 0), area_requisitante,
	numero_dfd, data_estimada_inicio, data_estimada_conclusao, created_by::text,
	updated_by::text, created_at, updated_at`

func scanPCA(row pgx.Row) (PCA, error) {
	var p PCA
	err := row.Scan(
		&p.ID, &p.NumeroContratacao, &p.StatusContratacao, &p.SituacaoExecucao,
		&p.TituloContratacao, &p.CategoriaContratacao, &p.ValorTotal, &p.AreaRequisitante,
		&p.NumeroDFD, &p.DataEstimadaInicio, &p.DataEstimadaConclusao, &p.CreatedBy,
		&p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// PgStore keeps the plan in the pca table.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// statusFilter renders "pred" or "NOT pred" with NULL treated as false.
func statusFilter(pred string, want bool) string {
	if want {
		return "COALESCE(" + pred + ", false)"
	}
	return "NOT COALESCE(" + pred + ", false)"
}

func (s *PgStore) List(ctx context.Context, f ListFilter) ([]PCA, error) {
	cols := status.DefaultColumns("$1::date")
	args := []any{f.Today}
	where := []string{"TRUE"}
	if f.Atrasada != nil {
		where = append(where, statusFilter(status.DelayedSQL(cols), *f.Atrasada))
	}
	if f.Vencida != nil {
		where = append(where, statusFilter(status.OverdueSQL(cols), *f.Vencida))
	}

	query := "SELECT " + pcaColumns + " FROM pca WHERE " + strings.Join(where, " AND ") +
		" ORDER BY numero_contratacao"
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
		return nil, fmt.Errorf("list pca: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (PCA, error) { return scanPCA(r) })
	if err != nil {
		return nil, fmt.Errorf("list pca: %w", err)
	}
	return out, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*PCA, error) {
	p, err := scanPCA(s.pool.QueryRow(ctx, "SELECT "+pcaColumns+" FROM pca WHERE id = $1::uuid", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pca: %w", err)
	}
	return &p, nil
}

func (s *PgStore) Create(ctx context.Context, in *PCAInput, actorID string) (*PCA, error) {
	valor := decimal.Zero
	if in.ValorTotal != nil {
		valor = *in.ValorTotal
	}
	situacao := in.SituacaoExecucao
	if situacao == nil || strings.TrimSpace(*situacao) == "" {
		label := status.NotStartedLabel
		situacao = &label
	}
	query := `INSERT INTO pca (numero_contratacao, status_contratacao, situacao_execucao,
		titulo_contratacao, categoria_contratacao, valor_total, area_requisitante, numero_dfd,
		data_estimada_inicio, data_estimada_conclusao, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::uuid)
		RETURNING ` + pcaColumns
	p, err := scanPCA(s.pool.QueryRow(ctx, query,
		*in.NumeroContratacao, in.StatusContratacao, situacao, in.TituloContratacao,
		in.CategoriaContratacao, valor, in.AreaRequisitante, in.NumeroDFD,
		optionalDate(in.DataEstimadaInicio), optionalDate(in.DataEstimadaConclusao), actorID,
	))
	if err != nil {
		return nil, mapWriteError("create pca", err)
	}
	return &p, nil
}

func optionalDate(d *pgtype.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return *d
}

// Update changes only the fields present in the input.
func (s *PgStore) Update(ctx context.Context, id string, in *PCAInput, actorID string) (*PCA, error) {
	set := make([]string, 0, 12)
	args := make([]any, 0, 12)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.NumeroContratacao != nil {
		add("numero_contratacao", *in.NumeroContratacao)
	}
	if in.StatusContratacao != nil {
		add("status_contratacao", *in.StatusContratacao)
	}
	if in.SituacaoExecucao != nil {
		add("situacao_execucao", *in.SituacaoExecucao)
	}
	if in.TituloContratacao != nil {
		add("titulo_contratacao", *in.TituloContratacao)
	}
	if in.CategoriaContratacao != nil {
		add("categoria_contratacao", *in.CategoriaContratacao)
	}
	if in.ValorTotal != nil {
		add("valor_total", *in.ValorTotal)
	}
	if in.AreaRequisitante != nil {
		add("area_requisitante", *in.AreaRequisitante)
	}
	if in.NumeroDFD != nil {
		add("numero_dfd", *in.NumeroDFD)
	}
	if in.DataEstimadaInicio != nil {
		add("data_estimada_inicio", *in.DataEstimadaInicio)
	}
	if in.DataEstimadaConclusao != nil {
		add("data_estimada_conclusao", *in.DataEstimadaConclusao)
	}
	args = append(args, actorID)
	set = append(set, fmt.Sprintf("updated_by = $%d::uuid", len(args)), "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE pca SET %s WHERE id = $%d::uuid RETURNING %s",
		strings.Join(set, ", "), len(args), pcaColumns)
	p, err := scanPCA(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError("update pca", err)
	}
	return &p, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM pca WHERE id = $1::uuid", id)
	if err != nil {
		return mapWriteError("delete pca", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts the plan in one pass using the classifier's SQL form.
func (s *PgStore) Stats(ctx context.Context, today time.Time) (*Stats, error) {
	cols := status.DefaultColumns("$1::date")
	query := `SELECT
		COUNT(*),
		COUNT(CASE WHEN ` + status.DelayedSQL(cols) + ` THEN 1 END),
		COUNT(CASE WHEN ` + status.OverdueSQL(cols) + ` THEN 1 END),
		COALESCE(SUM(valor_total), 0)
		FROM pca`
	st := &Stats{Today: today.Format(constants.DateFormat)}
	if err := s.pool.QueryRow(ctx, query, today).Scan(&st.Total, &st.Atrasadas, &st.Vencidas, &st.ValorTotal); err != nil {
		return nil, fmt.Errorf("pca stats: %w", err)
	}
	st.NoPrazo = st.Total - st.Atrasadas - st.Vencidas
	return st, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return ErrDuplicate.Wrap(err)
		case sqlStateForeignKeyViolation:
			return ErrInUse.Wrap(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Begin opens the batch transaction an import writes through.
func (s *PgStore) Begin(ctx context.Context) (importer.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	return &importTx{tx: tx}, nil
}

// importTx adapts a pgx transaction to the reconciler. Begin on a pgx.Tx
// creates a savepoint.
type importTx struct {
	tx pgx.Tx
}

func (t *importTx) Begin(ctx context.Context) (importer.Tx, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &importTx{tx: sp}, nil
}

func (t *importTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *importTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *importTx) FindIDByNumero(ctx context.Context, numero string) (string, bool, error) {
	var id string
	err := t.tx.QueryRow(ctx, "SELECT id::text FROM pca WHERE numero_contratacao = $1", numero).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (t *importTx) Create(ctx context.Context, rec *importer.Record, actorID string) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `INSERT INTO pca (numero_contratacao, status_contratacao,
		situacao_execucao, titulo_contratacao, categoria_contratacao, valor_total,
		area_requisitante, numero_dfd, data_estimada_inicio, data_estimada_conclusao, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::uuid)
		RETURNING id::text`,
		rec.NumeroContratacao, rec.StatusContratacao, rec.SituacaoExecucao, rec.TituloContratacao,
		rec.CategoriaContratacao, rec.ValorTotal, rec.AreaRequisitante, rec.NumeroDFD,
		rec.DataEstimadaInicio, rec.DataEstimadaConclusao, actorID,
	).Scan(&id)
	if err != nil {
		return "", mapWriteError("insert", err)
	}
	return id, nil
}

// Update replaces the whole imported field set.
func (t *importTx) Update(ctx context.Context, id string, rec *importer.Record, actorID string) error {
	_, err := t.tx.Exec(ctx, `UPDATE pca SET status_contratacao = $1, situacao_execucao = $2,
		titulo_contratacao = $3, categoria_contratacao = $4, valor_total = $5,
		area_requisitante = $6, numero_dfd = $7, data_estimada_inicio = $8,
		data_estimada_conclusao = $9, updated_by = $10::uuid, updated_at = now()
		WHERE id = $11::uuid`,
		rec.StatusContratacao, rec.SituacaoExecucao, rec.TituloContratacao, rec.CategoriaContratacao,
		rec.ValorTotal, rec.AreaRequisitante, rec.NumeroDFD, rec.DataEstimadaInicio,
		rec.DataEstimadaConclusao, actorID, id,
	)
	if err != nil {
		return mapWriteError("update", err)
	}
	return nil
}
