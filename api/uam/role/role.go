// Package role handles requests to change an account's access level. An
// administrator approves or rejects them, one at a time or in bulk; approval
// moves the account to the requested level.
package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

var (
	ErrNotFound = apperrors.New(apperrors.KindNotFound, constants.ErrAccessRequestNotFound)
	ErrPending  = apperrors.New(apperrors.KindValidation, constants.ErrAccessRequestPending)
	ErrClosed   = apperrors.New(apperrors.KindValidation, constants.ErrAccessRequestClosed)
)

type AccessRequest struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	NivelSolicitado  string     `json:"nivel_solicitado"`
	TrabalhaCGLIC    bool       `json:"trabalha_cglic"`
	Justificativa    *string    `json:"justificativa"`
	Status           string     `json:"status"`
	ObservacoesAdmin *string    `json:"observacoes_admin"`
	AprovadoPorID    *string    `json:"aprovado_por_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
	UserNome         string     `json:"user_nome"`
	UserEmail        string     `json:"user_email"`
	AprovadoPorNome  *string    `json:"aprovado_por_nome"`
}

type CreateInput struct {
	NivelSolicitado string  `json:"nivel_solicitado" validate:"required,oneof=COORDENADOR DIPLAN DIQUALI DIPLI VISITANTE"`
	TrabalhaCGLIC   *bool   `json:"trabalha_cglic" validate:"required"`
	Justificativa   *string `json:"justificativa" validate:"omitempty,max=2000"`
}

type DecisionInput struct {
	ObservacoesAdmin *string `json:"observacoes_admin" validate:"omitempty,max=2000"`
}

type BulkDecisionInput struct {
	IDs              []string `json:"ids" validate:"required,min=1,dive,uuid"`
	ObservacoesAdmin *string  `json:"observacoes_admin" validate:"omitempty,max=2000"`
}

type ListFilter struct {
	Skip   int
	Limit  int
	Status string
}

type Repository interface {
	Create(ctx context.Context, userID string, in *CreateInput) (*AccessRequest, error)
	ForUser(ctx context.Context, userID string) ([]AccessRequest, error)
	List(ctx context.Context, f ListFilter) ([]AccessRequest, error)
	Get(ctx context.Context, id string) (*AccessRequest, error)
	// Decide closes pending requests. On approval each requester's
	// nivel_acesso becomes the requested level.
	Decide(ctx context.Context, ids []string, approve bool, adminID string, obs *string) ([]AccessRequest, error)
	Delete(ctx context.Context, id string) error
}

const selectRequests = `SELECT ar.id::text, ar.user_id::text, ar.nivel_solicitado, ar.trabalha_cglic,
	ar.justificativa, ar.status, ar.observacoes_admin, ar.aprovado_por_id::text,
	ar.created_at, ar.updated_at, u.nome_completo, u.email, a.nome_completo
	FROM access_requests ar
	JOIN usuarios u ON u.id = ar.user_id
	LEFT JOIN usuarios a ON a.id = ar.aprovado_por_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (AccessRequest, error) {
	var ar AccessRequest
	err := row.Scan(&ar.ID, &ar.UserID, &ar.NivelSolicitado, &ar.TrabalhaCGLIC,
		&ar.Justificativa, &ar.Status, &ar.ObservacoesAdmin, &ar.AprovadoPorID,
		&ar.CreatedAt, &ar.UpdatedAt, &ar.UserNome, &ar.UserEmail, &ar.AprovadoPorNome)
	return ar, err
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func collect(ctx context.Context, q querier, query string, args ...interface{}) ([]AccessRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AccessRequest{}
	for rows.Next() {
		ar, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, userID string, in *CreateInput) (*AccessRequest, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `INSERT INTO access_requests (user_id, nivel_solicitado, trabalha_cglic, justificativa)
		VALUES ($1::uuid, $2, $3, $4) RETURNING id::text`,
		userID, in.NivelSolicitado, *in.TrabalhaCGLIC, in.Justificativa).Scan(&id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return nil, ErrPending.Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("create access request: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) ForUser(ctx context.Context, userID string) ([]AccessRequest, error) {
	out, err := collect(ctx, s.db, selectRequests+" WHERE ar.user_id = $1::uuid ORDER BY ar.created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return out, nil
}

func (s *SQLStore) List(ctx context.Context, f ListFilter) ([]AccessRequest, error) {
	query := selectRequests + " WHERE ($1::text = '' OR ar.status = $1) ORDER BY ar.created_at"
	params := []interface{}{f.Status}
	if f.Limit > 0 {
		params = append(params, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(params))
	}
	if f.Skip > 0 {
		params = append(params, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(params))
	}
	out, err := collect(ctx, s.db, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*AccessRequest, error) {
	ar, err := scanRequest(s.db.QueryRowContext(ctx, selectRequests+" WHERE ar.id = $1::uuid", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get access request: %w", err)
	}
	return &ar, nil
}

func (s *SQLStore) Decide(ctx context.Context, ids []string, approve bool, adminID string, obs *string) ([]AccessRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT status FROM access_requests WHERE id = ANY($1::uuid[]) FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock access requests: %w", err)
	}
	found := 0
	closed := false
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			rows.Close()
			return nil, err
		}
		found++
		closed = closed || status != constants.AccessRequestPendente
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found != len(ids) {
		return nil, ErrNotFound
	}
	if closed {
		return nil, ErrClosed
	}

	status := constants.AccessRequestRejeitada
	if approve {
		status = constants.AccessRequestAprovada
	}
	if _, err := tx.ExecContext(ctx, `UPDATE access_requests
		SET status = $1, aprovado_por_id = $2::uuid, observacoes_admin = $3, updated_at = now()
		WHERE id = ANY($4::uuid[])`, status, adminID, obs, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("close access requests: %w", err)
	}
	if approve {
		if _, err := tx.ExecContext(ctx, `UPDATE usuarios u
			SET nivel_acesso = ar.nivel_solicitado, updated_at = now()
			FROM access_requests ar
			WHERE ar.id = ANY($1::uuid[]) AND u.id = ar.user_id`, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("apply access level: %w", err)
		}
	}
	out, err := collect(ctx, tx, selectRequests+" WHERE ar.id = ANY($1::uuid[]) ORDER BY ar.created_at", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM access_requests WHERE id = $1::uuid", id)
	if err != nil {
		return fmt.Errorf("delete access request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
