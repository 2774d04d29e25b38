// Package user stores accounts and serves login, registration and the
// account administration endpoints.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

var (
	ErrNotFound      = apperrors.New(apperrors.KindNotFound, constants.ErrUserNotFound)
	ErrUsernameTaken = apperrors.New(apperrors.KindValidation, constants.ErrUsernameTaken)
	ErrEmailTaken    = apperrors.New(apperrors.KindValidation, constants.ErrEmailTaken)
	ErrHasRecords    = apperrors.New(apperrors.KindValidation, constants.ErrUserHasRecords)
)

type Usuario struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	NomeCompleto string     `json:"nome_completo"`
	NivelAcesso  string     `json:"nivel_acesso"`
	Ativo        bool       `json:"ativo"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type RegisterInput struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Email        string `json:"email" validate:"required,email,max=100"`
	NomeCompleto string `json:"nome_completo" validate:"required,max=200"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
}

type UpdateInput struct {
	Email        *string `json:"email" validate:"omitempty,email,max=100"`
	NomeCompleto *string `json:"nome_completo" validate:"omitempty,max=200"`
	NivelAcesso  *string `json:"nivel_acesso" validate:"omitempty,oneof=COORDENADOR DIPLAN DIQUALI DIPLI VISITANTE"`
	Ativo        *bool   `json:"ativo"`
}

type ListFilter struct {
	Skip   int
	Limit  int
	Niveis []string
	Ativo  *bool
}

type Repository interface {
	ByUsername(ctx context.Context, username string) (*Usuario, error)
	ByID(ctx context.Context, id string) (*Usuario, error)
	Create(ctx context.Context, in *RegisterInput, passwordHash, nivel string) (*Usuario, error)
	List(ctx context.Context, f ListFilter) ([]Usuario, error)
	Update(ctx context.Context, id string, in *UpdateInput) (*Usuario, error)
	Delete(ctx context.Context, id string) error
}

const columns = `id::text, username, email, nome_completo, nivel_acesso, ativo, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (Usuario, error) {
	var u Usuario
	var updated sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.NomeCompleto, &u.NivelAcesso, &u.Ativo,
		&u.PasswordHash, &u.CreatedAt, &updated)
	if updated.Valid {
		u.UpdatedAt = &updated.Time
	}
	return u, err
}

// SQLStore keeps accounts in the usuarios table through database/sql.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) one(ctx context.Context, query string, args ...interface{}) (*Usuario, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &u, nil
}

func (s *SQLStore) ByUsername(ctx context.Context, username string) (*Usuario, error) {
	return s.one(ctx, "SELECT "+columns+" FROM usuarios WHERE username = $1", username)
}

func (s *SQLStore) ByID(ctx context.Context, id string) (*Usuario, error) {
	return s.one(ctx, "SELECT "+columns+" FROM usuarios WHERE id = $1::uuid", id)
}

func (s *SQLStore) Create(ctx context.Context, in *RegisterInput, passwordHash, nivel string) (*Usuario, error) {
	return s.one(ctx, `INSERT INTO usuarios (username, email, nome_completo, nivel_acesso, password_hash)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+columns,
		in.Username, in.Email, in.NomeCompleto, nivel, passwordHash)
}

func (s *SQLStore) List(ctx context.Context, f ListFilter) ([]Usuario, error) {
	query := "SELECT " + columns + " FROM usuarios WHERE (cardinality($1::text[]) = 0 OR nivel_acesso = ANY($1))"
	niveis := f.Niveis
	if niveis == nil {
		niveis = []string{}
	}
	params := []interface{}{pq.Array(niveis)}
	if f.Ativo != nil {
		params = append(params, *f.Ativo)
		query += fmt.Sprintf(" AND ativo = $%d", len(params))
	}
	query += " ORDER BY username"
	if f.Limit > 0 {
		params = append(params, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(params))
	}
	if f.Skip > 0 {
		params = append(params, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(params))
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list usuarios: %w", err)
	}
	defer rows.Close()
	users := []Usuario{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, id string, in *UpdateInput) (*Usuario, error) {
	set := []string{"updated_at = now()"}
	params := []interface{}{}
	add := func(col string, v interface{}) {
		params = append(params, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(params)))
	}
	if in.Email != nil {
		add("email", strings.TrimSpace(*in.Email))
	}
	if in.NomeCompleto != nil {
		add("nome_completo", *in.NomeCompleto)
	}
	if in.NivelAcesso != nil {
		add("nivel_acesso", *in.NivelAcesso)
	}
	if in.Ativo != nil {
		add("ativo", *in.Ativo)
	}
	params = append(params, id)
	query := fmt.Sprintf("UPDATE usuarios SET %s WHERE id = $%d::uuid RETURNING %s", strings.Join(set, ", "), len(params), columns)
	return s.one(ctx, query, params...)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM usuarios WHERE id = $1::uuid", id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrHasRecords.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("delete usuario: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "email") {
			return ErrEmailTaken.Wrap(err)
		}
		return ErrUsernameTaken.Wrap(err)
	}
	return fmt.Errorf("usuarios: %w", err)
}
