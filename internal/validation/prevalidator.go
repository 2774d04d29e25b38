package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used for single-row lookups.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var ErrUserNotFound = errors.New("user not found")

// ValidationResult is the caller's current account state.
type ValidationResult struct {
	UserID      string
	Username    string
	Email       string
	NivelAcesso string
	Ativo       bool
}

// PreValidateRequest loads the account behind a token in one query so that a
// deactivated user or a changed access level takes effect before the token
// expires.
func PreValidateRequest(ctx context.Context, db Querier, userID string) (*ValidationResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT id::text, username, email, nivel_acesso, ativo
		FROM usuarios
		WHERE id = $1
		LIMIT 1
	`

	var result ValidationResult
	err := db.QueryRow(ctx, query, userID).Scan(
		&result.UserID,
		&result.Username,
		&result.Email,
		&result.NivelAcesso,
		&result.Ativo,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate user: %w", err)
	}
	return &result, nil
}
