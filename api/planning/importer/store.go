package importer

import "context"

// Tx is the unit of work the reconciler writes through. Begin on a Tx opens a
// nested unit (a savepoint) whose Rollback undoes only its own writes.
type Tx interface {
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// FindIDByNumero returns the id of the entry with the natural key, if any.
	FindIDByNumero(ctx context.Context, numero string) (string, bool, error)
	Create(ctx context.Context, rec *Record, actorID string) (string, error)
	Update(ctx context.Context, id string, rec *Record, actorID string) error
}

type Store interface {
	Begin(ctx context.Context) (Tx, error)
}
