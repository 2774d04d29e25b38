package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type storedEntry struct {
	id        string
	rec       Record
	createdBy string
	updatedBy string
}

// memStore is a transactional in-memory Store. failOn makes writes of the
// named keys fail after they have been staged, so rollbacks are observable.
type memStore struct {
	mu        sync.Mutex
	entries   map[string]storedEntry
	nextID    int
	failOn    map[string]error
	commitErr error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]storedEntry{}, failOn: map[string]error{}}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{store: s, entries: copyEntries(s.entries)}, nil
}

func (s *memStore) get(numero string) (storedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[numero]
	return e, ok
}

func (s *memStore) snapshot() map[string]storedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntries(s.entries)
}

func copyEntries(in map[string]storedEntry) map[string]storedEntry {
	out := make(map[string]storedEntry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memTx struct {
	store   *memStore
	parent  *memTx
	entries map[string]storedEntry
	done    bool
}

var errTxDone = errors.New("transaction already closed")

func (t *memTx) Begin(ctx context.Context) (Tx, error) {
	if t.done {
		return nil, errTxDone
	}
	return &memTx{store: t.store, parent: t, entries: copyEntries(t.entries)}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if t.parent != nil {
		t.parent.entries = t.entries
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.entries = t.entries
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

func (t *memTx) FindIDByNumero(ctx context.Context, numero string) (string, bool, error) {
	e, ok := t.entries[numero]
	return e.id, ok, nil
}

func (t *memTx) Create(ctx context.Context, rec *Record, actorID string) (string, error) {
	if _, exists := t.entries[rec.NumeroContratacao]; exists {
		return "", fmt.Errorf("numero_contratacao %q already exists", rec.NumeroContratacao)
	}
	t.store.mu.Lock()
	t.store.nextID++
	id := fmt.Sprintf("id-%d", t.store.nextID)
	t.store.mu.Unlock()
	t.entries[rec.NumeroContratacao] = storedEntry{id: id, rec: *rec, createdBy: actorID}
	return id, t.store.failOn[rec.NumeroContratacao]
}

func (t *memTx) Update(ctx context.Context, id string, rec *Record, actorID string) error {
	prev, ok := t.entries[rec.NumeroContratacao]
	if !ok || prev.id != id {
		return fmt.Errorf("entry %s not found", id)
	}
	t.entries[rec.NumeroContratacao] = storedEntry{id: id, rec: *rec, createdBy: prev.createdBy, updatedBy: actorID}
	return t.store.failOn[rec.NumeroContratacao]
}
