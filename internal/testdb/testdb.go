// Package testdb gives integration tests an isolated Postgres schema. Tests
// using it are skipped unless PCA_TEST_DATABASE_URL is set.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"SisContratacoes/internal/schema"
)

const EnvURL = "PCA_TEST_DATABASE_URL"

// DB is a pool bound to a throwaway schema holding the application tables.
type DB struct {
	Pool   *pgxpool.Pool
	URL    string
	Schema string
}

func New(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skip(EnvURL + " not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	admin, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+name)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = name
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, schema.Apply(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.Exec(ctx, "DROP SCHEMA "+name+" CASCADE")
		_ = admin.Close(ctx)
	})
	return &DB{Pool: pool, URL: url, Schema: name}
}

// CreateUser inserts an active account and returns its id.
func (db *DB) CreateUser(t *testing.T, username, nivel string) string {
	t.Helper()
	var id string
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO usuarios (username, email, password_hash, nivel_acesso, nome_completo)
		 VALUES ($1, $2, 'x', $3, $1) RETURNING id::text`,
		username, fmt.Sprintf("%s@example.gov", username), nivel,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SQL opens a lib/pq handle on the same schema. lib/pq forwards unknown
// connection parameters such as search_path to the server.
func (db *DB) SQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := db.URL
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "search_path=" + db.Schema
	} else {
		dsn += " search_path=" + db.Schema
	}
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
