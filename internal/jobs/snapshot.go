package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api/planning/status"
)

// Snapshot is the daily count of plan entries by derived status.
type Snapshot struct {
	Date      time.Time `json:"snapshot_date"`
	Total     int       `json:"total"`
	Atrasadas int       `json:"atrasadas"`
	Vencidas  int       `json:"vencidas"`
	NoPrazo   int       `json:"no_prazo"`
}

type PgRecorder struct {
	pool *pgxpool.Pool
}

func NewPgRecorder(pool *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{pool: pool}
}

// snapshotSQL counts and upserts in one statement, so a rerun on the same day
// replaces that day's row.
var snapshotSQL = func() string {
	cols := status.DefaultColumns("$1::date")
	delayed := "COALESCE(" + status.DelayedSQL(cols) + ", FALSE)"
	overdue := "COALESCE(" + status.OverdueSQL(cols) + ", FALSE)"
	return `INSERT INTO pca_status_snapshots (snapshot_date, total, atrasadas, vencidas, no_prazo)
		SELECT $1::date,
			COUNT(*),
			COUNT(*) FILTER (WHERE ` + delayed + `),
			COUNT(*) FILTER (WHERE ` + overdue + `),
			COUNT(*) FILTER (WHERE NOT ` + delayed + ` AND NOT ` + overdue + `)
		FROM pca
		ON CONFLICT (snapshot_date) DO UPDATE SET
			total = EXCLUDED.total,
			atrasadas = EXCLUDED.atrasadas,
			vencidas = EXCLUDED.vencidas,
			no_prazo = EXCLUDED.no_prazo,
			created_at = now()
		RETURNING snapshot_date, total, atrasadas, vencidas, no_prazo`
}()

func (r *PgRecorder) Record(ctx context.Context, day time.Time) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx, snapshotSQL, day).Scan(&s.Date, &s.Total, &s.Atrasadas, &s.Vencidas, &s.NoPrazo)
	if err != nil {
		return nil, fmt.Errorf("record status snapshot: %w", err)
	}
	return &s, nil
}
