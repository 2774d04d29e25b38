package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/testdb"
)

func TestPgFetcher(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	actor := db.CreateUser(t, "rita", constants.RoleDiplan)
	_, err := db.Pool.Exec(ctx, `INSERT INTO pca (numero_contratacao, situacao_execucao, valor_total,
			data_estimada_inicio, data_estimada_conclusao, created_by)
		VALUES ('1/2025', NULL, 1500.25, '2025-03-01', '2025-04-01', $1::uuid),
		       ('2/2025', 'Em execução', 20, '2025-01-01', '2025-02-01', $1::uuid),
		       ('3/2025', 'Não iniciada', NULL, '2025-01-01', '2025-02-01', $1::uuid)`, actor)
	require.NoError(t, err)

	src, _ := Lookup("pca", true)
	fields, err := src.Resolve([]string{"numero_contratacao", "valor_total", "data_estimada_inicio", "atrasada", "vencida", "created_at"})
	require.NoError(t, err)
	q, err := Build(src, fields, Filters{}, today)
	require.NoError(t, err)

	rows, err := NewPgFetcher(db.Pool).Fetch(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "1/2025", rows[0][0])
	assert.Equal(t, "1500.25", rows[0][1].(decimal.Decimal).String())
	assert.Equal(t, "2025-03-01", rows[0][2].(time.Time).Format("2006-01-02"))
	assert.Equal(t, true, rows[0][3])
	assert.Equal(t, false, rows[0][4])

	assert.Equal(t, false, rows[1][3])
	assert.Equal(t, false, rows[1][4])

	assert.Nil(t, rows[2][1])
	assert.Equal(t, false, rows[2][3])
	assert.Equal(t, true, rows[2][4])
	assert.NotNil(t, rows[2][5])

	lo := decimal.NewFromInt(100)
	q, err = Build(src, fields, Filters{MinValue: &lo}, today)
	require.NoError(t, err)
	rows, err = NewPgFetcher(db.Pool).Fetch(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1/2025", rows[0][0])
}
