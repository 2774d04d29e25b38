package uam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/api/constants"
	"SisContratacoes/api/uam/role"
	"SisContratacoes/api/uam/user"
	"SisContratacoes/internal/testdb"
)

func TestSQLStores(t *testing.T) {
	db := testdb.New(t)
	conn := db.SQL(t)
	ctx := context.Background()
	users := user.NewSQLStore(conn)
	requests := role.NewSQLStore(conn)

	vera, err := users.Create(ctx, &user.RegisterInput{Username: "vera", Email: "vera@example.gov", NomeCompleto: "Vera"}, "hash", constants.RoleVisitante)
	require.NoError(t, err)
	assert.True(t, vera.Ativo)
	assert.Nil(t, vera.UpdatedAt)

	_, err = users.Create(ctx, &user.RegisterInput{Username: "vera", Email: "other@example.gov", NomeCompleto: "V"}, "hash", constants.RoleVisitante)
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
	_, err = users.Create(ctx, &user.RegisterInput{Username: "vera2", Email: "vera@example.gov", NomeCompleto: "V"}, "hash", constants.RoleVisitante)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	adminID := db.CreateUser(t, "coord", constants.RoleCoordenador)

	list, err := users.List(ctx, user.ListFilter{Niveis: []string{constants.RoleCoordenador}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "coord", list[0].Username)
	list, err = users.List(ctx, user.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	yes := true
	ar, err := requests.Create(ctx, vera.ID, &role.CreateInput{NivelSolicitado: constants.RoleDiplan, TrabalhaCGLIC: &yes})
	require.NoError(t, err)
	assert.Equal(t, "Vera", ar.UserNome)
	assert.Nil(t, ar.AprovadoPorNome)

	_, err = requests.Create(ctx, vera.ID, &role.CreateInput{NivelSolicitado: constants.RoleDipli, TrabalhaCGLIC: &yes})
	assert.ErrorIs(t, err, role.ErrPending)

	obs := "bem-vinda"
	decided, err := requests.Decide(ctx, []string{ar.ID}, true, adminID, &obs)
	require.NoError(t, err)
	require.Len(t, decided, 1)
	assert.Equal(t, constants.AccessRequestAprovada, decided[0].Status)
	require.NotNil(t, decided[0].AprovadoPorNome)
	assert.Equal(t, "coord", *decided[0].AprovadoPorNome)

	reloaded, err := users.ByID(ctx, vera.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleDiplan, reloaded.NivelAcesso)

	_, err = requests.Decide(ctx, []string{ar.ID}, false, adminID, nil)
	assert.ErrorIs(t, err, role.ErrClosed)

	pending, err := requests.List(ctx, role.ListFilter{Status: constants.AccessRequestPendente})
	require.NoError(t, err)
	assert.Empty(t, pending)

	off := false
	updated, err := users.Update(ctx, vera.ID, &user.UpdateInput{Ativo: &off})
	require.NoError(t, err)
	assert.False(t, updated.Ativo)
	require.NotNil(t, updated.UpdatedAt)

	require.NoError(t, users.Delete(ctx, vera.ID))
	_, err = requests.Get(ctx, ar.ID)
	assert.ErrorIs(t, err, role.ErrNotFound)
}
