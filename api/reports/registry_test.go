package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/internal/apperrors"
)

var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestLookup(t *testing.T) {
	for _, name := range []string{"pca", "qualificacao", "licitacao", "economia"} {
		src, err := Lookup(name, false)
		require.NoError(t, err, name)
		assert.Len(t, src.Defaults(), len(src.Default), name)
	}

	_, err := Lookup("economia", true)
	assert.True(t, apperrors.IsValidation(err))
	_, err = Lookup("contratos", false)
	assert.True(t, apperrors.IsValidation(err))
}

func TestResolve(t *testing.T) {
	src, err := Lookup("licitacao", true)
	require.NoError(t, err)

	fields, err := src.Resolve([]string{"objeto", "nup", "objeto"})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "objeto", fields[0].Key)
	assert.Equal(t, "nup", fields[1].Key)

	_, err = src.Resolve([]string{"nup", "password_hash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password_hash")

	_, err = src.Resolve(nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuildBindsTodayOnce(t *testing.T) {
	src, _ := Lookup("pca", false)
	q, err := Build(src, src.Defaults(), Filters{}, today)
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, todayMarker)
	assert.Contains(t, q.SQL, "$1::date")
	assert.NotContains(t, q.SQL, "$2")
	assert.Equal(t, []interface{}{"2025-03-10"}, q.Args)
	assert.Contains(t, q.SQL, "FROM pca ORDER BY numero_contratacao")
}

func TestBuildFilters(t *testing.T) {
	src, _ := Lookup("pca", true)
	fields, err := src.Resolve([]string{"numero_contratacao", "atrasada"})
	require.NoError(t, err)
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(500)

	q, err := Build(src, fields, Filters{
		DateStart: "2025-01-01",
		DateEnd:   "2025-01-31",
		Status:    []string{"Em andamento"},
		MinValue:  &lo,
		MaxValue:  &hi,
		SortBy:    "valor_total",
		SortDesc:  true,
	}, today)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "created_at >= $2::date")
	assert.Contains(t, q.SQL, "created_at < $3::date + 1")
	assert.Contains(t, q.SQL, "status_contratacao = ANY($4::text[])")
	assert.Contains(t, q.SQL, "valor_total >= $5")
	assert.Contains(t, q.SQL, "valor_total <= $6")
	assert.Contains(t, q.SQL, "ORDER BY valor_total DESC NULLS LAST")
	require.Len(t, q.Args, 6)
	assert.Equal(t, "2025-03-10", q.Args[0])
	assert.Equal(t, []string{"Em andamento"}, q.Args[3])
}

func TestBuildRejects(t *testing.T) {
	src, _ := Lookup("qualificacao", true)
	fields := src.Defaults()
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(5)

	_, err := Build(src, fields, Filters{MinValue: &lo, MaxValue: &hi}, today)
	assert.True(t, apperrors.IsValidation(err))
	_, err = Build(src, fields, Filters{DateStart: "2025-02-01", DateEnd: "2025-01-01"}, today)
	assert.True(t, apperrors.IsValidation(err))
	_, err = Build(src, fields, Filters{SortBy: "created_by"}, today)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEconomiaQuery(t *testing.T) {
	src, _ := Lookup("economia", false)
	q, err := Build(src, src.Defaults(), Filters{}, today)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "FROM licitacoes WHERE economia > 0 ORDER BY economia DESC")
	assert.Empty(t, q.Args)
}
