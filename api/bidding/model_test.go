package bidding

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/api/constants"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strp(s string) *string { return &s }

func TestEconomia(t *testing.T) {
	e := Economia(nd("1000.50"), nd("800.25"))
	require.True(t, e.Valid)
	assert.Equal(t, "200.25", e.Decimal.String())

	assert.False(t, Economia(nd("1000"), decimal.NullDecimal{}).Valid)
	assert.False(t, Economia(decimal.NullDecimal{}, nd("10")).Valid)

	// a zero homologated value is a real value
	assert.Equal(t, "1000", Economia(nd("1000"), nd("0")).Decimal.String())
}

func TestApplyRecomputesEconomia(t *testing.T) {
	l := Licitacao{Nup: "N-1", Status: constants.LicitacaoEmAndamento, ValorEstimado: nd("500")}
	l.apply(&Input{Pregoeiro: strp("Carla")})
	assert.False(t, l.Economia.Valid)
	assert.Equal(t, "Carla", *l.Pregoeiro)

	hom := constants.LicitacaoHomologada
	l.apply(&Input{ValorHomologado: dec("420"), Status: &hom})
	require.True(t, l.Economia.Valid)
	assert.Equal(t, "80", l.Economia.Decimal.String())
	assert.Equal(t, hom, l.Status)

	l.apply(&Input{ValorEstimado: dec("450")})
	assert.Equal(t, "30", l.Economia.Decimal.String())
	assert.Equal(t, "N-1", l.Nup)
}

func TestSummarize(t *testing.T) {
	st := Summarize(StatusCounts{
		Total:           6,
		Homologadas:     3,
		EmAndamento:     2,
		Fracassadas:     1,
		ValorEstimado:   decimal.NewFromInt(1000),
		ValorHomologado: decimal.NewFromInt(700),
		Economia:        decimal.NewFromInt(150),
	})
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 75.0, st.TaxaSucesso)
	assert.Equal(t, 15.0, st.EconomiaPercentual)
	assert.Equal(t, 3, st.PorStatus[constants.LicitacaoHomologada])
	assert.Equal(t, 0, st.PorStatus[constants.LicitacaoRevogada])

	empty := Summarize(StatusCounts{})
	assert.Zero(t, empty.TaxaSucesso)
	assert.Zero(t, empty.EconomiaPercentual)
	assert.Len(t, empty.PorStatus, 4)
}

func TestBuildSavingsReport(t *testing.T) {
	rep := BuildSavingsReport([]Licitacao{
		{Nup: "A", ValorEstimado: nd("300"), ValorHomologado: nd("200"), Economia: nd("100")},
		{Nup: "B", ValorEstimado: nd("100"), ValorHomologado: nd("150"), Economia: nd("-50")},
		{Nup: "C", ValorEstimado: nd("90")},
		{Nup: "D", ValorHomologado: nd("10"), Economia: nd("5")},
	})
	require.Equal(t, 2, rep.Count)
	assert.Equal(t, "A", rep.Licitacoes[0].Nup)
	assert.Equal(t, 33.33, rep.Licitacoes[0].Percentual)
	assert.Zero(t, rep.Licitacoes[1].Percentual)
	assert.Equal(t, "105", rep.Total.String())

	none := BuildSavingsReport(nil)
	assert.NotNil(t, none.Licitacoes)
	assert.Zero(t, none.Count)
}
