package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/config"
)

const header = "Número da Contratação;Status da Contratação;Situação da Execução;Título da Contratação;Categoria da Contratação;Valor Total;Área Requisitante;Número DFD;Data Estimada de Início;Data Estimada de Conclusão"

func csvFile(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func newTestReconciler(store Store) *Reconciler {
	return NewReconciler(store, config.ImportConfig{Encodings: config.DefaultEncodings, MaxErrors: config.MaxImportErrors})
}

func TestImportThreeRowScenario(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)

	raw := csvFile(
		"Número da Contratação;Título da Contratação;Valor Total",
		"1/2025;Primeiro;1.234,56",
		"1/2025;Duplicado;10,00",
		";Sem chave;5,00",
	)
	res, err := r.Import(context.Background(), raw, FormatDelimitedText, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 1, res.CreatedCount)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Equal(t, 2, res.FailedCount)
	assert.Equal(t, []string{
		"row 3 (1/2025): duplicate in file",
		"row 4: missing natural key",
	}, res.Errors)

	e, ok := store.get("1/2025")
	require.True(t, ok)
	assert.Equal(t, "Primeiro", *e.rec.TituloContratacao)
	assert.Equal(t, "1234.56", e.rec.ValorTotal.String())
	assert.Equal(t, "user-1", e.createdBy)
	require.NotNil(t, e.rec.SituacaoExecucao)
	assert.Equal(t, "Não iniciada", *e.rec.SituacaoExecucao)
}

func TestImportIsIdempotent(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	raw := csvFile(
		header,
		"1/2025;Planejada;Não iniciada;Aquisição de notebooks;TIC;R$ 150.000,00;DTI;DFD-1;05/01/2025;30/06/2025",
		"2/2025;Planejada;Em andamento;Serviço de limpeza;Serviços;80.000,50;DAF;DFD-2;2025-02-01;2025-12-31",
		"3/2025;Planejada;;Manuten��o predial;Obras;abc;DAF;;n/a;",
	)

	first, err := r.Import(context.Background(), raw, FormatDelimitedText, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, first.CreatedCount)
	after1 := store.snapshot()

	second, err := r.Import(context.Background(), raw, FormatDelimitedText, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, second.TotalRows, second.UpdatedCount)
	assert.Empty(t, second.Errors)

	after2 := store.snapshot()
	require.Len(t, after2, len(after1))
	for k, e := range after1 {
		assert.Equal(t, e.id, after2[k].id)
		assert.Equal(t, e.rec, after2[k].rec)
		assert.Equal(t, "user-2", after2[k].updatedBy)
	}

	e := after2["3/2025"]
	assert.Equal(t, "Manutenção predial", *e.rec.TituloContratacao)
	assert.True(t, e.rec.ValorTotal.IsZero())
	assert.Nil(t, e.rec.DataEstimadaInicio)
	assert.Nil(t, e.rec.NumeroDFD)
	assert.Equal(t, "Não iniciada", *e.rec.SituacaoExecucao)

	e = after2["1/2025"]
	assert.Equal(t, "150000", e.rec.ValorTotal.String())
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), *e.rec.DataEstimadaInicio)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *e.rec.DataEstimadaConclusao)
}

func TestImportDuplicateInFileKeepsFirst(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	raw := csvFile(
		"numero_contratacao;titulo_contratacao",
		"7/2025;Primeira versão",
		"7/2025;Segunda versão",
	)
	res, err := r.Import(context.Background(), raw, FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount+res.UpdatedCount)
	assert.Equal(t, []string{"row 3 (7/2025): duplicate in file"}, res.Errors)

	e, _ := store.get("7/2025")
	assert.Equal(t, "Primeira versão", *e.rec.TituloContratacao)
}

func TestImportDuplicateInFileRejectedEvenWhenStored(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	_, err := r.Import(context.Background(), csvFile("numero_contratacao", "7/2025"), FormatDelimitedText, "u")
	require.NoError(t, err)

	res, err := r.Import(context.Background(), csvFile("numero_contratacao;titulo_contratacao", "7/2025;A", "7/2025;B"), FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreatedCount)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Len(t, res.Errors, 1)
}

func TestImportUpdateReplacesWholeFieldSet(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	_, err := r.Import(context.Background(), csvFile(
		"numero_contratacao;titulo_contratacao;categoria_contratacao;valor_total",
		"9/2025;Original;Material;100,00",
	), FormatDelimitedText, "creator")
	require.NoError(t, err)

	res, err := r.Import(context.Background(), csvFile(
		"numero_contratacao;titulo_contratacao",
		"9/2025;Novo título",
	), FormatDelimitedText, "editor")
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)

	e, _ := store.get("9/2025")
	assert.Equal(t, "Novo título", *e.rec.TituloContratacao)
	assert.Nil(t, e.rec.CategoriaContratacao)
	assert.True(t, e.rec.ValorTotal.IsZero())
	assert.Equal(t, "creator", e.createdBy)
	assert.Equal(t, "editor", e.updatedBy)
}

func TestImportRowFailureRollsBackOnlyThatRow(t *testing.T) {
	store := newMemStore()
	store.failOn["2/2025"] = errors.New("check constraint violated")
	r := newTestReconciler(store)

	res, err := r.Import(context.Background(), csvFile(
		"numero_contratacao;titulo_contratacao",
		"1/2025;A",
		"2/2025;B",
		"3/2025;C",
	), FormatDelimitedText, "u")
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 2, res.CreatedCount)
	assert.Equal(t, []string{"row 3 (2/2025): check constraint violated"}, res.Errors)

	_, ok := store.get("2/2025")
	assert.False(t, ok, "failed row must be rolled back")
	_, ok = store.get("3/2025")
	assert.True(t, ok)
}

func TestImportRowValidationError(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	long := strings.Repeat("x", 101)
	res, err := r.Import(context.Background(), csvFile(
		"numero_contratacao;status_contratacao",
		"1/2025;"+long,
	), FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"row 2 (1/2025): status_contratacao exceeds 100 characters"}, res.Errors)
	assert.Empty(t, store.snapshot())
}

func TestImportCapsErrors(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	lines := []string{"numero_contratacao;titulo_contratacao"}
	for i := 0; i < 8; i++ {
		lines = append(lines, ";sem chave")
	}
	lines = append(lines, "1/2025;ok")

	res, err := r.Import(context.Background(), csvFile(lines...), FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 9, res.TotalRows)
	assert.Equal(t, 8, res.FailedCount)
	assert.Equal(t, 1, res.CreatedCount)
	require.Len(t, res.Errors, 5)
	assert.Equal(t, "row 2: missing natural key", res.Errors[0])
	assert.Equal(t, "row 6: missing natural key", res.Errors[4])
}

func TestImportCommitFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.commitErr = errors.New("connection reset")
	r := newTestReconciler(store)

	res, err := r.Import(context.Background(), csvFile("numero_contratacao", "1/2025"), FormatDelimitedText, "u")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, store.snapshot())
}

func TestImportRejectsBadInput(t *testing.T) {
	r := newTestReconciler(newMemStore())
	ctx := context.Background()

	_, err := r.Import(ctx, nil, FormatDelimitedText, "u")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = r.Import(ctx, []byte("\n  \n"), FormatDelimitedText, "u")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = r.Import(ctx, csvFile(header), FormatDelimitedText, "u")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = r.Import(ctx, []byte("a;b"), Format("pdf"), "u")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = r.Import(ctx, []byte("not a workbook"), FormatSpreadsheet, "u")
	assert.True(t, apperrors.IsValidation(err))

	strict := NewReconciler(newMemStore(), config.ImportConfig{Encodings: []string{"utf-8"}})
	_, err = strict.Import(ctx, []byte("numero\n1/2025;Situa\xe7\xe3o\n"), FormatDelimitedText, "u")
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestImportWindows1252File(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	raw := []byte("N\xfamero da Contrata\xe7\xe3o;Situa\xe7\xe3o da Execu\xe7\xe3o\r\n1/2025;Em execu\xe7\xe3o\r\n")

	res, err := r.Import(context.Background(), raw, FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", res.Encoding)
	assert.Equal(t, 1, res.CreatedCount)

	e, _ := store.get("1/2025")
	assert.Equal(t, "Em execução", *e.rec.SituacaoExecucao)
}

func TestImportBlankLinesAreNotRows(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	res, err := r.Import(context.Background(), []byte("numero_contratacao;titulo_contratacao\n;\n\n1/2025;A\n;;\n;\n"), FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalRows)
	assert.Empty(t, res.Errors)
}

func positionalLine(cells map[int]string) string {
	row := make([]string, 26)
	for i, v := range cells {
		row[i] = v
	}
	return strings.Join(row, ";")
}

func TestImportPositionalLayout(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	raw := csvFile(
		positionalLine(map[int]string{0: "N?mero da contrata??o", 1: "Status?"}),
		positionalLine(map[int]string{0: "10/2025", 1: "Planejada", 3: "Aquisi��o de mobili�rios", 6: "01/02/2025", 7: "01/03/2025", 9: "DAF", 10: "DFD-10", 24: "2.500,00"}),
		positionalLine(map[int]string{0: "11/2025", 2: "Concluída", 24: "R$ 99,90"}),
	)
	res, err := r.Import(context.Background(), raw, FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.CreatedCount)

	e, ok := store.get("10/2025")
	require.True(t, ok)
	assert.Equal(t, "Aquisição de mobiliários", *e.rec.TituloContratacao)
	assert.Equal(t, "2500", e.rec.ValorTotal.String())
	assert.Equal(t, "DFD-10", *e.rec.NumeroDFD)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *e.rec.DataEstimadaInicio)

	e, _ = store.get("11/2025")
	assert.Equal(t, "Concluída", *e.rec.SituacaoExecucao)
	assert.Equal(t, "99.9", e.rec.ValorTotal.String())
}

func TestImportPositionalWithoutHeaderRow(t *testing.T) {
	store := newMemStore()
	r := newTestReconciler(store)
	res, err := r.Import(context.Background(), csvFile(
		positionalLine(map[int]string{0: "12/2025"}),
		positionalLine(map[int]string{0: "13/2025"}),
	), FormatDelimitedText, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, res.CreatedCount)
}

func TestImportSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{
		"Número da Contratação", "Título da Contratação", "Valor Total", "Data Estimada de Início", "Data Estimada de Conclusão", "Situação da Execução",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{
		"1/2025", "Notebooks", 1500.5, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "30/06/2025", "",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{
		"2/2025", "Cadeiras", "R$ 1.234,56", nil, nil, "Em andamento",
	}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	store := newMemStore()
	res, err := newTestReconciler(store).Import(context.Background(), buf.Bytes(), FormatSpreadsheet, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.CreatedCount)
	assert.Empty(t, res.Errors)

	e, _ := store.get("1/2025")
	assert.Equal(t, "1500.5", e.rec.ValorTotal.String())
	require.NotNil(t, e.rec.DataEstimadaInicio)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *e.rec.DataEstimadaInicio)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *e.rec.DataEstimadaConclusao)
	assert.Equal(t, "Não iniciada", *e.rec.SituacaoExecucao)

	e, _ = store.get("2/2025")
	assert.Equal(t, "1234.56", e.rec.ValorTotal.String())
	assert.Nil(t, e.rec.DataEstimadaInicio)
}

func TestImportSpreadsheetRowNumbersFollowSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Número da Contratação", "Título da Contratação"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1/2025", "A"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"", "sem número"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := newTestReconciler(newMemStore()).Import(context.Background(), buf.Bytes(), FormatSpreadsheet, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"row 5: missing natural key"}, res.Errors)
}

func TestImportDelimitedRejectsWorkbookBytes(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = newTestReconciler(newMemStore()).Import(context.Background(), buf.Bytes(), FormatDelimitedText, "u")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestImportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newMemStore()
	_, err := newTestReconciler(store).Import(ctx, csvFile("numero_contratacao", "1/2025"), FormatDelimitedText, "u")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.snapshot())
}
