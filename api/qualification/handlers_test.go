package qualification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/api"
	"SisContratacoes/api/auth"
	"SisContratacoes/api/constants"
	"SisContratacoes/internal/clock"
)

var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

type fakeRepo struct {
	rows       map[string]Qualificacao
	pcas       map[string]bool
	lastFilter ListFilter
	lastAno    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]Qualificacao{}, pcas: map[string]bool{"1/2025": true}}
}

func (f *fakeRepo) put(q Qualificacao) Qualificacao {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = constants.QualificacaoEmAnalise
	}
	f.rows[q.ID] = q
	return q
}

func (f *fakeRepo) List(_ context.Context, flt ListFilter) ([]Qualificacao, error) {
	f.lastFilter = flt
	out := []Qualificacao{}
	for _, q := range f.rows {
		if flt.Status != "" && q.Status != flt.Status {
			continue
		}
		if flt.NumeroContratacao != "" && q.NumeroContratacao != flt.NumeroContratacao {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nup < out[j].Nup })
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Qualificacao, error) {
	q, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (f *fakeRepo) Create(_ context.Context, in *Input, ano int, actorID string) (*Qualificacao, error) {
	for _, q := range f.rows {
		if q.Nup == *in.Nup {
			return nil, ErrDuplicate
		}
	}
	if !f.pcas[*in.NumeroContratacao] {
		return nil, ErrPCAMissing
	}
	f.lastAno = ano
	if in.Ano != nil {
		ano = *in.Ano
	}
	q := f.put(Qualificacao{Nup: *in.Nup, NumeroContratacao: *in.NumeroContratacao, Ano: ano, Objeto: in.Objeto, CreatedBy: &actorID})
	return &q, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, in *Input, actorID string) (*Qualificacao, error) {
	q, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Status != nil {
		q.Status = *in.Status
	}
	q.UpdatedBy = &actorID
	f.rows[id] = q
	return &q, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) Stats(_ context.Context) (*Stats, error) {
	st := &Stats{}
	for _, q := range f.rows {
		st.Total++
		if q.Status == constants.QualificacaoConcluido {
			st.Concluidas++
		} else {
			st.EmAnalise++
		}
	}
	return st, nil
}

func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Test-Role")
		if role == "" {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrMissingToken)
			return
		}
		id := &auth.Identity{UserID: "user-" + role, Username: role, NivelAcesso: role}
		next.ServeHTTP(w, r.WithContext(api.WithIdentity(r.Context(), id)))
	})
}

func newRouter(repo *fakeRepo) http.Handler {
	router := api.NewRouter("qualification-test")
	Routes(router, Deps{Repo: repo, Clock: clock.Fixed(today), Auth: testAuth})
	return router
}

func do(h http.Handler, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type listBody struct {
	Rows []Qualificacao `json:"rows"`
}

func TestListFilters(t *testing.T) {
	repo := newFakeRepo()
	repo.put(Qualificacao{Nup: "A", NumeroContratacao: "1/2025"})
	repo.put(Qualificacao{Nup: "B", NumeroContratacao: "2/2025", Status: constants.QualificacaoConcluido})
	h := newRouter(repo)

	rec := do(h, http.MethodGet, "/qualificacao?status=CONCLUIDO", constants.RoleVisitante, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "B", body.Rows[0].Nup)

	rec = do(h, http.MethodGet, "/qualificacao/concluidas", constants.RoleDipli, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.QualificacaoConcluido, repo.lastFilter.Status)

	rec = do(h, http.MethodGet, "/qualificacao/by-pca/1/2025", constants.RoleVisitante, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = listBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "A", body.Rows[0].Nup)

	rec = do(h, http.MethodGet, "/qualificacao?status=ARQUIVADO", constants.RoleVisitante, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/qualificacao", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate(t *testing.T) {
	repo := newFakeRepo()
	h := newRouter(repo)
	body := map[string]interface{}{"nup": " 23000.1/2025 ", "numero_contratacao": "1/2025", "objeto": "Notebooks"}

	for _, role := range []string{constants.RoleVisitante, constants.RoleDiplan, constants.RoleDipli} {
		rec := do(h, http.MethodPost, "/qualificacao", role, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, role)
	}

	rec := do(h, http.MethodPost, "/qualificacao", constants.RoleDiquali, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q Qualificacao
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "23000.1/2025", q.Nup)
	assert.Equal(t, 2025, q.Ano)
	assert.Equal(t, 2025, repo.lastAno)
	assert.Equal(t, "user-DIQUALI", *q.CreatedBy)

	rec = do(h, http.MethodPost, "/qualificacao", constants.RoleCoordenador, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.ErrQualificacaoDuplicate)

	rec = do(h, http.MethodPost, "/qualificacao", constants.RoleDiquali, map[string]interface{}{"nup": "X", "numero_contratacao": "9/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.ErrPCAReferenceMissing)

	for _, bad := range []map[string]interface{}{
		{"numero_contratacao": "1/2025"},
		{"nup": "   ", "numero_contratacao": "1/2025"},
		{"nup": "Y", "numero_contratacao": "1/2025", "status": "ARQUIVADO"},
		{"nup": "Y", "numero_contratacao": "1/2025", "valor_estimado": "-1"},
		{"nup": "Y", "numero_contratacao": "1/2025", "ano": 1990},
	} {
		rec = do(h, http.MethodPost, "/qualificacao", constants.RoleDiquali, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	repo := newFakeRepo()
	q := repo.put(Qualificacao{Nup: "A", NumeroContratacao: "1/2025"})
	h := newRouter(repo)

	rec := do(h, http.MethodGet, "/qualificacao/"+q.ID, constants.RoleVisitante, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/qualificacao/not-a-uuid", constants.RoleVisitante, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/qualificacao/"+uuid.NewString(), constants.RoleVisitante, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPut, "/qualificacao/"+q.ID, constants.RoleDiquali, map[string]string{"status": constants.QualificacaoConcluido})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, constants.QualificacaoConcluido, repo.rows[q.ID].Status)
	assert.Equal(t, "user-DIQUALI", *repo.rows[q.ID].UpdatedBy)

	rec = do(h, http.MethodDelete, "/qualificacao/"+q.ID, constants.RoleDipli, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodDelete, "/qualificacao/"+q.ID, constants.RoleCoordenador, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.rows)
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	repo.put(Qualificacao{Nup: "A"})
	repo.put(Qualificacao{Nup: "B", Status: constants.QualificacaoConcluido})
	h := newRouter(repo)

	rec := do(h, http.MethodGet, "/qualificacao/dashboard/stats", constants.RoleVisitante, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.EqualValues(t, 2, st["total_qualificacoes"])
	assert.EqualValues(t, 1, st["concluidas"])
	assert.EqualValues(t, 1, st["em_analise"])
}
