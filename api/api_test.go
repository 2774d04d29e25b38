package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithAppError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pca/1", nil)

	rec := httptest.NewRecorder()
	RespondWithAppError(rec, req, apperrors.NotFound("PCA not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PCA not found", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	RespondWithAppError(rec, req, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, constants.ErrInternalServer, body["error"])
}

type createReq struct {
	Numero string `json:"numero_contratacao" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	var dst createReq
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"numero_contratacao":"1/2025"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "1/2025", dst.Numero)

	for _, body := range []string{``, `{`, `{"numero_contratacao":""}`, `{"other":1}`} {
		r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(r, &createReq{})
		require.Error(t, err, body)
		assert.True(t, apperrors.IsValidation(err), body)
	}
}

func TestPaginationAndOptionalBool(t *testing.T) {
	skip, limit, err := Pagination(httptest.NewRequest(http.MethodGet, "/pca", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, skip)
	assert.Equal(t, 100, limit)

	skip, limit, err = Pagination(httptest.NewRequest(http.MethodGet, "/pca?skip=20&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 20, skip)
	assert.Equal(t, 10, limit)

	_, _, err = Pagination(httptest.NewRequest(http.MethodGet, "/pca?skip=-1", nil))
	assert.True(t, apperrors.IsValidation(err))

	b, err := OptionalBool(httptest.NewRequest(http.MethodGet, "/pca?atrasada=true", nil), "atrasada")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	b, err = OptionalBool(httptest.NewRequest(http.MethodGet, "/pca", nil), "atrasada")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = OptionalBool(httptest.NewRequest(http.MethodGet, "/pca?atrasada=maybe", nil), "atrasada")
	assert.Error(t, err)
}

func TestRouterMiddleware(t *testing.T) {
	router := NewRouter("test")
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(RequestIDFromCtx(r.Context())))
	}).Methods(http.MethodGet)
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(constants.HeaderRequestID, "req-1")
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(constants.HeaderRequestID))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ok", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGatewayHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("upstream " + r.URL.Path))
	}))
	defer upstream.Close()

	healthy := true
	h, err := NewGatewayHandler(
		map[string]string{"/pca": upstream.URL},
		[]string{"http://app.local"},
		func() (bool, map[string]interface{}) { return healthy, map[string]interface{}{"db": healthy} },
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pca/dashboard/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream /pca/dashboard/stats", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pca", nil))
	assert.Equal(t, "upstream /pca", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/pca", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://app.local", rec.Header().Get("Access-Control-Allow-Origin"))

	_, err = NewGatewayHandler(map[string]string{"/x": "not a url"}, nil, nil)
	assert.Error(t, err)
}

func TestRoutesFromConfig(t *testing.T) {
	routes := RoutesFromConfig(map[string]interface{}{
		"routes": map[string]interface{}{"/pca": "http://localhost:7143", "/bad": 3},
	})
	assert.Equal(t, map[string]string{"/pca": "http://localhost:7143"}, routes)
	assert.Equal(t, 9000, PortFromConfig(map[string]interface{}{"port": 9000}, 1))
	assert.Equal(t, 1, PortFromConfig(nil, 1))
}
