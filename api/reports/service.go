package reports

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api"
	"SisContratacoes/api/middlewares"
	"SisContratacoes/api/uam/permissions"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/serviceiface"
)

type Deps struct {
	Fetcher Fetcher
	Clock   clock.Clock
	Auth    func(http.Handler) http.Handler
}

// Routes registers the /reports endpoints on r.
func Routes(r *mux.Router, d Deps) {
	guard := func(h http.HandlerFunc) http.Handler {
		return d.Auth(middlewares.Guard(permissions.ReportsRead, h))
	}

	r.Handle("/reports/fields", guard(FieldsCatalog())).Methods(http.MethodGet)
	r.Handle("/reports/custom", guard(Custom(d.Fetcher, d.Clock))).Methods(http.MethodPost)
	r.Handle("/reports/{name}", guard(Export(d.Fetcher, d.Clock))).Methods(http.MethodGet)
}

type ReportsService struct {
	config map[string]interface{}
	deps   Deps
	srv    *http.Server
}

func NewReportsService(cfg map[string]interface{}, pool *pgxpool.Pool, clk clock.Clock, auth func(http.Handler) http.Handler) serviceiface.Service {
	return &ReportsService{
		config: cfg,
		deps:   Deps{Fetcher: NewPgFetcher(pool), Clock: clk, Auth: auth},
	}
}

func (s *ReportsService) Name() string {
	return "reports"
}

func (s *ReportsService) Start() error {
	router := api.NewRouter(s.Name())
	Routes(router, s.deps)
	s.srv = api.StartHTTPServer(s.Name(), api.PortFromConfig(s.config, 7146), router)
	return nil
}

func (s *ReportsService) Stop() error {
	return api.StopHTTPServer(s.srv)
}
