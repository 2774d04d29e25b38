package qualification

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
	Repo  Repository
	Clock clock.Clock
	Auth  func(http.Handler) http.Handler
}

// Routes registers the /qualificacao endpoints on r.
func Routes(r *mux.Router, d Deps) {
	guard := func(action permissions.Action, h http.HandlerFunc) http.Handler {
		return d.Auth(middlewares.Guard(action, h))
	}

	r.Handle("/qualificacao", guard(permissions.ReadAll, ListQualificacoes(d.Repo))).Methods(http.MethodGet)
	r.Handle("/qualificacao/", guard(permissions.ReadAll, ListQualificacoes(d.Repo))).Methods(http.MethodGet)
	r.Handle("/qualificacao", guard(permissions.QualificationWrite, CreateQualificacao(d.Repo, d.Clock))).Methods(http.MethodPost)
	r.Handle("/qualificacao/", guard(permissions.QualificationWrite, CreateQualificacao(d.Repo, d.Clock))).Methods(http.MethodPost)
	r.Handle("/qualificacao/concluidas", guard(permissions.ReadAll, ListConcluidas(d.Repo))).Methods(http.MethodGet)
	r.Handle("/qualificacao/dashboard/stats", guard(permissions.ReadAll, DashboardStats(d.Repo))).Methods(http.MethodGet)
	// numero_contratacao carries a slash ("12/2025").
	r.Handle("/qualificacao/by-pca/{numero:.+}", guard(permissions.ReadAll, ListByPCA(d.Repo))).Methods(http.MethodGet)
	r.Handle("/qualificacao/{id}", guard(permissions.ReadAll, GetQualificacao(d.Repo))).Methods(http.MethodGet)
	r.Handle("/qualificacao/{id}", guard(permissions.QualificationWrite, UpdateQualificacao(d.Repo))).Methods(http.MethodPut)
	r.Handle("/qualificacao/{id}", guard(permissions.QualificationWrite, DeleteQualificacao(d.Repo))).Methods(http.MethodDelete)
}

type QualificationService struct {
	config map[string]interface{}
	deps   Deps
	srv    *http.Server
}

func NewQualificationService(cfg map[string]interface{}, pool *pgxpool.Pool, clk clock.Clock, auth func(http.Handler) http.Handler) serviceiface.Service {
	return &QualificationService{
		config: cfg,
		deps:   Deps{Repo: NewPgStore(pool), Clock: clk, Auth: auth},
	}
}

func (s *QualificationService) Name() string {
	return "qualification"
}

func (s *QualificationService) Start() error {
	router := api.NewRouter(s.Name())
	Routes(router, s.deps)
	s.srv = api.StartHTTPServer(s.Name(), api.PortFromConfig(s.config, 7144), router)
	return nil
}

func (s *QualificationService) Stop() error {
	return api.StopHTTPServer(s.srv)
}
