package bidding

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api"
	"SisContratacoes/api/middlewares"
	"SisContratacoes/api/uam/permissions"
	"SisContratacoes/internal/serviceiface"
)

type Deps struct {
	Repo Repository
	Auth func(http.Handler) http.Handler
}

// Routes registers the /licitacao endpoints on r.
func Routes(r *mux.Router, d Deps) {
	guard := func(action permissions.Action, h http.HandlerFunc) http.Handler {
		return d.Auth(middlewares.Guard(action, h))
	}

	r.Handle("/licitacao", guard(permissions.ReadAll, ListLicitacoes(d.Repo))).Methods(http.MethodGet)
	r.Handle("/licitacao/", guard(permissions.ReadAll, ListLicitacoes(d.Repo))).Methods(http.MethodGet)
	r.Handle("/licitacao", guard(permissions.BiddingWrite, CreateLicitacao(d.Repo))).Methods(http.MethodPost)
	r.Handle("/licitacao/", guard(permissions.BiddingWrite, CreateLicitacao(d.Repo))).Methods(http.MethodPost)
	r.Handle("/licitacao/dashboard/stats", guard(permissions.ReadAll, DashboardStats(d.Repo))).Methods(http.MethodGet)
	r.Handle("/licitacao/economia/relatorio", guard(permissions.ReportsRead, SavingsReportHandler(d.Repo))).Methods(http.MethodGet)
	r.Handle("/licitacao/{id}", guard(permissions.ReadAll, GetLicitacao(d.Repo))).Methods(http.MethodGet)
	r.Handle("/licitacao/{id}", guard(permissions.BiddingWrite, UpdateLicitacao(d.Repo))).Methods(http.MethodPut)
	r.Handle("/licitacao/{id}", guard(permissions.BiddingWrite, DeleteLicitacao(d.Repo))).Methods(http.MethodDelete)
}

type BiddingService struct {
	config map[string]interface{}
	deps   Deps
	srv    *http.Server
}

func NewBiddingService(cfg map[string]interface{}, pool *pgxpool.Pool, auth func(http.Handler) http.Handler) serviceiface.Service {
	return &BiddingService{
		config: cfg,
		deps:   Deps{Repo: NewPgStore(pool), Auth: auth},
	}
}

func (s *BiddingService) Name() string {
	return "bidding"
}

func (s *BiddingService) Start() error {
	router := api.NewRouter(s.Name())
	Routes(router, s.deps)
	s.srv = api.StartHTTPServer(s.Name(), api.PortFromConfig(s.config, 7145), router)
	return nil
}

func (s *BiddingService) Stop() error {
	return api.StopHTTPServer(s.srv)
}
