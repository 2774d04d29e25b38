package planning

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"SisContratacoes/api"
	"SisContratacoes/api/middlewares"
	"SisContratacoes/api/planning/importer"
	"SisContratacoes/api/uam/permissions"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/config"
	"SisContratacoes/internal/serviceiface"
)

// Deps wires the planning routes.
type Deps struct {
	Repo        Repository
	Importer    Importer
	Clock       clock.Clock
	MaxUploadMB int64
	// Auth authenticates the caller and puts its identity in the context.
	Auth func(http.Handler) http.Handler
}

// Routes registers the /pca endpoints on r.
func Routes(r *mux.Router, d Deps) {
	guard := func(action permissions.Action, h http.HandlerFunc) http.Handler {
		return d.Auth(middlewares.Guard(action, h))
	}

	r.Handle("/pca", guard(permissions.ReadAll, ListPCAs(d.Repo, d.Clock))).Methods(http.MethodGet)
	r.Handle("/pca/", guard(permissions.ReadAll, ListPCAs(d.Repo, d.Clock))).Methods(http.MethodGet)
	r.Handle("/pca", guard(permissions.PlanningWrite, CreatePCA(d.Repo, d.Clock))).Methods(http.MethodPost)
	r.Handle("/pca/", guard(permissions.PlanningWrite, CreatePCA(d.Repo, d.Clock))).Methods(http.MethodPost)
	r.Handle("/pca/import", guard(permissions.PlanningImport, ImportPCA(d.Importer, d.MaxUploadMB))).Methods(http.MethodPost)
	r.Handle("/pca/dashboard/stats", guard(permissions.ReadAll, DashboardStats(d.Repo, d.Clock))).Methods(http.MethodGet)
	r.Handle("/pca/atrasadas", guard(permissions.ReadAll, ListByStatus(d.Repo, d.Clock, true))).Methods(http.MethodGet)
	r.Handle("/pca/vencidas", guard(permissions.ReadAll, ListByStatus(d.Repo, d.Clock, false))).Methods(http.MethodGet)
	r.Handle("/pca/{id}", guard(permissions.ReadAll, GetPCA(d.Repo, d.Clock))).Methods(http.MethodGet)
	r.Handle("/pca/{id}", guard(permissions.PlanningWrite, UpdatePCA(d.Repo, d.Clock))).Methods(http.MethodPut)
	r.Handle("/pca/{id}", guard(permissions.PlanningWrite, DeletePCA(d.Repo))).Methods(http.MethodDelete)
}

type PlanningService struct {
	config map[string]interface{}
	deps   Deps
	srv    *http.Server
}

func NewPlanningService(cfg map[string]interface{}, pool *pgxpool.Pool, appCfg *config.Config, clk clock.Clock, auth func(http.Handler) http.Handler) serviceiface.Service {
	store := NewPgStore(pool)
	return &PlanningService{
		config: cfg,
		deps: Deps{
			Repo:        store,
			Importer:    importer.NewReconciler(store, appCfg.Import),
			Clock:       clk,
			MaxUploadMB: appCfg.Import.MaxUploadMB,
			Auth:        auth,
		},
	}
}

func (s *PlanningService) Name() string {
	return "planning"
}

func (s *PlanningService) Start() error {
	router := api.NewRouter(s.Name())
	Routes(router, s.deps)
	s.srv = api.StartHTTPServer(s.Name(), api.PortFromConfig(s.config, 7143), router)
	return nil
}

func (s *PlanningService) Stop() error {
	return api.StopHTTPServer(s.srv)
}
