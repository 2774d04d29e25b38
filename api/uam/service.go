package uam

import (
	"database/sql"
	"net/http"

	"SisContratacoes/api"
	"SisContratacoes/api/auth"
	"SisContratacoes/api/uam/role"
	"SisContratacoes/api/uam/user"
	"SisContratacoes/internal/serviceiface"
)

type UAMService struct {
	config map[string]interface{}
	deps   Deps
	srv    *http.Server
}

func NewUAMService(cfg map[string]interface{}, db *sql.DB, tokens *auth.TokenService, authMW func(http.Handler) http.Handler) serviceiface.Service {
	return &UAMService{
		config: cfg,
		deps: Deps{
			Users:    user.NewSQLStore(db),
			Requests: role.NewSQLStore(db),
			Tokens:   tokens,
			Auth:     authMW,
		},
	}
}

func (s *UAMService) Name() string {
	return "uam"
}

func (s *UAMService) Start() error {
	router := api.NewRouter(s.Name())
	Routes(router, s.deps)
	s.srv = api.StartHTTPServer(s.Name(), api.PortFromConfig(s.config, 5143), router)
	return nil
}

func (s *UAMService) Stop() error {
	return api.StopHTTPServer(s.srv)
}
