package api

import (
	"net/http"

	"SisContratacoes/internal/serviceiface"
)

type GatewayService struct {
	config         map[string]interface{}
	allowedOrigins []string
	health         HealthFunc
	srv            *http.Server
}

func NewGatewayService(cfg map[string]interface{}, allowedOrigins []string, health HealthFunc) serviceiface.Service {
	return &GatewayService{config: cfg, allowedOrigins: allowedOrigins, health: health}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	h, err := NewGatewayHandler(RoutesFromConfig(s.config), s.allowedOrigins, s.health)
	if err != nil {
		return err
	}
	s.srv = StartHTTPServer(s.Name(), PortFromConfig(s.config, 8081), h)
	return nil
}

func (s *GatewayService) Stop() error {
	return StopHTTPServer(s.srv)
}
