package appmanager

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"SisContratacoes/api"
	"SisContratacoes/api/auth"
	"SisContratacoes/api/bidding"
	"SisContratacoes/api/planning"
	"SisContratacoes/api/qualification"
	"SisContratacoes/api/reports"
	"SisContratacoes/api/uam"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/config"
	"SisContratacoes/internal/jobs"
	"SisContratacoes/internal/logger"
	"SisContratacoes/internal/resource"
	"SisContratacoes/internal/serviceiface"
)

// Deps is everything main builds once and hands to the services.
type Deps struct {
	Config *config.Config
	DB     *sql.DB
	Pool   *pgxpool.Pool
	Clock  clock.Clock
	Tokens *auth.TokenService
	Auth   func(http.Handler) http.Handler

	resources *resource.ResourceManager
}

// health defers to the resource manager when one is configured.
func (d *Deps) health() (bool, map[string]interface{}) {
	if d.resources == nil {
		return true, map[string]interface{}{}
	}
	return d.resources.Health()
}

type constructor func(cfg map[string]interface{}, d *Deps) serviceiface.Service

var serviceConstructors = map[string]constructor{
	"logger": func(cfg map[string]interface{}, _ *Deps) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"resourcemanager": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		rm := resource.NewResourceManager(cfg)
		if d.Pool != nil {
			rm.AddResource("postgres_pgx", d.Pool.Ping)
		}
		if d.DB != nil {
			rm.AddResource("postgres_sql", d.DB.PingContext)
		}
		d.resources = rm
		return rm
	},
	"uam": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return uam.NewUAMService(cfg, d.DB, d.Tokens, d.Auth)
	},
	"planning": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return planning.NewPlanningService(cfg, d.Pool, d.Config, d.Clock, d.Auth)
	},
	"qualification": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return qualification.NewQualificationService(cfg, d.Pool, d.Clock, d.Auth)
	},
	"bidding": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return bidding.NewBiddingService(cfg, d.Pool, d.Auth)
	},
	"reports": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return reports.NewReportsService(cfg, d.Pool, d.Clock, d.Auth)
	},
	"cron": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		return jobs.NewCronService(cfg, d.Pool, d.Clock, d.Config)
	},
	"gateway": func(cfg map[string]interface{}, d *Deps) serviceiface.Service {
		var origins []string
		if d.Config != nil {
			origins = d.Config.AllowedOrigins
		}
		return api.NewGatewayService(cfg, origins, d.health)
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	deps     *Deps
	mu       sync.Mutex
}

func NewAppManager(deps *Deps) *AppManager {
	if deps == nil {
		deps = &Deps{}
	}
	return &AppManager{
		services: make([]serviceiface.Service, 0),
		deps:     deps,
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

// StartAll starts services in registration order. The resource manager goes
// last so its first heartbeat sees every backend in use.
func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	var deferred []serviceiface.Service
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			deferred = append(deferred, service)
			continue
		}
		if err := am.start(service); err != nil {
			return err
		}
	}
	for _, service := range deferred {
		if err := am.start(service); err != nil {
			return err
		}
	}
	return nil
}

func (am *AppManager) start(service serviceiface.Service) error {
	log.Info().Str("service", service.Name()).Msg("starting service")
	if err := service.Start(); err != nil {
		return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
	}
	return nil
}

// StopAll stops in reverse order and reports the first failure after trying
// every service.
func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var first error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			log.Error().Err(err).Str("service", svc.Name()).Msg("stop failed")
			if first == nil {
				first = fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
			}
		}
	}
	return first
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})
	return seq.Services, nil
}

// AutoRegisterServices builds every configured service. Unknown names are an
// error so a typo in services.yaml does not silently drop a service.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) error {
	for _, svc := range configs {
		build, ok := serviceConstructors[svc.Name]
		if !ok {
			return fmt.Errorf("unknown service %q in services.yaml", svc.Name)
		}
		cfg := svc.Config
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
		am.RegisterService(build(cfg, am.deps))
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
	return nil
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
