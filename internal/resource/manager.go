// Package resource tracks the health of shared backends such as the
// database pools and reports it to the gateway.
package resource

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"SisContratacoes/internal/logger"
)

// Check pings one backend. pgxpool.Pool.Ping and sql.DB.PingContext fit.
type Check func(ctx context.Context) error

type status struct {
	healthy bool
	err     string
	checked time.Time
}

type ResourceManager struct {
	checks            map[string]Check
	state             map[string]status
	mu                sync.RWMutex
	stopChan          chan struct{}
	stopOnce          sync.Once
	heartbeatInterval time.Duration
	timeout           time.Duration
}

// NewResourceManager reads "heartbeat_interval" (a duration string or seconds)
// from its services.yaml block.
func NewResourceManager(cfg map[string]interface{}) *ResourceManager {
	interval := 15 * time.Second
	switch v := cfg["heartbeat_interval"].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	case int:
		if v > 0 {
			interval = time.Duration(v) * time.Second
		}
	case float64:
		if v > 0 {
			interval = time.Duration(v * float64(time.Second))
		}
	}
	return &ResourceManager{
		checks:            make(map[string]Check),
		state:             make(map[string]status),
		stopChan:          make(chan struct{}),
		heartbeatInterval: interval,
		timeout:           3 * time.Second,
	}
}

func (rm *ResourceManager) Name() string { return "resourcemanager" }

func (rm *ResourceManager) Start() error {
	logger.Audit("resource manager started, heartbeat every %s", rm.heartbeatInterval)
	rm.CheckNow()
	go rm.heartbeatLoop()
	return nil
}

func (rm *ResourceManager) Stop() error {
	rm.stopOnce.Do(func() { close(rm.stopChan) })
	return nil
}

func (rm *ResourceManager) heartbeatLoop() {
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			rm.CheckNow()
		}
	}
}

// CheckNow runs every registered check once and records the outcome.
// Transitions between healthy and unhealthy are logged.
func (rm *ResourceManager) CheckNow() {
	rm.mu.RLock()
	checks := make(map[string]Check, len(rm.checks))
	for k, c := range rm.checks {
		checks[k] = c
	}
	rm.mu.RUnlock()

	for name, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), rm.timeout)
		err := check(ctx)
		cancel()

		st := status{healthy: err == nil, checked: time.Now()}
		if err != nil {
			st.err = err.Error()
		}
		rm.mu.Lock()
		prev, seen := rm.state[name]
		rm.state[name] = st
		rm.mu.Unlock()

		switch {
		case err != nil && (!seen || prev.healthy):
			log.Error().Err(err).Str("resource", name).Msg("resource unhealthy")
			logger.Audit("resource %s unhealthy: %v", name, err)
		case err == nil && seen && !prev.healthy:
			log.Info().Str("resource", name).Msg("resource recovered")
			logger.Audit("resource %s recovered", name)
		}
	}
}

func (rm *ResourceManager) AddResource(key string, check Check) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.checks[key] = check
}

func (rm *ResourceManager) RemoveResource(key string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.checks, key)
	delete(rm.state, key)
}

func (rm *ResourceManager) ListResources() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	keys := make([]string, 0, len(rm.checks))
	for key := range rm.checks {
		keys = append(keys, key)
	}
	return keys
}

// Health reports the last heartbeat outcome. A resource that has not been
// checked yet counts as unhealthy.
func (rm *ResourceManager) Health() (bool, map[string]interface{}) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	ok := true
	details := make(map[string]interface{}, len(rm.checks))
	for name := range rm.checks {
		st, seen := rm.state[name]
		if !seen || !st.healthy {
			ok = false
		}
		d := map[string]interface{}{"healthy": seen && st.healthy}
		if seen {
			d["checked_at"] = st.checked.UTC().Format(time.RFC3339)
		}
		if st.err != "" {
			d["error"] = st.err
		}
		details[name] = d
	}
	return ok, details
}
