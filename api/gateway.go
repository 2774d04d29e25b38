package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/logger"
)

// HealthFunc reports overall health and per-component details.
type HealthFunc func() (bool, map[string]interface{})

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}

// createReverseProxy returns a handler that forwards to target and audits the
// outcome.
func createReverseProxy(target string) (http.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bad target URL %q", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("target", target).Str("path", r.URL.Path).Msg("proxy error")
		RespondWithError(w, http.StatusBadGateway, "upstream unavailable")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &statusRecorder{ResponseWriter: w}
		proxy.ServeHTTP(rw, r)
		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		logger.Audit("[Gateway] %s %s from %s -> %s status %d",
			r.Method, r.URL.Path, extractClientIP(r), target, rw.status)
	}, nil
}

// NewGatewayHandler routes each path prefix to its upstream service and wraps
// everything in CORS handling.
func NewGatewayHandler(routes map[string]string, allowedOrigins []string, health HealthFunc) (http.Handler, error) {
	mux := http.NewServeMux()

	prefixes := make([]string, 0, len(routes))
	for p := range routes {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		h, err := createReverseProxy(routes[prefix])
		if err != nil {
			return nil, err
		}
		p := "/" + strings.Trim(prefix, "/")
		mux.HandleFunc(p, h)
		mux.HandleFunc(p+"/", h)
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ok, details := true, map[string]interface{}{}
		if health != nil {
			ok, details = health()
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		RespondWithJSON(w, status, map[string]interface{}{
			constants.ValueSuccess: ok,
			"components":           details,
		})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Audit("[Gateway] %s from %s (route not found)", r.URL.Path, extractClientIP(r))
		RespondWithError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})

	c := cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", constants.HeaderAuthorization, constants.ContentTypeText, constants.HeaderRequestID},
		ExposedHeaders:   []string{constants.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c(mux), nil
}

// RoutesFromConfig reads the "routes" block of the gateway service config.
func RoutesFromConfig(cfg map[string]interface{}) map[string]string {
	out := map[string]string{}
	raw, ok := cfg["routes"].(map[string]interface{})
	if !ok {
		return out
	}
	for prefix, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out[prefix] = s
		}
	}
	return out
}
