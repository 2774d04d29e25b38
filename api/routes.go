package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"SisContratacoes/api/constants"
)

// NewRouter returns a mux router with request logging and panic recovery
// installed. Unknown routes answer with the JSON error envelope.
func NewRouter(service string) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger(service), PanicHandler)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	return router
}

// PortFromConfig reads "port" from a services.yaml block.
func PortFromConfig(cfg map[string]interface{}, def int) int {
	switch v := cfg["port"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// StartHTTPServer serves h on port in the background.
func StartHTTPServer(name string, port int, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("service", name).Str("addr", srv.Addr).Msg("service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("service", name).Msg("server failed")
		}
	}()
	return srv
}

// StopHTTPServer drains in-flight requests for up to five seconds.
func StopHTTPServer(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
