package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/skyship/pkg/log"
)

// AdminHooks connects the admin endpoints to the running service.
type AdminHooks struct {
	// Status returns the lifecycle state name and whether the service is healthy.
	Status func() (state string, healthy bool)

	// Reload requests a subscriber reload. It must not block.
	Reload func()

	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// AdminServer exposes health, metrics and a reload trigger over HTTP.
type AdminServer struct {
	server   *http.Server
	listener net.Listener
	logger   log.Logger
}

// NewAdminServer creates an admin server that will listen on addr.
func NewAdminServer(addr string, hooks AdminHooks, logger log.Logger) *AdminServer {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &AdminServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewAdminRouter(hooks),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NewAdminRouter returns the admin routes.
func NewAdminRouter(hooks AdminHooks) *mux.Router {
	gatherer := hooks.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		state, healthy := "unknown", false
		if hooks.Status != nil {
			state, healthy = hooks.Status()
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": state})
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/reload", func(w http.ResponseWriter, req *http.Request) {
		if hooks.Reload != nil {
			hooks.Reload()
		}
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)

	return r
}

// Start binds the listener and serves in the background.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("admin server listening", log.String("addr", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server failed", log.Err(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *AdminServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
