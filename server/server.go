package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/auth"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/config"
	"github.com/jrsteele09/go-matchmaking-backoffice/server/loginsession"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	logger       zerolog.Logger
	api          *adminapi.Client
	registry     *sessionRegistry
	metrics      *Metrics
	promRegistry *prometheus.Registry
	templates    *templates
}

// Option configures a Server
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPrometheusRegistry registers the server metrics on reg instead of a private registry
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.promRegistry = reg
	}
}

func New(config config.Config, api *adminapi.Client, loginSessionRepo loginsession.Repo, options ...Option) (*Server, error) {
	if api == nil {
		return nil, fmt.Errorf("[Server New] api client is required")
	}
	if loginSessionRepo == nil {
		return nil, fmt.Errorf("[Server New] login session repo is required")
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		logger: zerolog.Nop(),
		api:    api,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.promRegistry == nil {
		s.promRegistry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.promRegistry)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.templates = tmpl

	authenticator := auth.NewAuthenticator(api, s.logger)
	resolver := auth.NewResolver(api, s.logger)
	s.registry, err = newSessionRegistry(config, loginSessionRepo, authenticator, resolver, s.logger, s.metrics)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create session registry: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
