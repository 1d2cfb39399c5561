// Package httpserver exposes the bridge over the HTTP POST binding.
// Each flow endpoint ingests a posted document or token, runs the
// matching handler, and answers with an auto-submitting form that
// carries the result to the next party.
package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vrk-kpa/eidas-bridge/internal/config"
	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/service"
)

// Endpoint paths of the POST binding.
const (
	PathServiceProviderRequest   = "/ServiceProviderRequest"
	PathConnectorResponse        = "/ConnectorResponse"
	PathProxyServiceRequest      = "/ProxyServiceRequest"
	PathIdentityProviderResponse = "/IdentityProviderResponse"
	PathMetadata                 = "/metadata"
	PathHealth                   = "/healthz"
	PathMetrics                  = "/metrics"
)

// Config wires the server to its surroundings.
type Config struct {
	// Role selects which flow endpoints are mounted.
	Role string

	// RequestTokenParameter and ResponseTokenParameter are the form
	// fields carrying encoded tokens from and to the federation node.
	RequestTokenParameter  string
	ResponseTokenParameter string

	// CountryParameter is the form field carrying the citizen country
	// on service provider requests.
	CountryParameter string

	// NodeRequestURL and NodeResponseURL are the federation node
	// endpoints tokens are handed off to.
	NodeRequestURL  string
	NodeResponseURL string

	// ServiceProviderEndpoint receives built response documents.
	ServiceProviderEndpoint string

	// IdentityProviderEndpoint receives built request documents.
	IdentityProviderEndpoint string

	// Metadata is the pre-rendered node metadata. Nil disables the
	// metadata endpoint.
	Metadata []byte
}

// Server handles the bridge HTTP endpoints.
type Server struct {
	cfg       Config
	requests  *service.RequestHandler
	responses *service.ResponseHandler
	renderer  *TemplateRenderer
	logger    *zap.Logger
	mux       *http.ServeMux
}

// New creates the server and mounts the endpoints for the configured
// role.
func New(cfg Config, requests *service.RequestHandler, responses *service.ResponseHandler, logger *zap.Logger) (*Server, error) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		requests:  requests,
		responses: responses,
		renderer:  renderer,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	switch s.cfg.Role {
	case config.RoleConnector:
		s.mux.HandleFunc(PathServiceProviderRequest, s.postOnly(s.handleServiceProviderRequest))
		s.mux.HandleFunc(PathConnectorResponse, s.postOnly(s.handleConnectorResponse))
	case config.RoleProxyService:
		s.mux.HandleFunc(PathProxyServiceRequest, s.postOnly(s.handleProxyServiceRequest))
		s.mux.HandleFunc(PathIdentityProviderResponse, s.postOnly(s.handleIdentityProviderResponse))
	}
	s.mux.HandleFunc(PathHealth, s.handleHealth)
	s.mux.Handle(PathMetrics, promhttp.Handler())
	if s.cfg.Metadata != nil {
		s.mux.HandleFunc(PathMetadata, s.handleMetadata)
	}
}

// ServeHTTP dispatches to the mounted endpoints.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// writeHandoff renders the auto-submitting form carrying the fields to
// the next party. Empty field values are omitted.
func (s *Server) writeHandoff(w http.ResponseWriter, action string, fields []HandoffField) {
	kept := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			kept = append(kept, f)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderHandoff(w, HandoffData{Action: action, Fields: kept}); err != nil {
		s.logger.Error("render handoff page", zap.Error(err))
	}
}

// writeError maps a handler error to a uniform error page. The error
// detail stays in the log; the page shows only the failure category.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := http.StatusBadRequest
	if kind == domain.KindStorage {
		status = http.StatusBadGateway
	}
	s.logger.Warn("request rejected",
		zap.String("path", r.URL.Path),
		zap.String("kind", string(kind)),
		zap.Error(err))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := ErrorData{
		Title:   http.StatusText(status),
		Message: "The authentication message could not be processed.",
	}
	if renderErr := s.renderer.RenderError(w, data); renderErr != nil {
		s.logger.Error("render error page", zap.Error(renderErr))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	w.Write(s.cfg.Metadata)
}
