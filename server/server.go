package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/internal/metrics"
	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"github.com/jrsteele09/go-session-manager/provider"
	"github.com/jrsteele09/go-session-manager/server/authflowrepo"
	"github.com/jrsteele09/go-session-manager/session"
	"github.com/jrsteele09/go-session-manager/token"
	"github.com/rs/zerolog/log"
)

// IdentityProvider is everything the HTTP boundary needs from the OpenID-Connect
// provider on top of what the token manager uses.
type IdentityProvider interface {
	token.Provider
	AuthCodeURL(state, nonce, codeVerifier string) string
	Exchange(ctx context.Context, code, codeVerifier string) (*oauthmodel.TokenResponse, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*provider.IDClaims, error)
}

var _ IdentityProvider = (*provider.Client)(nil)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	idp       IdentityProvider
	manager   *token.Manager
	codec     *session.Codec
	authState authflowrepo.Repo
	metrics   *metrics.Metrics
}

func New(cfg config.Config, idp IdentityProvider, manager *token.Manager, codec *session.Codec, authStateRepo authflowrepo.Repo, m *metrics.Metrics) (*Server, error) {
	if idp == nil || manager == nil || codec == nil || authStateRepo == nil {
		return nil, fmt.Errorf("[Server New] identity provider, token manager, session codec and auth state repo are required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		idp:       idp,
		manager:   manager,
		codec:     codec,
		authState: authStateRepo,
		metrics:   m,
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

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
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

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", coloredMethod(method), path)
}

func logError(method, path string, err error) {
	log.Error().Err(err).Msgf("[%-19s] %s", coloredMethod(method), path)
}

func coloredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
