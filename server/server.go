package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"linkstash/bookmarks"
	"linkstash/internal/config"
	"linkstash/provider"
	"linkstash/server/authstate"
	"linkstash/sessions"
)

const (
	// flowStateLifetime bounds how long a started handshake stays valid
	flowStateLifetime = 15 * time.Minute

	// engineIdleLimit is how long a user's sync engine survives without
	// activity before the janitor releases it
	engineIdleLimit = 30 * time.Minute

	janitorInterval = 5 * time.Minute
)

type Server struct {
	env        string // Environment (e.g., "DEV", "production")
	mux        *http.ServeMux
	routes     []string
	fileServer http.Handler
	config     config.Config
	provider   provider.Client
	cookies    *sessions.CookieCodec
	authState  authstate.Repo
	engines    *engineRegistry
	metrics    *serverMetrics

	janitorStop chan struct{}
}

// New wires the server from explicitly constructed collaborators. The
// provider client may be the disabled variant; the server still serves every
// route and degrades sign-in gracefully.
func New(cfg config.Config, providerClient provider.Client, store bookmarks.Store, feed bookmarks.Feed) *Server {
	metrics := newServerMetrics()

	s := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		provider:    providerClient,
		cookies:     sessions.NewCookieCodec(cfg.GetCookieSecret()),
		authState:   authstate.NewInMemoryRepo(),
		engines:     newEngineRegistry(store, feed, metrics),
		metrics:     metrics,
		janitorStop: make(chan struct{}),
	}
	s.env = cfg.GetEnv()
	s.fileServer = FileServerHandler()

	s.initRoutes()
	s.logRoutes()

	go s.janitor()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases every user engine and stops the background janitor.
func (s *Server) Close() {
	close(s.janitorStop)
	s.engines.CloseAll()
}

// janitor periodically drops idle engines and stale handshake state.
func (s *Server) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			s.engines.CloseIdle(engineIdleLimit)
			_ = s.authState.DeleteExpired(time.Now().Add(-flowStateLifetime))
		}
	}
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

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
