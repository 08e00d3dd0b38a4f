package server

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

func (s *Server) initRoutes() {
	// Dashboard (protected)
	s.RegisterRouteHandler("GET "+RouteHome, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleware(s.WithSession(), s.RequireAuth())...))

	// Auth flow
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleware(s.WithSession(), s.RedirectIfAuthenticated())...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, s.rateLimited(ChainMiddleware(s.InitiateLoginHandler(), s.HTMLMiddleware()...)))
	s.RegisterRouteHandler("GET "+RouteCallback, s.rateLimited(ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleware()...)))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleware(s.WithSession())...))

	// Bookmarks (protected)
	s.RegisterRouteHandler("POST "+RouteBookmarks, ChainMiddleware(s.AddBookmarkHandler(), s.HTMLMiddleware(s.WithSession(), s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteBookmarkDelete, ChainMiddleware(s.DeleteBookmarkHandler(), s.HTMLMiddleware(s.WithSession(), s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteBookmarkDeleteForm, ChainMiddleware(s.DeleteBookmarkHandler(), s.HTMLMiddleware(s.WithSession(), s.RequireAuth())...))

	// Live update stream (protected)
	s.RegisterRouteHandler("GET "+RouteEvents, ChainMiddleware(s.EventsHandler(), s.WithSession(), s.RequireAuth()))

	// Operational
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	// Static assets
	s.RegisterRouteHandler("GET "+RouteStaticCSS, s.fileServer)
	s.RegisterRouteHandler("GET "+RouteStaticJS, s.fileServer)
}

// rateLimited throttles the auth endpoints per client IP.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return httprate.LimitByIP(30, time.Minute)(next)
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
