package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "linkstash/internal/errors"
	"linkstash/provider"
	"linkstash/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the authenticated *provider.Identity
	ContextKeyIdentity ContextKey = "identity"
	// ContextKeySession stores the current *sessions.Session
	ContextKeySession ContextKey = "session"
)

// WithSession is the authorization gate's resolution step, run on every
// request that cares about identity. It reads the session cookie, asks the
// provider for the current user (renewing a stale access token as a side
// effect), and propagates any refreshed token material back into the
// response cookie. Requests proceed either way; downstream middleware
// decides what anonymity means for its route. A disabled provider degrades
// every request to anonymous without failing it.
func (s *Server) WithSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, err := s.cookies.Read(r)
			if err != nil {
				next(w, r) // anonymous
				return
			}

			identity, refreshed, err := s.provider.CurrentUser(r.Context(), session)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrProviderDisabled) {
					log.Warn().Msg("identity provider disabled, serving request as anonymous")
					next(w, r)
					return
				}
				// The provider rejected the session; it is invalid from
				// this instant
				log.Info().Err(err).Msg("session no longer valid, clearing cookie")
				s.cookies.Clear(w, r)
				next(w, r)
				return
			}

			if refreshed != nil {
				if err := s.cookies.Write(w, r, refreshed); err != nil {
					log.Error().Err(err).Msg("failed to propagate refreshed session cookie")
				}
				session = refreshed
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			ctx = context.WithValue(ctx, ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAuth redirects anonymous requests to the login route. Chain after
// WithSession.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if identityFromContext(r) == nil {
				redirectSuccess(w, r, RouteLogin)
				return
			}
			next(w, r)
		}
	}
}

// RedirectIfAuthenticated sends signed-in users away from the login route.
// Chain after WithSession.
func (s *Server) RedirectIfAuthenticated() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if identityFromContext(r) != nil {
				redirectSuccess(w, r, RouteHome)
				return
			}
			next(w, r)
		}
	}
}

func identityFromContext(r *http.Request) *provider.Identity {
	identity, _ := r.Context().Value(ContextKeyIdentity).(*provider.Identity)
	return identity
}

func sessionFromContext(r *http.Request) *sessions.Session {
	session, _ := r.Context().Value(ContextKeySession).(*sessions.Session)
	return session
}
