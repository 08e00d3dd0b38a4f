package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"linkstash/server/authstate"
)

// InitiateLoginHandler starts the redirect-based handshake with the
// identity provider (POST /auth/login). It records the flow state keyed by
// a fresh state value, then sends the browser to the provider's authorize
// endpoint.
func (s *Server) InitiateLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.provider.Enabled() {
			redirectWithError(w, r, RouteLogin, ErrorIndicatorConfig)
			return
		}

		state := generateRandomString(32)
		codeVerifier := generateRandomString(32)
		nonce := generateRandomString(16)

		flowState := &authstate.FlowState{
			CodeVerifier: codeVerifier,
			Nonce:        nonce,
			ReturnURL:    r.FormValue("return_url"),
			CreatedAt:    time.Now(),
		}
		if err := s.authState.Upsert(state, flowState); err != nil {
			log.Error().Err(err).Msg("failed to record auth flow state")
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}

		s.metrics.loginsStarted.Inc()
		redirectSuccess(w, r, s.provider.AuthCodeURL(state, nonce, generateCodeChallenge(codeVerifier)))
	}
}

// OAuthCallbackHandler completes the handshake (GET /auth/callback). Each
// invocation is a single attempt: any failure sends the user back to the
// login route with an error indicator and they must re-initiate.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.provider.Enabled() {
			redirectWithError(w, r, RouteLogin, ErrorIndicatorConfig)
			return
		}

		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		if errorParam != "" {
			log.Info().Str("error", errorParam).Str("description", r.FormValue("error_description")).
				Msg("provider rejected the authorization")
			s.metrics.exchanges.WithLabelValues("rejected").Inc()
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}

		if code == "" || state == "" {
			s.metrics.exchanges.WithLabelValues("bad_request").Inc()
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}

		flowState, err := s.authState.Get(state)
		if err != nil || time.Since(flowState.CreatedAt) > flowStateLifetime {
			s.metrics.exchanges.WithLabelValues("bad_state").Inc()
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}
		// One-time use, win or lose
		_ = s.authState.Delete(state)

		session, err := s.provider.Exchange(r.Context(), code, flowState.CodeVerifier, flowState.Nonce)
		if err != nil {
			log.Info().Err(err).Msg("code exchange failed")
			s.metrics.exchanges.WithLabelValues("failed").Inc()
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}

		if err := s.cookies.Write(w, r, session); err != nil {
			log.Error().Err(err).Msg("failed to persist session cookie")
			redirectWithError(w, r, RouteLogin, ErrorIndicatorAuth)
			return
		}

		s.metrics.exchanges.WithLabelValues("ok").Inc()

		returnURL := flowState.ReturnURL
		if returnURL == "" || returnURL == RouteLogin {
			returnURL = RouteHome
		}
		redirectSuccess(w, r, returnURL)
	}
}

// LogoutHandler invalidates the session with the provider and navigates to
// the login route. Fire-and-forget: the redirect happens regardless of
// whether revocation succeeded.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if session != nil {
			s.engines.Close(session.UserID)
			if err := s.provider.SignOut(r.Context(), session); err != nil {
				log.Warn().Err(err).Msg("provider sign-out failed, continuing")
			}
		}

		s.cookies.Clear(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}
