package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName          string
	Error            string
	ProviderDisabled bool
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse login template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{
			AppName:          s.config.GetAppName(),
			Error:            loginErrorMessage(r.URL.Query().Get("error")),
			ProviderDisabled: !s.provider.Enabled(),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

func loginErrorMessage(indicator string) string {
	switch indicator {
	case ErrorIndicatorAuth:
		return "Sign-in failed. Please try again."
	case ErrorIndicatorConfig:
		return "Sign-in is not configured on this server."
	case "":
		return ""
	default:
		return "Something went wrong. Please try again."
	}
}
