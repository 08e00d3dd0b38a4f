package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
)

// DashboardPageData contains data for rendering the dashboard
type DashboardPageData struct {
	AppName   string
	Email     string
	Bookmarks []bookmarks.Bookmark
	Error     string
}

// DashboardHandler renders the bookmark dashboard (GET /). The page is a
// plain render of the user's sync engine state; mutations and live updates
// go through the bookmark and event routes.
func (s *Server) DashboardHandler() http.HandlerFunc {
	dashboardTmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse dashboard template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r)

		eng := s.engines.Get(r.Context(), identity.ID)
		data := DashboardPageData{
			AppName:   s.config.GetAppName(),
			Email:     identity.Email,
			Bookmarks: eng.Snapshot(),
			Error:     dashboardErrorMessage(r.URL.Query().Get("error")),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := dashboardTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
			http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		}
	}
}

func dashboardErrorMessage(indicator string) string {
	switch indicator {
	case "blank":
		return "Title and URL are both required."
	case "add_failed":
		return "Could not save the bookmark. Please try again."
	default:
		return ""
	}
}
