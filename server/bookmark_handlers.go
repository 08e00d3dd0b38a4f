package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "linkstash/internal/errors"
)

// AddBookmarkHandler submits a new bookmark (POST /bookmarks). Blank fields
// are rejected before any request reaches the store; a store failure leaves
// the collection untouched and surfaces on the dashboard.
func (s *Server) AddBookmarkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r)

		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteHome, "add_failed")
			return
		}

		eng := s.engines.Get(r.Context(), identity.ID)
		_, err := eng.Add(r.Context(), r.FormValue("title"), r.FormValue("url"))
		switch {
		case apperrors.Is(err, apperrors.ErrBlankField):
			s.metrics.bookmarkOps.WithLabelValues("add", "blank").Inc()
			redirectWithError(w, r, RouteHome, "blank")
			return
		case err != nil:
			log.Error().Err(err).Str("owner", identity.ID).Msg("bookmark add failed")
			s.metrics.bookmarkOps.WithLabelValues("add", "error").Inc()
			redirectWithError(w, r, RouteHome, "add_failed")
			return
		}

		s.metrics.bookmarkOps.WithLabelValues("add", "ok").Inc()
		redirectSuccess(w, r, RouteHome)
	}
}

// DeleteBookmarkHandler removes a bookmark (DELETE /bookmarks/{id}, with a
// POST form fallback). The removal is optimistic: the engine drops the
// entry before the store confirms, and a store failure is not rolled back.
func (s *Server) DeleteBookmarkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r)

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid bookmark id", http.StatusBadRequest)
			return
		}

		eng := s.engines.Get(r.Context(), identity.ID)
		if err := eng.Delete(r.Context(), id); err != nil {
			// The entry is already gone locally and stays gone; only the
			// counter distinguishes the outcome
			s.metrics.bookmarkOps.WithLabelValues("delete", "error").Inc()
		} else {
			s.metrics.bookmarkOps.WithLabelValues("delete", "ok").Inc()
		}

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		redirectSuccess(w, r, RouteHome)
	}
}
