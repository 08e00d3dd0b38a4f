package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
)

const heartbeatInterval = 25 * time.Second

// EventsHandler streams the user's bookmark collection over server-sent
// events (GET /events). Each update carries the full snapshot, newest
// first; open tabs re-render from it, which is how changes made in one tab
// (or another instance) appear in the rest. Closing the connection releases
// the watcher; the engine itself stays alive for the other tabs.
func (s *Server) EventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		identity := identityFromContext(r)
		eng := s.engines.Get(r.Context(), identity.ID)
		updates, release := eng.Watch()
		defer release()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if !writeSnapshot(w, eng.Snapshot()) {
			return
		}
		flusher.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case snapshot, open := <-updates:
				if !open {
					return
				}
				if !writeSnapshot(w, snapshot) {
					return
				}
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snapshot []bookmarks.Bookmark) bool {
	if snapshot == nil {
		snapshot = []bookmarks.Bookmark{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode bookmark snapshot")
		return false
	}
	_, err = fmt.Fprintf(w, "event: bookmarks\ndata: %s\n\n", payload)
	return err == nil
}
