package notify

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Authenticator resolves the session id carried by a bearer token.
type Authenticator func(token string) (sessionID string, err error)

// NewRouter serves the realtime socket and a health probe.
func NewRouter(h *Hub, auth Authenticator) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		sid, err := auth(r.URL.Query().Get("token"))
		if err != nil || sid == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeWS(w, r, sid)
	}).Methods(http.MethodGet)
	return r
}
