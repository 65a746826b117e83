package rooms

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RegisterRoutes registers the room, preset and health endpoints on r.
func RegisterRoutes(r *mux.Router, handler *Handler) {
	r.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(logRequests)
	api.HandleFunc("/rooms/{roomId}/state", handler.GetRoomState).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{roomId}/chat", handler.GetChatHistory).Methods(http.MethodGet)
	api.HandleFunc("/presets", handler.ListPresets).Methods(http.MethodGet)
	api.HandleFunc("/presets/{presetId}", handler.GetPreset).Methods(http.MethodGet)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("[API] request")
		next.ServeHTTP(w, r)
	})
}
