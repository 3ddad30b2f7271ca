package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// newRouter builds the remote-control API routes around the handler.
func newRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Library
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.GetTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/art", apiHandler.GetArtHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/favorite", apiHandler.AuthMiddleware(apiHandler.FavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/albums", apiHandler.AuthMiddleware(apiHandler.GetAlbumsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/import", apiHandler.AuthMiddleware(apiHandler.UploadTracksHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/import/path", apiHandler.AuthMiddleware(apiHandler.ImportPathHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/deleted", apiHandler.AuthMiddleware(apiHandler.GetDeletedHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/deleted/restore", apiHandler.AuthMiddleware(apiHandler.RestoreHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/library", apiHandler.AuthMiddleware(apiHandler.ClearLibraryHandler)).Methods(http.MethodDelete)

	// Player
	router.HandleFunc("/api/player", apiHandler.AuthMiddleware(apiHandler.PlayerStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/play", apiHandler.AuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/toggle", apiHandler.AuthMiddleware(apiHandler.ToggleHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", apiHandler.AuthMiddleware(apiHandler.NextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/prev", apiHandler.AuthMiddleware(apiHandler.PrevHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/shuffle", apiHandler.AuthMiddleware(apiHandler.ShuffleHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/events", apiHandler.AuthMiddleware(apiHandler.EventsHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	return router
}
