package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ShelfFM/core/auth"
	"ShelfFM/logger"
)

const tokenTTL = 30 * 24 * time.Hour

// LoginHandler exchanges the access password for a signed token. With no
// access password configured the API runs open and this endpoint still
// issues tokens so clients don't need a separate code path.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if h.cfg.AccessPasswordHash != "" {
		if !auth.CheckPasswordHash(req.Password, h.cfg.AccessPasswordHash) {
			logger.Warn("login rejected: bad password")
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}
	}

	token, err := auth.GenerateToken(h.cfg.AuthSecret, tokenTTL)
	if err != nil {
		logger.Error("token generation failed", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// AuthMiddleware checks for a valid token on protected endpoints. It is a
// passthrough when no access password is configured.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AccessPasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			// Websocket clients can't set headers; accept ?token= there.
			authHeader = "Bearer " + r.URL.Query().Get("token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		if _, err := auth.ParseToken(h.cfg.AuthSecret, parts[1]); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}
