package server

import (
	"encoding/json"
	"net/http"

	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

// AuthStatus is the body of GET /auth/status.
type AuthStatus struct {
	Identity      string `json:"identity"`
	Authenticated bool   `json:"authenticated"`
	AuthURL       string `json:"authUrl,omitempty"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r.Context(), r.Header.Get(GitHubTokenHeader))
	if err != nil {
		logging.DebugContext(r.Context(), "HTTP", "Auth status for unidentified caller: %v", err)
		writeJSONError(w, http.StatusUnauthorized, msgUnidentified)
		return
	}

	status := AuthStatus{
		Identity:      pkgstrings.MaskIdentity(userID),
		Authenticated: s.credentials.Has(userID),
	}
	if !status.Authenticated {
		status.AuthURL = s.AuthURL()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello from Developer World!"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("HTTP", "Failed to write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
