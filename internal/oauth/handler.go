package oauth

import (
	"html/template"
	"net/http"

	"golang.org/x/oauth2"

	"entrabridge/internal/credcache"
	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

// Handler serves the Entra ID authorization endpoints of the relay.
type Handler struct {
	client            *Client
	states            *StateStore
	credentials       CredentialStore
	githubRedirectURL string
}

// NewHandler creates the OAuth HTTP handler. After a successful sign-in the
// browser is sent to githubRedirectURL, or shown a success page when it is empty.
func NewHandler(client *Client, states *StateStore, credentials CredentialStore, githubRedirectURL string) *Handler {
	return &Handler{
		client:            client,
		states:            states,
		credentials:       credentials,
		githubRedirectURL: githubRedirectURL,
	}
}

// HandleAuthorize starts a new authorization flow and redirects the browser to Entra ID.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	verifier := oauth2.GenerateVerifier()
	state, err := h.states.GenerateState(r.URL.Path, verifier)
	if err != nil {
		logging.ErrorContext(r.Context(), "OAuth", err, "Failed to start authorization flow")
		h.renderPage(w, http.StatusInternalServerError, errorPage("Could not start authentication. Please try again."))
		return
	}

	logging.InfoContext(r.Context(), "OAuth", "Redirecting to auth URL (entry=%s)", r.URL.Path)
	http.Redirect(w, r, h.client.AuthCodeURL(state, verifier), http.StatusFound)
}

// HandleCallback handles the redirect back from Entra ID: it validates the
// state, exchanges the code and stores the resulting credential.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	stateParam := query.Get("state")

	if errorParam := query.Get("error"); errorParam != "" {
		logging.WarnContext(r.Context(), "OAuth", "OAuth callback received error: %s - %s", errorParam, query.Get("error_description"))
		h.renderPage(w, http.StatusBadRequest, errorPage("Authentication failed: "+errorParam))
		return
	}

	if code == "" {
		logging.WarnContext(r.Context(), "OAuth", "Code not found")
		h.renderPage(w, http.StatusBadRequest, errorPage("Code not found"))
		return
	}
	if stateParam == "" {
		logging.WarnContext(r.Context(), "OAuth", "OAuth callback missing state parameter")
		h.renderPage(w, http.StatusBadRequest, errorPage("Code not found"))
		return
	}

	state := h.states.ValidateState(stateParam)
	if state == nil {
		h.renderPage(w, http.StatusBadRequest, errorPage("Authentication session expired. Please try again."))
		return
	}

	accessToken, err := h.client.Exchange(r.Context(), code, state.CodeVerifier)
	if err != nil {
		logging.ErrorContext(r.Context(), "OAuth", err, "Failed to exchange token")
		h.renderPage(w, http.StatusBadGateway, errorPage("Failed to exchange token"))
		return
	}

	identity, err := h.credentials.Store(accessToken)
	if err != nil {
		if credcache.IsIdentityResolutionError(err) {
			logging.WarnContext(r.Context(), "OAuth", "Entra token carried no usable identity: %v", err)
			h.renderPage(w, http.StatusUnauthorized,
				errorPage("Your Entra ID account could not be identified. Please authenticate again."))
			return
		}
		logging.ErrorContext(r.Context(), "OAuth", err, "Failed to store credential")
		h.renderPage(w, http.StatusInternalServerError, errorPage("Token exchange failed"))
		return
	}

	logging.InfoContext(r.Context(), "OAuth", "Entra token exchange successful for %s", pkgstrings.MaskIdentity(identity))

	if h.githubRedirectURL != "" {
		http.Redirect(w, r, h.githubRedirectURL, http.StatusFound)
		return
	}
	h.renderPage(w, http.StatusOK, successPage())
}

type page struct {
	Title   string
	Heading string
	Message string
	Hint    string
	Failed  bool
}

func errorPage(message string) page {
	return page{
		Title:   "Authentication Failed",
		Heading: "Authentication Failed",
		Message: message,
		Hint:    "Return to GitHub Copilot Chat and start the sign-in again.",
		Failed:  true,
	}
}

func successPage() page {
	return page{
		Title:   "Authentication Successful",
		Heading: "Authentication Successful",
		Message: "Your Entra ID account is connected.",
		Hint:    "You can close this window and send your chat message again.",
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - entrabridge</title>
    <style>
        body { font-family: -apple-system, system-ui, "Segoe UI", Helvetica, Arial, sans-serif; background: #0d1117; color: #e6edf3; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
        .container { text-align: center; padding: 3rem; border: 1px solid #30363d; border-radius: 6px; max-width: 480px; }
        h1 { font-size: 1.5rem; color: {{if .Failed}}#f85149{{else}}#2ea44f{{end}}; }
        p { color: #8b949e; line-height: 1.6; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Heading}}</h1>
        <p>{{.Message}}</p>
        <p>{{.Hint}}</p>
    </div>
</body>
</html>`))

// setSecurityHeaders sets recommended security headers for HTML responses.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, p page) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := pageTemplate.Execute(w, p); err != nil {
		logging.Error("OAuth", err, "Failed to render page")
	}
}
