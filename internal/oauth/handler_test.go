package oauth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	testingclock "k8s.io/utils/clock/testing"

	"entrabridge/internal/credcache"
	"entrabridge/internal/identity"
	"entrabridge/pkg/logging"
)

// fakeEntra is a token endpoint that issues a fixed access token.
type fakeEntra struct {
	server *httptest.Server

	mu          sync.Mutex
	status      int
	accessToken string
	lastForm    url.Values
}

func newFakeEntra(t *testing.T, accessToken string) *fakeEntra {
	t.Helper()
	f := &fakeEntra{status: http.StatusOK, accessToken: accessToken}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.lastForm = r.PostForm
		status, token := f.status, f.accessToken
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"AADSTS70008: code expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeEntra) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

type handlerFixture struct {
	handler *Handler
	states  *StateStore
	cache   *credcache.Cache
	entra   *fakeEntra
}

func newHandlerFixture(t *testing.T, accessToken, githubRedirectURL string) *handlerFixture {
	t.Helper()

	entra := newFakeEntra(t, accessToken)
	fakeClock := testingclock.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	states := NewStateStoreWithClock(fakeClock, DefaultStateExpiry)
	t.Cleanup(states.Stop)

	cache := credcache.New(identity.NewClaimsDecoder(), credcache.Options{
		SweepInterval: 24 * time.Hour,
		Clock:         fakeClock,
	})
	t.Cleanup(cache.Stop)

	client := NewClient(ClientConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://relay.example.com/callback",
		AuthorizeURL: "https://login.example.com/tenant/oauth2/v2.0/authorize",
		TokenURL:     entra.server.URL + "/token",
		HTTPClient:   entra.server.Client(),
	})

	return &handlerFixture{
		handler: NewHandler(client, states, cache, githubRedirectURL),
		states:  states,
		cache:   cache,
		entra:   entra,
	}
}

func (f *handlerFixture) callback(query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
	rec := httptest.NewRecorder()
	f.handler.HandleCallback(rec, req)
	return rec
}

func TestHandleAuthorize_RedirectsToEntra(t *testing.T) {
	for _, path := range []string{"/auth", "/github-redirect"} {
		t.Run(path, func(t *testing.T) {
			f := newHandlerFixture(t, "", "")

			rec := httptest.NewRecorder()
			f.handler.HandleAuthorize(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusFound {
				t.Fatalf("Expected status %d, got %d", http.StatusFound, rec.Code)
			}

			location, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatalf("Invalid Location header: %v", err)
			}
			if location.Host != "login.example.com" {
				t.Errorf("Expected redirect to the authorize endpoint, got %s", location)
			}

			q := location.Query()
			if q.Get("client_id") != "client-id" {
				t.Errorf("Expected client_id=client-id, got %q", q.Get("client_id"))
			}
			if q.Get("response_type") != "code" {
				t.Errorf("Expected response_type=code, got %q", q.Get("response_type"))
			}
			if q.Get("redirect_uri") != "https://relay.example.com/callback" {
				t.Errorf("Unexpected redirect_uri %q", q.Get("redirect_uri"))
			}
			if q.Get("scope") != "openid profile" {
				t.Errorf("Expected default scopes, got %q", q.Get("scope"))
			}
			if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
				t.Error("Expected an S256 PKCE challenge")
			}
			if q.Get("state") == "" {
				t.Fatal("Expected a state parameter")
			}
			if f.states.Count() != 1 {
				t.Errorf("Expected 1 pending state, got %d", f.states.Count())
			}

			state := f.states.ValidateState(q.Get("state"))
			if state == nil || state.EntryPath != path {
				t.Errorf("Expected state recorded for entry path %s", path)
			}
		})
	}
}

func TestHandleAuthorize_MethodNotAllowed(t *testing.T) {
	f := newHandlerFixture(t, "", "")

	rec := httptest.NewRecorder()
	f.handler.HandleAuthorize(rec, httptest.NewRequest(http.MethodPost, "/auth", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestHandleCallback_Success(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "Alice@Example.com", "oid": "0000-1111"})
	f := newHandlerFixture(t, token, "https://github.com/copilot")

	state, err := f.states.GenerateState("/auth", "verifier-123")
	if err != nil {
		t.Fatalf("Failed to generate state: %v", err)
	}

	rec := f.callback("code=auth-code&state=" + url.QueryEscape(state))

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusFound, rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "https://github.com/copilot" {
		t.Errorf("Expected redirect to GitHub, got %q", got)
	}

	form := f.entra.form()
	if form.Get("code") != "auth-code" {
		t.Errorf("Expected code to be exchanged, got %q", form.Get("code"))
	}
	if form.Get("code_verifier") != "verifier-123" {
		t.Errorf("Expected PKCE verifier in exchange, got %q", form.Get("code_verifier"))
	}
	if form.Get("client_secret") != "client-secret" {
		t.Error("Expected client credentials in the request body")
	}

	cached, ok := f.cache.Get("alice@example.com")
	if !ok {
		t.Fatal("Expected credential to be cached under the canonical email")
	}
	if cached != token {
		t.Error("Expected cached credential to be the exchanged access token")
	}
}

func TestHandleCallback_SuccessPageWithoutRedirect(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"upn": "bob@example.com"})
	f := newHandlerFixture(t, token, "")

	state, _ := f.states.GenerateState("/auth", "")
	rec := f.callback("code=auth-code&state=" + url.QueryEscape(state))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Authentication Successful") {
		t.Error("Expected success page")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected security headers on HTML responses")
	}
	if !f.cache.Has("bob@example.com") {
		t.Error("Expected credential to be cached")
	}
}

func TestHandleCallback_Errors(t *testing.T) {
	tests := []struct {
		name         string
		query        func(f *handlerFixture) string
		setup        func(f *handlerFixture)
		accessToken  string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "provider error",
			query:        func(*handlerFixture) string { return "error=access_denied&error_description=user+cancelled" },
			expectedCode: http.StatusBadRequest,
			expectedBody: "access_denied",
		},
		{
			name:         "missing code",
			query:        func(*handlerFixture) string { return "state=abc" },
			expectedCode: http.StatusBadRequest,
			expectedBody: "Code not found",
		},
		{
			name:         "missing state",
			query:        func(*handlerFixture) string { return "code=auth-code" },
			expectedCode: http.StatusBadRequest,
			expectedBody: "Code not found",
		},
		{
			name:         "unknown state",
			query:        func(*handlerFixture) string { return "code=auth-code&state=forged" },
			expectedCode: http.StatusBadRequest,
			expectedBody: "session expired",
		},
		{
			name: "token endpoint rejects code",
			query: func(f *handlerFixture) string {
				state, _ := f.states.GenerateState("/auth", "")
				return "code=auth-code&state=" + url.QueryEscape(state)
			},
			setup: func(f *handlerFixture) {
				f.entra.mu.Lock()
				f.entra.status = http.StatusBadRequest
				f.entra.mu.Unlock()
			},
			expectedCode: http.StatusBadGateway,
			expectedBody: "Failed to exchange token",
		},
		{
			name: "token without identity claims",
			query: func(f *handlerFixture) string {
				state, _ := f.states.GenerateState("/auth", "")
				return "code=auth-code&state=" + url.QueryEscape(state)
			},
			accessToken:  "not-a-jwt",
			expectedCode: http.StatusUnauthorized,
			expectedBody: "authenticate again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, tt.accessToken, "https://github.com/copilot")
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := f.callback(tt.query(f))

			if rec.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
			if rec.Header().Get("Location") != "" {
				t.Error("Expected no redirect on failure")
			}
			if f.cache.Len() != 0 {
				t.Error("Expected nothing cached on failure")
			}
		})
	}
}

func TestHandleCallback_LogsCarryRequestID(t *testing.T) {
	var logs bytes.Buffer
	logging.Init(logging.LevelDebug, logging.FormatText, &logs)
	t.Cleanup(func() { logging.Init(logging.LevelInfo, logging.FormatText, io.Discard) })

	f := newHandlerFixture(t, "", "")
	req := httptest.NewRequest(http.MethodGet, "/callback?state=abc", nil)
	req = req.WithContext(logging.ContextWithRequestID(req.Context(), "req-1234"))
	rec := httptest.NewRecorder()
	f.handler.HandleCallback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if !strings.Contains(logs.String(), "request_id=req-1234") {
		t.Errorf("Expected OAuth log line to carry the request ID, got %q", logs.String())
	}
}

func TestHandleCallback_StateIsSingleUse(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "alice@example.com"})
	f := newHandlerFixture(t, token, "https://github.com/copilot")

	state, _ := f.states.GenerateState("/auth", "")
	query := "code=auth-code&state=" + url.QueryEscape(state)

	if rec := f.callback(query); rec.Code != http.StatusFound {
		t.Fatalf("Expected first callback to succeed, got %d", rec.Code)
	}
	if rec := f.callback(query); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected replayed callback to be rejected, got %d", rec.Code)
	}
}

func TestHandleCallback_ErrorPageEscapesInput(t *testing.T) {
	f := newHandlerFixture(t, "", "")

	rec := f.callback("error=" + url.QueryEscape("<script>alert(1)</script>"))

	if strings.Contains(rec.Body.String(), "<script>") {
		t.Error("Expected error parameter to be HTML-escaped")
	}
}
