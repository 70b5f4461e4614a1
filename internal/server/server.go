package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"entrabridge/internal/completion"
	"entrabridge/internal/identity"
	"entrabridge/internal/metrics"
	"entrabridge/internal/oauth"
	"entrabridge/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds a whole response, including a relayed completion stream.
	DefaultWriteTimeout = 10 * time.Minute
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultMaxBodyBytes limits /chat request bodies.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// Credentials is the read side of the credential cache.
type Credentials interface {
	Get(identity string) (string, bool)
	Has(identity string) bool
}

// Completer streams chat completions.
type Completer interface {
	Stream(ctx context.Context, messages []completion.Message, token string) (io.ReadCloser, error)
	Model() string
}

// Options holds the collaborators of a Server.
type Options struct {
	// Addr is the host:port to listen on.
	Addr string
	// PublicURL is the externally reachable base URL of the relay.
	PublicURL    string
	MaxBodyBytes int64

	Credentials Credentials
	Resolver    identity.Resolver
	OAuth       *oauth.Handler
	Completion  Completer
	Prompt      *completion.PromptTemplate
	Metrics     *metrics.Registry

	// Clock provides the time system prompts are rendered with.
	Clock clock.PassiveClock
}

// Server serves the relay endpoints.
type Server struct {
	addr         string
	publicURL    string
	maxBodyBytes int64

	credentials Credentials
	resolver    identity.Resolver
	oauth       *oauth.Handler
	completion  Completer
	prompt      *completion.PromptTemplate
	metrics     *metrics.Registry
	clock       clock.PassiveClock

	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	errCh      chan error
}

// New creates a server. Credentials, Resolver, OAuth and Completion are required.
func New(opts Options) (*Server, error) {
	switch {
	case opts.Credentials == nil:
		return nil, errors.New("server: credentials are required")
	case opts.Resolver == nil:
		return nil, errors.New("server: identity resolver is required")
	case opts.OAuth == nil:
		return nil, errors.New("server: oauth handler is required")
	case opts.Completion == nil:
		return nil, errors.New("server: completion client is required")
	}

	prompt := opts.Prompt
	if prompt == nil {
		var err error
		if prompt, err = completion.NewPromptTemplate(""); err != nil {
			return nil, err
		}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}

	s := &Server{
		addr:         opts.Addr,
		publicURL:    opts.PublicURL,
		maxBodyBytes: opts.MaxBodyBytes,
		credentials:  opts.Credentials,
		resolver:     opts.Resolver,
		oauth:        opts.OAuth,
		completion:   opts.Completion,
		prompt:       prompt,
		metrics:      opts.Metrics,
		clock:        opts.Clock,
	}
	s.handler = requestLogger(s.createMux())
	return s, nil
}

// createMux registers all relay routes.
func (s *Server) createMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /chat", s.instrument("chat", s.handleChat))
	mux.Handle("GET /auth", s.instrument("auth", s.oauth.HandleAuthorize))
	mux.Handle("GET /github-redirect", s.instrument("github_redirect", s.oauth.HandleAuthorize))
	mux.Handle("GET /callback", s.instrument("callback", s.oauth.HandleCallback))
	mux.Handle("GET /auth/status", s.instrument("auth_status", s.handleAuthStatus))
	mux.Handle("GET /health", s.instrument("health", s.handleHealth))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /{$}", s.instrument("root", s.handleRoot))

	return mux
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// AuthURL is the sign-in link handed to chat users without a credential.
func (s *Server) AuthURL() string {
	return s.publicURL + "/auth"
}

// Start binds the listen address and serves in the background.
// Serve errors are reported on Errors.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.errCh = make(chan error, 1)
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	go func(srv *http.Server, errCh chan<- error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}(s.httpServer, s.errCh)

	logging.Info("HTTP", "Listening on %s (public URL %s)", ln.Addr(), s.publicURL)
	return nil
}

// Addr returns the bound address once started, or the configured address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Errors reports a failure of the serve loop. It is closed when the loop ends
// and is nil before Start.
func (s *Server) Errors() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
