package app

import (
	"fmt"

	"k8s.io/utils/clock"

	"entrabridge/internal/completion"
	"entrabridge/internal/config"
	"entrabridge/internal/credcache"
	"entrabridge/internal/identity"
	"entrabridge/internal/metrics"
	"entrabridge/internal/oauth"
	"entrabridge/internal/server"
	"entrabridge/pkg/logging"
)

// Services holds all initialized components of the relay.
//
// The credential cache is created here exactly once and handed to both the
// OAuth callback (which stores credentials) and the chat relay (which reads them).
type Services struct {
	Metrics     *metrics.Registry
	Credentials *credcache.Cache
	States      *oauth.StateStore
	Server      *server.Server
}

// InitializeServices creates and wires every component of the relay.
func InitializeServices(cfg *config.RelayConfig) (*Services, error) {
	return initializeServices(cfg, clock.RealClock{})
}

func initializeServices(cfg *config.RelayConfig, clk clock.WithTicker) (*Services, error) {
	reg := metrics.NewRegistry()

	prompt, err := completion.NewPromptTemplate(cfg.Completion.SystemPrompt)
	if err != nil {
		return nil, err
	}

	githubResolver, err := identity.NewGitHubResolver(cfg.GitHub.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub resolver: %w", err)
	}

	cache := credcache.New(identity.NewClaimsDecoder(), credcache.Options{
		TTL:           cfg.Cache.TTL.Std(),
		SweepInterval: cfg.Cache.SweepInterval.Std(),
		Clock:         clk,
		Verbose:       cfg.Logging.Verbose,
		Metrics:       reg.Cache,
	})

	states := oauth.NewStateStoreWithClock(clk, oauth.DefaultStateExpiry)

	oauthClient := oauth.NewClient(oauth.ClientConfig{
		ClientID:     cfg.Entra.ClientID,
		ClientSecret: cfg.Entra.ClientSecret,
		RedirectURI:  cfg.Entra.RedirectURI,
		AuthorizeURL: cfg.Entra.AuthorizeURL,
		TokenURL:     cfg.Entra.TokenURL,
		Scopes:       cfg.Entra.Scopes,
	})

	srv, err := server.New(server.Options{
		Addr:         cfg.ListenAddr(),
		PublicURL:    cfg.Server.PublicURL,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Credentials:  cache,
		Resolver:     githubResolver,
		OAuth:        oauth.NewHandler(oauthClient, states, cache, cfg.GitHub.RedirectURL),
		Completion: completion.NewClient(cfg.Completion.Endpoint, cfg.Completion.Model,
			completion.WithMetrics(reg)),
		Prompt:  prompt,
		Metrics: reg,
		Clock:   clk,
	})
	if err != nil {
		cache.Stop()
		states.Stop()
		return nil, err
	}

	logging.Info("Bootstrap", "Credential cache ready (ttl=%v, sweep=%v)", cache.TTL(), cfg.Cache.SweepInterval)
	logging.Info("Bootstrap", "Entra ID tenant %s, redirect URI %s, scopes %q",
		cfg.Entra.TenantID, oauthClient.RedirectURI(), oauthClient.Scopes())
	logging.Info("Bootstrap", "Relaying to %s (model %s)", cfg.Completion.Endpoint, cfg.Completion.Model)

	return &Services{
		Metrics:     reg,
		Credentials: cache,
		States:      states,
		Server:      srv,
	}, nil
}

// Stop stops the background sweepers.
func (s *Services) Stop() {
	s.States.Stop()
	s.Credentials.Stop()
}
