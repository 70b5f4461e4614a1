package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/sync/singleflight"

	"entrabridge/pkg/logging"
)

// DefaultGitHubAPIURL is the public GitHub REST API.
const DefaultGitHubAPIURL = "https://api.github.com/"

// DefaultHTTPTimeout bounds a single user lookup.
const DefaultHTTPTimeout = 10 * time.Second

// GitHubResolver resolves a GitHub token to the user's email, or login when the
// email is not public.
type GitHubResolver struct {
	baseURL    *url.URL
	httpClient *http.Client

	// Concurrent chat requests from one user share one API call.
	group singleflight.Group
}

// NewGitHubResolver creates a resolver for the API at apiURL.
// An empty apiURL selects DefaultGitHubAPIURL.
func NewGitHubResolver(apiURL string) (*GitHubResolver, error) {
	if apiURL == "" {
		apiURL = DefaultGitHubAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	baseURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
	}

	return &GitHubResolver{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}, nil
}

// Resolve looks up the authenticated user for token.
func (r *GitHubResolver) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoIdentity
	}

	// The shared call outlives any single caller; it is bounded by the HTTP
	// client timeout and each caller stops waiting when its own ctx ends.
	lookupCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(tokenFingerprint(token), func() (interface{}, error) {
		return r.lookup(lookupCtx, token)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("GitHub user lookup abandoned: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			logging.Debug("Identity", "Shared GitHub user lookup with a concurrent request")
		}
		return res.Val.(string), nil
	}
}

func (r *GitHubResolver) lookup(ctx context.Context, token string) (string, error) {
	client := github.NewClient(r.httpClient).WithAuthToken(token)
	client.BaseURL = r.baseURL

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil {
			return "", fmt.Errorf("GitHub API error: status %d", errResp.Response.StatusCode)
		}
		return "", fmt.Errorf("failed to get GitHub user info: %w", err)
	}

	identity := firstNonEmpty(user.GetEmail(), user.GetLogin())
	if identity == "" {
		return "", ErrNoIdentity
	}
	return identity, nil
}

// tokenFingerprint keys singleflight calls without keeping the raw token around.
func tokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
