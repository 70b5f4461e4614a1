package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrNoIdentity is returned when a token carries no usable identity.
var ErrNoIdentity = errors.New("no identity found in token")

// Resolver maps a caller credential to a user identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Canonical is the form every resolver returns identities in: surrounding
// whitespace removed and lower-cased. The credential cache is keyed by the
// Entra side and looked up by the GitHub side, so both must agree on it.
func Canonical(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// firstNonEmpty returns the canonical form of the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if c := Canonical(v); c != "" {
			return c
		}
	}
	return ""
}
