package credcache

import (
	"errors"
	"fmt"
)

// IdentityResolutionError is returned by Store when no identity can be derived
// from the secondary token. Nothing is stored when it occurs, and retrying with
// the same token cannot succeed.
type IdentityResolutionError struct {
	Err error
}

func (e *IdentityResolutionError) Error() string {
	if e.Err == nil {
		return "could not extract user identifier from token"
	}
	return fmt.Sprintf("could not extract user identifier from token: %v", e.Err)
}

func (e *IdentityResolutionError) Unwrap() error {
	return e.Err
}

// IsIdentityResolutionError reports whether err is, or wraps, an IdentityResolutionError.
func IsIdentityResolutionError(err error) bool {
	var target *IdentityResolutionError
	return errors.As(err, &target)
}
