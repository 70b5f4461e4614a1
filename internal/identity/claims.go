package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names consulted by ClaimsDecoder, in priority order.
const (
	ClaimEmail    = "email"
	ClaimUPN      = "upn"
	ClaimObjectID = "oid"
	ClaimSubject  = "sub"
)

var claimOrder = []string{ClaimEmail, ClaimUPN, ClaimObjectID, ClaimSubject}

// ClaimsDecoder extracts an identity from an Entra ID access token.
//
// The signature is not verified. The token comes straight from the Entra
// token endpoint over TLS during the authorization-code exchange, and it is
// only used to pick the cache key.
type ClaimsDecoder struct {
	parser *jwt.Parser
}

// NewClaimsDecoder creates a decoder.
func NewClaimsDecoder() *ClaimsDecoder {
	return &ClaimsDecoder{parser: jwt.NewParser()}
}

// Decode returns the first non-empty of the email, upn, oid and sub claims.
func (d *ClaimsDecoder) Decode(token string) (string, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return "", err
	}

	values := make([]string, 0, len(claimOrder))
	for _, name := range claimOrder {
		if s, ok := claims[name].(string); ok {
			values = append(values, s)
		}
	}

	if identity := firstNonEmpty(values...); identity != "" {
		return identity, nil
	}
	return "", ErrNoIdentity
}

// Claims returns the unverified claim set of token.
func (d *ClaimsDecoder) Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}
	return claims, nil
}
