// Package identity resolves the user behind each of the two credentials the
// relay sees.
//
// A GitHub token arrives with every chat request and is resolved through the
// GitHub REST API (email, else login). An Entra ID access token arrives once,
// at the end of the authorization flow, and is resolved locally from its
// claims (email, upn, oid, sub). The credential cache stores the Entra token
// under the second identity and looks it up with the first, so both resolvers
// return identities in Canonical form. The relay only works for users whose
// GitHub email or login matches one of their Entra identity claims.
package identity
