package strings

import (
	"strings"
)

// MinTruncateLen is the minimum maxLen value for Truncate.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// identityPrefixLength is the number of characters of an identity kept by MaskIdentity.
const identityPrefixLength = 3

// Truncate collapses all whitespace into single spaces and cuts the result to
// maxLen runes, ending in "..." when something was removed. It is used for
// single-line previews of upstream response bodies in log output.
//
// If maxLen is less than MinTruncateLen it is clamped to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// MaskIdentity hides most of a user identity for log output.
//
//	MaskIdentity("alice@example.com") // "ali***@example.com"
//	MaskIdentity("octocat")           // "oct***"
//	MaskIdentity("ab")                // "***"
func MaskIdentity(identity string) string {
	local, domain, hasDomain := strings.Cut(identity, "@")

	runes := []rune(local)
	masked := "***"
	if len(runes) > identityPrefixLength {
		masked = string(runes[:identityPrefixLength]) + "***"
	}

	if hasDomain {
		return masked + "@" + domain
	}
	return masked
}
