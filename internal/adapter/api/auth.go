package api

import (
	"crypto/subtle"
	"strings"
)

// TokenMatches reports whether an authorization value carries token.
// Both "<token>" and "Bearer <token>" are accepted; an empty token never matches.
func TokenMatches(authorization, token string) bool {
	got := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if got == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
