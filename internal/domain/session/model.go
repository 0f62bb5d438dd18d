package session

import "strings"

// TokenPrefix is prepended to a user id to form its session token.
const TokenPrefix = "mock-token-"

// TokenFor derives the session token for a user id. Tokens are not signed:
// anyone who knows a user id can forge one.
func TokenFor(userID string) string {
	return TokenPrefix + userID
}

// UserIDFromToken extracts the user id embedded in a token. It splits on the
// prefix and returns the segment after the first occurrence; tokens without
// the prefix yield "" and false.
func UserIDFromToken(token string) (string, bool) {
	_, userID, found := strings.Cut(token, TokenPrefix)
	if !found {
		return "", false
	}
	if i := strings.Index(userID, TokenPrefix); i >= 0 {
		userID = userID[:i]
	}
	return userID, true
}
