package session

import "errors"

var (
	// ErrNoToken indicates a session operation was attempted without a token.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken indicates the token doesn't resolve to a stored user.
	ErrInvalidToken = errors.New("invalid token")
)

// IsSessionError reports whether err means the caller's session is gone and
// the local session pointer should be cleared.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrInvalidToken)
}
