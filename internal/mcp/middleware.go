package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const tokenKey contextKey = iota

// tokenFromContext returns the bearer token captured by bearerTokenMiddleware.
func tokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// bearerTokenMiddleware copies the Authorization bearer token of HTTP
// requests into the context. Missing tokens are not rejected here: the
// backend decides which tools need a session.
func bearerTokenMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return next(ctx, method, req)
			}

			if token := bearerToken(extra.Header.Get("Authorization")); token != "" {
				ctx = context.WithValue(ctx, tokenKey, token)
			}
			return next(ctx, method, req)
		}
	}
}

// bearerToken returns the credentials of a Bearer Authorization header, or ""
// for any other scheme.
func bearerToken(auth string) string {
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == auth {
		return ""
	}
	return token
}
