package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// redactedKeys never reach the log in clear text.
var redactedKeys = []string{"password", "token"}

func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			sessionID := safeSessionID(req)
			hasToken := tokenFromContext(ctx) != ""
			params := formatPayload(safeParams(req))
			logger.Debug("mcp traffic", "direction", direction, "stage", "request", "method", method, "session_id", sessionID, "bearer", hasToken, "params", params)

			result, err := next(ctx, method, req)
			if !strings.HasPrefix(method, "notifications/") {
				if err != nil {
					logger.Debug("mcp traffic", "direction", direction, "stage", "response", "method", method, "session_id", sessionID, "result", formatPayload(result), "error", err)
				} else {
					logger.Debug("mcp traffic", "direction", direction, "stage", "response", "method", method, "session_id", sessionID, "result", formatPayload(result))
				}
			}

			return result, err
		}
	}
}

func safeSessionID(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	defer func() { recover() }()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func safeParams(req sdkmcp.Request) any {
	if req == nil {
		return nil
	}
	defer func() { recover() }()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return redact(string(data))
}

// redact masks the string values of sensitive keys anywhere in a JSON text,
// including JSON embedded as a string such as a tool result's text content.
func redact(s string) string {
	for _, key := range redactedKeys {
		s = redactKey(s, `"`+key+`":"`, closingQuote)
		s = redactKey(s, `\"`+key+`\":\"`, closingEscapedQuote)
	}
	return s
}

func redactKey(s, needle string, closing func(string) int) string {
	var b strings.Builder
	for {
		i := strings.Index(s, needle)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i+len(needle)])
		rest := s[i+len(needle):]
		end := closing(rest)
		b.WriteString("***")
		s = rest[end:]
	}
}

// closingQuote returns the index of the unescaped quote ending a JSON string.
func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(s)
}

// closingEscapedQuote returns the index of the escaped quote (\") ending a
// JSON string that is itself embedded in a JSON string.
func closingEscapedQuote(s string) int {
	innerEscaped := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return i
		case '\\':
			if i+1 == len(s) {
				return len(s)
			}
			decoded := s[i+1]
			if decoded == '"' && !innerEscaped {
				return i
			}
			innerEscaped = decoded == '\\' && !innerEscaped
			i++
		default:
			innerEscaped = false
		}
	}
	return len(s)
}
