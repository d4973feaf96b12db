package platform

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigError signals a missing or placeholder credential. The dispatcher
// treats it as a skip, not a failure.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// AuthError signals an invalid or expired token, or a failed token
// exchange, after the single allowed refresh-and-retry cycle.
type AuthError struct {
	Platform string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error: %v", e.Platform, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError is a non-2xx provider response not classified as an auth
// rejection. It is terminal for the invocation and carries the body.
type ProviderError struct {
	Platform string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Platform, e.Status, e.Body)
}

// GraphError is the Graph API error payload, parsed once at the response
// boundary so downstream code never inspects raw provider shapes.
type GraphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
	TraceID string `json:"fbtrace_id"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph error %d/%d: %s", e.Code, e.Subcode, e.Message)
}

// parseGraphError extracts the error object from a Graph API response
// body. Returns nil when the body is not in the expected shape.
func parseGraphError(body []byte) *GraphError {
	var envelope struct {
		Error *GraphError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Error
}

// sessionExpiredSubcodes are the Graph API subcodes that signal an
// expired or invalidated session.
var sessionExpiredSubcodes = map[int]bool{
	458: true, 459: true, 460: true, 463: true, 464: true, 467: true,
}

// shouldRefreshToken decides whether a Graph API error means the page
// token has expired and the exchange chain should run. The message
// substring check is deliberately kept as-is: the provider's wording is
// as close to a contract as it offers, brittle as that is.
func shouldRefreshToken(ge *GraphError) bool {
	if ge == nil {
		return false
	}
	if ge.Code == 190 {
		return true
	}
	if sessionExpiredSubcodes[ge.Subcode] {
		return true
	}
	return strings.Contains(strings.ToLower(ge.Message), "expired")
}
