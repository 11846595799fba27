package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/autopublish/pkg/config"
)

// HeaderAPIKey is accepted as an alternative to "Authorization: Bearer".
const HeaderAPIKey = "X-API-Key"

type principalKey struct{}

// TokenAuth checks admin API bearer tokens.
type TokenAuth struct {
	tokens []config.APIToken
	logger *slog.Logger
}

// NewTokenAuth returns nil when cfg configures no tokens, which leaves the
// API open.
func NewTokenAuth(cfg *config.ServerConfig) *TokenAuth {
	tokens := append([]config.APIToken(nil), cfg.APITokens...)
	if cfg.APIToken != "" {
		tokens = append(tokens, config.APIToken{Name: "env", Token: cfg.APIToken})
	}
	if len(tokens) == 0 {
		return nil
	}
	return &TokenAuth{
		tokens: tokens,
		logger: slog.Default().With("component", "server.auth"),
	}
}

// Authenticate returns the name of the token matching the request.
func (a *TokenAuth) Authenticate(r *http.Request) (string, bool) {
	presented := extractToken(r)
	if presented == "" {
		return "", false
	}
	name, ok := "", false
	// No early exit: every token is compared.
	for _, tok := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(tok.Token)) == 1 && !tok.Disabled {
			name, ok = tok.Name, true
		}
	}
	return name, ok
}

// Handle rejects requests without a valid token with 401.
func (a *TokenAuth) Handle(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := a.Authenticate(r)
		if !ok {
			a.logger.WarnContext(r.Context(), "rejected API request",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="autopublish"`)
			writeError(w, http.StatusUnauthorized, ErrorTypeUnauthorized, "missing or invalid API token", "")
			return
		}
		a.logger.DebugContext(r.Context(), "API request authenticated", "principal", name, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, name)))
	})
}

// Principal returns the token name that authenticated the request.
func Principal(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.Header.Get(HeaderAPIKey)
}
