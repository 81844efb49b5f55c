// Package authware intercepts every inbound request once, extracts a bearer
// token, validates it, and establishes a request-scoped authenticated
// principal or rejects the request. Requests without a token continue as
// anonymous; route guards decide whether anonymous access is acceptable.
package authware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Client facing rejection bodies. They are machine distinguishable so
// clients can tell an expired token from a hostile one without the server
// leaking internals.
const (
	MsgTokenExpired = "Token has expired"
	MsgTokenInvalid = "Invalid token"
	MsgAuthFailed   = "Authentication failed"
	MsgUnauthorized = "Unauthorized"
	MsgForbidden    = "Forbidden"
	MsgNotFound     = "Not found"
)

// AuthClaims mirrors the claims interface from the root package without
// importing it, to avoid cycles.
type AuthClaims interface {
	Subject() string
	Username() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
}

// TokenValidator validates a raw token and returns structured claims.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// IdentityLoader re-resolves the principal behind validated claims. A lookup
// failure means the user no longer exists; the request is rejected with a
// generic 401 rather than surfacing store detail.
type IdentityLoader func(ctx context.Context, claims AuthClaims) (any, error)

// ContextEnricher propagates claims and identity into the standard Go
// context for downstream guards and handlers.
type ContextEnricher func(ctx context.Context, claims AuthClaims, identity any) context.Context

type Logger interface {
	Error(format string, args ...any)
}

type Config struct {
	// Filter returns true for requests that bypass authentication entirely,
	// e.g. the auth endpoints themselves or API doc paths.
	Filter func(*fiber.Ctx) bool

	// TokenValidator is required.
	TokenValidator TokenValidator

	// IdentityLoader is optional; when set, validated claims are resolved to
	// a stored principal before the request proceeds.
	IdentityLoader IdentityLoader

	// ContextEnricher is optional.
	ContextEnricher ContextEnricher

	// ContextKey is the locals key claims are stored under. Default "auth".
	ContextKey string

	// AuthScheme is the expected Authorization scheme. Default "Bearer".
	AuthScheme string

	Logger Logger
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "auth"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	if cfg.TokenValidator == nil {
		panic("authware: Config.TokenValidator is required")
	}

	return cfg
}

// New builds the request authenticator middleware. It runs exactly once per
// request; terminal states are authenticated-then-dispatched or
// rejected-with-response.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, ok := tokenFromHeader(c, cfg.AuthScheme)
		if !ok {
			// no token: stay anonymous so public endpoints remain reachable
			return c.Next()
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return rejectToken(c, err)
		}

		var identity any
		if cfg.IdentityLoader != nil {
			identity, err = cfg.IdentityLoader(c.UserContext(), claims)
			if err != nil {
				// the subject may have been deleted after issuance; never
				// surface store detail to the client
				cfg.Logger.Error("authware identity load failed", "subject", claims.Subject(), "error", err)
				return unauthorized(c, MsgAuthFailed)
			}
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims, identity))
		}

		return c.Next()
	}
}

// ClaimsFromContext extracts the validated claims the middleware stored for
// this request. The second return is false for anonymous requests.
func ClaimsFromContext(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "auth"
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

func tokenFromHeader(c *fiber.Ctx, scheme string) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

// rejectToken classifies a validation failure into one of the fixed client
// bodies. Expired wins over invalid; everything structurally broken or
// tampered collapses into "Invalid token"; anything unrecognized degrades to
// the generic body rather than leaking error text.
func rejectToken(c *fiber.Ctx, err error) error {
	switch {
	case isExpiredError(err):
		return unauthorized(c, MsgTokenExpired)
	case isInvalidTokenError(err):
		return unauthorized(c, MsgTokenInvalid)
	default:
		return unauthorized(c, MsgAuthFailed)
	}
}

func isExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "token is expired") ||
		strings.Contains(msg, "token has expired")
}

func isInvalidTokenError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "signature is invalid") ||
		strings.Contains(msg, "token is malformed") ||
		strings.Contains(msg, "missing or malformed JWT") ||
		strings.Contains(msg, "token is unverifiable") ||
		strings.Contains(msg, "invalid claims")
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
