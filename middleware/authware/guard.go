package authware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrOwnerNotFound signals that the resource an ownership guard protects
// does not exist. Resolvers return it so the guard can answer 404 instead
// of 403, which would confirm the resource exists.
var ErrOwnerNotFound = errors.New("authware: resource owner not found")

// OwnerResolver reports the identifier of the principal that owns the
// resource addressed by the request, typically from a path parameter.
type OwnerResolver func(c *fiber.Ctx) (string, error)

// RequireAuthenticated rejects anonymous requests with 401. Requests that
// carried an invalid token never reach this guard; the authenticator
// middleware already rejected them.
func RequireAuthenticated(contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ClaimsFromContext(c, contextKey); !ok {
			return unauthorized(c, MsgUnauthorized)
		}
		return c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and authenticated
// principals below the required role with 403.
func RequireRole(contextKey, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c, contextKey)
		if !ok {
			return unauthorized(c, MsgUnauthorized)
		}

		if !claims.IsAtLeast(role) {
			return forbidden(c)
		}

		return c.Next()
	}
}

// SelfOrRole admits the owner of the addressed resource and any principal
// holding at least the given role. When the resource does not exist the
// guard answers 404 regardless of the caller's privileges.
func SelfOrRole(contextKey, role string, resolve OwnerResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c, contextKey)
		if !ok {
			return unauthorized(c, MsgUnauthorized)
		}

		// privileged callers skip the owner lookup entirely; a missing
		// resource is then the handler's 404 to report
		if claims.IsAtLeast(role) {
			return c.Next()
		}

		owner, err := resolve(c)
		if err != nil {
			if errors.Is(err, ErrOwnerNotFound) {
				return notFound(c)
			}
			return err
		}

		if owner == claims.Subject() {
			return c.Next()
		}

		return forbidden(c)
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": MsgForbidden})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": MsgNotFound})
}
