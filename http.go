package taskapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-taskapi/middleware/authware"
)

// RouterDeps collects the collaborators the HTTP surface needs. All fields
// are required unless noted.
type RouterDeps struct {
	Auth   Authenticator
	Tokens TokenService
	Repo   RepositoryManager
	Cfg    Config
	Logger Logger // optional
}

// RegisterRoutes mounts the request authenticator plus the auth, task, and
// user controllers on the app. Auth endpoints bypass token validation so
// that expired clients can always re-authenticate.
func RegisterRoutes(app *fiber.App, deps RouterDeps) {
	if deps.Logger == nil {
		deps.Logger = defLogger{}
	}

	contextKey := deps.Cfg.GetContextKey()

	app.Use(authware.New(authware.Config{
		Filter: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/auth/")
		},
		TokenValidator: validatorAdapter{deps.Tokens},
		IdentityLoader: func(ctx context.Context, claims authware.AuthClaims) (any, error) {
			ac, ok := claims.(AuthClaims)
			if !ok {
				return nil, ErrIdentityNotFound
			}
			return deps.Auth.IdentityFromClaims(ctx, ac)
		},
		ContextEnricher: func(ctx context.Context, claims authware.AuthClaims, identity any) context.Context {
			ac, _ := claims.(AuthClaims)
			id, _ := identity.(Identity)
			ctx = WithClaimsContext(ctx, ac)
			return WithAuthContext(ctx, &AuthContext{Claims: ac, Identity: id})
		},
		ContextKey: contextKey,
		AuthScheme: deps.Cfg.GetAuthScheme(),
		Logger:     deps.Logger,
	}))

	authCtrl := NewAuthController(deps.Auth, deps.Logger)
	taskCtrl := NewTaskController(deps.Repo, deps.Logger)
	userCtrl := NewUserController(deps.Repo, deps.Logger)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authCtrl.Register)
	authGroup.Post("/login", authCtrl.Login)

	tasks := api.Group("/tasks", authware.RequireAuthenticated(contextKey))
	tasks.Get("/", taskCtrl.List)
	tasks.Post("/", taskCtrl.Create)
	tasks.Get("/search", taskCtrl.Search)
	tasks.Get("/status/:status", taskCtrl.ListByStatus)
	tasks.Get("/:id", taskCtrl.Show)
	tasks.Put("/:id", taskCtrl.Update)
	tasks.Delete("/:id", taskCtrl.Delete)

	users := api.Group("/users", authware.RequireAuthenticated(contextKey))
	users.Get("/me", userCtrl.Me)
	users.Get("/", authware.RequireRole(contextKey, RoleAdmin), userCtrl.List)
	users.Get("/:id", authware.SelfOrRole(contextKey, RoleAdmin, userOwnerResolver(deps.Repo)), userCtrl.Show)
	users.Put("/:id", authware.SelfOrRole(contextKey, RoleAdmin, userOwnerResolver(deps.Repo)), userCtrl.Update)
	users.Delete("/:id", authware.RequireRole(contextKey, RoleAdmin), userCtrl.Delete)
}

// userOwnerResolver maps the :id path segment to the principal that owns the
// user record, which is the record itself.
func userOwnerResolver(repo RepositoryManager) authware.OwnerResolver {
	return func(c *fiber.Ctx) (string, error) {
		user, err := repo.Users().GetByIdentifier(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.IsNotFound(err) {
				return "", authware.ErrOwnerNotFound
			}
			return "", err
		}
		return user.ID.String(), nil
	}
}

type validatorAdapter struct {
	svc TokenValidator
}

func (v validatorAdapter) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := v.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewHTTPErrorHandler builds the app-level fiber error handler. Rich errors
// map through their category to a status code and a fixed-shape body; raw
// library error text never reaches the client.
func NewHTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
		}

		status := statusForCategory(richErr.Category)

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"category", richErr.Category,
				"text_code", richErr.TextCode,
				"path", c.Path(),
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			return c.Status(status).JSON(fiber.Map{
				"error": "An unexpected server error occurred",
			})
		}

		return c.Status(status).JSON(fiber.Map{
			"error": richErr.Message,
		})
	}
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
