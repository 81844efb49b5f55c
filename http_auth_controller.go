package taskapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AuthController exposes the credential exchange endpoints. Both routes stay
// outside the token middleware so expired clients can recover.
type AuthController struct {
	Logger Logger
	Auth   Authenticator
}

func NewAuthController(auth Authenticator, logger Logger) *AuthController {
	if logger == nil {
		logger = defLogger{}
	}
	return &AuthController{
		Auth:   auth,
		Logger: logger,
	}
}

// RegisterPayload is the signup request body
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 20)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 50), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 40)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	msg := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if _, err := a.Auth.Register(c.UserContext(), msg); err != nil {
		// duplicate checks are client facing; the collision message tells
		// the caller which field to change
		if errors.Is(err, ErrDuplicateUsername) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": ErrDuplicateUsername.Message,
			})
		}
		if errors.Is(err, ErrDuplicateEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": ErrDuplicateEmail.Message,
			})
		}
		a.Logger.Error("register user", "error", err)
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User registered successfully!",
	})
}

// LoginPayload is the signin request body
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	token, err := a.Auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Error("login failed", "identifier", payload.Username, "error", err)
		if errors.Is(err, ErrTooManyLoginAttempts) {
			return err
		}
		// unknown user and wrong password produce the same response
		return ErrMismatchedHashAndPassword
	}

	return c.JSON(fiber.Map{
		"token": token,
		"type":  "Bearer",
	})
}
