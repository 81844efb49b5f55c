package taskapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserController exposes account administration endpoints. Role checks and
// ownership checks run in the authware guards; handlers only deal with
// records.
type UserController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewUserController(repo RepositoryManager, logger Logger) *UserController {
	if logger == nil {
		logger = defLogger{}
	}
	return &UserController{
		Repo:   repo,
		Logger: logger,
	}
}

func (u *UserController) List(c *fiber.Ctx) error {
	records, err := u.Repo.Users().ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (u *UserController) Show(c *fiber.Ctx) error {
	record, err := u.Repo.Users().GetByIdentifier(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}
	return c.JSON(record)
}

// UpdateUserPayload carries mutable profile fields. Role is deliberately
// absent; it cannot be changed through this endpoint.
type UpdateUserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Validate will run validation rules
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(3, 20)),
		validation.Field(&r.Email, validation.Length(6, 50), is.Email),
	)
}

func (u *UserController) Update(c *fiber.Ctx) error {
	record, err := u.Repo.Users().GetByIdentifier(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	payload := new(UpdateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		u.Logger.Error("update user parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	if payload.Username != "" && payload.Username != record.Username {
		taken, err := u.Repo.Users().ExistsByUsername(c.UserContext(), payload.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateUsername
		}
		record.Username = payload.Username
	}

	if payload.Email != "" && payload.Email != record.Email {
		inUse, err := u.Repo.Users().ExistsByEmail(c.UserContext(), payload.Email)
		if err != nil {
			return err
		}
		if inUse {
			return ErrDuplicateEmail
		}
		record.Email = payload.Email
	}

	record, err = u.Repo.Users().Update(c.UserContext(), record)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (u *UserController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrIdentityNotFound
	}

	if err := u.Repo.Users().DeleteByIDSoft(c.UserContext(), id); err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (u *UserController) Me(c *fiber.Ctx) error {
	ac, ok := AuthFromContext(c.UserContext())
	if !ok || ac.Claims == nil {
		return fiber.ErrUnauthorized
	}

	record, err := u.Repo.Users().GetByIdentifier(c.UserContext(), ac.Claims.Subject())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	return c.JSON(record)
}
