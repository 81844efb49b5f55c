package taskapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TaskController exposes the task CRUD endpoints. All routes sit behind the
// authenticated group; new tasks are bound to the calling principal.
type TaskController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewTaskController(repo RepositoryManager, logger Logger) *TaskController {
	if logger == nil {
		logger = defLogger{}
	}
	return &TaskController{
		Repo:   repo,
		Logger: logger,
	}
}

// TaskPayload is the create and update request body. Update treats empty
// fields as keep-current.
type TaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Validate will run validation rules
func (r TaskPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.Status, validation.In(
			string(TaskStatusPending),
			string(TaskStatusInProcess),
			string(TaskStatusCompleted),
		)),
	)
}

// ValidateUpdate relaxes the required rules so partial updates parse
func (r TaskPayload) ValidateUpdate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.Status, validation.In(
			string(TaskStatusPending),
			string(TaskStatusInProcess),
			string(TaskStatusCompleted),
		)),
	)
}

func (t *TaskController) List(c *fiber.Ctx) error {
	if c.QueryBool("mine") {
		ac, ok := AuthFromContext(c.UserContext())
		if !ok || ac.Claims == nil {
			return fiber.ErrUnauthorized
		}
		ownerID, err := uuid.Parse(ac.Claims.Subject())
		if err != nil {
			return fiber.ErrUnauthorized
		}
		records, err := t.Repo.Tasks().ListByOwner(c.UserContext(), ownerID)
		if err != nil {
			return err
		}
		return c.JSON(records)
	}

	records, err := t.Repo.Tasks().ListTasks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (t *TaskController) Create(c *fiber.Ctx) error {
	payload := new(TaskPayload)

	if err := c.BodyParser(payload); err != nil {
		t.Logger.Error("create task parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	record := &Task{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      TaskStatus(payload.Status),
	}

	// the caller owns what it creates
	if ac, ok := AuthFromContext(c.UserContext()); ok && ac.Claims != nil {
		if ownerID, err := uuid.Parse(ac.Claims.Subject()); err == nil {
			record.UserID = ownerID
		}
	}

	record, err := t.Repo.Tasks().CreateTask(c.UserContext(), record)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (t *TaskController) Show(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrTaskNotFound
	}

	record, err := t.Repo.Tasks().GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (t *TaskController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrTaskNotFound
	}

	payload := new(TaskPayload)
	if err := c.BodyParser(payload); err != nil {
		t.Logger.Error("update task parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.ValidateUpdate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	// existence first so updates on absent records answer 404
	if _, err := t.Repo.Tasks().GetTask(c.UserContext(), id); err != nil {
		return err
	}

	record := &Task{
		ID:          id,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      TaskStatus(payload.Status),
	}

	record, err = t.Repo.Tasks().UpdateTask(c.UserContext(), record)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (t *TaskController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrTaskNotFound
	}

	if err := t.Repo.Tasks().DeleteByIDSoft(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (t *TaskController) ListByStatus(c *fiber.Ctx) error {
	status := TaskStatus(c.Params("status"))
	if !IsValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}

	records, err := t.Repo.Tasks().ListByStatus(c.UserContext(), status)
	if err != nil {
		return err
	}

	return c.JSON(records)
}

func (t *TaskController) Search(c *fiber.Ctx) error {
	keyword := c.Query("keyword")

	records, err := t.Repo.Tasks().SearchByTitle(c.UserContext(), keyword)
	if err != nil {
		return err
	}

	return c.JSON(records)
}
