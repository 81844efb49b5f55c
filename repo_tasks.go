package taskapi

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tasks interface {
	repository.Repository[*Task]

	CreateTask(ctx context.Context, record *Task) (*Task, error)
	CreateTaskTx(ctx context.Context, tx bun.IDB, record *Task) (*Task, error)

	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
	ListByStatus(ctx context.Context, status TaskStatus) ([]*Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Task, error)
	SearchByTitle(ctx context.Context, keyword string) ([]*Task, error)

	UpdateTask(ctx context.Context, record *Task) (*Task, error)
	DeleteByIDSoft(ctx context.Context, id uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (r *tasks) CreateTask(ctx context.Context, record *Task) (*Task, error) {
	return r.CreateTaskTx(ctx, r.db, record)
}

func (r *tasks) CreateTaskTx(ctx context.Context, tx bun.IDB, record *Task) (*Task, error) {
	prepareTaskDefaults(record)

	if !IsValidTaskStatus(record.Status) {
		return nil, ErrInvalidTaskStatus.Clone().
			WithMetadata(map[string]any{"status": record.Status})
	}

	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *tasks) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	record := &Task{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTaskNotFound.Clone().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (r *tasks) ListTasks(ctx context.Context) ([]*Task, error) {
	var records []*Task
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *tasks) ListByStatus(ctx context.Context, status TaskStatus) ([]*Task, error) {
	if !IsValidTaskStatus(status) {
		return nil, ErrInvalidTaskStatus.Clone().
			WithMetadata(map[string]any{"status": status})
	}

	var records []*Task
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *tasks) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Task, error) {
	var records []*Task
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *tasks) SearchByTitle(ctx context.Context, keyword string) ([]*Task, error) {
	keyword = strings.TrimSpace(keyword)

	var records []*Task
	err := r.db.NewSelect().
		Model(&records).
		Where("LOWER(?TableAlias.title) LIKE ?", "%"+strings.ToLower(keyword)+"%").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateTask merges the non-empty fields of record into the stored task.
func (r *tasks) UpdateTask(ctx context.Context, record *Task) (*Task, error) {
	existing, err := r.GetTask(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(record.Title); title != "" {
		existing.Title = title
	}

	if record.Description != "" {
		existing.Description = record.Description
	}

	if record.Status != "" {
		if !IsValidTaskStatus(record.Status) {
			return nil, ErrInvalidTaskStatus.Clone().
				WithMetadata(map[string]any{"status": record.Status})
		}
		existing.Status = record.Status
	}

	return r.Repository.Update(ctx, existing, repository.UpdateByID(existing.ID.String()))
}

func (r *tasks) DeleteByIDSoft(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Task)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTaskNotFound.Clone().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareTaskDefaults(record *Task) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = TaskStatusPending
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
