package viewstate

import (
	"context"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
)

// StudentStore is the student repository as seen by the controller.
type StudentStore interface {
	Create(ctx context.Context, in dto.Student) (*models.Student, error)
	GetAll(ctx context.Context) ([]models.Student, error)
	Update(ctx context.Context, in dto.Student) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.Student, error)
	FindByStatus(ctx context.Context, status models.StudentStatus) ([]models.Student, error)
}

// StudentController is the observable student list.
type StudentController struct {
	*Controller[dto.Student]
	store StudentStore
}

// NewStudentController starts a controller over store.
func NewStudentController(source Source, store StudentStore, opts Options) *StudentController {
	load := func(ctx context.Context) ([]dto.Student, error) {
		items, err := store.GetAll(ctx)
		return dto.StudentsFromModels(items), err
	}
	return &StudentController{
		Controller: NewController("students", source, load, "Failed to load students", opts),
		store:      store,
	}
}

// Create adds a student and reloads the list.
func (c *StudentController) Create(ctx context.Context, in dto.Student) error {
	return c.mutate(ctx, "Failed to create student", func(ctx context.Context) error {
		_, err := c.store.Create(ctx, in)
		return err
	})
}

// Update saves changes to a student and reloads the list.
func (c *StudentController) Update(ctx context.Context, in dto.Student) error {
	return c.mutate(ctx, "Failed to update student", func(ctx context.Context) error {
		return c.store.Update(ctx, in)
	})
}

// Delete removes a student and reloads the list.
func (c *StudentController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "Failed to delete student", func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
}

// Search shows the students matching query until the next reload.
func (c *StudentController) Search(ctx context.Context, query string) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Student, error) {
		items, err := c.store.Search(ctx, query)
		return dto.StudentsFromModels(items), err
	}, "Failed to search students")
}

// FilterByStatus shows the students in status until the next reload.
func (c *StudentController) FilterByStatus(ctx context.Context, status models.StudentStatus) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Student, error) {
		items, err := c.store.FindByStatus(ctx, status)
		return dto.StudentsFromModels(items), err
	}, "Failed to load students")
}
