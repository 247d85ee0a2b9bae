package viewstate

import (
	"context"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
)

// InstructorStore is the instructor repository as seen by the controller.
type InstructorStore interface {
	Create(ctx context.Context, in dto.Instructor) (*models.Instructor, error)
	GetAll(ctx context.Context) ([]models.Instructor, error)
	Update(ctx context.Context, in dto.Instructor) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.Instructor, error)
}

// InstructorController is the observable instructor list.
type InstructorController struct {
	*Controller[dto.Instructor]
	store InstructorStore
}

// NewInstructorController starts a controller over store.
func NewInstructorController(source Source, store InstructorStore, opts Options) *InstructorController {
	load := func(ctx context.Context) ([]dto.Instructor, error) {
		items, err := store.GetAll(ctx)
		return dto.InstructorsFromModels(items), err
	}
	return &InstructorController{
		Controller: NewController("instructors", source, load, "Failed to load instructors", opts),
		store:      store,
	}
}

// Create adds an instructor and reloads the list.
func (c *InstructorController) Create(ctx context.Context, in dto.Instructor) error {
	return c.mutate(ctx, "Failed to create instructor", func(ctx context.Context) error {
		_, err := c.store.Create(ctx, in)
		return err
	})
}

// Update saves changes to an instructor and reloads the list.
func (c *InstructorController) Update(ctx context.Context, in dto.Instructor) error {
	return c.mutate(ctx, "Failed to update instructor", func(ctx context.Context) error {
		return c.store.Update(ctx, in)
	})
}

// Delete removes an instructor and reloads the list.
func (c *InstructorController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "Failed to delete instructor", func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
}

// Search shows the instructors matching query until the next reload.
func (c *InstructorController) Search(ctx context.Context, query string) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Instructor, error) {
		items, err := c.store.Search(ctx, query)
		return dto.InstructorsFromModels(items), err
	}, "Failed to search instructors")
}
