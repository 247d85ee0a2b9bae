package viewstate

import (
	"context"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
)

// CourseStore is the course repository as seen by the controller.
type CourseStore interface {
	Create(ctx context.Context, in dto.Course) (*models.Course, error)
	GetAll(ctx context.Context) ([]models.Course, error)
	Update(ctx context.Context, in dto.Course) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.Course, error)
	FindByStatus(ctx context.Context, status models.CourseStatus) ([]models.Course, error)
}

// CourseController is the observable course list.
type CourseController struct {
	*Controller[dto.Course]
	store CourseStore
}

// NewCourseController starts a controller over store.
func NewCourseController(source Source, store CourseStore, opts Options) *CourseController {
	load := func(ctx context.Context) ([]dto.Course, error) {
		items, err := store.GetAll(ctx)
		return dto.CoursesFromModels(items), err
	}
	return &CourseController{
		Controller: NewController("courses", source, load, "Failed to load courses", opts),
		store:      store,
	}
}

// Create adds a course and reloads the list.
func (c *CourseController) Create(ctx context.Context, in dto.Course) error {
	return c.mutate(ctx, "Failed to create course", func(ctx context.Context) error {
		_, err := c.store.Create(ctx, in)
		return err
	})
}

// Update saves changes to a course and reloads the list.
func (c *CourseController) Update(ctx context.Context, in dto.Course) error {
	return c.mutate(ctx, "Failed to update course", func(ctx context.Context) error {
		return c.store.Update(ctx, in)
	})
}

// Delete removes a course and reloads the list.
func (c *CourseController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "Failed to delete course", func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
}

// Search shows the courses matching query until the next reload.
func (c *CourseController) Search(ctx context.Context, query string) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Course, error) {
		items, err := c.store.Search(ctx, query)
		return dto.CoursesFromModels(items), err
	}, "Failed to search courses")
}

// FilterByStatus shows the courses in status until the next reload.
func (c *CourseController) FilterByStatus(ctx context.Context, status models.CourseStatus) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Course, error) {
		items, err := c.store.FindByStatus(ctx, status)
		return dto.CoursesFromModels(items), err
	}, "Failed to load courses")
}
