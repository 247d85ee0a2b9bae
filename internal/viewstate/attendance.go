package viewstate

import (
	"context"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
)

// AttendanceStore is the attendance repository as seen by the controller.
type AttendanceStore interface {
	Create(ctx context.Context, in dto.Attendance) (*models.Attendance, error)
	GetAll(ctx context.Context) ([]models.AttendanceDetail, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID int64) ([]models.AttendanceDetail, error)
	Update(ctx context.Context, in dto.Attendance) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.AttendanceDetail, error)
	FindByStatus(ctx context.Context, status models.AttendanceStatus) ([]models.AttendanceDetail, error)
}

// AttendanceController is the observable attendance list.
type AttendanceController struct {
	*Controller[dto.Attendance]
	store AttendanceStore
}

// NewAttendanceController starts a controller over store.
func NewAttendanceController(source Source, store AttendanceStore, opts Options) *AttendanceController {
	load := func(ctx context.Context) ([]dto.Attendance, error) {
		items, err := store.GetAll(ctx)
		return dto.AttendanceFromDetails(items), err
	}
	return &AttendanceController{
		Controller: NewController("attendance", source, load, "Failed to load attendance", opts),
		store:      store,
	}
}

// Create records attendance and reloads the list.
func (c *AttendanceController) Create(ctx context.Context, in dto.Attendance) error {
	return c.mutate(ctx, "Failed to record attendance", func(ctx context.Context) error {
		_, err := c.store.Create(ctx, in)
		return err
	})
}

// Update saves changes to a record and reloads the list.
func (c *AttendanceController) Update(ctx context.Context, in dto.Attendance) error {
	return c.mutate(ctx, "Failed to update attendance", func(ctx context.Context) error {
		return c.store.Update(ctx, in)
	})
}

// Delete removes a record and reloads the list.
func (c *AttendanceController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "Failed to delete attendance", func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
}

// ShowEnrollment narrows the list to one enrollment until the next reload.
func (c *AttendanceController) ShowEnrollment(ctx context.Context, enrollmentID int64) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Attendance, error) {
		items, err := c.store.GetByEnrollmentID(ctx, enrollmentID)
		return dto.AttendanceFromDetails(items), err
	}, "Failed to load attendance")
}

// Search shows the records matching query until the next reload.
func (c *AttendanceController) Search(ctx context.Context, query string) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Attendance, error) {
		items, err := c.store.Search(ctx, query)
		return dto.AttendanceFromDetails(items), err
	}, "Failed to search attendance")
}

// FilterByStatus shows the records with status until the next reload.
func (c *AttendanceController) FilterByStatus(ctx context.Context, status models.AttendanceStatus) {
	c.replace(ctx, func(ctx context.Context) ([]dto.Attendance, error) {
		items, err := c.store.FindByStatus(ctx, status)
		return dto.AttendanceFromDetails(items), err
	}, "Failed to load attendance")
}
