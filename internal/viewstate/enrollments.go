package viewstate

import (
	"context"
	"strings"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/observable"
)

var errNoCourse = apperrors.Clone(apperrors.ErrInvalidArgument, "No course selected")

// EnrollmentStore is the enrollment repository as seen by the controller.
type EnrollmentStore interface {
	Create(ctx context.Context, in dto.Enrollment) (*models.Enrollment, error)
	GetByCourseID(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
	GetUnenrolledStudentsForCourse(ctx context.Context, courseID int64) ([]models.Student, error)
	Update(ctx context.Context, in dto.Enrollment) error
	Delete(ctx context.Context, id int64) error
}

// EnrollmentController is the observable enrollment list of one course, together
// with the students that can still be enrolled in it.
type EnrollmentController struct {
	*Controller[dto.Enrollment]
	store      EnrollmentStore
	courseID   *int64
	unenrolled *observable.Value[[]dto.Student]
}

// NewEnrollmentController follows the enrollments of course. A nil course, or one
// without an ID, yields a controller that only reports that no course is selected.
func NewEnrollmentController(source Source, store EnrollmentStore, course *dto.Course, opts Options) *EnrollmentController {
	c := &EnrollmentController{
		store:      store,
		unenrolled: observable.NewValue([]dto.Student{}),
	}
	if course != nil && course.ID != nil {
		id := *course.ID
		c.courseID = &id
	}
	c.Controller = NewController("enrollments", source, c.refresh, "Failed to load enrollments", opts)
	return c
}

// Unenrolled returns the students not enrolled in the course.
func (c *EnrollmentController) Unenrolled() []dto.Student {
	return c.unenrolled.Get()
}

// SubscribeUnenrolled streams the unenrolled students, starting with the current list.
func (c *EnrollmentController) SubscribeUnenrolled() *observable.Subscription[[]dto.Student] {
	return c.unenrolled.Subscribe()
}

// Close stops the controller and ends every subscription.
func (c *EnrollmentController) Close() {
	c.Controller.Close()
	c.unenrolled.Close()
}

func (c *EnrollmentController) refresh(ctx context.Context) ([]dto.Enrollment, error) {
	if c.courseID == nil {
		return nil, errNoCourse
	}
	items, err := c.store.GetByCourseID(ctx, *c.courseID)
	if err != nil {
		return nil, err
	}
	students, err := c.store.GetUnenrolledStudentsForCourse(ctx, *c.courseID)
	if err != nil {
		return dto.EnrollmentsFromDetails(items), apperrors.Wrap(err, apperrors.FromError(err).Code, "Failed to load unenrolled students")
	}
	c.unenrolled.Set(dto.StudentsFromModels(students))
	return dto.EnrollmentsFromDetails(items), nil
}

// Create enrolls a student in the selected course.
func (c *EnrollmentController) Create(ctx context.Context, in dto.Enrollment) error {
	if c.courseID == nil {
		c.setError(errNoCourse.Message)
		return errNoCourse
	}
	return c.mutate(ctx, "Failed to create enrollment", func(ctx context.Context) error {
		_, err := c.store.Create(ctx, in)
		return err
	})
}

// Update changes an enrollment and refreshes both lists.
func (c *EnrollmentController) Update(ctx context.Context, in dto.Enrollment) error {
	return c.mutate(ctx, "Failed to update enrollment", func(ctx context.Context) error {
		return c.store.Update(ctx, in)
	})
}

// Delete removes an enrollment; the student becomes enrollable again.
func (c *EnrollmentController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "Failed to delete enrollment", func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
}

// SearchByStudentName shows the course's enrollments whose student full name contains name.
func (c *EnrollmentController) SearchByStudentName(ctx context.Context, name string) {
	needle := strings.ToLower(strings.TrimSpace(name))
	c.replace(ctx, func(ctx context.Context) ([]dto.Enrollment, error) {
		if c.courseID == nil {
			return nil, errNoCourse
		}
		items, err := c.store.GetByCourseID(ctx, *c.courseID)
		if err != nil {
			return nil, err
		}
		matched := []dto.Enrollment{}
		for _, e := range dto.EnrollmentsFromDetails(items) {
			if strings.Contains(strings.ToLower(e.StudentName), needle) {
				matched = append(matched, e)
			}
		}
		return matched, nil
	}, "Failed to search enrollments")
}
