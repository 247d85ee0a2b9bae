package viewstate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-management/internal/dbmanager"
	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
)

type fakeEnrollmentStore struct {
	details    []models.EnrollmentDetail
	unenrolled []models.Student
	created    []dto.Enrollment
	loads      atomic.Int32
}

func (f *fakeEnrollmentStore) Create(_ context.Context, in dto.Enrollment) (*models.Enrollment, error) {
	f.created = append(f.created, in)
	e := in.ToModel()
	return &e, nil
}

func (f *fakeEnrollmentStore) GetByCourseID(context.Context, int64) ([]models.EnrollmentDetail, error) {
	f.loads.Add(1)
	return f.details, nil
}

func (f *fakeEnrollmentStore) GetUnenrolledStudentsForCourse(context.Context, int64) ([]models.Student, error) {
	return f.unenrolled, nil
}

func (f *fakeEnrollmentStore) Update(context.Context, dto.Enrollment) error { return nil }

func (f *fakeEnrollmentStore) Delete(context.Context, int64) error { return nil }

func enrollmentFixture() *fakeEnrollmentStore {
	detail := func(id int64, first, last string) models.EnrollmentDetail {
		return models.EnrollmentDetail{
			Enrollment:       models.Enrollment{ID: id, StudentID: id, CourseID: 5, Status: models.EnrollmentStatusEnrolled},
			StudentFirstName: first,
			StudentLastName:  last,
			CourseCode:       "CS101",
		}
	}
	return &fakeEnrollmentStore{
		details:    []models.EnrollmentDetail{detail(1, "Ahmed", "Hosny"), detail(2, "Sara", "Adel")},
		unenrolled: []models.Student{{ID: 3, FirstName: "Omar", LastName: "Fathy"}},
	}
}

func TestEnrollmentControllerLoadsCourse(t *testing.T) {
	id := int64(5)
	store := enrollmentFixture()
	c := NewEnrollmentController(newFakeSource(true), store, &dto.Course{ID: &id, CourseCode: "CS101"}, Options{})
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return len(c.State().Items) == 2 }, waitFor, 10*time.Millisecond)
	require.Len(t, c.Unenrolled(), 1)
	assert.Equal(t, "Omar", c.Unenrolled()[0].FirstName)
	assert.Equal(t, "Ahmed Hosny", c.State().Items[0].StudentName)

	c.SearchByStudentName(context.Background(), " sara ")
	require.Len(t, c.State().Items, 1)
	assert.Equal(t, int64(2), c.State().Items[0].StudentID)
}

func TestEnrollmentControllerWithoutCourse(t *testing.T) {
	source := newFakeSource(true)
	store := enrollmentFixture()
	c := NewEnrollmentController(source, store, nil, Options{})
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return c.State().Error == "No course selected" }, waitFor, 10*time.Millisecond)
	assert.Empty(t, c.State().Items)

	err := c.Create(context.Background(), dto.NewEnrollment(models.SystemClock{}, 3, 5))
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestEnrollmentControllerResetReloads(t *testing.T) {
	id := int64(5)
	source := newFakeSource(true)
	store := enrollmentFixture()
	c := NewEnrollmentController(source, store, &dto.Course{ID: &id}, Options{})
	t.Cleanup(c.Close)
	require.Eventually(t, func() bool { return len(c.State().Items) == 2 }, waitFor, 10*time.Millisecond)

	before := store.loads.Load()
	source.emit(dbmanager.EventResetCompleted, true, "Database reset successfully")

	require.Eventually(t, func() bool { return store.loads.Load() > before }, waitFor, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		s := c.State()
		return len(s.Items) == 2 && !s.Loading && s.Error == ""
	}, waitFor, 10*time.Millisecond)
}
