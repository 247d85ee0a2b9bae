package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
)

const courseColumns = "id, course_code, title, description, credits, instructor_id, max_students, status"

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	base
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(conn Connection, opts Options) *CourseRepository {
	return &CourseRepository{base: newBase("course", conn, opts)}
}

// Create validates and inserts a course. A set instructor must exist.
func (r *CourseRepository) Create(ctx context.Context, in dto.Course) (*models.Course, error) {
	start := time.Now()
	course := in.ToModel()
	course.ID = 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if course.InstructorID != nil {
			if err := requireReference(ctx, tx, "instructors", "Instructor", *course.InstructorID); err != nil {
				return err
			}
		}
		if violations := course.Validate(); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		id, err := insert(ctx, tx,
			`INSERT INTO courses (course_code, title, description, credits, instructor_id, max_students, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			course.CourseCode, course.Title, course.Description, course.Credits,
			course.InstructorID, course.MaxStudents, course.Status,
		)
		if err != nil {
			return err
		}
		course.ID = id
		return nil
	})
	if err := r.finish("create", start, err, "Failed to create course", zap.String("course_code", course.CourseCode)); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByID returns the course with id.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	start := time.Now()
	var course models.Course
	err := r.getByID(ctx, &course, "SELECT "+courseColumns+" FROM courses WHERE id = ?", "Course", id)
	if err := r.finish("get", start, err, "Failed to get course", zap.Int64("id", id)); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetAll lists courses ordered by code.
func (r *CourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	start := time.Now()
	courses := []models.Course{}
	err := r.selectAll(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY course_code")
	if err := r.finish("list", start, err, "Failed to load courses"); err != nil {
		return []models.Course{}, err
	}
	return courses, nil
}

// Update re-validates and persists an existing course.
func (r *CourseRepository) Update(ctx context.Context, in dto.Course) error {
	start := time.Now()
	if in.ID == nil {
		return r.finish("update", start, missingID("Course"), "Failed to update course")
	}
	course := in.ToModel()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireExisting(ctx, tx, "courses", "Course", course.ID); err != nil {
			return err
		}
		if course.InstructorID != nil {
			if err := requireReference(ctx, tx, "instructors", "Instructor", *course.InstructorID); err != nil {
				return err
			}
		}
		if violations := course.Validate(); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE courses SET course_code = ?, title = ?, description = ?, credits = ?, instructor_id = ?, max_students = ?, status = ?
WHERE id = ?`),
			course.CourseCode, course.Title, course.Description, course.Credits,
			course.InstructorID, course.MaxStudents, course.Status, course.ID,
		)
		return err
	})
	return r.finish("update", start, err, "Failed to update course", zap.Int64("id", course.ID))
}

// Delete removes a course and, through the schema, its enrollments.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.deleteByID(ctx, "courses", "Course", id)
	return r.finish("delete", start, err, "Failed to delete course", zap.Int64("id", id))
}

// Search matches query against code, title and description.
func (r *CourseRepository) Search(ctx context.Context, query string) ([]models.Course, error) {
	start := time.Now()
	pattern := likePattern(query)
	courses := []models.Course{}
	err := r.selectAll(ctx, &courses,
		"SELECT "+courseColumns+` FROM courses
WHERE LOWER(course_code) LIKE ? ESCAPE '!' OR LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'
ORDER BY course_code`,
		pattern, pattern, pattern,
	)
	if err := r.finish("search", start, err, "Failed to search courses", zap.String("query", query)); err != nil {
		return []models.Course{}, err
	}
	return courses, nil
}

// FindByStatus lists courses in status.
func (r *CourseRepository) FindByStatus(ctx context.Context, status models.CourseStatus) ([]models.Course, error) {
	start := time.Now()
	courses := []models.Course{}
	err := r.selectAll(ctx, &courses, "SELECT "+courseColumns+" FROM courses WHERE status = ? ORDER BY course_code", status)
	if err := r.finish("find_by_status", start, err, "Failed to load courses", zap.String("status", string(status))); err != nil {
		return []models.Course{}, err
	}
	return courses, nil
}
