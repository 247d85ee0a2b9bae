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

const (
	enrollmentColumns = "id, student_id, course_id, enrollment_date, grade, status"

	enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.grade, e.status,
s.first_name AS student_first_name, s.last_name AS student_last_name, s.email AS student_email,
c.course_code AS course_code, c.title AS course_title
FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`

	enrollmentDetailOrder = " ORDER BY c.course_code, s.last_name, s.first_name, e.id"
)

// EnrollmentRepository manages persistence for enrollments.
type EnrollmentRepository struct {
	base
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(conn Connection, opts Options) *EnrollmentRepository {
	return &EnrollmentRepository{base: newBase("enrollment", conn, opts)}
}

// Create inserts an enrollment after checking that the student and course exist.
func (r *EnrollmentRepository) Create(ctx context.Context, in dto.Enrollment) (*models.Enrollment, error) {
	start := time.Now()
	enrollment := in.ToModel()
	enrollment.ID = 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireReference(ctx, tx, "students", "Student", enrollment.StudentID); err != nil {
			return err
		}
		if err := requireReference(ctx, tx, "courses", "Course", enrollment.CourseID); err != nil {
			return err
		}
		if violations := enrollment.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		id, err := insert(ctx, tx,
			"INSERT INTO enrollments (student_id, course_id, enrollment_date, grade, status) VALUES (?, ?, ?, ?, ?)",
			enrollment.StudentID, enrollment.CourseID, sqlDate(enrollment.EnrollmentDate), enrollment.Grade, enrollment.Status,
		)
		if err != nil {
			return err
		}
		enrollment.ID = id
		return nil
	})
	if err := r.finish("create", start, err, "Failed to create enrollment",
		zap.Int64("student_id", enrollment.StudentID),
		zap.Int64("course_id", enrollment.CourseID),
	); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByID returns the enrollment with id, or a NotFound error.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	start := time.Now()
	var enrollment models.Enrollment
	err := r.getByID(ctx, &enrollment, "SELECT "+enrollmentColumns+" FROM enrollments WHERE id = ?", "Enrollment", id)
	if err := r.finish("get", start, err, "Failed to get enrollment", zap.Int64("id", id)); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetAll lists every enrollment with its student and course.
func (r *EnrollmentRepository) GetAll(ctx context.Context) ([]models.EnrollmentDetail, error) {
	return r.listDetails(ctx, "list", "Failed to load enrollments", "")
}

// GetByCourseID lists the enrollments of one course.
func (r *EnrollmentRepository) GetByCourseID(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	return r.listDetails(ctx, "get_by_course", "Failed to load course enrollments", " WHERE e.course_id = ?", courseID)
}

// GetByStudentID lists the enrollments of one student.
func (r *EnrollmentRepository) GetByStudentID(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	return r.listDetails(ctx, "get_by_student", "Failed to load student enrollments", " WHERE e.student_id = ?", studentID)
}

// Search matches query against the student's name and email and the course code and title.
func (r *EnrollmentRepository) Search(ctx context.Context, query string) ([]models.EnrollmentDetail, error) {
	p := likePattern(query)
	return r.listDetails(ctx, "search", "Failed to search enrollments",
		` WHERE LOWER(s.first_name) LIKE ? ESCAPE '!' OR LOWER(s.last_name) LIKE ? ESCAPE '!' OR LOWER(s.email) LIKE ? ESCAPE '!'
OR LOWER(c.course_code) LIKE ? ESCAPE '!' OR LOWER(c.title) LIKE ? ESCAPE '!'`,
		p, p, p, p, p,
	)
}

func (r *EnrollmentRepository) listDetails(ctx context.Context, op, fallback, where string, args ...interface{}) ([]models.EnrollmentDetail, error) {
	start := time.Now()
	items := []models.EnrollmentDetail{}
	err := r.selectAll(ctx, &items, enrollmentDetailSelect+where+enrollmentDetailOrder, args...)
	if err := r.finish(op, start, err, fallback, zap.Int("count", len(items))); err != nil {
		return []models.EnrollmentDetail{}, err
	}
	return items, nil
}

// GetUnenrolledStudentsForCourse lists the students with no enrollment row for courseID,
// whatever their enrollments elsewhere.
func (r *EnrollmentRepository) GetUnenrolledStudentsForCourse(ctx context.Context, courseID int64) ([]models.Student, error) {
	start := time.Now()
	students := []models.Student{}
	err := r.selectAll(ctx, &students,
		`SELECT s.id, s.first_name, s.last_name, s.email, s.date_of_birth, s.enrollment_date, s.status
FROM students s
WHERE NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.course_id = ?)
ORDER BY s.last_name, s.first_name, s.id`,
		courseID,
	)
	if err := r.finish("get_unenrolled", start, err, "Failed to load unenrolled students", zap.Int64("course_id", courseID)); err != nil {
		return []models.Student{}, err
	}
	return students, nil
}

// Update re-validates and persists an existing enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, in dto.Enrollment) error {
	start := time.Now()
	if in.ID == nil {
		return r.finish("update", start, missingID("Enrollment"), "Failed to update enrollment")
	}
	enrollment := in.ToModel()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireExisting(ctx, tx, "enrollments", "Enrollment", enrollment.ID); err != nil {
			return err
		}
		if err := requireReference(ctx, tx, "students", "Student", enrollment.StudentID); err != nil {
			return err
		}
		if err := requireReference(ctx, tx, "courses", "Course", enrollment.CourseID); err != nil {
			return err
		}
		if violations := enrollment.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE enrollments SET student_id = ?, course_id = ?, enrollment_date = ?, grade = ?, status = ? WHERE id = ?"),
			enrollment.StudentID, enrollment.CourseID, sqlDate(enrollment.EnrollmentDate),
			enrollment.Grade, enrollment.Status, enrollment.ID,
		)
		return err
	})
	return r.finish("update", start, err, "Failed to update enrollment", zap.Int64("id", enrollment.ID))
}

// Delete removes an enrollment together with its attendance.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.deleteByID(ctx, "enrollments", "Enrollment", id)
	return r.finish("delete", start, err, "Failed to delete enrollment", zap.Int64("id", id))
}
