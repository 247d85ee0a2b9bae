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

const studentColumns = "id, first_name, last_name, email, date_of_birth, enrollment_date, status"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	base
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(conn Connection, opts Options) *StudentRepository {
	return &StudentRepository{base: newBase("student", conn, opts)}
}

// Create validates and inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, in dto.Student) (*models.Student, error) {
	start := time.Now()
	student := in.ToModel()
	student.ID = 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if violations := student.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		id, err := insert(ctx, tx,
			`INSERT INTO students (first_name, last_name, email, date_of_birth, enrollment_date, status)
VALUES (?, ?, ?, ?, ?, ?)`,
			student.FirstName, student.LastName, student.Email,
			sqlDate(student.DateOfBirth), sqlDate(student.EnrollmentDate), student.Status,
		)
		if err != nil {
			return err
		}
		student.ID = id
		return nil
	})
	if err := r.finish("create", start, err, "Failed to create student", zap.String("email", student.Email)); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByID returns the student with id.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	start := time.Now()
	var student models.Student
	err := r.getByID(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = ?", "Student", id)
	if err := r.finish("get", start, err, "Failed to get student", zap.Int64("id", id)); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetAll lists students ordered by name.
func (r *StudentRepository) GetAll(ctx context.Context) ([]models.Student, error) {
	start := time.Now()
	students := []models.Student{}
	err := r.selectAll(ctx, &students, "SELECT "+studentColumns+" FROM students ORDER BY last_name, first_name, id")
	if err := r.finish("list", start, err, "Failed to load students"); err != nil {
		return []models.Student{}, err
	}
	return students, nil
}

// Update re-validates and persists every field of an existing student.
func (r *StudentRepository) Update(ctx context.Context, in dto.Student) error {
	start := time.Now()
	if in.ID == nil {
		return r.finish("update", start, missingID("Student"), "Failed to update student")
	}
	student := in.ToModel()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireExisting(ctx, tx, "students", "Student", student.ID); err != nil {
			return err
		}
		if violations := student.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE students SET first_name = ?, last_name = ?, email = ?, date_of_birth = ?, enrollment_date = ?, status = ?
WHERE id = ?`),
			student.FirstName, student.LastName, student.Email,
			sqlDate(student.DateOfBirth), sqlDate(student.EnrollmentDate), student.Status, student.ID,
		)
		return err
	})
	return r.finish("update", start, err, "Failed to update student", zap.Int64("id", student.ID))
}

// Delete removes a student; enrollments and attendance cascade at the storage layer.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.deleteByID(ctx, "students", "Student", id)
	return r.finish("delete", start, err, "Failed to delete student", zap.Int64("id", id))
}

// Search matches query case-insensitively against first name, last name and email.
func (r *StudentRepository) Search(ctx context.Context, query string) ([]models.Student, error) {
	start := time.Now()
	pattern := likePattern(query)
	students := []models.Student{}
	err := r.selectAll(ctx, &students,
		"SELECT "+studentColumns+` FROM students
WHERE LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'
ORDER BY last_name, first_name, id`,
		pattern, pattern, pattern,
	)
	if err := r.finish("search", start, err, "Failed to search students", zap.String("query", query)); err != nil {
		return []models.Student{}, err
	}
	return students, nil
}

// FindByStatus lists students in status.
func (r *StudentRepository) FindByStatus(ctx context.Context, status models.StudentStatus) ([]models.Student, error) {
	start := time.Now()
	students := []models.Student{}
	err := r.selectAll(ctx, &students, "SELECT "+studentColumns+" FROM students WHERE status = ? ORDER BY last_name, first_name, id", status)
	if err := r.finish("find_by_status", start, err, "Failed to load students", zap.String("status", string(status))); err != nil {
		return []models.Student{}, err
	}
	return students, nil
}
