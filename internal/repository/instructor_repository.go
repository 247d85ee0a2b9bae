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

const instructorColumns = "id, first_name, last_name, email, department, hire_date"

// InstructorRepository manages persistence for instructors.
type InstructorRepository struct {
	base
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(conn Connection, opts Options) *InstructorRepository {
	return &InstructorRepository{base: newBase("instructor", conn, opts)}
}

// Create validates in and inserts a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, in dto.Instructor) (*models.Instructor, error) {
	start := time.Now()
	instructor := in.ToModel()
	instructor.ID = 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if violations := instructor.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		id, err := insert(ctx, tx,
			"INSERT INTO instructors (first_name, last_name, email, department, hire_date) VALUES (?, ?, ?, ?, ?)",
			instructor.FirstName, instructor.LastName, instructor.Email, instructor.Department, sqlDate(instructor.HireDate),
		)
		if err != nil {
			return err
		}
		instructor.ID = id
		return nil
	})
	if err := r.finish("create", start, err, "Failed to create instructor", zap.String("email", instructor.Email)); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// GetByID returns the instructor with id, or a NotFound error.
func (r *InstructorRepository) GetByID(ctx context.Context, id int64) (*models.Instructor, error) {
	start := time.Now()
	var instructor models.Instructor
	err := r.getByID(ctx, &instructor, "SELECT "+instructorColumns+" FROM instructors WHERE id = ?", "Instructor", id)
	if err := r.finish("get", start, err, "Failed to get instructor", zap.Int64("id", id)); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// GetAll lists instructors ordered by name.
func (r *InstructorRepository) GetAll(ctx context.Context) ([]models.Instructor, error) {
	start := time.Now()
	instructors := []models.Instructor{}
	err := r.selectAll(ctx, &instructors, "SELECT "+instructorColumns+" FROM instructors ORDER BY last_name, first_name, id")
	if err := r.finish("list", start, err, "Failed to load instructors"); err != nil {
		return []models.Instructor{}, err
	}
	return instructors, nil
}

// Update rewrites the instructor identified by in.ID after validating it.
func (r *InstructorRepository) Update(ctx context.Context, in dto.Instructor) error {
	start := time.Now()
	if in.ID == nil {
		return r.finish("update", start, missingID("Instructor"), "Failed to update instructor")
	}
	instructor := in.ToModel()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireExisting(ctx, tx, "instructors", "Instructor", instructor.ID); err != nil {
			return err
		}
		if violations := instructor.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE instructors SET first_name = ?, last_name = ?, email = ?, department = ?, hire_date = ? WHERE id = ?"),
			instructor.FirstName, instructor.LastName, instructor.Email, instructor.Department,
			sqlDate(instructor.HireDate), instructor.ID,
		)
		return err
	})
	return r.finish("update", start, err, "Failed to update instructor", zap.Int64("id", instructor.ID))
}

// Delete removes an instructor. Their courses stay, with no instructor assigned.
func (r *InstructorRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.deleteByID(ctx, "instructors", "Instructor", id)
	return r.finish("delete", start, err, "Failed to delete instructor", zap.Int64("id", id))
}

// Search matches query against name, email and department.
func (r *InstructorRepository) Search(ctx context.Context, query string) ([]models.Instructor, error) {
	start := time.Now()
	pattern := likePattern(query)
	instructors := []models.Instructor{}
	err := r.selectAll(ctx, &instructors,
		"SELECT "+instructorColumns+` FROM instructors
WHERE LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(department) LIKE ? ESCAPE '!'
ORDER BY last_name, first_name, id`,
		pattern, pattern, pattern, pattern,
	)
	if err := r.finish("search", start, err, "Failed to search instructors", zap.String("query", query)); err != nil {
		return []models.Instructor{}, err
	}
	return instructors, nil
}
