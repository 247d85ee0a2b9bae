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
	attendanceColumns = "id, enrollment_id, date, status"

	attendanceDetailSelect = `SELECT a.id, a.enrollment_id, a.date, a.status,
e.student_id AS student_id, s.first_name AS student_first_name, s.last_name AS student_last_name,
e.course_id AS course_id, c.course_code AS course_code
FROM attendance a
JOIN enrollments e ON e.id = a.enrollment_id
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`

	attendanceDetailOrder = " ORDER BY a.date DESC, s.last_name, s.first_name, a.id"
)

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	base
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(conn Connection, opts Options) *AttendanceRepository {
	return &AttendanceRepository{base: newBase("attendance", conn, opts)}
}

// Create inserts an attendance record. A second record for the same enrollment
// and date is rejected by the storage uniqueness constraint.
func (r *AttendanceRepository) Create(ctx context.Context, in dto.Attendance) (*models.Attendance, error) {
	start := time.Now()
	record := in.ToModel()
	record.ID = 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireReference(ctx, tx, "enrollments", "Enrollment", record.EnrollmentID); err != nil {
			return err
		}
		if violations := record.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		id, err := insert(ctx, tx,
			"INSERT INTO attendance (enrollment_id, date, status) VALUES (?, ?, ?)",
			record.EnrollmentID, sqlDate(record.Date), record.Status,
		)
		if err != nil {
			return err
		}
		record.ID = id
		return nil
	})
	if err := r.finish("create", start, err, "Failed to create attendance record",
		zap.Int64("enrollment_id", record.EnrollmentID),
		zap.Time("date", record.Date),
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByID returns the attendance record with id, or a NotFound error.
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.Attendance, error) {
	start := time.Now()
	var record models.Attendance
	err := r.getByID(ctx, &record, "SELECT "+attendanceColumns+" FROM attendance WHERE id = ?", "Attendance record", id)
	if err := r.finish("get", start, err, "Failed to get attendance record", zap.Int64("id", id)); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetAll lists every attendance record with its student and course.
func (r *AttendanceRepository) GetAll(ctx context.Context) ([]models.AttendanceDetail, error) {
	return r.listDetails(ctx, "list", "Failed to load attendance", "")
}

// GetByEnrollmentID lists the attendance of one enrollment, newest first.
func (r *AttendanceRepository) GetByEnrollmentID(ctx context.Context, enrollmentID int64) ([]models.AttendanceDetail, error) {
	return r.listDetails(ctx, "get_by_enrollment", "Failed to load attendance", " WHERE a.enrollment_id = ?", enrollmentID)
}

// FindByStatus lists the records marked with status.
func (r *AttendanceRepository) FindByStatus(ctx context.Context, status models.AttendanceStatus) ([]models.AttendanceDetail, error) {
	return r.listDetails(ctx, "find_by_status", "Failed to load attendance", " WHERE a.status = ?", status)
}

// Search matches query against the student's name, the course code and the status.
func (r *AttendanceRepository) Search(ctx context.Context, query string) ([]models.AttendanceDetail, error) {
	p := likePattern(query)
	return r.listDetails(ctx, "search", "Failed to search attendance",
		" WHERE LOWER(s.first_name) LIKE ? ESCAPE '!' OR LOWER(s.last_name) LIKE ? ESCAPE '!' OR LOWER(c.course_code) LIKE ? ESCAPE '!' OR LOWER(a.status) LIKE ? ESCAPE '!'",
		p, p, p, p,
	)
}

func (r *AttendanceRepository) listDetails(ctx context.Context, op, fallback, where string, args ...interface{}) ([]models.AttendanceDetail, error) {
	start := time.Now()
	items := []models.AttendanceDetail{}
	err := r.selectAll(ctx, &items, attendanceDetailSelect+where+attendanceDetailOrder, args...)
	if err := r.finish(op, start, err, fallback, zap.Int("count", len(items))); err != nil {
		return []models.AttendanceDetail{}, err
	}
	return items, nil
}

// Update rewrites the record identified by in.ID after validating it.
func (r *AttendanceRepository) Update(ctx context.Context, in dto.Attendance) error {
	start := time.Now()
	if in.ID == nil {
		return r.finish("update", start, missingID("Attendance record"), "Failed to update attendance record")
	}
	record := in.ToModel()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireExisting(ctx, tx, "attendance", "Attendance record", record.ID); err != nil {
			return err
		}
		if err := requireReference(ctx, tx, "enrollments", "Enrollment", record.EnrollmentID); err != nil {
			return err
		}
		if violations := record.Validate(r.clock); len(violations) > 0 {
			return apperrors.Validation(violations)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE attendance SET enrollment_id = ?, date = ?, status = ? WHERE id = ?"),
			record.EnrollmentID, sqlDate(record.Date), record.Status, record.ID,
		)
		return err
	})
	return r.finish("update", start, err, "Failed to update attendance record", zap.Int64("id", record.ID))
}

// Delete removes the attendance record with id.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.deleteByID(ctx, "attendance", "Attendance record", id)
	return r.finish("delete", start, err, "Failed to delete attendance record", zap.Int64("id", id))
}
