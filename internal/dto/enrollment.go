package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/student-management/internal/models"
)

// Enrollment is the transfer shape for enrollments. Grade is nil when ungraded.
type Enrollment struct {
	ID             *int64                  `json:"id,omitempty"`
	StudentID      int64                   `json:"studentId"`
	CourseID       int64                   `json:"courseId"`
	EnrollmentDate time.Time               `json:"enrollmentDate"`
	Grade          *decimal.Decimal        `json:"grade,omitempty"`
	Status         models.EnrollmentStatus `json:"status"`

	StudentName string `json:"studentName,omitempty"`
	CourseCode  string `json:"courseCode,omitempty"`
	CourseTitle string `json:"courseTitle,omitempty"`
}

// NewEnrollment returns an Enrollment with the default Enrolled status dated today.
func NewEnrollment(clock models.Clock, studentID, courseID int64) Enrollment {
	return Enrollment{
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: models.Today(clock),
		Status:         models.EnrollmentStatusEnrolled,
	}
}

// ToModel copies the DTO into an entity.
func (e Enrollment) ToModel() models.Enrollment {
	m := models.Enrollment{
		StudentID:      e.StudentID,
		CourseID:       e.CourseID,
		EnrollmentDate: models.DateOf(e.EnrollmentDate),
		Status:         e.Status,
	}
	if e.ID != nil {
		m.ID = *e.ID
	}
	if e.Grade != nil {
		m.Grade = decimal.NewNullDecimal(*e.Grade)
	}
	return m
}

// EnrollmentFromModel converts a persisted entity.
func EnrollmentFromModel(m models.Enrollment) Enrollment {
	id := m.ID
	out := Enrollment{
		ID:             &id,
		StudentID:      m.StudentID,
		CourseID:       m.CourseID,
		EnrollmentDate: m.EnrollmentDate,
		Status:         m.Status,
	}
	if m.Grade.Valid {
		g := m.Grade.Decimal
		out.Grade = &g
	}
	return out
}

// EnrollmentFromDetail converts a joined listing row.
func EnrollmentFromDetail(d models.EnrollmentDetail) Enrollment {
	out := EnrollmentFromModel(d.Enrollment)
	out.StudentName = d.StudentFirstName + " " + d.StudentLastName
	out.CourseCode = d.CourseCode
	out.CourseTitle = d.CourseTitle
	return out
}

// EnrollmentsFromDetails converts joined listing rows.
func EnrollmentsFromDetails(items []models.EnrollmentDetail) []Enrollment {
	out := make([]Enrollment, 0, len(items))
	for _, d := range items {
		out = append(out, EnrollmentFromDetail(d))
	}
	return out
}
