package dto

import (
	"time"

	"github.com/noah-isme/student-management/internal/models"
)

// Student is the transfer shape exchanged with the presentation layer.
// ID is nil for records that have not been persisted yet.
type Student struct {
	ID             *int64               `json:"id,omitempty"`
	FirstName      string               `json:"firstName"`
	LastName       string               `json:"lastName"`
	Email          string               `json:"email"`
	DateOfBirth    time.Time            `json:"dateOfBirth"`
	EnrollmentDate time.Time            `json:"enrollmentDate"`
	Status         models.StudentStatus `json:"status"`
}

// NewStudent returns a Student with the default Active status and today's enrollment date.
func NewStudent(clock models.Clock) Student {
	return Student{EnrollmentDate: models.Today(clock), Status: models.StudentStatusActive}
}

// ToModel copies the DTO into an entity. A nil ID maps to zero.
func (s Student) ToModel() models.Student {
	m := models.Student{
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		DateOfBirth:    models.DateOf(s.DateOfBirth),
		EnrollmentDate: models.DateOf(s.EnrollmentDate),
		Status:         s.Status,
	}
	if s.ID != nil {
		m.ID = *s.ID
	}
	return m
}

// StudentFromModel converts a persisted entity.
func StudentFromModel(m models.Student) Student {
	id := m.ID
	return Student{
		ID:             &id,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Email:          m.Email,
		DateOfBirth:    m.DateOfBirth,
		EnrollmentDate: m.EnrollmentDate,
		Status:         m.Status,
	}
}

// StudentsFromModels converts a slice of entities.
func StudentsFromModels(items []models.Student) []Student {
	out := make([]Student, 0, len(items))
	for _, m := range items {
		out = append(out, StudentFromModel(m))
	}
	return out
}
