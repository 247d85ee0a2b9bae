package dto

import (
	"time"

	"github.com/noah-isme/student-management/internal/models"
)

// Instructor is the transfer shape for instructors.
type Instructor struct {
	ID         *int64    `json:"id,omitempty"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	HireDate   time.Time `json:"hireDate"`
}

// ToModel copies the DTO into an entity.
func (i Instructor) ToModel() models.Instructor {
	m := models.Instructor{
		FirstName:  i.FirstName,
		LastName:   i.LastName,
		Email:      i.Email,
		Department: i.Department,
		HireDate:   models.DateOf(i.HireDate),
	}
	if i.ID != nil {
		m.ID = *i.ID
	}
	return m
}

func InstructorFromModel(m models.Instructor) Instructor {
	id := m.ID
	return Instructor{
		ID:         &id,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Email:      m.Email,
		Department: m.Department,
		HireDate:   m.HireDate,
	}
}

func InstructorsFromModels(items []models.Instructor) []Instructor {
	out := make([]Instructor, 0, len(items))
	for _, m := range items {
		out = append(out, InstructorFromModel(m))
	}
	return out
}
