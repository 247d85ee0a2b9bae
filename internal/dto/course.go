package dto

import "github.com/noah-isme/student-management/internal/models"

// Course is the transfer shape for courses.
type Course struct {
	ID           *int64              `json:"id,omitempty"`
	CourseCode   string              `json:"courseCode"`
	Title        string              `json:"title"`
	Description  *string             `json:"description,omitempty"`
	Credits      int                 `json:"credits"`
	InstructorID *int64              `json:"instructorId,omitempty"`
	MaxStudents  *int                `json:"maxStudents,omitempty"`
	Status       models.CourseStatus `json:"status"`
}

// NewCourse returns a Course with the default Active status.
func NewCourse() Course {
	return Course{Status: models.CourseStatusActive}
}

// ToModel copies the DTO into an entity.
func (c Course) ToModel() models.Course {
	m := models.Course{
		CourseCode:   c.CourseCode,
		Title:        c.Title,
		Description:  c.Description,
		Credits:      c.Credits,
		InstructorID: c.InstructorID,
		MaxStudents:  c.MaxStudents,
		Status:       c.Status,
	}
	if c.ID != nil {
		m.ID = *c.ID
	}
	return m
}

// CourseFromModel converts a persisted entity.
func CourseFromModel(m models.Course) Course {
	id := m.ID
	return Course{
		ID:           &id,
		CourseCode:   m.CourseCode,
		Title:        m.Title,
		Description:  m.Description,
		Credits:      m.Credits,
		InstructorID: m.InstructorID,
		MaxStudents:  m.MaxStudents,
		Status:       m.Status,
	}
}

// CoursesFromModels converts a slice of entities.
func CoursesFromModels(items []models.Course) []Course {
	out := make([]Course, 0, len(items))
	for _, m := range items {
		out = append(out, CourseFromModel(m))
	}
	return out
}
