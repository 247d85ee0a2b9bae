package dto

import (
	"time"

	"github.com/noah-isme/student-management/internal/models"
)

// Attendance is the transfer shape for attendance records.
type Attendance struct {
	ID           *int64                  `json:"id,omitempty"`
	EnrollmentID int64                   `json:"enrollmentId"`
	Date         time.Time               `json:"date"`
	Status       models.AttendanceStatus `json:"status"`

	StudentName string `json:"studentName,omitempty"`
	CourseCode  string `json:"courseCode,omitempty"`
}

// ToModel copies the DTO into an entity.
func (a Attendance) ToModel() models.Attendance {
	m := models.Attendance{
		EnrollmentID: a.EnrollmentID,
		Status:       a.Status,
	}
	if !a.Date.IsZero() {
		m.Date = models.DateOf(a.Date)
	}
	if a.ID != nil {
		m.ID = *a.ID
	}
	return m
}

// AttendanceFromModel converts a persisted entity.
func AttendanceFromModel(m models.Attendance) Attendance {
	id := m.ID
	return Attendance{ID: &id, EnrollmentID: m.EnrollmentID, Date: m.Date, Status: m.Status}
}

// AttendanceFromDetail converts a joined listing row.
func AttendanceFromDetail(d models.AttendanceDetail) Attendance {
	out := AttendanceFromModel(d.Attendance)
	out.StudentName = d.StudentFirstName + " " + d.StudentLastName
	out.CourseCode = d.CourseCode
	return out
}

// AttendanceFromDetails converts joined listing rows.
func AttendanceFromDetails(items []models.AttendanceDetail) []Attendance {
	out := make([]Attendance, 0, len(items))
	for _, d := range items {
		out = append(out, AttendanceFromDetail(d))
	}
	return out
}
